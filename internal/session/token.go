package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/meetingmind/mm/internal/shared"
	"golang.org/x/oauth2"
)

// refreshableTokenSource wraps an [oauth2.TokenSource] and calls callback whenever the access token changes.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)

	mu   sync.Mutex
	last string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	tok, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	changed := tok.AccessToken != r.last
	r.last = tok.AccessToken
	r.mu.Unlock()

	if changed && r.callback != nil {
		r.callback(tok)
	}
	return tok, nil
}

// refresher exchanges a refresh token through the [AuthService].
type refresher struct {
	ctx          context.Context
	auth         AuthService
	refreshToken string
}

func (r *refresher) Token() (*oauth2.Token, error) {
	tok, err := r.auth.Refresh(r.ctx, r.refreshToken)
	if err != nil {
		return nil, err
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = r.refreshToken
	}
	return tok, nil
}

// storeTokenSource serves the credential held by a [Store].
type storeTokenSource struct {
	ctx   context.Context
	store *Store
}

func (ts *storeTokenSource) Token() (*oauth2.Token, error) {
	tok, err := ts.store.secrets.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}
	if tok == nil {
		return nil, shared.ErrNotAuthenticated
	}
	if tok.Valid() {
		return tok, nil
	}
	return ts.store.rotate(ts.ctx, tok)
}

// TokenSource returns a source of bearer tokens for the current credential. Remote calls made while
// refreshing use ctx.
func (s *Store) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &storeTokenSource{ctx: ctx, store: s}
}

// rotate exchanges the refresh token of an expired credential. Concurrent callers share one exchange:
// whoever gets the lock second sees the rotated pair in secret storage.
func (s *Store) rotate(ctx context.Context, expired *oauth2.Token) (*oauth2.Token, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	if cur, err := s.secrets.Load(); err == nil && cur != nil && cur.Valid() {
		return cur, nil
	}
	if expired.RefreshToken == "" {
		return nil, shared.ErrTokenExpired
	}

	gen := s.generation()
	src := &refreshableTokenSource{
		source:   oauth2.ReuseTokenSource(expired, &refresher{ctx: ctx, auth: s.auth, refreshToken: expired.RefreshToken}),
		callback: func(tok *oauth2.Token) { s.storeRotated(gen, tok) },
		last:     expired.AccessToken,
	}

	tok, err := src.Token()
	if err != nil {
		s.logger.Warn("token refresh failed", "err", err)
		if s.strict && errors.Is(err, shared.ErrInvalidCredentials) {
			s.expire("refresh rejected")
		}
		if errors.Is(err, shared.ErrRefreshFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}
	return tok, nil
}

// storeRotated persists a rotated token pair unless the session changed hands since the refresh began.
func (s *Store) storeRotated(gen uint64, tok *oauth2.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != gen {
		s.logger.Debug("dropping rotated token from a previous session")
		return
	}
	if err := s.secrets.Save(tok); err != nil {
		s.logger.Error("failed to save rotated token", "err", err)
		return
	}
	s.logger.Debug("token rotated", "expiry", tok.Expiry)
}
