package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/meetingmind/mm/internal/shared"
	"golang.org/x/oauth2"
)

func TestRefreshableTokenSource(t *testing.T) {
	t.Run("calls callback on first token fetch", func(t *testing.T) {
		var captured *oauth2.Token

		source := &refreshableTokenSource{
			source:   &mockTokenSource{token: &oauth2.Token{AccessToken: "test_token"}},
			callback: func(tok *oauth2.Token) { captured = tok },
		}

		tok, err := source.Token()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if captured == nil || captured.AccessToken != "test_token" {
			t.Errorf("expected callback with test_token, got %+v", captured)
		}
		if tok.AccessToken != "test_token" {
			t.Errorf("expected returned token to be 'test_token', got %s", tok.AccessToken)
		}
	})

	t.Run("calls callback only when token changes", func(t *testing.T) {
		calls := 0
		mock := &mockTokenSource{token: &oauth2.Token{AccessToken: "token1"}}

		source := &refreshableTokenSource{
			source:   mock,
			callback: func(*oauth2.Token) { calls++ },
			last:     "token1",
		}

		source.Token()
		source.Token()
		if calls != 0 {
			t.Errorf("expected no callback for unchanged token, got %d", calls)
		}

		mock.token = &oauth2.Token{AccessToken: "token2"}
		tok, _ := source.Token()
		if calls != 1 {
			t.Errorf("expected callback called once, got %d", calls)
		}
		if tok.AccessToken != "token2" {
			t.Errorf("expected new token, got %s", tok.AccessToken)
		}
	})

	t.Run("handles nil callback gracefully", func(t *testing.T) {
		source := &refreshableTokenSource{source: &mockTokenSource{token: &oauth2.Token{AccessToken: "test_token"}}}

		tok, err := source.Token()
		if err != nil {
			t.Fatalf("expected no error with nil callback, got %v", err)
		}
		if tok.AccessToken != "test_token" {
			t.Error("expected token to be returned despite nil callback")
		}
	})

	t.Run("propagates source errors", func(t *testing.T) {
		source := &refreshableTokenSource{
			source:   &mockTokenSource{err: errors.New("token source error")},
			callback: func(*oauth2.Token) { t.Error("callback should not be called on error") },
		}

		tok, err := source.Token()
		if err == nil || !strings.Contains(err.Error(), "token source error") {
			t.Errorf("expected source error, got %v", err)
		}
		if tok != nil {
			t.Error("expected nil token on error")
		}
	})
}

func TestTokenSource(t *testing.T) {
	ctx := context.Background()

	t.Run("Valid token is served as is", func(t *testing.T) {
		f := newFixture(t, false)
		f.storeToken(validToken())

		tok, err := f.store.TokenSource(ctx).Token()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tok.AccessToken != "stored" {
			t.Errorf("expected stored token, got %s", tok.AccessToken)
		}
		if _, _, _, refreshes := f.auth.counts(); refreshes != 0 {
			t.Errorf("expected no refresh, got %d", refreshes)
		}
	})

	t.Run("No credential", func(t *testing.T) {
		f := newFixture(t, false)
		if _, err := f.store.TokenSource(ctx).Token(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Expired without refresh token", func(t *testing.T) {
		f := newFixture(t, false)
		f.storeToken(&oauth2.Token{AccessToken: "old", Expiry: time.Now().Add(-time.Minute)})

		if _, err := f.store.TokenSource(ctx).Token(); !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("Concurrent callers share one refresh", func(t *testing.T) {
		f := newFixture(t, false)
		_ = f.store.Login(ctx, goodEmail, goodPassword)
		f.storeToken(&oauth2.Token{AccessToken: "old", RefreshToken: "refresh-1", Expiry: time.Now().Add(-time.Minute)})

		ts := f.store.TokenSource(ctx)
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				tok, err := ts.Token()
				if err != nil {
					t.Errorf("expected no error, got %v", err)
					return
				}
				if tok.AccessToken != "access-rotated" {
					t.Errorf("expected rotated token, got %s", tok.AccessToken)
				}
			}()
		}
		wg.Wait()

		if _, _, _, refreshes := f.auth.counts(); refreshes != 1 {
			t.Errorf("expected one refresh, got %d", refreshes)
		}
		if f.secrets.Token().RefreshToken != "refresh-rotated" {
			t.Errorf("expected rotated pair persisted, got %+v", f.secrets.Token())
		}
	})

	t.Run("Refresh failure keeps the session by default", func(t *testing.T) {
		f := newFixture(t, false)
		_ = f.store.Login(ctx, goodEmail, goodPassword)
		f.storeToken(&oauth2.Token{AccessToken: "old", RefreshToken: "refresh-1", Expiry: time.Now().Add(-time.Minute)})
		f.auth.refreshErr = shared.ErrInvalidCredentials

		_, err := f.store.TokenSource(ctx).Token()
		if !errors.Is(err, shared.ErrRefreshFailed) {
			t.Errorf("expected ErrRefreshFailed, got %v", err)
		}
		if !f.store.Authenticated() {
			t.Error("expected session to stay authenticated")
		}
	})

	t.Run("Rotated token from a previous session is dropped", func(t *testing.T) {
		f := newFixture(t, false)
		f.storeToken(validToken())
		gen := f.store.generation()

		f.store.Logout()
		f.store.storeRotated(gen, &oauth2.Token{AccessToken: "late"})

		if f.secrets.Token() != nil {
			t.Error("expected no credential after logout")
		}
	})
}

// mockTokenSource implements [oauth2.TokenSource] for testing
type mockTokenSource struct {
	token *oauth2.Token
	err   error
}

func (m *mockTokenSource) Token() (*oauth2.Token, error) {
	return m.token, m.err
}
