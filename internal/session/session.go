package session

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"github.com/meetingmind/mm/internal/models"
	"github.com/meetingmind/mm/internal/shared"
	"golang.org/x/oauth2"
)

// DefaultNamespace is the snapshot key used when [Opts.Namespace] is empty.
const DefaultNamespace = "auth-storage"

// AuthService is the remote side of authentication.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.LoginResult, error)
	Register(ctx context.Context, reg models.Registration) (*models.Profile, error)
	Me(ctx context.Context, tok *oauth2.Token) (*models.Profile, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// SecretStore holds the token pair. Load returns nil, nil when there is none.
type SecretStore interface {
	Load() (*oauth2.Token, error)
	Save(tok *oauth2.Token) error
	Clear() error
}

// SnapshotStore persists {status, identity}. LoadSnapshot returns [shared.ErrNotFound] when nothing was saved.
type SnapshotStore interface {
	LoadSnapshot(namespace string) (*models.Snapshot, error)
	SaveSnapshot(snap models.Snapshot) error
}

// Opts configures a [Store].
type Opts struct {
	Auth      AuthService
	Secrets   SecretStore
	Snapshots SnapshotStore
	Logger    *log.Logger
	Clock     clockwork.Clock
	Namespace string

	// StrictRefresh logs the user out when the service rejects the stored credential, instead of
	// falling back to a placeholder identity.
	StrictRefresh bool
}

// Store owns the session. All methods are safe for concurrent use; remote calls never hold the lock.
type Store struct {
	auth      AuthService
	secrets   SecretStore
	snapshots SnapshotStore
	logger    *log.Logger
	clock     clockwork.Clock
	namespace string
	strict    bool

	mu        sync.Mutex
	state     models.Session
	gen       uint64
	listeners map[int]func(models.Session)
	nextID    int

	refreshMu sync.Mutex
}

// New creates a [Store] in [models.StatusLoading].
func New(opts Opts) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	namespace := opts.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}

	return &Store{
		auth:      opts.Auth,
		secrets:   opts.Secrets,
		snapshots: opts.Snapshots,
		logger:    shared.WithLogger(logger, "component", "session"),
		clock:     clock,
		namespace: namespace,
		strict:    opts.StrictRefresh,
		state:     models.Session{Status: models.StatusLoading},
		listeners: make(map[int]func(models.Session)),
	}
}

// Current returns the session as of now.
func (s *Store) Current() models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Authenticated reports whether the session is authenticated, verified or not.
func (s *Store) Authenticated() bool {
	return s.Current().Status == models.StatusAuthenticated
}

// Subscribe registers fn to be called with the new session after every transition. The returned
// function unregisters it.
func (s *Store) Subscribe(fn func(models.Session)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Restore rehydrates the persisted snapshot for display. The session becomes authenticated only when the
// snapshot says so and a credential is still in secret storage; otherwise it stays loading until
// [Store.RefreshIdentity] resolves it.
func (s *Store) Restore() error {
	snap, err := s.snapshots.LoadSnapshot(s.namespace)
	if errors.Is(err, shared.ErrNotFound) {
		s.logger.Debug("no session snapshot", "namespace", s.namespace)
		return nil
	}
	if err != nil {
		return err
	}

	if snap.Session.Status != models.StatusAuthenticated || snap.Session.Identity == nil {
		return nil
	}

	tok, err := s.secrets.Load()
	if err != nil {
		return err
	}
	if tok == nil {
		s.logger.Debug("snapshot is authenticated but no credential is stored")
		return nil
	}

	s.mu.Lock()
	if s.state.Status != models.StatusLoading {
		s.mu.Unlock()
		return nil
	}
	next := models.Session{Status: models.StatusAuthenticated, Identity: snap.Session.Identity}
	listeners := s.setLocked(next, false)
	s.mu.Unlock()

	s.notify(listeners, next)
	return nil
}

// Login authenticates with email and password. On rejection the session becomes anonymous and any stored
// credential is removed.
func (s *Store) Login(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return &AuthError{Op: "login", Err: shared.ErrMissingCredentials}
	}

	res, err := s.auth.Login(ctx, email, password)
	if err == nil && (res == nil || res.Token == nil || res.Token.AccessToken == "") {
		err = errors.New("service returned no token")
	}
	if err != nil {
		s.logger.Warn("login failed", "email", email, "err", err)
		s.transition(models.Session{Status: models.StatusAnonymous}, true)
		return &AuthError{Op: "login", Err: err}
	}

	var identity models.Identity
	if res.Profile != nil {
		identity = models.VerifiedProfile{Profile: *res.Profile}
	} else {
		identity = models.NewLoginPlaceholder(email, s.clock.Now())
	}

	s.mu.Lock()
	s.gen++
	if err := s.secrets.Save(res.Token); err != nil {
		s.mu.Unlock()
		s.logger.Error("failed to save credential", "err", err)
		s.transition(models.Session{Status: models.StatusAnonymous}, true)
		return &AuthError{Op: "login", Err: err}
	}
	next := models.Session{Status: models.StatusAuthenticated, Identity: identity}
	listeners := s.setLocked(next, true)
	s.mu.Unlock()

	s.notify(listeners, next)
	s.logger.Info("logged in", "email", email, "verified", res.Profile != nil)
	return nil
}

// Register creates an account and then logs in with the same credentials. A rejected registration
// leaves the session as it was.
func (s *Store) Register(ctx context.Context, email, password string, fullName *string) error {
	if email == "" || password == "" {
		return &AuthError{Op: "register", Err: shared.ErrMissingCredentials}
	}

	if _, err := s.auth.Register(ctx, models.Registration{Email: email, Password: password, FullName: fullName}); err != nil {
		s.logger.Warn("registration failed", "email", email, "err", err)
		return &AuthError{Op: "register", Err: err}
	}
	s.logger.Info("registered", "email", email)

	return s.Login(ctx, email, password)
}

// Logout clears the credential and the identity. It never fails; storage errors are logged.
func (s *Store) Logout() {
	s.transition(models.Session{Status: models.StatusAnonymous}, true)
	s.logger.Info("logged out")
}

// RefreshIdentity asks the service who the stored credential belongs to. It never fails: without a
// credential the session becomes anonymous; if the fetch fails the credential is trusted and a
// placeholder identity is used, unless StrictRefresh is set and the service rejected the credential.
//
// A result that arrives after a login or logout is dropped.
func (s *Store) RefreshIdentity(ctx context.Context) {
	gen := s.generation()

	tok, err := s.secrets.Load()
	if err != nil {
		s.logger.Error("failed to load credential", "err", err)
	}
	if tok == nil {
		s.resolve(gen, models.Session{Status: models.StatusAnonymous}, false)
		return
	}

	profile, err := s.fetchProfile(ctx)
	switch {
	case err == nil:
		s.resolve(gen, models.Session{Status: models.StatusAuthenticated, Identity: models.VerifiedProfile{Profile: *profile}}, false)
	case s.strict && errors.Is(err, shared.ErrInvalidCredentials):
		s.logger.Warn("credential rejected, logging out", "err", err)
		s.resolve(gen, models.Session{Status: models.StatusAnonymous}, true)
	default:
		s.logger.Warn("profile fetch failed, trusting stored credential", "err", err)
		s.resolve(gen, models.Session{Status: models.StatusAuthenticated, Identity: models.NewRecoveryPlaceholder(s.clock.Now())}, false)
	}
}

// fetchProfile calls /auth/me with a current access token, refreshing it first if it has expired.
func (s *Store) fetchProfile(ctx context.Context) (*models.Profile, error) {
	tok, err := s.TokenSource(ctx).Token()
	if err != nil {
		return nil, err
	}
	return s.auth.Me(ctx, tok)
}

// Close unregisters every listener.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.listeners)
}

// expire ends the session after the service rejected the credential.
func (s *Store) expire(reason string) {
	s.logger.Warn("session expired", "reason", reason)
	s.transition(models.Session{Status: models.StatusAnonymous}, true)
}

func (s *Store) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// resolve applies next unless a login or logout happened since gen was read.
func (s *Store) resolve(gen uint64, next models.Session, clearSecrets bool) {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		s.logger.Debug("dropping stale identity refresh")
		return
	}
	if clearSecrets {
		s.gen++
		s.clearSecretsLocked()
	}
	listeners := s.setLocked(next, true)
	s.mu.Unlock()

	s.notify(listeners, next)
}

// transition applies next unconditionally. Moving to anonymous always clears the credential.
func (s *Store) transition(next models.Session, persist bool) {
	s.mu.Lock()
	if next.Status == models.StatusAnonymous {
		s.gen++
		s.clearSecretsLocked()
	}
	listeners := s.setLocked(next, persist)
	s.mu.Unlock()

	s.notify(listeners, next)
}

func (s *Store) clearSecretsLocked() {
	if err := s.secrets.Clear(); err != nil {
		s.logger.Error("failed to clear credential", "err", err)
	}
}

// setLocked replaces the state, persists the snapshot and returns the listeners to notify.
func (s *Store) setLocked(next models.Session, persist bool) []func(models.Session) {
	if err := next.Validate(); err != nil {
		panic(err)
	}
	s.state = next

	if persist {
		snap := models.Snapshot{Namespace: s.namespace, Session: next, UpdatedAt: s.clock.Now()}
		if err := s.snapshots.SaveSnapshot(snap); err != nil {
			s.logger.Error("failed to persist session snapshot", "err", err)
		}
	}

	listeners := make([]func(models.Session), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	return listeners
}

func (s *Store) notify(listeners []func(models.Session), next models.Session) {
	for _, fn := range listeners {
		fn(next)
	}
}
