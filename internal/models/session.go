package models

import (
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// Status is the authentication state of a [Session].
type Status string

const (
	StatusLoading       Status = "loading"
	StatusAuthenticated Status = "authenticated"
	StatusAnonymous     Status = "anonymous"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusLoading, StatusAuthenticated, StatusAnonymous:
		return true
	}
	return false
}

// Session is the process-wide authentication state. Identity is non-nil iff Status is [StatusAuthenticated].
type Session struct {
	Status   Status
	Identity Identity
}

// Validate checks the identity/status invariant.
func (s Session) Validate() error {
	if !s.Status.Valid() {
		return fmt.Errorf("invalid session status %q", s.Status)
	}
	if (s.Identity != nil) != (s.Status == StatusAuthenticated) {
		return fmt.Errorf("session identity must be set iff status is %s (status=%s)", StatusAuthenticated, s.Status)
	}
	return nil
}

// Snapshot is the persisted subset of a [Session].
type Snapshot struct {
	Namespace string
	Session   Session
	UpdatedAt time.Time
}

// LoginResult is what a successful login returns. Profile is nil when the service returns tokens only.
type LoginResult struct {
	Token   *oauth2.Token
	Profile *Profile
}

// Registration is the body of POST /auth/register.
type Registration struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName *string `json:"full_name,omitempty"`
}
