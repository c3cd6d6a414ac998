package session

import (
	"fmt"

	"github.com/meetingmind/mm/internal/shared"
)

// AuthError is returned by [Store.Login] and [Store.Register] when the credential was rejected or the
// service could not be reached. It matches [shared.ErrAuthFailed] and the underlying cause.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() []error {
	return []error{shared.ErrAuthFailed, e.Err}
}
