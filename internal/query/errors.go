package query

import (
	"fmt"

	"github.com/meetingmind/mm/internal/shared"
)

// FetchError is a failed read for Key. It is stored on the entry next to the last good data.
type FetchError struct {
	Key   Key
	Epoch uint64
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Key, e.Err)
}

// Unwrap matches [shared.ErrFetchFailed] and the fetcher's error.
func (e *FetchError) Unwrap() []error {
	return []error{shared.ErrFetchFailed, e.Err}
}

// MutationError is a failed write. Nothing was invalidated.
type MutationError struct {
	Keys []Key
	Err  error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("mutation: %v", e.Err)
}

// Unwrap matches [shared.ErrMutationFailed] and the write's error.
func (e *MutationError) Unwrap() []error {
	return []error{shared.ErrMutationFailed, e.Err}
}
