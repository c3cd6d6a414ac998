package query

import "time"

// Status is the state of an entry as seen by a reader.
type Status int

const (
	// StatusIdle: no data and nothing running, e.g. a disabled read.
	StatusIdle Status = iota
	// StatusPending: a fetch is running. Data holds the last good value, if any.
	StatusPending
	// StatusSuccess: Data is the committed value. Check Stale for invalidated data not yet refetched.
	StatusSuccess
	// StatusError: the last fetch failed and nothing is running. Data holds the last good value, if any.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Result is a point-in-time view of a cache entry.
type Result struct {
	Status    Status
	Data      any
	HasData   bool
	Err       error
	Stale     bool
	Fetching  bool
	Epoch     uint64
	UpdatedAt time.Time
}

func (e *entry) result() Result {
	r := Result{
		Data:      e.data,
		HasData:   e.hasData,
		Stale:     e.stale,
		Fetching:  e.inFlight != nil,
		Epoch:     e.epoch,
		UpdatedAt: e.updatedAt,
	}
	if e.err != nil {
		r.Err = e.err
	}

	switch {
	case e.inFlight != nil:
		r.Status = StatusPending
	case e.err != nil:
		r.Status = StatusError
	case e.hasData:
		r.Status = StatusSuccess
	default:
		r.Status = StatusIdle
	}
	return r
}

// ReadOption adjusts a single read or subscription.
type ReadOption func(*readOpts)

type readOpts struct {
	enabled bool
}

// WithEnabled(false) suppresses fetching; the read returns whatever the entry holds. Use it while the key
// is not yet well formed, e.g. an empty id.
func WithEnabled(enabled bool) ReadOption {
	return func(o *readOpts) { o.enabled = enabled }
}

func readOptions(opts []ReadOption) readOpts {
	o := readOpts{enabled: true}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// As returns r.Data as T. ok is false when there is no data or it has another type.
func As[T any](r Result) (v T, ok bool) {
	if !r.HasData {
		return v, false
	}
	v, ok = r.Data.(T)
	return v, ok
}
