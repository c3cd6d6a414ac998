// package meetings binds the MeetingMind meeting endpoints to the query cache
//
// Reads go through [query.Cache] under stable keys; writes go through [query.Cache.Mutate] and declare
// the keys they invalidate.
package meetings

import (
	"context"
	"fmt"

	"github.com/meetingmind/mm/internal/models"
	"github.com/meetingmind/mm/internal/query"
	"github.com/meetingmind/mm/internal/shared"
)

// API is the remote side of meetings. [services.Client] implements it.
type API interface {
	ListMeetings(ctx context.Context, opts models.ListOptions) ([]models.Meeting, error)
	GetMeeting(ctx context.Context, id string) (*models.MeetingDetail, error)
	CreateMeeting(ctx context.Context, in models.MeetingCreate) (*models.Meeting, error)
	UpdateMeeting(ctx context.Context, id string, in models.MeetingUpdate) (*models.Meeting, error)
	DeleteMeeting(ctx context.Context, id string) error
	ListTranscripts(ctx context.Context, id string) ([]models.Transcript, error)
	CreateActionItem(ctx context.Context, id string, in models.ActionItemCreate) (*models.ActionItem, error)
}

// ListKey addresses the meeting list.
func ListKey() query.Key { return query.NewKey("meetings") }

// DetailKey addresses one meeting.
func DetailKey(id string) query.Key { return query.NewKey("meeting", id) }

// TranscriptsKey addresses a meeting's transcript.
func TranscriptsKey(id string) query.Key { return query.NewKey("transcripts", id) }

// Queries reads and writes meetings through a [query.Cache].
type Queries struct {
	cache *query.Cache
	api   API
	list  models.ListOptions
}

// New creates [Queries]. list selects the page and filter used for [ListKey].
func New(cache *query.Cache, api API, list models.ListOptions) *Queries {
	return &Queries{cache: cache, api: api, list: list}
}

func (q *Queries) listFetcher() query.Fetcher {
	return func(ctx context.Context) (any, error) {
		return q.api.ListMeetings(ctx, q.list)
	}
}

func (q *Queries) detailFetcher(id string) query.Fetcher {
	return func(ctx context.Context) (any, error) {
		return q.api.GetMeeting(ctx, id)
	}
}

func (q *Queries) transcriptsFetcher(id string) query.Fetcher {
	return func(ctx context.Context) (any, error) {
		return q.api.ListTranscripts(ctx, id)
	}
}

// List returns the meeting list, fetching it if it is missing or stale.
func (q *Queries) List(ctx context.Context) ([]models.Meeting, error) {
	v, err := q.cache.Fetch(ctx, ListKey(), q.listFetcher())
	if err != nil {
		return nil, err
	}
	return v.([]models.Meeting), nil
}

// Get returns one meeting with participants, transcripts and action items.
func (q *Queries) Get(ctx context.Context, id string) (*models.MeetingDetail, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: meeting id", shared.ErrMissingArgument)
	}
	v, err := q.cache.Fetch(ctx, DetailKey(id), q.detailFetcher(id))
	if err != nil {
		return nil, err
	}
	return v.(*models.MeetingDetail), nil
}

// Transcripts returns the transcript segments of meeting id.
func (q *Queries) Transcripts(ctx context.Context, id string) ([]models.Transcript, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: meeting id", shared.ErrMissingArgument)
	}
	v, err := q.cache.Fetch(ctx, TranscriptsKey(id), q.transcriptsFetcher(id))
	if err != nil {
		return nil, err
	}
	return v.([]models.Transcript), nil
}

// WatchList subscribes fn to the meeting list.
func (q *Queries) WatchList(fn func(query.Result)) (cancel func()) {
	return q.cache.Subscribe(ListKey(), q.listFetcher(), fn)
}

// WatchMeeting subscribes fn to meeting id. An empty id subscribes without fetching.
func (q *Queries) WatchMeeting(id string, fn func(query.Result)) (cancel func()) {
	return q.cache.Subscribe(DetailKey(id), q.detailFetcher(id), fn, query.WithEnabled(id != ""))
}

// WatchTranscripts subscribes fn to the transcript of meeting id. An empty id subscribes without fetching.
func (q *Queries) WatchTranscripts(id string, fn func(query.Result)) (cancel func()) {
	return q.cache.Subscribe(TranscriptsKey(id), q.transcriptsFetcher(id), fn, query.WithEnabled(id != ""))
}

// RefreshList marks the meeting list stale. Watchers refetch it at once.
func (q *Queries) RefreshList() {
	q.cache.Invalidate(ListKey())
}

// RefreshMeeting marks meeting id and its transcript stale.
func (q *Queries) RefreshMeeting(id string) {
	q.cache.Invalidate(DetailKey(id))
	q.cache.Invalidate(TranscriptsKey(id))
}

// Create creates a meeting and invalidates the list.
func (q *Queries) Create(ctx context.Context, in models.MeetingCreate) (*models.Meeting, error) {
	v, err := q.cache.Mutate(ctx, func(ctx context.Context) (any, error) {
		return q.api.CreateMeeting(ctx, in)
	}, ListKey())
	if err != nil {
		return nil, err
	}
	return v.(*models.Meeting), nil
}

// Update changes meeting id and invalidates the list and the meeting.
func (q *Queries) Update(ctx context.Context, id string, in models.MeetingUpdate) (*models.Meeting, error) {
	v, err := q.cache.Mutate(ctx, func(ctx context.Context) (any, error) {
		return q.api.UpdateMeeting(ctx, id, in)
	}, ListKey(), DetailKey(id))
	if err != nil {
		return nil, err
	}
	return v.(*models.Meeting), nil
}

// Delete removes meeting id and invalidates the list and the meeting.
func (q *Queries) Delete(ctx context.Context, id string) error {
	_, err := q.cache.Mutate(ctx, func(ctx context.Context) (any, error) {
		return nil, q.api.DeleteMeeting(ctx, id)
	}, ListKey(), DetailKey(id))
	return err
}

// AddActionItem adds an action item to meeting id. Every meeting detail is invalidated, along with the list.
func (q *Queries) AddActionItem(ctx context.Context, id string, in models.ActionItemCreate) (*models.ActionItem, error) {
	v, err := q.cache.Mutate(ctx, func(ctx context.Context) (any, error) {
		return q.api.CreateActionItem(ctx, id, in)
	}, query.NewKey("meeting"), ListKey())
	if err != nil {
		return nil, err
	}
	return v.(*models.ActionItem), nil
}
