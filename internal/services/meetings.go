package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/meetingmind/mm/internal/models"
	"github.com/meetingmind/mm/internal/shared"
)

func meetingPath(id string) string {
	return "/meetings/" + url.PathEscape(id)
}

func requireID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: meeting id", shared.ErrMissingArgument)
	}
	return nil
}

// ListMeetings returns meetings, newest first.
func (c *Client) ListMeetings(ctx context.Context, opts models.ListOptions) ([]models.Meeting, error) {
	query := url.Values{}
	if opts.Skip > 0 {
		query.Set("skip", strconv.Itoa(opts.Skip))
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(min(opts.Limit, 100)))
	}
	if opts.Status != "" {
		query.Set("status_filter", string(opts.Status))
	}

	var meetings []models.Meeting
	if err := c.do(ctx, http.MethodGet, "/meetings", query, nil, &meetings); err != nil {
		return nil, err
	}
	return meetings, nil
}

// GetMeeting returns a meeting with its participants, transcripts and action items.
func (c *Client) GetMeeting(ctx context.Context, id string) (*models.MeetingDetail, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}

	var detail models.MeetingDetail
	if err := c.do(ctx, http.MethodGet, meetingPath(id), nil, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CreateMeeting creates a meeting.
func (c *Client) CreateMeeting(ctx context.Context, in models.MeetingCreate) (*models.Meeting, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	var meeting models.Meeting
	if err := c.do(ctx, http.MethodPost, "/meetings", nil, in, &meeting); err != nil {
		return nil, err
	}
	return &meeting, nil
}

// UpdateMeeting applies the non-nil fields of in to meeting id.
func (c *Client) UpdateMeeting(ctx context.Context, id string, in models.MeetingUpdate) (*models.Meeting, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if in.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", shared.ErrInvalidInput)
	}

	var meeting models.Meeting
	if err := c.do(ctx, http.MethodPut, meetingPath(id), nil, in, &meeting); err != nil {
		return nil, err
	}
	return &meeting, nil
}

// DeleteMeeting deletes meeting id.
func (c *Client) DeleteMeeting(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, meetingPath(id), nil, nil, nil)
}

// ListTranscripts returns the transcript segments of meeting id ordered by start time.
func (c *Client) ListTranscripts(ctx context.Context, id string) ([]models.Transcript, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}

	var transcripts []models.Transcript
	if err := c.do(ctx, http.MethodGet, meetingPath(id)+"/transcripts", nil, nil, &transcripts); err != nil {
		return nil, err
	}
	return transcripts, nil
}

// CreateActionItem adds an action item to meeting id.
func (c *Client) CreateActionItem(ctx context.Context, id string, in models.ActionItemCreate) (*models.ActionItem, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	in.MeetingID = id

	var item models.ActionItem
	if err := c.do(ctx, http.MethodPost, meetingPath(id)+"/action-items", nil, in, &item); err != nil {
		return nil, err
	}
	return &item, nil
}
