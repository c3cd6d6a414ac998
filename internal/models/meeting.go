package models

import (
	"fmt"
	"strings"
	"time"
)

// MeetingStatus is the lifecycle state of a [Meeting].
type MeetingStatus string

const (
	MeetingScheduled  MeetingStatus = "scheduled"
	MeetingInProgress MeetingStatus = "in_progress"
	MeetingCompleted  MeetingStatus = "completed"
	MeetingFailed     MeetingStatus = "failed"
)

// ParseMeetingStatus validates s as a [MeetingStatus].
func ParseMeetingStatus(s string) (MeetingStatus, error) {
	switch st := MeetingStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case MeetingScheduled, MeetingInProgress, MeetingCompleted, MeetingFailed:
		return st, nil
	}
	return "", fmt.Errorf("unknown meeting status %q", s)
}

// Meeting is a recorded or scheduled meeting.
type Meeting struct {
	ID               string        `json:"id"`
	OrganizationID   string        `json:"organization_id"`
	Title            string        `json:"title"`
	Description      *string       `json:"description"`
	ExternalID       *string       `json:"external_id"`
	Platform         *string       `json:"platform"`
	Status           MeetingStatus `json:"status"`
	ScheduledAt      *Timestamp    `json:"scheduled_at"`
	StartedAt        *Timestamp    `json:"started_at"`
	EndedAt          *Timestamp    `json:"ended_at"`
	DurationSeconds  *int          `json:"duration_seconds"`
	RecordingURL     *string       `json:"recording_url"`
	TranscriptStatus string        `json:"transcript_status"`
	AnalysisStatus   string        `json:"analysis_status"`
	Summary          *string       `json:"summary"`
	KeyTopics        []string      `json:"key_topics"`
	SentimentScore   *float64      `json:"sentiment_score"`
	CreatedAt        Timestamp     `json:"created_at"`
	UpdatedAt        Timestamp     `json:"updated_at"`
}

// Duration returns the recorded length in seconds, or 0 if unknown.
func (m Meeting) Duration() int {
	if m.DurationSeconds == nil {
		return 0
	}
	return *m.DurationSeconds
}

// Participant is an attendee of a meeting.
type Participant struct {
	ID              string     `json:"id"`
	MeetingID       string     `json:"meeting_id"`
	UserID          *string    `json:"user_id"`
	Name            *string    `json:"name"`
	Email           *string    `json:"email"`
	Role            string     `json:"role"`
	JoinTime        *Timestamp `json:"join_time"`
	LeaveTime       *Timestamp `json:"leave_time"`
	DurationSeconds *int       `json:"duration_seconds"`
	TalkTimeSeconds int        `json:"talk_time_seconds"`
	IsSpeaker       bool       `json:"is_speaker"`
}

// MeetingDetail is the response of GET /meetings/{id}.
type MeetingDetail struct {
	Meeting
	Participants []Participant `json:"participants"`
	Transcripts  []Transcript  `json:"transcripts"`
	ActionItems  []ActionItem  `json:"action_items"`
}

// ListOptions pages and filters GET /meetings.
type ListOptions struct {
	Skip   int
	Limit  int
	Status MeetingStatus
}

// Transcript is one speaker segment of a meeting transcript.
type Transcript struct {
	ID            string    `json:"id"`
	MeetingID     string    `json:"meeting_id"`
	ParticipantID *string   `json:"participant_id"`
	SpeakerName   *string   `json:"speaker_name"`
	Text          string    `json:"text"`
	StartTime     float64   `json:"start_time"`
	EndTime       float64   `json:"end_time"`
	Confidence    *float64  `json:"confidence"`
	Sentiment     *string   `json:"sentiment"`
	IsKeyMoment   bool      `json:"is_key_moment"`
	CreatedAt     Timestamp `json:"created_at"`
}

// Speaker returns the speaker name or "Unknown".
func (t Transcript) Speaker() string {
	if t.SpeakerName == nil || *t.SpeakerName == "" {
		return "Unknown"
	}
	return *t.SpeakerName
}

// ActionItem is a task extracted from, or added to, a meeting.
type ActionItem struct {
	ID             string     `json:"id"`
	MeetingID      string     `json:"meeting_id"`
	AssigneeUserID *string    `json:"assignee_user_id"`
	AssigneeName   *string    `json:"assignee_name"`
	AssigneeEmail  *string    `json:"assignee_email"`
	Task           string     `json:"task"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	DueDate        *Timestamp `json:"due_date"`
	CompletedAt    *Timestamp `json:"completed_at"`
	CreatedAt      Timestamp  `json:"created_at"`
	UpdatedAt      Timestamp  `json:"updated_at"`
}

// MeetingCreate is the body of POST /meetings.
type MeetingCreate struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Platform    *string    `json:"platform,omitempty"`
	ExternalID  *string    `json:"external_id,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// Validate requires a non-blank title.
func (c MeetingCreate) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("meeting title is required")
	}
	return nil
}

// MeetingUpdate is the body of PUT /meetings/{id}. Nil fields are left unchanged.
type MeetingUpdate struct {
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	Status      *MeetingStatus `json:"status,omitempty"`
	Summary     *string        `json:"summary,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u MeetingUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil && u.Summary == nil
}

// ActionItemCreate is the body of POST /meetings/{id}/action-items.
type ActionItemCreate struct {
	MeetingID     string  `json:"meeting_id"`
	Task          string  `json:"task"`
	AssigneeName  *string `json:"assignee_name,omitempty"`
	AssigneeEmail *string `json:"assignee_email,omitempty"`
	Priority      string  `json:"priority,omitempty"`
	DueDate       *string `json:"due_date,omitempty"`
}

// Validate requires a non-blank task.
func (c ActionItemCreate) Validate() error {
	if strings.TrimSpace(c.Task) == "" {
		return fmt.Errorf("action item task is required")
	}
	return nil
}
