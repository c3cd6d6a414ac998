package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/meetingmind/mm/internal/formatter"
	"github.com/meetingmind/mm/internal/meetings"
	"github.com/meetingmind/mm/internal/models"
	"github.com/meetingmind/mm/internal/shared"
	"github.com/urfave/cli/v3"
)

func meetingID(cmd *cli.Command) (string, error) {
	id := strings.TrimSpace(cmd.Args().First())
	if id == "" {
		return "", fmt.Errorf("%w: meeting ID is required", shared.ErrMissingArgument)
	}
	return id, nil
}

func optionalString(cmd *cli.Command, name string) *string {
	if !cmd.IsSet(name) {
		return nil
	}
	v := cmd.String(name)
	return &v
}

// MeetingsList prints the meetings visible to the signed-in user.
func (r *Runner) MeetingsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	opts := models.ListOptions{Skip: cmd.Int("skip"), Limit: cmd.Int("limit")}
	if s := cmd.String("status"); s != "" {
		status, err := models.ParseMeetingStatus(s)
		if err != nil {
			return err
		}
		opts.Status = status
	}

	queries := r.meetings
	if opts != (models.ListOptions{}) {
		queries = meetings.New(r.cache, r.api, opts)
	}

	list, err := queries.List(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(list, cmd.Bool("pretty"))
	}
	if len(list) == 0 {
		return r.writePlain("No meetings found\n")
	}
	return formatter.WriteMeetingTable(r.output, list)
}

// MeetingsGet prints one meeting.
func (r *Runner) MeetingsGet(ctx context.Context, cmd *cli.Command) error {
	id, err := meetingID(cmd)
	if err != nil {
		return err
	}
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	detail, err := r.meetings.Get(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(detail, cmd.Bool("pretty"))
	}
	return formatter.WriteMeetingDetail(r.output, detail)
}

// MeetingsCreate creates a meeting and prints it.
func (r *Runner) MeetingsCreate(ctx context.Context, cmd *cli.Command) error {
	in := models.MeetingCreate{
		Title:       cmd.String("title"),
		Description: optionalString(cmd, "description"),
		Platform:    optionalString(cmd, "platform"),
	}
	if cmd.IsSet("scheduled-at") {
		at := cmd.Timestamp("scheduled-at")
		in.ScheduledAt = &at
	}
	if err := in.Validate(); err != nil {
		return err
	}
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	meeting, err := r.meetings.Create(ctx, in)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(meeting, cmd.Bool("pretty"))
	}
	return r.writePlain("✓ Created meeting %s (%s)\n", meeting.Title, meeting.ID)
}

// MeetingsUpdate applies the given fields to a meeting.
func (r *Runner) MeetingsUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := meetingID(cmd)
	if err != nil {
		return err
	}

	in := models.MeetingUpdate{
		Title:       optionalString(cmd, "title"),
		Description: optionalString(cmd, "description"),
		Summary:     optionalString(cmd, "summary"),
	}
	if cmd.IsSet("status") {
		status, err := models.ParseMeetingStatus(cmd.String("status"))
		if err != nil {
			return err
		}
		in.Status = &status
	}
	if in.Empty() {
		return fmt.Errorf("%w: nothing to update", shared.ErrMissingArgument)
	}
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	meeting, err := r.meetings.Update(ctx, id, in)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(meeting, cmd.Bool("pretty"))
	}
	return r.writePlain("✓ Updated meeting %s\n", meeting.ID)
}

// MeetingsDelete deletes a meeting.
func (r *Runner) MeetingsDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := meetingID(cmd)
	if err != nil {
		return err
	}
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	if err := r.meetings.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted meeting %s\n", id)
}

// MeetingsTranscripts renders a meeting's transcript to stdout.
func (r *Runner) MeetingsTranscripts(ctx context.Context, cmd *cli.Command) error {
	id, err := meetingID(cmd)
	if err != nil {
		return err
	}
	format, err := formatFlag(cmd, models.FormatText)
	if err != nil {
		return err
	}
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	segments, err := r.meetings.Transcripts(ctx, id)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(segments, cmd.Bool("pretty"))
	}

	detail, err := r.meetings.Get(ctx, id)
	if err != nil {
		return err
	}

	data, err := formatter.Render(formatter.NewDocument(detail, segments), format)
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}

// MeetingsOpen opens the meeting's recording URL.
func (r *Runner) MeetingsOpen(ctx context.Context, cmd *cli.Command) error {
	id, err := meetingID(cmd)
	if err != nil {
		return err
	}
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	detail, err := r.meetings.Get(ctx, id)
	if err != nil {
		return err
	}
	if detail.RecordingURL == nil || *detail.RecordingURL == "" {
		return fmt.Errorf("%w: meeting %s has no recording", shared.ErrNotFound, id)
	}

	r.logger.Info("opening recording", "url", *detail.RecordingURL)
	if err := shared.OpenBrowser(*detail.RecordingURL); err != nil {
		r.writePlain("Open this URL in your browser:\n%s\n", *detail.RecordingURL)
		return err
	}
	return nil
}

// MeetingsActionItem adds an action item to a meeting.
func (r *Runner) MeetingsActionItem(ctx context.Context, cmd *cli.Command) error {
	id, err := meetingID(cmd)
	if err != nil {
		return err
	}

	in := models.ActionItemCreate{
		MeetingID:     id,
		Task:          cmd.String("task"),
		AssigneeName:  optionalString(cmd, "assignee"),
		AssigneeEmail: optionalString(cmd, "assignee-email"),
		Priority:      cmd.String("priority"),
		DueDate:       optionalString(cmd, "due"),
	}
	if err := in.Validate(); err != nil {
		return err
	}
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	item, err := r.meetings.AddActionItem(ctx, id, in)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(item, cmd.Bool("pretty"))
	}
	return r.writePlain("✓ Added action item %s\n", item.ID)
}
