package formatter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/meetingmind/mm/internal/models"
	"github.com/meetingmind/mm/internal/shared"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

// WriteMeetingTable prints one row per meeting.
func WriteMeetingTable(w io.Writer, meetings []models.Meeting) error {
	t := newTable("ID", "TITLE", "STATUS", "SCHEDULED")
	for _, m := range meetings {
		scheduled := "-"
		if m.ScheduledAt != nil && !m.ScheduledAt.IsZero() {
			scheduled = m.ScheduledAt.Format("2006-01-02 15:04")
		}
		t.Row(m.ID, shared.Truncate(m.Title, 40), string(m.Status), scheduled)
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}

// WriteMeetingDetail prints the fields of one meeting followed by its action items.
func WriteMeetingDetail(w io.Writer, d *models.MeetingDetail) error {
	t := newTable("FIELD", "VALUE").
		Row("ID", d.ID).
		Row("Title", d.Title).
		Row("Status", string(d.Status))
	if d.Platform != nil {
		t.Row("Platform", *d.Platform)
	}
	if d.DurationSeconds != nil {
		t.Row("Duration", shared.FormatDuration(*d.DurationSeconds))
	}
	t.Row("Participants", strconv.Itoa(len(d.Participants)))
	t.Row("Transcript segments", strconv.Itoa(len(d.Transcripts)))
	if d.Summary != nil && *d.Summary != "" {
		t.Row("Summary", shared.Truncate(*d.Summary, 80))
	}
	if _, err := fmt.Fprintln(w, t.String()); err != nil {
		return err
	}

	if len(d.ActionItems) == 0 {
		return nil
	}
	items := newTable("TASK", "STATUS", "PRIORITY")
	for _, item := range d.ActionItems {
		items.Row(item.Task, item.Status, item.Priority)
	}
	_, err := fmt.Fprintln(w, items.String())
	return err
}
