// package formatter renders meetings and transcripts to the export formats (Markdown, CSV, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/meetingmind/mm/internal/models"
	"github.com/meetingmind/mm/internal/shared"
)

// Document is one meeting with the transcript segments to export.
type Document struct {
	Meeting     models.Meeting      `json:"meeting"`
	Segments    []models.Transcript `json:"transcripts"`
	ActionItems []models.ActionItem `json:"action_items,omitempty"`
}

// NewDocument builds a [Document] from a meeting detail and its transcript.
func NewDocument(detail *models.MeetingDetail, segments []models.Transcript) *Document {
	if segments == nil {
		segments = detail.Transcripts
	}
	return &Document{Meeting: detail.Meeting, Segments: segments, ActionItems: detail.ActionItems}
}

func speaker(t models.Transcript) string {
	if t.SpeakerName != nil && *t.SpeakerName != "" {
		return *t.SpeakerName
	}
	return "Unknown"
}

// offset renders seconds from the start of the meeting as m:ss.
func offset(seconds float64) string {
	return shared.FormatDuration(int(seconds))
}

// ToCSV converts a Document to CSV format with columns: Start, End, Speaker, Text, Key Moment
func ToCSV(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Start", "End", "Speaker", "Text", "Key Moment"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, seg := range doc.Segments {
		record := []string{
			strconv.FormatFloat(seg.StartTime, 'f', -1, 64),
			strconv.FormatFloat(seg.EndTime, 'f', -1, 64),
			speaker(seg),
			seg.Text,
			strconv.FormatBool(seg.IsKeyMoment),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ToMarkdown converts a Document to Markdown with a header, summary, action items and transcript
func ToMarkdown(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	m := doc.Meeting

	fmt.Fprintf(&buf, "# %s\n\n", m.Title)
	fmt.Fprintf(&buf, "**Status**: %s\n", m.Status)
	if m.ScheduledAt != nil && !m.ScheduledAt.IsZero() {
		fmt.Fprintf(&buf, "**Scheduled**: %s\n", m.ScheduledAt.Format(time.RFC1123))
	}
	if m.DurationSeconds != nil {
		fmt.Fprintf(&buf, "**Duration**: %s\n", shared.FormatDuration(*m.DurationSeconds))
	}
	buf.WriteString("\n")

	if m.Description != nil && *m.Description != "" {
		fmt.Fprintf(&buf, "%s\n\n", *m.Description)
	}

	if m.Summary != nil && *m.Summary != "" {
		fmt.Fprintf(&buf, "## Summary\n\n%s\n\n", *m.Summary)
	}

	if len(doc.ActionItems) > 0 {
		buf.WriteString("## Action Items\n\n")
		for _, item := range doc.ActionItems {
			check := " "
			if item.Status == "completed" {
				check = "x"
			}
			owner := ""
			if item.AssigneeName != nil && *item.AssigneeName != "" {
				owner = fmt.Sprintf(" (@%s)", *item.AssigneeName)
			}
			fmt.Fprintf(&buf, "- [%s] %s%s\n", check, item.Task, owner)
		}
		buf.WriteString("\n")
	}

	buf.WriteString("## Transcript\n\n")
	for _, seg := range doc.Segments {
		marker := ""
		if seg.IsKeyMoment {
			marker = " ⭐"
		}
		fmt.Fprintf(&buf, "**[%s] %s**%s: %s\n\n", offset(seg.StartTime), speaker(seg), marker, seg.Text)
	}

	return buf.Bytes(), nil
}

// ToText converts a Document to plain text, one line per segment
func ToText(doc *Document) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Meeting: %s\n", doc.Meeting.Title)
	fmt.Fprintf(&buf, "Segments: %d\n\n", len(doc.Segments))

	for _, seg := range doc.Segments {
		fmt.Fprintf(&buf, "[%s] %s: %s\n", offset(seg.StartTime), speaker(seg), seg.Text)
	}

	return buf.Bytes(), nil
}

// ToJSON converts a Document to indented JSON
func ToJSON(doc *Document) ([]byte, error) {
	return shared.MarshalJSON(doc, true)
}

// Render dispatches to the renderer for format.
func Render(doc *Document, format models.ExportFormat) ([]byte, error) {
	switch format {
	case models.FormatMarkdown:
		return ToMarkdown(doc)
	case models.FormatCSV:
		return ToCSV(doc)
	case models.FormatText:
		return ToText(doc)
	case models.FormatJSON:
		return ToJSON(doc)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteExport renders doc and writes it to {dir}/{meeting id}{ext}. Returns the file path.
func WriteExport(doc *Document, format models.ExportFormat, dir string) (string, error) {
	data, err := Render(doc, format)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, doc.Meeting.ID+format.Ext())
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}
