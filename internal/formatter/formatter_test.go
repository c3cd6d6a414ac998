package formatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/meetingmind/mm/internal/models"
	"github.com/meetingmind/mm/internal/shared"
	th "github.com/meetingmind/mm/internal/testing"
)

func strPtr(s string) *string { return &s }

func testDocument() *Document {
	duration := 3725
	return &Document{
		Meeting: models.Meeting{
			ID:              "m1",
			Title:           "Weekly Sync",
			Status:          models.MeetingCompleted,
			Description:     strPtr("Team catch-up"),
			Summary:         strPtr("Shipped the release."),
			DurationSeconds: &duration,
		},
		Segments: []models.Transcript{
			{ID: "t1", MeetingID: "m1", SpeakerName: strPtr("Ada"), Text: "Morning, all.", StartTime: 0, EndTime: 4.5},
			{ID: "t2", MeetingID: "m1", Text: "Release is out, with \"quotes\", and commas.", StartTime: 65, EndTime: 70, IsKeyMoment: true},
		},
		ActionItems: []models.ActionItem{
			{ID: "a1", Task: "Write notes", Status: "pending", Priority: "high", AssigneeName: strPtr("Grace")},
			{ID: "a2", Task: "Book room", Status: "completed", Priority: "low"},
		},
	}
}

func TestRenderers(t *testing.T) {
	doc := testDocument()

	t.Run("ToCSV", func(t *testing.T) {
		data, err := ToCSV(doc)
		if err != nil {
			t.Fatalf("ToCSV failed: %v", err)
		}
		output := string(data)

		if !strings.HasPrefix(output, "Start,End,Speaker,Text,Key Moment\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "0,4.5,Ada,\"Morning, all.\",false") {
			t.Errorf("CSV missing first segment, got: %s", output)
		}
		if !strings.Contains(output, `"Release is out, with ""quotes"", and commas."`) {
			t.Errorf("CSV did not escape text, got: %s", output)
		}
		if !strings.Contains(output, "Unknown") {
			t.Errorf("CSV missing fallback speaker")
		}
	})

	t.Run("ToMarkdown", func(t *testing.T) {
		data, err := ToMarkdown(doc)
		if err != nil {
			t.Fatalf("ToMarkdown failed: %v", err)
		}
		output := string(data)

		for _, want := range []string{
			"# Weekly Sync",
			"**Duration**: 1:02:05",
			"Team catch-up",
			"## Summary\n\nShipped the release.",
			"- [ ] Write notes (@Grace)",
			"- [x] Book room",
			"**[0:00] Ada**: Morning, all.",
			"**[1:05] Unknown** ⭐:",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ToMarkdown without optional sections", func(t *testing.T) {
		data, _ := ToMarkdown(&Document{Meeting: models.Meeting{Title: "Bare", Status: models.MeetingScheduled}})
		output := string(data)
		if strings.Contains(output, "## Summary") || strings.Contains(output, "## Action Items") {
			t.Errorf("expected no optional sections, got:\n%s", output)
		}
	})

	t.Run("ToText", func(t *testing.T) {
		data, err := ToText(doc)
		if err != nil {
			t.Fatalf("ToText failed: %v", err)
		}
		output := string(data)

		if !strings.Contains(output, "Meeting: Weekly Sync\nSegments: 2\n") {
			t.Errorf("text missing header, got: %s", output)
		}
		if !strings.Contains(output, "[1:05] Unknown: Release is out") {
			t.Errorf("text missing segment, got: %s", output)
		}
	})

	t.Run("ToJSON", func(t *testing.T) {
		data, err := ToJSON(doc)
		if err != nil {
			t.Fatalf("ToJSON failed: %v", err)
		}

		var decoded struct {
			Meeting     models.Meeting      `json:"meeting"`
			Transcripts []models.Transcript `json:"transcripts"`
		}
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Meeting.ID != "m1" || len(decoded.Transcripts) != 2 {
			t.Errorf("unexpected decoded document %+v", decoded)
		}
	})

	t.Run("Render rejects unknown formats", func(t *testing.T) {
		if _, err := Render(doc, "pdf"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestNewDocument(t *testing.T) {
	detail := &models.MeetingDetail{
		Meeting:     models.Meeting{ID: "m1"},
		Transcripts: []models.Transcript{{ID: "t1"}},
		ActionItems: []models.ActionItem{{ID: "a1"}},
	}

	if doc := NewDocument(detail, nil); len(doc.Segments) != 1 || doc.Segments[0].ID != "t1" {
		t.Errorf("expected segments from detail, got %+v", doc.Segments)
	}
	if doc := NewDocument(detail, []models.Transcript{{ID: "t2"}, {ID: "t3"}}); len(doc.Segments) != 2 {
		t.Errorf("expected explicit segments, got %+v", doc.Segments)
	}
}

func TestWriters(t *testing.T) {
	t.Run("WriteExport", func(t *testing.T) {
		dir := t.TempDir()

		for _, f := range []models.ExportFormat{models.FormatMarkdown, models.FormatCSV, models.FormatText, models.FormatJSON} {
			path, err := WriteExport(testDocument(), f, dir)
			if err != nil {
				t.Fatalf("WriteExport(%s) failed: %v", f, err)
			}
			if want := filepath.Join(dir, "m1"+f.Ext()); path != want {
				t.Errorf("expected %s, got %s", want, path)
			}
			th.AssertFileExists(t, path)
		}
	})

	t.Run("WriteManifest", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "export_manifest.json")
		m := &Manifest{
			Format:     "csv",
			ExportedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			Total:      2,
			Succeeded:  1,
			Failed:     1,
			Entries: []ManifestEntry{
				{MeetingID: "m1", Title: "Weekly Sync", Status: "success", File: "m1.csv"},
				{MeetingID: "m2", Status: "failed", Error: "not found"},
			},
		}

		if err := WriteManifest(m, path); err != nil {
			t.Fatalf("WriteManifest failed: %v", err)
		}

		content := th.MustReadFile(t, path)
		for _, want := range []string{`"format": "csv"`, `"total": 2`, `"failed": 1`, `"status": "failed"`, `"error": "not found"`} {
			if !strings.Contains(content, want) {
				t.Errorf("manifest missing %s, got:\n%s", want, content)
			}
		}
	})

	t.Run("WriteManifest to missing directory", func(t *testing.T) {
		err := WriteManifest(&Manifest{}, filepath.Join(t.TempDir(), "missing", "m.json"))
		if err == nil {
			t.Error("expected write error")
		}
	})
}

func TestTables(t *testing.T) {
	t.Run("WriteMeetingTable", func(t *testing.T) {
		var buf bytes.Buffer
		scheduled := models.Timestamp{Time: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)}
		meetings := []models.Meeting{
			{ID: "m1", Title: "Weekly Sync", Status: models.MeetingScheduled, ScheduledAt: &scheduled},
			{ID: "m2", Title: "Retro", Status: models.MeetingCompleted},
		}

		if err := WriteMeetingTable(&buf, meetings); err != nil {
			t.Fatalf("WriteMeetingTable failed: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"TITLE", "Weekly Sync", "2024-05-01 09:30", "Retro", "completed"} {
			if !strings.Contains(output, want) {
				t.Errorf("table missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("WriteMeetingDetail", func(t *testing.T) {
		var buf bytes.Buffer
		doc := testDocument()
		detail := &models.MeetingDetail{Meeting: doc.Meeting, Transcripts: doc.Segments, ActionItems: doc.ActionItems}

		if err := WriteMeetingDetail(&buf, detail); err != nil {
			t.Fatalf("WriteMeetingDetail failed: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"Weekly Sync", "1:02:05", "Write notes", "high"} {
			if !strings.Contains(output, want) {
				t.Errorf("detail missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("WriteMeetingTable propagates writer errors", func(t *testing.T) {
		if err := WriteMeetingTable(&th.FWriter{}, nil); err == nil {
			t.Error("expected write error")
		}
	})
}
