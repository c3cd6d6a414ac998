package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/meetingmind/mm/internal/models"
	"github.com/meetingmind/mm/internal/shared"
)

func TestMeetings(t *testing.T) {
	var lastQuery string
	var lastUpdate map[string]any
	var lastActionItem models.ActionItemCreate

	mux := http.NewServeMux()
	mux.HandleFunc("GET /meetings", func(w http.ResponseWriter, r *http.Request) {
		lastQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "m1", "title": "Standup", "status": "completed", "created_at": "2026-01-02T10:00:00", "updated_at": "2026-01-02T10:00:00"},
			{"id": "m2", "title": "Retro", "status": "scheduled", "created_at": "2026-01-03T10:00:00", "updated_at": "2026-01-03T10:00:00"},
		})
	})
	mux.HandleFunc("GET /meetings/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "m1" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Meeting not found"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id": "m1", "title": "Standup", "status": "completed",
			"participants": []map[string]any{{"id": "p1", "meeting_id": "m1", "name": "Ada", "role": "host"}},
			"action_items": []map[string]any{{"id": "a1", "meeting_id": "m1", "task": "Ship it", "status": "pending", "priority": "high"}},
		})
	})
	mux.HandleFunc("POST /meetings", func(w http.ResponseWriter, r *http.Request) {
		var in models.MeetingCreate
		json.NewDecoder(r.Body).Decode(&in)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": "m3", "title": in.Title, "status": "scheduled"})
	})
	mux.HandleFunc("PUT /meetings/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&lastUpdate)
		json.NewEncoder(w).Encode(map[string]any{"id": r.PathValue("id"), "title": lastUpdate["title"], "status": "scheduled"})
	})
	mux.HandleFunc("DELETE /meetings/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /meetings/{id}/transcripts", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "t1", "meeting_id": r.PathValue("id"), "speaker_name": "Ada", "text": "Morning", "start_time": 0, "end_time": 1.5},
		})
	})
	mux.HandleFunc("POST /meetings/{id}/action-items", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&lastActionItem)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": "a2", "meeting_id": r.PathValue("id"), "task": lastActionItem.Task, "status": "pending", "priority": "medium"})
	})

	server := httptest.NewServer(mux)
	defer server.Close()
	client := authedClient(server.URL)
	ctx := context.Background()

	t.Run("ListMeetings", func(t *testing.T) {
		meetings, err := client.ListMeetings(ctx, models.ListOptions{Skip: 20, Limit: 500, Status: models.MeetingCompleted})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(meetings) != 2 {
			t.Fatalf("expected 2 meetings, got %d", len(meetings))
		}
		if lastQuery != "limit=100&skip=20&status_filter=completed" {
			t.Errorf("unexpected query %q", lastQuery)
		}
	})

	t.Run("GetMeeting", func(t *testing.T) {
		detail, err := client.GetMeeting(ctx, "m1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if detail.Title != "Standup" || len(detail.Participants) != 1 || len(detail.ActionItems) != 1 {
			t.Errorf("unexpected detail %+v", detail)
		}

		_, err = client.GetMeeting(ctx, "missing")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}

		if _, err := client.GetMeeting(ctx, ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("CreateMeeting", func(t *testing.T) {
		m, err := client.CreateMeeting(ctx, models.MeetingCreate{Title: "Planning"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if m.ID != "m3" || m.Title != "Planning" {
			t.Errorf("unexpected meeting %+v", m)
		}

		if _, err := client.CreateMeeting(ctx, models.MeetingCreate{}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("UpdateMeeting", func(t *testing.T) {
		title := "Renamed"
		m, err := client.UpdateMeeting(ctx, "m1", models.MeetingUpdate{Title: &title})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if m.Title != "Renamed" {
			t.Errorf("expected Renamed, got %s", m.Title)
		}
		if _, ok := lastUpdate["description"]; ok {
			t.Error("expected nil fields to be omitted")
		}

		if _, err := client.UpdateMeeting(ctx, "m1", models.MeetingUpdate{}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("DeleteMeeting", func(t *testing.T) {
		if err := client.DeleteMeeting(ctx, "m1"); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("ListTranscripts", func(t *testing.T) {
		transcripts, err := client.ListTranscripts(ctx, "m1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(transcripts) != 1 || transcripts[0].Speaker() != "Ada" || transcripts[0].EndTime != 1.5 {
			t.Errorf("unexpected transcripts %+v", transcripts)
		}
	})

	t.Run("CreateActionItem", func(t *testing.T) {
		item, err := client.CreateActionItem(ctx, "m1", models.ActionItemCreate{Task: "Send notes"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if item.Task != "Send notes" {
			t.Errorf("unexpected item %+v", item)
		}
		if lastActionItem.MeetingID != "m1" {
			t.Errorf("expected meeting_id to be filled in, got %q", lastActionItem.MeetingID)
		}
	})
}
