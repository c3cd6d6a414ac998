package formatter

import (
	"fmt"
	"os"
	"time"

	"github.com/meetingmind/mm/internal/shared"
)

// ManifestEntry is the outcome for one meeting in an export.
type ManifestEntry struct {
	MeetingID string `json:"meeting_id"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	File      string `json:"file,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Manifest summarizes an export run.
type Manifest struct {
	Format     string          `json:"format"`
	ExportedAt time.Time       `json:"exported_at"`
	Total      int             `json:"total"`
	Succeeded  int             `json:"succeeded"`
	Failed     int             `json:"failed"`
	Entries    []ManifestEntry `json:"entries"`
}

// WriteManifest writes m as indented JSON to path.
func WriteManifest(m *Manifest, path string) error {
	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
