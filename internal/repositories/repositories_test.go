package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/meetingmind/mm/internal/models"
	"github.com/meetingmind/mm/internal/shared"
	"golang.org/x/oauth2"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestSnapshotRepository(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("LoadSnapshot returns ErrNotFound when empty", func(t *testing.T) {
		repo := NewSnapshotRepository(setupTestDB(t))

		_, err := repo.LoadSnapshot("auth-storage")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("SaveSnapshot round trips the identity variant", func(t *testing.T) {
		repo := NewSnapshotRepository(setupTestDB(t))

		tests := []struct {
			name     string
			identity models.Identity
		}{
			{"verified", models.VerifiedProfile{Profile: models.Profile{ID: "u1", Email: "ada@example.com"}}},
			{"placeholder", models.NewRecoveryPlaceholder(now)},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				snap := models.Snapshot{
					Namespace: "auth-storage",
					Session:   models.Session{Status: models.StatusAuthenticated, Identity: tt.identity},
					UpdatedAt: now,
				}
				if err := repo.SaveSnapshot(snap); err != nil {
					t.Fatalf("failed to save snapshot: %v", err)
				}

				got, err := repo.LoadSnapshot("auth-storage")
				if err != nil {
					t.Fatalf("failed to load snapshot: %v", err)
				}
				if got.Session.Status != models.StatusAuthenticated {
					t.Errorf("expected authenticated, got %s", got.Session.Status)
				}
				if fmt.Sprintf("%T", got.Session.Identity) != fmt.Sprintf("%T", tt.identity) {
					t.Errorf("expected %T, got %T", tt.identity, got.Session.Identity)
				}
				if got.Session.Identity.Details().DisplayName() != tt.identity.Details().DisplayName() {
					t.Errorf("expected %q, got %q", tt.identity.Details().DisplayName(), got.Session.Identity.Details().DisplayName())
				}
			})
		}
	})

	t.Run("SaveSnapshot upserts by namespace", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSnapshotRepository(db)

		authed := models.Session{Status: models.StatusAuthenticated, Identity: models.NewLoginPlaceholder("ada@example.com", now)}
		if err := repo.SaveSnapshot(models.Snapshot{Namespace: "auth-storage", Session: authed}); err != nil {
			t.Fatalf("failed to save snapshot: %v", err)
		}
		if err := repo.SaveSnapshot(models.Snapshot{Namespace: "auth-storage", Session: models.Session{Status: models.StatusAnonymous}}); err != nil {
			t.Fatalf("failed to save snapshot: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM session_snapshots").Scan(&count); err != nil {
			t.Fatalf("failed to count rows: %v", err)
		}
		if count != 1 {
			t.Errorf("expected one row, got %d", count)
		}

		got, err := repo.LoadSnapshot("auth-storage")
		if err != nil {
			t.Fatalf("failed to load snapshot: %v", err)
		}
		if got.Session.Status != models.StatusAnonymous || got.Session.Identity != nil {
			t.Errorf("expected anonymous without identity, got %+v", got.Session)
		}
	})

	t.Run("namespaces are independent", func(t *testing.T) {
		repo := NewSnapshotRepository(setupTestDB(t))

		if err := repo.SaveSnapshot(models.Snapshot{Namespace: "a", Session: models.Session{Status: models.StatusAnonymous}}); err != nil {
			t.Fatalf("failed to save snapshot: %v", err)
		}
		if _, err := repo.LoadSnapshot("b"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound for other namespace, got %v", err)
		}
	})

	t.Run("SaveSnapshot rejects invalid sessions", func(t *testing.T) {
		repo := NewSnapshotRepository(setupTestDB(t))

		if err := repo.SaveSnapshot(models.Snapshot{Namespace: "auth-storage", Session: models.Session{Status: models.StatusAuthenticated}}); err == nil {
			t.Error("expected error for authenticated session without identity")
		}
		if err := repo.SaveSnapshot(models.Snapshot{Session: models.Session{Status: models.StatusAnonymous}}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("DeleteSnapshot", func(t *testing.T) {
		repo := NewSnapshotRepository(setupTestDB(t))

		if err := repo.DeleteSnapshot("auth-storage"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		repo.SaveSnapshot(models.Snapshot{Namespace: "auth-storage", Session: models.Session{Status: models.StatusAnonymous}})
		if err := repo.DeleteSnapshot("auth-storage"); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		if _, err := repo.LoadSnapshot("auth-storage"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})
}

func TestExportRunRepository(t *testing.T) {
	t.Run("Create and Get", func(t *testing.T) {
		repo := NewExportRunRepository(setupTestDB(t))

		run := &models.ExportRun{Format: models.FormatMarkdown, OutputDir: "out", Total: 3, Succeeded: 2, Failed: 1}
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		if run.ID == "" {
			t.Fatal("run ID should be set after creation")
		}

		got, err := repo.Get(run.ID)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.Format != models.FormatMarkdown || got.Total != 3 || got.Failed != 1 || got.ManifestPath != "" {
			t.Errorf("unexpected run %+v", got)
		}
	})

	t.Run("Get missing", func(t *testing.T) {
		repo := NewExportRunRepository(setupTestDB(t))
		if _, err := repo.Get("nope"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Create validates", func(t *testing.T) {
		repo := NewExportRunRepository(setupTestDB(t))

		if err := repo.Create(&models.ExportRun{Format: "pdf", OutputDir: "out"}); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if err := repo.Create(&models.ExportRun{Format: models.FormatCSV}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("List newest first", func(t *testing.T) {
		repo := NewExportRunRepository(setupTestDB(t))
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

		for i, f := range []models.ExportFormat{models.FormatCSV, models.FormatJSON, models.FormatText} {
			run := &models.ExportRun{Format: f, OutputDir: "out", ManifestPath: "out/manifest.json", CreatedAt: base.Add(time.Duration(i) * time.Hour)}
			if err := repo.Create(run); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
		}

		runs, err := repo.List(2)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(runs))
		}
		if runs[0].Format != models.FormatText || runs[1].Format != models.FormatJSON {
			t.Errorf("expected newest first, got %s, %s", runs[0].Format, runs[1].Format)
		}
		if runs[0].ManifestPath != "out/manifest.json" {
			t.Errorf("expected manifest path, got %q", runs[0].ManifestPath)
		}

		all, _ := repo.List(0)
		if len(all) != 3 {
			t.Errorf("expected 3 runs, got %d", len(all))
		}
	})
}

func TestCredentialFile(t *testing.T) {
	t.Run("Load missing file", func(t *testing.T) {
		f := NewCredentialFile(filepath.Join(t.TempDir(), "credentials.json"))

		tok, err := f.Load()
		if err != nil || tok != nil {
			t.Errorf("expected nil token and no error, got %v, %v", tok, err)
		}
	})

	t.Run("Save and Load", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "credentials.json")
		f := NewCredentialFile(path)

		in := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "bearer", Expiry: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}
		if err := f.Save(in); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("expected file to exist: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("expected mode 0600, got %o", perm)
		}

		out, err := f.Load()
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		if out.AccessToken != "access" || out.RefreshToken != "refresh" || !out.Expiry.Equal(in.Expiry) {
			t.Errorf("unexpected token %+v", out)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "credentials.json")
		f := NewCredentialFile(path)

		if err := f.Clear(); err != nil {
			t.Errorf("expected no error clearing missing file, got %v", err)
		}
		f.Save(&oauth2.Token{AccessToken: "access"})
		if err := f.Clear(); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("expected file to be removed")
		}
	})

	t.Run("Save nil clears", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "credentials.json")
		f := NewCredentialFile(path)
		f.Save(&oauth2.Token{AccessToken: "access"})

		if err := f.Save(nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tok, _ := f.Load(); tok != nil {
			t.Errorf("expected no token, got %+v", tok)
		}
	})

	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "credentials.json")
		os.WriteFile(path, []byte("{"), 0600)

		if _, err := NewCredentialFile(path).Load(); err == nil {
			t.Error("expected decode error")
		}
	})
}
