package shared

import (
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) == 0 {
			t.Fatal("expected at least one migration")
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}

		if migrations[0].Name != "create_session_snapshots" {
			t.Errorf("expected first migration name create_session_snapshots, got %q", migrations[0].Name)
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db := newTestDB(t)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		if _, err := db.Exec("SELECT 1 FROM session_snapshots LIMIT 1"); err != nil {
			t.Errorf("session_snapshots table should exist after migrations: %v", err)
		}
		if _, err := db.Exec("SELECT 1 FROM export_runs LIMIT 1"); err != nil {
			t.Errorf("export_runs table should exist after migrations: %v", err)
		}

		before, err := MigrationStatus(db)
		if err != nil {
			t.Fatalf("failed to read status: %v", err)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}

		after, err := MigrationStatus(db)
		if err != nil {
			t.Fatalf("failed to read status after rollback: %v", err)
		}
		if len(after) != len(before)-1 {
			t.Errorf("expected one fewer applied migration, got %d (was %d)", len(after), len(before))
		}
		if _, err := db.Exec("SELECT 1 FROM export_runs LIMIT 1"); err == nil {
			t.Error("export_runs should be dropped after rollback")
		}
	})

	t.Run("Rollback With Nothing Applied", func(t *testing.T) {
		db := newTestDB(t)
		if err := RollbackMigration(db); err == nil {
			t.Error("expected error when nothing has been applied")
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db := newTestDB(t)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations first time: %v", err)
		}
		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}

		applied, err := MigrationStatus(db)
		if err != nil {
			t.Fatalf("failed to read status: %v", err)
		}

		migrations, _ := loadMigrations()
		if len(applied) != len(migrations) {
			t.Errorf("expected %d migrations to be applied, got %d", len(migrations), len(applied))
		}
	})

	t.Run("removeComments", func(t *testing.T) {
		got := removeComments("-- header\nCREATE TABLE x (id INT) -- trailing\n\n")
		if got != "CREATE TABLE x (id INT)" {
			t.Errorf("unexpected result %q", got)
		}
	})
}
