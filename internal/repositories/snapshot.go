package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/meetingmind/mm/internal/models"
	"github.com/meetingmind/mm/internal/shared"
)

// SnapshotRepository persists [models.Snapshot] rows keyed by namespace.
// It never sees the token pair.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new [SnapshotRepository] with the given database connection
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// LoadSnapshot returns the snapshot saved under namespace, or [shared.ErrNotFound].
func (r *SnapshotRepository) LoadSnapshot(namespace string) (*models.Snapshot, error) {
	query := `
		SELECT status, identity, updated_at
		FROM session_snapshots
		WHERE namespace = ?
	`

	var (
		status    string
		identity  sql.NullString
		updatedAt time.Time
	)

	err := r.db.QueryRow(query, namespace).Scan(&status, &identity, &updatedAt)
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: snapshot %s", shared.ErrNotFound, namespace)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}

	var id models.Identity
	if identity.Valid {
		if id, err = models.UnmarshalIdentity([]byte(identity.String)); err != nil {
			return nil, err
		}
	}

	return &models.Snapshot{
		Namespace: namespace,
		Session:   models.Session{Status: models.Status(status), Identity: id},
		UpdatedAt: updatedAt,
	}, nil
}

// SaveSnapshot inserts or replaces the row for snap.Namespace.
func (r *SnapshotRepository) SaveSnapshot(snap models.Snapshot) error {
	if snap.Namespace == "" {
		return fmt.Errorf("%w: snapshot namespace", shared.ErrMissingArgument)
	}
	if err := snap.Session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	var identity sql.NullString
	if snap.Session.Identity != nil {
		data, err := models.MarshalIdentity(snap.Session.Identity)
		if err != nil {
			return err
		}
		identity = sql.NullString{String: string(data), Valid: true}
	}

	updatedAt := snap.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	query := `
		INSERT INTO session_snapshots (id, namespace, status, identity, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(namespace) DO UPDATE SET
			status = excluded.status,
			identity = excluded.identity,
			updated_at = excluded.updated_at
	`

	if _, err := r.db.Exec(query, shared.GenerateID(), snap.Namespace, string(snap.Session.Status), identity, updatedAt); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// DeleteSnapshot removes the row for namespace.
func (r *SnapshotRepository) DeleteSnapshot(namespace string) error {
	res, err := r.db.Exec(`DELETE FROM session_snapshots WHERE namespace = ?`, namespace)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	if err := rowsChanged(res); isNoRows(err) {
		return fmt.Errorf("%w: snapshot %s", shared.ErrNotFound, namespace)
	} else if err != nil {
		return err
	}
	return nil
}
