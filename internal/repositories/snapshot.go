package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/equipx/internal/shared"
)

// Snapshot is the last fetched copy of a dataset for one profile.
type Snapshot struct {
	ID        string
	Sequence  int
	Profile   string
	Dataset   string
	Payload   json.RawMessage
	Count     int
	FetchedAt time.Time
}

// Decode unmarshals the payload into v.
func (s *Snapshot) Decode(v any) error {
	if err := json.Unmarshal(s.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s snapshot: %w", s.Dataset, err)
	}
	return nil
}

// Age is how long ago the snapshot was taken.
func (s *Snapshot) Age(now time.Time) time.Duration { return now.Sub(s.FetchedAt) }

// SnapshotRepository caches fetched lists so they can be shown while the API is unreachable.
type SnapshotRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSnapshotRepository creates a new [SnapshotRepository] with the given database connection
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db, now: time.Now}
}

// Save replaces the profile's snapshot of dataset with items.
func (r *SnapshotRepository) Save(ctx context.Context, profile, dataset string, items any, count int) (*Snapshot, error) {
	payload, err := shared.MarshalJSON(items, false)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	sequence, err := NextSequence(r.db, "snapshots")
	if err != nil {
		return nil, fmt.Errorf("failed to generate sequence: %w", err)
	}

	snap := &Snapshot{
		ID:        shared.GenerateID(),
		Sequence:  sequence,
		Profile:   profile,
		Dataset:   dataset,
		Payload:   payload,
		Count:     count,
		FetchedAt: r.now().UTC(),
	}

	query := `
		INSERT INTO snapshots (id, sequence, profile, dataset, payload, item_count, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (profile, dataset) DO UPDATE SET
			id = excluded.id,
			sequence = excluded.sequence,
			payload = excluded.payload,
			item_count = excluded.item_count,
			fetched_at = excluded.fetched_at
	`
	_, err = r.db.ExecContext(ctx, query, snap.ID, snap.Sequence, snap.Profile, snap.Dataset, string(snap.Payload), snap.Count, snap.FetchedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}
	return snap, nil
}

// Latest returns the profile's snapshot of dataset, or [shared.ErrNotFound].
func (r *SnapshotRepository) Latest(ctx context.Context, profile, dataset string) (*Snapshot, error) {
	query := `
		SELECT id, sequence, profile, dataset, payload, item_count, fetched_at
		FROM snapshots
		WHERE profile = ? AND dataset = ?
	`
	snap, err := scanSnapshot(r.db.QueryRowContext(ctx, query, profile, dataset))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no %s snapshot for %s", shared.ErrNotFound, dataset, profile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	return snap, nil
}

// List returns the profile's snapshots, newest first.
func (r *SnapshotRepository) List(ctx context.Context, profile string) ([]Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, sequence, profile, dataset, payload, item_count, fetched_at
		FROM snapshots
		WHERE profile = ?
		ORDER BY sequence DESC
	`, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		out = append(out, *snap)
	}
	return out, rows.Err()
}

// DeleteProfile drops every snapshot of the profile and returns how many were removed.
func (r *SnapshotRepository) DeleteProfile(ctx context.Context, profile string) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM snapshots WHERE profile = ?", profile)
	if err != nil {
		return 0, fmt.Errorf("failed to delete snapshots: %w", err)
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*Snapshot, error) {
	var (
		s       Snapshot
		payload string
	)
	if err := row.Scan(&s.ID, &s.Sequence, &s.Profile, &s.Dataset, &payload, &s.Count, &s.FetchedAt); err != nil {
		return nil, err
	}
	s.Payload = json.RawMessage(payload)
	return &s, nil
}
