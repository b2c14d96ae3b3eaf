package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/restroom-map/internal/core"
)

// DefaultKeep is how many snapshots are retained after each save.
const DefaultKeep = 10

// SnapshotStore is the Postgres implementation of core.SnapshotStore.
// Records are stored as one JSONB document per load; the table is never
// queried per record.
type SnapshotStore struct {
	db   db
	keep int
}

var _ core.SnapshotStore = (*SnapshotStore)(nil)

// NewSnapshotStore constructs a store that keeps the newest keep snapshots
// (DefaultKeep when keep <= 0).
func NewSnapshotStore(db db, keep int) *SnapshotStore {
	if keep <= 0 {
		keep = DefaultKeep
	}
	return &SnapshotStore{db: db, keep: keep}
}

// Save inserts snap and prunes older rows. Saving the same id twice is a no-op.
func (s *SnapshotStore) Save(ctx context.Context, snap *core.Snapshot) error {
	id, err := uuid.Parse(snap.ID)
	if err != nil {
		return fmt.Errorf("store.SnapshotStore.Save: snapshot id: %w", err)
	}

	stats, err := json.Marshal(snap.Stats)
	if err != nil {
		return fmt.Errorf("store.SnapshotStore.Save: encode stats: %w", err)
	}
	warnings := snap.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	warnJSON, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("store.SnapshotStore.Save: encode warnings: %w", err)
	}
	records, err := json.Marshal(snap.Records)
	if err != nil {
		return fmt.Errorf("store.SnapshotStore.Save: encode records: %w", err)
	}

	const insert = `
		INSERT INTO snapshots (id, loaded_at, stats, warnings, records)
		VALUES (@id, @loaded_at, @stats, @warnings, @records)
		ON CONFLICT (id) DO NOTHING`

	_, err = s.db.Exec(ctx, insert, pgx.NamedArgs{
		"id":        id,
		"loaded_at": snap.LoadedAt,
		"stats":     string(stats),
		"warnings":  string(warnJSON),
		"records":   string(records),
	})
	if err != nil {
		return fmt.Errorf("store.SnapshotStore.Save: %w", err)
	}

	const prune = `
		DELETE FROM snapshots
		WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY loaded_at DESC LIMIT @keep
		)`

	if _, err := s.db.Exec(ctx, prune, pgx.NamedArgs{"keep": s.keep}); err != nil {
		return fmt.Errorf("store.SnapshotStore.Save: prune: %w", err)
	}
	return nil
}

// Latest returns the most recently loaded snapshot, or core.ErrNoSnapshot.
func (s *SnapshotStore) Latest(ctx context.Context) (*core.Snapshot, error) {
	const q = `
		SELECT id::text, loaded_at, stats, warnings, records
		FROM snapshots
		ORDER BY loaded_at DESC
		LIMIT 1`

	var (
		snap                     core.Snapshot
		loadedAt                 time.Time
		stats, warnings, records []byte
	)
	err := s.db.QueryRow(ctx, q).Scan(&snap.ID, &loadedAt, &stats, &warnings, &records)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("store.SnapshotStore.Latest: %w", err)
	}

	snap.LoadedAt = loadedAt.UTC()
	if err := json.Unmarshal(stats, &snap.Stats); err != nil {
		return nil, fmt.Errorf("store.SnapshotStore.Latest: decode stats: %w", err)
	}
	if err := json.Unmarshal(warnings, &snap.Warnings); err != nil {
		return nil, fmt.Errorf("store.SnapshotStore.Latest: decode warnings: %w", err)
	}
	if err := json.Unmarshal(records, &snap.Records); err != nil {
		return nil, fmt.Errorf("store.SnapshotStore.Latest: decode records: %w", err)
	}
	return &snap, nil
}
