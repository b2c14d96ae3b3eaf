package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrNoSnapshot is returned when no load has succeeded yet and the snapshot
// store has nothing to offer either.
var ErrNoSnapshot = errors.New("snapshot not loaded")

// ErrPlaceNotFound is returned when a key has no effective record.
var ErrPlaceNotFound = errors.New("place not found")

// SnapshotStore persists the last good snapshot so a restart or a baseline
// outage can still serve something.
type SnapshotStore interface {
	Save(ctx context.Context, snap *Snapshot) error
	Latest(ctx context.Context) (*Snapshot, error) // ErrNoSnapshot when empty
}

// SnapshotListener is called after every successful load.
type SnapshotListener func(*Snapshot)

// ServiceConfig wires the Service's collaborators. Only Baseline is required.
type ServiceConfig struct {
	Baseline  Source
	Updates   Source
	Store     SnapshotStore
	Submitter *Submitter
	Limiter   *SubmitLimiter
}

// Service loads, merges and holds the effective record set.
type Service struct {
	baseline  Source
	updates   Source
	store     SnapshotStore
	submitter *Submitter
	limiter   *SubmitLimiter

	mu        sync.RWMutex
	current   *Snapshot
	listeners []SnapshotListener

	loadMu sync.Mutex // serializes loads so snapshots replace each other in order
	now    func() time.Time
}

// NewService creates a new Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Baseline == nil {
		return nil, errors.New("core.NewService: baseline source is required")
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = NewSubmitLimiter(DefaultMaxConcurrentSubmits, DefaultSubmitWaitTime)
	}
	return &Service{
		baseline:  cfg.Baseline,
		updates:   cfg.Updates,
		store:     cfg.Store,
		submitter: cfg.Submitter,
		limiter:   limiter,
		now:       time.Now,
	}, nil
}

// OnSnapshot registers fn to run after each successful load.
func (s *Service) OnSnapshot(fn SnapshotListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Current returns the snapshot most recently produced by Load or Restore.
func (s *Service) Current() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, ErrNoSnapshot
	}
	return s.current, nil
}

// Place looks up one effective record in the current snapshot.
func (s *Service) Place(id string) (EffectiveRecord, *Snapshot, error) {
	snap, err := s.Current()
	if err != nil {
		return EffectiveRecord{}, nil, err
	}
	rec, ok := snap.Find(id)
	if !ok {
		return EffectiveRecord{}, snap, fmt.Errorf("%w: %q", ErrPlaceNotFound, CleanText(id))
	}
	return rec, snap, nil
}

// Restore seeds the in-memory snapshot from the store, marked stale.
// It is used at startup so the map has data before the first fetch completes.
func (s *Service) Restore(ctx context.Context) error {
	if s.store == nil {
		return ErrNoSnapshot
	}
	snap, err := s.store.Latest(ctx)
	if err != nil {
		return fmt.Errorf("core.Service.Restore: %w", err)
	}
	stale := *snap
	stale.Stale = true

	s.mu.Lock()
	if s.current == nil {
		s.current = &stale
	}
	s.mu.Unlock()
	return nil
}

// Load fetches both sources concurrently, merges them and swaps in the new
// snapshot.
//
// The two fetches fail independently. Without updates the result is
// baseline-only with a warning. Without the baseline the previous snapshot
// (in memory, else from the store) is served again marked stale; only when
// neither exists does Load return an error.
func (s *Service) Load(ctx context.Context) (*Snapshot, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	id := uuid.NewString()
	logger := slog.With("snapshot_id", id)
	start := s.now()

	var (
		baseTable, updTable Table
		baseErr, updErr     error
		g                   errgroup.Group
	)
	g.Go(func() error {
		baseTable, baseErr = s.baseline.Fetch(ctx)
		return nil
	})
	if s.updates != nil {
		g.Go(func() error {
			updTable, updErr = s.updates.Fetch(ctx)
			return nil
		})
	}
	_ = g.Wait()

	if baseErr != nil {
		logger.Error("baseline fetch failed", "source", s.baseline.Locator(), "error", baseErr)
		return s.fallback(ctx, fmt.Errorf("core.Service.Load: baseline: %w", baseErr))
	}

	var warnings []string
	if missing := MissingColumns(BaselineFieldSpecs, baseTable.Header); len(missing) > 0 {
		warnings = append(warnings, "baseline missing columns: "+strings.Join(missing, ", "))
	}
	if updErr != nil {
		logger.Warn("updates fetch failed, continuing with baseline only",
			"source", s.updates.Locator(), "error", updErr)
		warnings = append(warnings, "updates unavailable: "+MapError(updErr).Message)
	} else if s.updates != nil && len(updTable.Rows) > 0 {
		if missing := MissingColumns(UpdateFieldSpecs, updTable.Header); len(missing) > 0 {
			warnings = append(warnings, "updates missing columns: "+strings.Join(missing, ", "))
		}
	}

	snap := BuildSnapshot(baseTable.Rows, updTable.Rows)
	snap.ID = id
	snap.LoadedAt = s.now().UTC()
	snap.Warnings = warnings
	snap.InvalidCells = mergeCounts(
		ValidateRows("baseline", baseTable.Rows, BaselineFieldSpecs),
		ValidateRows("updates", updTable.Rows, UpdateFieldSpecs),
	)
	if len(snap.InvalidCells) > 0 {
		logger.Warn("invalid cells discarded", "counts", summarizeCounts(snap.InvalidCells))
	}

	s.publish(snap)

	logger.Info("snapshot loaded",
		"baseline_rows", snap.Stats.BaselineRows,
		"update_rows", snap.Stats.UpdateRows,
		"applied_updates", snap.Stats.AppliedUpdates,
		"new_points", snap.Stats.NewPoints,
		"unrenderable", snap.Stats.Unrenderable,
		"warnings", len(warnings),
		"duration_ms", s.now().Sub(start).Milliseconds(),
	)

	if s.store != nil {
		if err := s.store.Save(ctx, snap); err != nil {
			logger.Warn("snapshot store save failed", "error", err)
		}
	}

	return snap, nil
}

// BuildSnapshot runs the pure pipeline: normalize, select, merge, extract.
// Records are the merged baseline rows followed by new points whose key no
// baseline row owns. Every record gets an ID.
func BuildSnapshot(baselineRows, updateRows []RawRecord) *Snapshot {
	baseline := NormalizeBaselines(baselineRows)
	updates := NormalizeUpdates(updateRows)

	merged := Merge(baseline, SelectLatestApproved(updates))
	newPoints := WithoutBaselineKeys(ExtractNewPoints(updates), baseline)

	records := make([]EffectiveRecord, 0, len(merged)+len(newPoints))
	records = append(records, merged...)
	records = append(records, newPoints...)
	AssignIDs(records)

	stats := LoadStats{
		BaselineRows: len(baseline),
		UpdateRows:   len(updates),
		NewPoints:    len(newPoints),
	}
	for _, rec := range merged {
		if rec.Origin == OriginUpdated {
			stats.AppliedUpdates++
		}
	}
	stats.RenderableTotal = len(RenderEligible(records))
	stats.Unrenderable = len(records) - stats.RenderableTotal

	return &Snapshot{Records: records, Stats: stats}
}

// fallback serves the previous snapshot marked stale after a baseline failure.
func (s *Service) fallback(ctx context.Context, cause error) (*Snapshot, error) {
	s.mu.RLock()
	prev := s.current
	s.mu.RUnlock()

	if prev == nil && s.store != nil {
		stored, err := s.store.Latest(ctx)
		if err == nil {
			prev = stored
		} else if !errors.Is(err, ErrNoSnapshot) {
			slog.Warn("snapshot store read failed", "error", err)
		}
	}
	if prev == nil {
		return nil, cause
	}

	stale := *prev
	if !prev.Stale {
		stale.Stale = true
		stale.Warnings = append(append([]string(nil), prev.Warnings...), "baseline unavailable: "+MapError(cause).Message)
	}

	s.mu.Lock()
	s.current = &stale
	s.mu.Unlock()
	return &stale, nil
}

// publish swaps in snap and notifies listeners outside the lock.
func (s *Service) publish(snap *Snapshot) {
	s.mu.Lock()
	s.current = snap
	listeners := append([]SnapshotListener(nil), s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}
