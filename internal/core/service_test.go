package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource returns a fixed CSV body or error; swap them between loads.
type stubSource struct {
	mu   sync.Mutex
	name string
	body string
	err  error
}

func (s *stubSource) Locator() string { return s.name }

func (s *stubSource) Fetch(ctx context.Context) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return Table{}, s.err
	}
	return ParseTable(strings.NewReader(s.body))
}

func (s *stubSource) set(body string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.body, s.err = body, err
}

type memoryStore struct {
	mu    sync.Mutex
	saved []*Snapshot
}

func (m *memoryStore) Save(ctx context.Context, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, snap)
	return nil
}

func (m *memoryStore) Latest(ctx context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saved) == 0 {
		return nil, ErrNoSnapshot
	}
	return m.saved[len(m.saved)-1], nil
}

const (
	testBaselineCSV = "globalid,name,latitude,longitude\n" +
		"A1,Old Name,32.7,-117.1\n" +
		"A2,Broken,abc,-117.1\n"
	testUpdatesCSV = "place_id,action,approved,timestamp,name,latitude,longitude\n" +
		"A1,update,true,2024-01-02,New Name,,\n" +
		"A1,update,false,2024-01-03,Rejected,,\n" +
		",new,true,2024-01-04,Pop-up,32.8,-117.2\n"
)

func newTestService(t *testing.T, store SnapshotStore) (*Service, *stubSource, *stubSource) {
	t.Helper()
	base := &stubSource{name: "baseline.csv", body: testBaselineCSV}
	upd := &stubSource{name: "updates.csv", body: testUpdatesCSV}
	svc, err := NewService(ServiceConfig{Baseline: base, Updates: upd, Store: store})
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc, base, upd
}

func TestNewService_RequiresBaseline(t *testing.T) {
	_, err := NewService(ServiceConfig{})
	assert.Error(t, err)
}

func TestService_CurrentBeforeLoad(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	_, err := svc.Current()
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestService_Load(t *testing.T) {
	store := &memoryStore{}
	svc, _, _ := newTestService(t, store)

	var notified []*Snapshot
	svc.OnSnapshot(func(s *Snapshot) { notified = append(notified, s) })

	snap, err := svc.Load(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, snap.ID)
	assert.False(t, snap.Stale)
	assert.Empty(t, snap.Warnings)
	assert.Equal(t, map[string]int{"baseline.latitude": 1}, snap.InvalidCells)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), snap.LoadedAt)

	require.Len(t, snap.Records, 3)
	assert.Equal(t, "New Name", snap.Records[0].Name)
	assert.Equal(t, OriginUpdated, snap.Records[0].Origin)
	assert.Equal(t, "Broken", snap.Records[1].Name)
	assert.Equal(t, "Pop-up", snap.Records[2].Name)
	assert.Equal(t, OriginNewPoint, snap.Records[2].Origin)
	assert.Equal(t, "new-1", snap.Records[2].ID)

	assert.Equal(t, LoadStats{
		BaselineRows:    2,
		UpdateRows:      3,
		AppliedUpdates:  1,
		NewPoints:       1,
		Unrenderable:    1,
		RenderableTotal: 2,
	}, snap.Stats)
	assert.Len(t, snap.Renderable(), 2)

	cur, err := svc.Current()
	require.NoError(t, err)
	assert.Same(t, snap, cur)
	require.Len(t, notified, 1)
	assert.Same(t, snap, notified[0])
	require.Len(t, store.saved, 1)
}

func TestService_Place(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	_, _, err := svc.Place("A1")
	assert.ErrorIs(t, err, ErrNoSnapshot)

	_, err = svc.Load(context.Background())
	require.NoError(t, err)

	rec, snap, err := svc.Place(" A1 ")
	require.NoError(t, err)
	assert.Equal(t, "New Name", rec.Name)
	assert.NotNil(t, snap)

	_, _, err = svc.Place("A9")
	assert.ErrorIs(t, err, ErrPlaceNotFound)

	_, _, err = svc.Place("")
	assert.ErrorIs(t, err, ErrPlaceNotFound)
}

func TestService_Load_UpdatesUnavailable(t *testing.T) {
	svc, _, upd := newTestService(t, nil)
	upd.set("", fmt.Errorf("%w: HTTP 503", ErrSourceUnavailable))

	snap, err := svc.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Records, 2)
	assert.Equal(t, "Old Name", snap.Records[0].Name)
	require.Len(t, snap.Warnings, 1)
	assert.Contains(t, snap.Warnings[0], "updates unavailable")
}

func TestService_Load_NoUpdateSource(t *testing.T) {
	base := &stubSource{name: "baseline.csv", body: testBaselineCSV}
	svc, err := NewService(ServiceConfig{Baseline: base})
	require.NoError(t, err)

	snap, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Records, 2)
	assert.Empty(t, snap.Warnings)
}

func TestService_Load_MissingColumnsWarn(t *testing.T) {
	svc, base, _ := newTestService(t, nil)
	base.set("globalid,name\nA1,Park\n", nil)

	snap, err := svc.Load(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, snap.Warnings)
	assert.Equal(t, "baseline missing columns: latitude, longitude", snap.Warnings[0])
	assert.Empty(t, snap.Renderable())
}

func TestService_Load_BaselineFailureServesStale(t *testing.T) {
	svc, base, _ := newTestService(t, nil)

	first, err := svc.Load(context.Background())
	require.NoError(t, err)

	base.set("", fmt.Errorf("%w: HTTP 500", ErrSourceUnavailable))

	second, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, second.Stale)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Records, second.Records)
	require.Len(t, second.Warnings, 1)
	assert.Contains(t, second.Warnings[0], "baseline unavailable")
	assert.False(t, first.Stale, "previous snapshot is not mutated")

	third, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, third.Warnings, 1, "warning is not repeated")
}

func TestService_Load_BaselineFailureUsesStore(t *testing.T) {
	store := &memoryStore{saved: []*Snapshot{{ID: "stored", Records: []EffectiveRecord{{Key: "S1"}}}}}
	svc, base, _ := newTestService(t, store)
	base.set("", ErrSourceUnavailable)

	snap, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "stored", snap.ID)
	assert.True(t, snap.Stale)
}

func TestService_Load_BaselineFailureWithoutFallback(t *testing.T) {
	svc, base, _ := newTestService(t, &memoryStore{})
	base.set("", fmt.Errorf("%w: no such host", ErrSourceUnavailable))

	_, err := svc.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)

	_, err = svc.Current()
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestService_Restore(t *testing.T) {
	t.Run("no store", func(t *testing.T) {
		svc, _, _ := newTestService(t, nil)
		assert.ErrorIs(t, svc.Restore(context.Background()), ErrNoSnapshot)
	})

	t.Run("empty store", func(t *testing.T) {
		svc, _, _ := newTestService(t, &memoryStore{})
		assert.ErrorIs(t, svc.Restore(context.Background()), ErrNoSnapshot)
	})

	t.Run("seeds stale snapshot", func(t *testing.T) {
		stored := &Snapshot{ID: "prev"}
		svc, _, _ := newTestService(t, &memoryStore{saved: []*Snapshot{stored}})
		require.NoError(t, svc.Restore(context.Background()))

		cur, err := svc.Current()
		require.NoError(t, err)
		assert.Equal(t, "prev", cur.ID)
		assert.True(t, cur.Stale)
		assert.False(t, stored.Stale)
	})

	t.Run("does not replace a live snapshot", func(t *testing.T) {
		store := &memoryStore{}
		svc, _, _ := newTestService(t, store)
		live, err := svc.Load(context.Background())
		require.NoError(t, err)
		store.saved = append(store.saved, &Snapshot{ID: "older"})

		require.NoError(t, svc.Restore(context.Background()))
		cur, _ := svc.Current()
		assert.Equal(t, live.ID, cur.ID)
	})
}

func TestService_StartRefreshScheduler(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	loads := make(chan *Snapshot, 8)
	svc.OnSnapshot(func(s *Snapshot) {
		select {
		case loads <- s:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.StartRefreshScheduler(ctx, 10*time.Millisecond)
		close(done)
	}()

	for range 2 {
		select {
		case <-loads:
		case <-time.After(2 * time.Second):
			t.Fatal("scheduler did not refresh")
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestBuildSnapshot_Empty(t *testing.T) {
	snap := BuildSnapshot(nil, nil)
	assert.Empty(t, snap.Records)
	assert.Equal(t, LoadStats{}, snap.Stats)
}

func TestService_Load_ContextCancelled(t *testing.T) {
	svc, base, _ := newTestService(t, nil)
	base.set("", context.Canceled)

	_, err := svc.Load(context.Background())
	assert.True(t, errors.Is(err, context.Canceled))
}
