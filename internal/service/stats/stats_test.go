package stats

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/iftarsharebd/iftarmap/internal/clock"
	"github.com/iftarsharebd/iftarmap/internal/domain/models"
	"github.com/iftarsharebd/iftarmap/internal/repository/docstore"
)

type mutableClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *mutableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mutableClock) set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func setup(t *testing.T, now time.Time) (*Service, *docstore.Memory, *mutableClock) {
	t.Helper()
	mc := &mutableClock{now: now}
	m := docstore.NewMemory(docstore.WithClock(mc.Now))
	t.Cleanup(func() { _ = m.Close(context.Background()) })
	return NewService(m, clock.Clock{Now: mc.Now, Local: time.UTC}, nil), m, mc
}

func next(t *testing.T, ch <-chan models.DailyStats) models.DailyStats {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for counter")
		return models.DailyStats{}
	}
}

func TestSubscribeMissingDocumentEmitsBaseline(t *testing.T) {
	svc, _, _ := setup(t, time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC))

	ch := make(chan models.DailyStats, 8)
	unsub := svc.Subscribe(context.Background(), func(s models.DailyStats) { ch <- s })
	defer unsub()

	got := next(t, ch)
	if got.Total != 18450 || got.DayKey != "2026-03-01" {
		t.Errorf("expected baseline 18450 for 2026-03-01, got %+v", got)
	}
	if got.Target != models.DailyTarget {
		t.Errorf("expected target %d, got %d", models.DailyTarget, got.Target)
	}
}

func TestSubscribeResetsStaleCounter(t *testing.T) {
	ctx := context.Background()
	// 2026-03-01 23:00 in UTC+6.
	svc, m, mc := setup(t, time.Date(2026, 3, 1, 17, 0, 0, 0, time.UTC))

	err := m.Set(ctx, models.CollectionStats, models.DailyStatsID, docstore.Document{
		"total":           int64(500),
		"volunteers":      int64(3),
		"locations":       int64(7),
		"help_fulfilled":  int64(2),
		"routes_reported": int64(4),
		"day_key":         "2026-03-01",
	})
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Past midnight in UTC+6.
	mc.set(time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC))

	ch := make(chan models.DailyStats, 8)
	unsub := svc.Subscribe(ctx, func(s models.DailyStats) { ch <- s })
	defer unsub()

	got := next(t, ch)
	if got.DayKey != "2026-03-02" || got.Total != 0 || got.Volunteers != 0 || got.Locations != 0 || got.HelpFulfilled != 0 || got.RoutesReported != 0 {
		t.Errorf("expected zeros for 2026-03-02, got %+v", got)
	}

	rec, err := m.Get(ctx, models.CollectionStats, models.DailyStatsID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.Data["day_key"] != "2026-03-02" || rec.Data["total"] != int64(0) {
		t.Errorf("expected stored reset, got %v", rec.Data)
	}
	if _, ok := rec.Data["last_updated"].(time.Time); !ok {
		t.Errorf("expected last_updated timestamp, got %v", rec.Data["last_updated"])
	}

	// The reset write echoes back as a current-day snapshot.
	if echo := next(t, ch); echo.DayKey != "2026-03-02" || echo.Total != 0 {
		t.Errorf("unexpected echo %+v", echo)
	}
}

func TestBumpAndSeed(t *testing.T) {
	ctx := context.Background()
	svc, m, _ := setup(t, time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC))

	if err := svc.Bump(ctx, models.StatLocations); err == nil {
		t.Error("expected bump on a missing counter to report failure")
	}

	seeded, err := svc.Seed(ctx)
	if err != nil || !seeded {
		t.Fatalf("Seed = %v, %v", seeded, err)
	}
	if seeded, _ := svc.Seed(ctx); seeded {
		t.Error("second seed must be a no-op")
	}

	for i := 0; i < 3; i++ {
		if err := svc.Bump(ctx, models.StatLocations); err != nil {
			t.Fatalf("Bump failed: %v", err)
		}
	}

	rec, _ := m.Get(ctx, models.CollectionStats, models.DailyStatsID)
	if rec.Data[models.StatLocations] != int64(3) || rec.Data[models.StatTotal] != models.BaselineTotal {
		t.Errorf("unexpected counter %v", rec.Data)
	}

	cur := svc.Current(ctx)
	if cur.Locations != 3 || cur.Source != models.SourceLive {
		t.Errorf("unexpected current %+v", cur)
	}
}

// silentStore accepts subscriptions that never fire and reads that never return.
type silentStore struct {
	docstore.Store
}

func (silentStore) Subscribe(context.Context, string, docstore.Query, func([]docstore.Record)) (docstore.Unsubscribe, error) {
	return func() {}, nil
}

func (silentStore) Get(ctx context.Context, _, _ string) (docstore.Record, error) {
	<-ctx.Done()
	return docstore.Record{}, ctx.Err()
}

func TestSilentStoreFallsBackToBaseline(t *testing.T) {
	clk := clock.Clock{Now: func() time.Time { return time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC) }, Local: time.UTC}
	svc := NewService(silentStore{}, clk, nil, WithFallbackAfter(50*time.Millisecond))

	ch := make(chan models.DailyStats, 8)
	unsub := svc.Subscribe(context.Background(), func(s models.DailyStats) { ch <- s })
	defer unsub()

	got := next(t, ch)
	if got.Source != models.SourceFallback || got.Total != models.BaselineTotal || got.DayKey != "2026-03-01" {
		t.Errorf("expected fallback baseline, got %+v", got)
	}
	select {
	case extra := <-ch:
		t.Errorf("fallback must be emitted once, got another %+v", extra)
	case <-time.After(150 * time.Millisecond):
	}

	start := time.Now()
	cur := svc.Current(context.Background())
	if cur.Source != models.SourceFallback || cur.Total != models.BaselineTotal {
		t.Errorf("expected fallback baseline from Current, got %+v", cur)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Current blocked for %s", elapsed)
	}
}

func TestLiveTickCancelsFallback(t *testing.T) {
	mc := &mutableClock{now: time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)}
	m := docstore.NewMemory(docstore.WithClock(mc.Now))
	t.Cleanup(func() { _ = m.Close(context.Background()) })
	svc := NewService(m, clock.Clock{Now: mc.Now, Local: time.UTC}, nil, WithFallbackAfter(50*time.Millisecond))

	ch := make(chan models.DailyStats, 8)
	unsub := svc.Subscribe(context.Background(), func(s models.DailyStats) { ch <- s })
	defer unsub()

	if got := next(t, ch); got.Source != models.SourceLive {
		t.Fatalf("expected live first snapshot, got %+v", got)
	}
	select {
	case extra := <-ch:
		t.Errorf("no fallback expected after a live tick, got %+v", extra)
	case <-time.After(150 * time.Millisecond):
	}
}
