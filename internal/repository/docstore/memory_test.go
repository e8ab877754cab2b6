package docstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"
)

// collector records every snapshot delivered to a subscription.
type collector struct {
	ch chan []Record
}

func newCollector() *collector {
	return &collector{ch: make(chan []Record, 64)}
}

func (c *collector) onUpdate(records []Record) {
	c.ch <- records
}

func (c *collector) next(t *testing.T) []Record {
	t.Helper()
	select {
	case r := <-c.ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("doc-%03d", n)
	}
}

func ids(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestMemorySubscribeDeliversInitialSnapshot(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(WithIDGenerator(sequentialIDs()))
	defer m.Close(ctx)

	if _, err := m.Create(ctx, "spots", Document{"day_key": "2026-03-01"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	c := newCollector()
	unsub, err := m.Subscribe(ctx, "spots", Query{}.Where("day_key", "2026-03-01"), c.onUpdate)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer unsub()

	if got := c.next(t); len(got) != 1 || got[0].ID != "doc-001" {
		t.Errorf("unexpected initial snapshot %v", ids(got))
	}
}

func TestMemoryFilterOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory(WithIDGenerator(sequentialIDs()))
	defer m.Close(ctx)

	for i, day := range []string{"2026-03-01", "2026-02-28", "2026-03-01", "2026-03-01"} {
		_, err := m.Create(ctx, "routes", Document{
			"day_key":    day,
			"created_at": base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	c := newCollector()
	q := Query{}.Where("day_key", "2026-03-01").Sort("created_at", true).Take(2)
	unsub, err := m.Subscribe(ctx, "routes", q, c.onUpdate)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer unsub()

	got := ids(c.next(t))
	want := []string{"doc-004", "doc-003"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestMemoryTiesBrokenByID(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	defer m.Close(ctx)

	for _, id := range []string{"c", "a", "b"} {
		if err := m.Set(ctx, "volunteers", id, Document{"meals_done": int64(10)}); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	c := newCollector()
	unsub, err := m.Subscribe(ctx, "volunteers", Query{}.Sort("meals_done", true), c.onUpdate)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer unsub()

	if got := fmt.Sprint(ids(c.next(t))); got != "[a b c]" {
		t.Errorf("expected identifier tie-break, got %s", got)
	}
}

func TestMemoryRecordLeavingFilterTriggersSnapshot(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(WithIDGenerator(sequentialIDs()))
	defer m.Close(ctx)

	id, _ := m.Create(ctx, "help", Document{"fulfilled": false})

	c := newCollector()
	unsub, err := m.Subscribe(ctx, "help", Query{}.Where("fulfilled", false), c.onUpdate)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer unsub()

	if got := c.next(t); len(got) != 1 {
		t.Fatalf("expected one open request, got %d", len(got))
	}

	if err := m.Update(ctx, "help", id, Document{"fulfilled": true}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if got := c.next(t); len(got) != 0 {
		t.Errorf("expected fulfilled request to leave the result set, got %v", ids(got))
	}

	rec, err := m.Get(ctx, "help", id)
	if err != nil {
		t.Fatalf("record must still exist: %v", err)
	}
	if rec.Data["fulfilled"] != true {
		t.Errorf("expected fulfilled=true, got %v", rec.Data["fulfilled"])
	}
}

func TestMemoryIncrementField(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	defer m.Close(ctx)

	if err := m.Set(ctx, "stats", "daily", Document{"total": int64(5)}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.IncrementField(ctx, "stats", "daily", "total", 1); err != nil {
				t.Errorf("IncrementField failed: %v", err)
			}
		}()
	}
	wg.Wait()

	rec, _ := m.Get(ctx, "stats", "daily")
	if rec.Data["total"] != int64(55) {
		t.Errorf("expected 55 after concurrent increments, got %v", rec.Data["total"])
	}

	if err := m.IncrementField(ctx, "stats", "daily", "volunteers", 2); err != nil {
		t.Fatalf("IncrementField on absent field failed: %v", err)
	}
	rec, _ = m.Get(ctx, "stats", "daily")
	if rec.Data["volunteers"] != int64(2) {
		t.Errorf("expected absent field to start at zero, got %v", rec.Data["volunteers"])
	}

	err := m.IncrementField(ctx, "stats", "missing", "total", 1)
	var writeErr *WriteError
	if !errors.As(err, &writeErr) || !errors.Is(err, ErrNotFound) {
		t.Errorf("expected WriteError wrapping ErrNotFound, got %v", err)
	}
}

func TestMemoryServerTimestamp(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	m := NewMemory(WithClock(func() time.Time { return now }))
	defer m.Close(ctx)

	id, err := m.Create(ctx, "spots", Document{"created_at": ServerTimestamp})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	rec, _ := m.Get(ctx, "spots", id)
	if got, ok := rec.Data["created_at"].(time.Time); !ok || !got.Equal(now) {
		t.Errorf("expected server timestamp %v, got %v", now, rec.Data["created_at"])
	}
}

func TestMemoryByIDSubscription(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	defer m.Close(ctx)

	c := newCollector()
	unsub, err := m.Subscribe(ctx, "stats", ByID("daily"), c.onUpdate)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer unsub()

	if got := c.next(t); len(got) != 0 {
		t.Fatalf("expected empty snapshot for missing document, got %d", len(got))
	}

	if err := m.Set(ctx, "stats", "daily", Document{"total": int64(1)}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got := c.next(t); len(got) != 1 || got[0].ID != "daily" {
		t.Errorf("expected the daily document, got %v", ids(got))
	}
}

func TestMemoryUnsubscribeStopsDelivery(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	defer m.Close(ctx)

	c := newCollector()
	unsub, err := m.Subscribe(ctx, "spots", Query{}, c.onUpdate)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	c.next(t)

	unsub()
	unsub()

	if _, err := m.Create(ctx, "spots", Document{}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	select {
	case got := <-c.ch:
		t.Errorf("unexpected snapshot after unsubscribe: %v", ids(got))
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMemoryCallbackMayWriteBack(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	defer m.Close(ctx)

	if err := m.Set(ctx, "stats", "daily", Document{"day_key": "2026-03-01"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	seen := make(chan string, 8)
	unsub, err := m.Subscribe(ctx, "stats", ByID("daily"), func(records []Record) {
		if len(records) == 0 {
			return
		}
		day := records[0].Data["day_key"].(string)
		seen <- day
		if day != "2026-03-02" {
			_ = m.Update(ctx, "stats", "daily", Document{"day_key": "2026-03-02"})
		}
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer unsub()

	for _, want := range []string{"2026-03-01", "2026-03-02"} {
		select {
		case got := <-seen:
			if got != want {
				t.Errorf("expected %s, got %s", want, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestCompareAcrossNumericTypes(t *testing.T) {
	if !Equal(int64(3), 3.0) {
		t.Error("expected int64 and float64 to compare equal")
	}
	if Equal("3", int64(3)) {
		t.Error("expected string and number to differ")
	}
	if Equal(false, nil) {
		t.Error("expected false and nil to differ")
	}
	if Compare(int64(1), "a") >= 0 {
		t.Error("expected numbers to sort before strings")
	}
}

type driverInt64 int64

func TestNormalizeUnsignedAndNamedNumbers(t *testing.T) {
	if Compare(uint64(2), uint(3)) >= 0 {
		t.Error("expected uint64(2) to sort before uint(3)")
	}
	if !Equal(uint64(7), int64(7)) {
		t.Error("expected uint64 and int64 to compare equal")
	}
	if Compare(driverInt64(5), int64(4)) <= 0 {
		t.Error("expected a named int64 to compare by value")
	}
	if got := Normalize(uint64(math.MaxUint64)); got != float64(math.MaxUint64) {
		t.Errorf("expected overflowing uint64 as float64, got %T %v", got, got)
	}
}
