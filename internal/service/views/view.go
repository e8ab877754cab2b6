package views

import (
	"sync"
	"time"

	"github.com/iftarsharebd/iftarmap/internal/domain/models"
	"github.com/iftarsharebd/iftarmap/internal/repository/docstore"
)

// view serializes emissions from the live subscriptions and the fallback timer.
type view[T any] struct {
	mu       sync.Mutex
	dayKey   string
	ticked   bool
	closed   bool
	timer    *time.Timer
	unsubs   []docstore.Unsubscribe
	fallback func(string) []T
	onUpdate func(Snapshot[T])
}

func newView[T any](dayKey string, after time.Duration, fallbackFn func(string) []T, onUpdate func(Snapshot[T])) *view[T] {
	v := &view[T]{dayKey: dayKey, fallback: fallbackFn, onUpdate: onUpdate}
	v.timer = time.AfterFunc(after, v.timeout)
	return v
}

func (v *view[T]) timeout() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ticked || v.closed {
		return
	}
	v.emitLocked(v.fallback(v.dayKey), models.SourceFallback)
}

func (v *view[T]) fallbackNow() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.timer.Stop()
	if v.closed {
		return
	}
	v.emitLocked(v.fallback(v.dayKey), models.SourceFallback)
}

// live publishes a store snapshot. An empty live set is shown as fallback.
func (v *view[T]) live(items []T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.ticked = true
	v.timer.Stop()

	if len(items) == 0 {
		v.emitLocked(v.fallback(v.dayKey), models.SourceFallback)
		return
	}
	v.emitLocked(items, models.SourceLive)
}

func (v *view[T]) emitLocked(items []T, src models.Source) {
	if items == nil {
		items = []T{}
	}
	v.onUpdate(Snapshot[T]{Items: items, Source: src, DayKey: v.dayKey})
}

func (v *view[T]) attach(unsubs ...docstore.Unsubscribe) {
	v.mu.Lock()
	v.unsubs = append(v.unsubs, unsubs...)
	v.mu.Unlock()
}

func (v *view[T]) close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.timer.Stop()
	unsubs := v.unsubs
	v.unsubs = nil
	v.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
}
