// Package views turns live store subscriptions into display-ready snapshots.
//
// Every view is day scoped at subscribe time and falls back to the bundled
// dataset when the store fails, stays silent, or has nothing to show. Callbacks
// run serialized per view and must not call back into the view.
package views

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iftarsharebd/iftarmap/internal/clock"
	"github.com/iftarsharebd/iftarmap/internal/domain/models"
	"github.com/iftarsharebd/iftarmap/internal/fallback"
	"github.com/iftarsharebd/iftarmap/internal/repository/docstore"
)

// Result-set caps per view.
const (
	SpotsTodayLimit     = 50
	SpotsPermanentLimit = 30
	RoutesLimit         = 50
	HelpLimit           = 30
	VolunteersLimit     = 20
)

// DefaultFallbackAfter is how long a view waits for its first live snapshot.
const DefaultFallbackAfter = 5 * time.Second

// Snapshot is one emission of a view.
type Snapshot[T any] struct {
	Items  []T           `json:"items"`
	Source models.Source `json:"source"`
	DayKey string        `json:"day_key"`
}

// Builder opens views against a store.
type Builder struct {
	store         docstore.Store
	clock         clock.Clock
	fallbackAfter time.Duration
	logger        *zap.Logger
}

// NewBuilder wires a Builder. A non-positive fallbackAfter uses DefaultFallbackAfter.
func NewBuilder(store docstore.Store, clk clock.Clock, fallbackAfter time.Duration, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fallbackAfter <= 0 {
		fallbackAfter = DefaultFallbackAfter
	}
	return &Builder{store: store, clock: clk, fallbackAfter: fallbackAfter, logger: logger}
}

// DayKey is the day the builder scopes new views to.
func (b *Builder) DayKey() string {
	return b.clock.DayKey()
}

// Spots merges today's submissions with permanent spots. Records are keyed by
// id and kept in first-seen order; a record once seen is never dropped.
func (b *Builder) Spots(ctx context.Context, onUpdate func(Snapshot[models.Spot])) docstore.Unsubscribe {
	dayKey := b.clock.DayKey()
	logger := b.logger.With(zap.String("view", "spots"), zap.String("day_key", dayKey))
	v := newView(dayKey, b.fallbackAfter, fallback.Spots, onUpdate)

	var (
		mu    sync.Mutex
		byID  = make(map[string]models.Spot)
		order []string
	)
	merge := func(records []docstore.Record) {
		spots := decodeAll(logger, records, models.DecodeSpot)

		mu.Lock()
		for _, s := range spots {
			if _, seen := byID[s.ID]; !seen {
				order = append(order, s.ID)
			}
			byID[s.ID] = s
		}
		items := make([]models.Spot, 0, len(order))
		for _, id := range order {
			items = append(items, byID[id])
		}
		mu.Unlock()

		v.live(items)
	}

	today := docstore.Query{}.
		Where("day_key", dayKey).
		Sort("created_at", true).
		Take(SpotsTodayLimit)
	unsubToday, err := b.store.Subscribe(ctx, models.CollectionSpots, today, merge)
	if err != nil {
		logger.Warn("live spots unavailable, serving fallback", zap.Error(err))
		v.fallbackNow()
		return v.close
	}

	permanent := docstore.Query{}.
		Where("is_permanent", true).
		Take(SpotsPermanentLimit)
	unsubPermanent, err := b.store.Subscribe(ctx, models.CollectionSpots, permanent, merge)
	if err != nil {
		unsubToday()
		logger.Warn("live permanent spots unavailable, serving fallback", zap.Error(err))
		v.fallbackNow()
		return v.close
	}

	v.attach(unsubToday, unsubPermanent)
	return v.close
}

// Routes lists today's road reports, newest first.
func (b *Builder) Routes(ctx context.Context, onUpdate func(Snapshot[models.RoadReport])) docstore.Unsubscribe {
	dayKey := b.clock.DayKey()
	q := docstore.Query{}.
		Where("day_key", dayKey).
		Sort("created_at", true).
		Take(RoutesLimit)

	return watch(ctx, b, "routes", models.CollectionRoutes, q, dayKey, fallback.RoadReports, onUpdate,
		func(logger *zap.Logger, records []docstore.Record) []models.RoadReport {
			return decodeAll(logger, records, models.DecodeRoadReport)
		})
}

// HelpRequests lists today's open aid requests, most urgent and newest first.
// A request marked fulfilled disappears from the next snapshot.
func (b *Builder) HelpRequests(ctx context.Context, onUpdate func(Snapshot[models.HelpRequest])) docstore.Unsubscribe {
	dayKey := b.clock.DayKey()
	q := docstore.Query{}.
		Where("day_key", dayKey).
		Where("fulfilled", false).
		Sort("urgency_rank", true).
		Sort("created_at", true).
		Take(HelpLimit)

	return watch(ctx, b, "help", models.CollectionHelp, q, dayKey, fallback.HelpRequests, onUpdate,
		func(logger *zap.Logger, records []docstore.Record) []models.HelpRequest {
			return decodeAll(logger, records, models.DecodeHelpRequest)
		})
}

// Volunteers is the leaderboard by meals served, ranked from 1.
func (b *Builder) Volunteers(ctx context.Context, onUpdate func(Snapshot[models.Volunteer])) docstore.Unsubscribe {
	dayKey := b.clock.DayKey()
	q := docstore.Query{}.
		Sort("meals_done", true).
		Take(VolunteersLimit)

	return watch(ctx, b, "volunteers", models.CollectionVolunteers, q, dayKey,
		func(string) []models.Volunteer { return fallback.Volunteers() },
		onUpdate,
		func(logger *zap.Logger, records []docstore.Record) []models.Volunteer {
			vols := decodeAll(logger, records, models.DecodeVolunteer)
			for i := range vols {
				vols[i].Rank = i + 1
			}
			return vols
		})
}

func watch[T any](
	ctx context.Context,
	b *Builder,
	name, collection string,
	q docstore.Query,
	dayKey string,
	fallbackFn func(string) []T,
	onUpdate func(Snapshot[T]),
	convert func(*zap.Logger, []docstore.Record) []T,
) docstore.Unsubscribe {
	logger := b.logger.With(zap.String("view", name), zap.String("day_key", dayKey))
	v := newView(dayKey, b.fallbackAfter, fallbackFn, onUpdate)

	unsub, err := b.store.Subscribe(ctx, collection, q, func(records []docstore.Record) {
		v.live(convert(logger, records))
	})
	if err != nil {
		logger.Warn("live view unavailable, serving fallback", zap.Error(err))
		v.fallbackNow()
		return v.close
	}

	v.attach(unsub)
	return v.close
}

func decodeAll[T any](logger *zap.Logger, records []docstore.Record, dec func(docstore.Record) (T, error)) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		item, err := dec(r)
		if err != nil {
			logger.Debug("skipping undecodable record", zap.String("id", r.ID), zap.Error(err))
			continue
		}
		out = append(out, item)
	}
	return out
}

// First opens a view, waits for its first snapshot and closes it again.
func First[T any](ctx context.Context, open func(context.Context, func(Snapshot[T])) docstore.Unsubscribe) (Snapshot[T], error) {
	ch := make(chan Snapshot[T], 1)
	unsub := open(ctx, func(s Snapshot[T]) {
		select {
		case ch <- s:
		default:
		}
	})
	defer unsub()

	select {
	case s := <-ch:
		return s, nil
	case <-ctx.Done():
		return Snapshot[T]{}, ctx.Err()
	}
}
