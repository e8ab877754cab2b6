// Package stats maintains the daily aggregate counter and its midnight reset.
package stats

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iftarsharebd/iftarmap/internal/clock"
	"github.com/iftarsharebd/iftarmap/internal/domain/models"
	"github.com/iftarsharebd/iftarmap/internal/repository/docstore"
)

const (
	writeTimeout         = 10 * time.Second
	defaultFallbackAfter = 5 * time.Second
)

// Service reads and bumps the stats/daily document.
type Service struct {
	store         docstore.Store
	clock         clock.Clock
	fallbackAfter time.Duration
	logger        *zap.Logger
}

// Option tunes a Service.
type Option func(*Service)

// WithFallbackAfter sets how long a subscription or read may stay silent
// before the baseline is served instead.
func WithFallbackAfter(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.fallbackAfter = d
		}
	}
}

// NewService wires the counter service.
func NewService(store docstore.Store, clk clock.Clock, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{store: store, clock: clk, fallbackAfter: defaultFallbackAfter, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Baseline is what the counter shows before the document exists or when the
// store is unreachable.
func Baseline(dayKey string, src models.Source) models.DailyStats {
	s := models.DailyStats{Total: models.BaselineTotal, DayKey: dayKey, Source: src}
	return s.WithProgress()
}

// Subscribe streams the counter. A document stamped with an earlier day is
// reset to zeros in the store and reported as zeros right away. When the store
// stays silent past the fallback delay the baseline is emitted once; later
// live snapshots still come through.
func (s *Service) Subscribe(ctx context.Context, onUpdate func(models.DailyStats)) docstore.Unsubscribe {
	var (
		mu      sync.Mutex
		ticked  bool
		stopped bool
	)
	timer := time.AfterFunc(s.fallbackAfter, func() {
		mu.Lock()
		defer mu.Unlock()
		if ticked || stopped {
			return
		}
		s.logger.Warn("live counter silent, serving baseline", zap.Duration("after", s.fallbackAfter))
		onUpdate(Baseline(s.clock.DayKey(), models.SourceFallback))
	})

	unsub, err := s.store.Subscribe(ctx, models.CollectionStats, docstore.ByID(models.DailyStatsID), func(records []docstore.Record) {
		current := s.resolve(ctx, records)
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}
		ticked = true
		timer.Stop()
		onUpdate(current)
	})
	if err != nil {
		mu.Lock()
		stopped = true
		timer.Stop()
		mu.Unlock()
		s.logger.Warn("live counter unavailable, serving baseline", zap.Error(err))
		onUpdate(Baseline(s.clock.DayKey(), models.SourceFallback))
		return func() {}
	}

	return func() {
		mu.Lock()
		stopped = true
		timer.Stop()
		mu.Unlock()
		unsub()
	}
}

func (s *Service) resolve(ctx context.Context, records []docstore.Record) models.DailyStats {
	today := s.clock.DayKey()
	if len(records) == 0 {
		return Baseline(today, models.SourceLive)
	}

	current, err := models.DecodeDailyStats(records[0])
	if err != nil {
		s.logger.Warn("undecodable counter document", zap.Error(err))
		return Baseline(today, models.SourceFallback)
	}

	if current.DayKey != today {
		s.reset(ctx, today, current.DayKey)
		return models.DailyStats{DayKey: today, Source: models.SourceLive}.WithProgress()
	}

	current.Source = models.SourceLive
	return current.WithProgress()
}

func (s *Service) reset(ctx context.Context, today, stale string) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	if err := s.store.Update(writeCtx, models.CollectionStats, models.DailyStatsID, models.ResetDocument(today)); err != nil {
		s.logger.Warn("failed to reset daily counter", zap.String("stale_day_key", stale), zap.Error(err))
		return
	}
	s.logger.Info("daily counter reset", zap.String("stale_day_key", stale), zap.String("day_key", today))
}

// Current reads the counter once without subscribing. A read that outlasts
// the fallback delay yields the baseline.
func (s *Service) Current(ctx context.Context) models.DailyStats {
	readCtx, cancel := context.WithTimeout(ctx, s.fallbackAfter)
	defer cancel()

	rec, err := s.store.Get(readCtx, models.CollectionStats, models.DailyStatsID)
	if errors.Is(err, docstore.ErrNotFound) {
		return Baseline(s.clock.DayKey(), models.SourceLive)
	}
	if err != nil {
		s.logger.Warn("failed to read daily counter", zap.Error(err))
		return Baseline(s.clock.DayKey(), models.SourceFallback)
	}
	return s.resolve(ctx, []docstore.Record{rec})
}

// Bump increments a counter field and touches last_updated. Failures, including
// a missing counter document, are logged and reported but never fatal.
func (s *Service) Bump(ctx context.Context, field string) error {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	if err := s.store.IncrementField(writeCtx, models.CollectionStats, models.DailyStatsID, field, 1); err != nil {
		s.logger.Debug("counter bump skipped", zap.String("field", field), zap.Error(err))
		return fmt.Errorf("bump %s: %w", field, err)
	}
	if err := s.store.Update(writeCtx, models.CollectionStats, models.DailyStatsID, docstore.Document{"last_updated": docstore.ServerTimestamp}); err != nil {
		s.logger.Debug("counter touch failed", zap.Error(err))
	}
	return nil
}

// Seed creates the counter with the baseline total when it does not exist yet.
// It reports whether a document was written.
func (s *Service) Seed(ctx context.Context) (bool, error) {
	_, err := s.store.Get(ctx, models.CollectionStats, models.DailyStatsID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return false, fmt.Errorf("read daily counter: %w", err)
	}

	if err := s.store.Set(ctx, models.CollectionStats, models.DailyStatsID, models.BaselineDocument(s.clock.DayKey())); err != nil {
		return false, fmt.Errorf("seed daily counter: %w", err)
	}
	return true, nil
}
