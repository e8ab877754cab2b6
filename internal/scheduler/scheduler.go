package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/iftarsharebd/iftarmap/internal/clock"
	"github.com/iftarsharebd/iftarmap/internal/config"
	"github.com/iftarsharebd/iftarmap/internal/service/curation"
	"github.com/iftarsharebd/iftarmap/internal/service/session"
)

const curationTimeout = 2 * time.Minute

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron        *cron.Cron
	cfg         config.SchedulerConfig
	clock       clock.Clock
	sessions    *session.SessionManager
	curation    *curation.Service
	broadcaster *Broadcaster
	logger      *zap.Logger
}

// NewScheduler creates a new scheduler instance. Expressions carry a seconds
// field and run in the configured local timezone. A nil curation service
// disables the import job.
func NewScheduler(cfg config.SchedulerConfig, clk clock.Clock, sessions *session.SessionManager, curationSvc *curation.Service, broadcaster *Broadcaster, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if broadcaster == nil {
		broadcaster = NewBroadcaster()
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(cfg.Location()))

	return &Scheduler{
		cron:        c,
		cfg:         cfg,
		clock:       clk,
		sessions:    sessions,
		curation:    curationSvc,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// Broadcaster returns the rollover fan-out used by streaming handlers.
func (s *Scheduler) Broadcaster() *Broadcaster {
	return s.broadcaster
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("rollover", s.cfg.RolloverCron))

	if _, err := s.cron.AddFunc(s.cfg.RolloverCron, s.Rollover); err != nil {
		return err
	}

	if s.curation != nil && s.cfg.CurationCron != "" {
		if _, err := s.cron.AddFunc(s.cfg.CurationCron, s.importCuration); err != nil {
			s.logger.Error("failed to schedule curation import", zap.Error(err))
		}
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// Rollover forgets per-session state and tells live streams that the day changed.
func (s *Scheduler) Rollover() {
	dayKey := s.clock.DayKey()
	purged := 0
	if s.sessions != nil {
		purged = s.sessions.Purge()
	}
	delivered := s.broadcaster.Notify(dayKey)

	s.logger.Info("day rollover",
		zap.String("day_key", dayKey),
		zap.Int("sessions_purged", purged),
		zap.Int("streams_notified", delivered))
}

func (s *Scheduler) importCuration() {
	ctx, cancel := context.WithTimeout(context.Background(), curationTimeout)
	defer cancel()

	if _, err := s.curation.Import(ctx); err != nil {
		s.logger.Error("curation import failed", zap.Error(err))
	}
}
