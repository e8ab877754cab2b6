package scheduler

import (
	"testing"
	"time"

	"github.com/iftarsharebd/iftarmap/internal/clock"
	"github.com/iftarsharebd/iftarmap/internal/config"
	"github.com/iftarsharebd/iftarmap/internal/service/session"
)

func TestRolloverPurgesAndBroadcasts(t *testing.T) {
	sessions := session.NewSessionManager()
	sessions.MarkVoted("s1", "spot-1")

	clk := clock.Clock{Now: func() time.Time { return time.Date(2026, 3, 1, 18, 0, 1, 0, time.UTC) }}
	s := NewScheduler(config.SchedulerConfig{RolloverCron: "1 0 0 * * *"}, clk, sessions, nil, nil, nil)

	ch, release := s.Broadcaster().Subscribe()
	defer release()

	s.Rollover()

	if sessions.HasVoted("s1", "spot-1") {
		t.Error("expected sessions to be purged")
	}
	select {
	case day := <-ch:
		if day != "2026-03-02" {
			t.Errorf("expected new day key 2026-03-02, got %s", day)
		}
	default:
		t.Fatal("expected a rollover signal")
	}
}

func TestBroadcasterKeepsLatestAndReleases(t *testing.T) {
	b := NewBroadcaster()
	ch, release := b.Subscribe()

	b.Notify("2026-03-01")
	b.Notify("2026-03-02")
	if got := <-ch; got != "2026-03-02" {
		t.Errorf("expected latest signal, got %s", got)
	}

	release()
	release()
	if n := b.Notify("2026-03-03"); n != 0 {
		t.Errorf("expected no subscribers after release, got %d", n)
	}
}

func TestStartRejectsBadExpression(t *testing.T) {
	s := NewScheduler(config.SchedulerConfig{RolloverCron: "not cron"}, clock.Clock{}, nil, nil, nil, nil)
	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatal("expected invalid rollover expression to fail")
	}
}
