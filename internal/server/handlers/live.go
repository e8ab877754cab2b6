package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/iftarsharebd/iftarmap/internal/repository/docstore"
	"github.com/iftarsharebd/iftarmap/internal/service/views"
)

// Spots returns the current merged spot list.
func (h *BoardHandler) Spots(c *gin.Context) {
	snapshot(h, c, h.views.Spots)
}

// Routes returns today's road reports.
func (h *BoardHandler) Routes(c *gin.Context) {
	snapshot(h, c, h.views.Routes)
}

// HelpRequests returns today's open aid requests.
func (h *BoardHandler) HelpRequests(c *gin.Context) {
	snapshot(h, c, h.views.HelpRequests)
}

// Volunteers returns the volunteer leaderboard.
func (h *BoardHandler) Volunteers(c *gin.Context) {
	snapshot(h, c, h.views.Volunteers)
}

// Stats returns the daily counter.
func (h *BoardHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.stats.Current(c.Request.Context()))
}

// StreamSpots pushes spot snapshots as server-sent events.
func (h *BoardHandler) StreamSpots(c *gin.Context) {
	stream(h, c, "spots", h.views.Spots)
}

// StreamRoutes pushes road report snapshots.
func (h *BoardHandler) StreamRoutes(c *gin.Context) {
	stream(h, c, "routes", h.views.Routes)
}

// StreamHelpRequests pushes aid request snapshots.
func (h *BoardHandler) StreamHelpRequests(c *gin.Context) {
	stream(h, c, "help", h.views.HelpRequests)
}

// StreamVolunteers pushes leaderboard snapshots.
func (h *BoardHandler) StreamVolunteers(c *gin.Context) {
	stream(h, c, "volunteers", h.views.Volunteers)
}

// StreamStats pushes counter updates.
func (h *BoardHandler) StreamStats(c *gin.Context) {
	stream(h, c, "stats", h.stats.Subscribe)
}

func snapshot[T any](h *BoardHandler, c *gin.Context, open func(context.Context, func(views.Snapshot[T])) docstore.Unsubscribe) {
	snap, err := views.First(c.Request.Context(), open)
	if err != nil {
		h.logger.Debug("snapshot abandoned", zap.String("path", c.FullPath()), zap.Error(err))
		c.Status(http.StatusServiceUnavailable)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// stream keeps one live subscription per connection. At rollover it sends a
// reset event and re-subscribes so the new day key takes effect. Each
// subscription writes to its own channel, so a callback still in flight from
// the previous day is dropped. The subscription is always released when the
// client goes away.
func stream[T any](h *BoardHandler, c *gin.Context, name string, open func(context.Context, func(T)) docstore.Unsubscribe) {
	ctx := c.Request.Context()
	logger := h.logger.With(zap.String("stream", name))

	subscribe := func() (<-chan T, docstore.Unsubscribe) {
		updates := make(chan T, 1)
		return updates, open(ctx, latest(updates))
	}

	resets, release := h.rollover.Subscribe()
	defer release()

	updates, unsub := subscribe()
	defer func() { unsub() }()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	logger.Debug("stream opened")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case v := <-updates:
			c.SSEvent("snapshot", v)
			return true
		case day := <-resets:
			unsub()
			updates, unsub = subscribe()
			c.SSEvent("reset", gin.H{"day_key": day})
			return true
		}
	})
	logger.Debug("stream closed")
}

// latest returns a non-blocking sender that keeps only the newest value in ch.
func latest[T any](ch chan T) func(T) {
	return func(v T) {
		for {
			select {
			case ch <- v:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	}
}
