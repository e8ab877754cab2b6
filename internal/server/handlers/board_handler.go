package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/iftarsharebd/iftarmap/internal/clock"
	"github.com/iftarsharebd/iftarmap/internal/domain/models"
	"github.com/iftarsharebd/iftarmap/internal/geo"
	"github.com/iftarsharebd/iftarmap/internal/scheduler"
	"github.com/iftarsharebd/iftarmap/internal/service/board"
	"github.com/iftarsharebd/iftarmap/internal/service/stats"
	"github.com/iftarsharebd/iftarmap/internal/service/views"
	"github.com/iftarsharebd/iftarmap/pkg/clients/ipapi"
)

// SessionIDKey is the gin context key holding the caller's session id.
const SessionIDKey = "session_id"

// BoardHandler serves the board's read, stream and write endpoints.
type BoardHandler struct {
	views    *views.Builder
	board    *board.Service
	stats    *stats.Service
	clock    clock.Clock
	ip       ipapi.Client
	rollover *scheduler.Broadcaster
	logger   *zap.Logger
}

// NewBoardHandler constructs the HTTP handler adapter. A nil ip client
// disables ?locate=ip.
func NewBoardHandler(v *views.Builder, b *board.Service, s *stats.Service, clk clock.Clock, ip ipapi.Client, rollover *scheduler.Broadcaster, logger *zap.Logger) *BoardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rollover == nil {
		rollover = scheduler.NewBroadcaster()
	}
	return &BoardHandler{
		views:    v,
		board:    b,
		stats:    s,
		clock:    clk,
		ip:       ip,
		rollover: rollover,
		logger:   logger,
	}
}

// Day reports the current day key and the countdown to the client reload.
func (h *BoardHandler) Day(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"day_key":        h.clock.DayKey(),
		"ms_until_reset": h.clock.MsUntilNextReset(),
	})
}

// locator picks the position source for a submission: a device fix in the
// body wins, ?locate=ip falls back to the caller's address.
func (h *BoardHandler) locator(c *gin.Context, fix *geo.Point) geo.Locator {
	if fix != nil {
		return geo.DeviceFix{Fix: fix}
	}
	switch c.Query("locate") {
	case "ip":
		if h.ip == nil {
			return geo.DeviceFix{}
		}
		return ipapi.Locator{Client: h.ip, IP: c.ClientIP()}
	case "device":
		return geo.DeviceFix{}
	}
	return nil
}

func sessionID(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}

func (h *BoardHandler) fail(c *gin.Context, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "fields": verr.Fields})
	case errors.Is(err, board.ErrSpotNotFound), errors.Is(err, board.ErrRequestNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, board.ErrAlreadyVoted), errors.Is(err, board.ErrVotingClosed), errors.Is(err, board.ErrAlreadyFulfilled):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *BoardHandler) badBody(c *gin.Context, err error) {
	h.logger.Warn("invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}
