package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/iftarsharebd/iftarmap/internal/server/handlers"
	"github.com/iftarsharebd/iftarmap/internal/service/session"
)

// New wires the Gin engine with required routes and middlewares. A nil
// webhook handler leaves the WhatsApp callback routes unregistered.
func New(handler *handlers.BoardHandler, webhook *handlers.WebhookHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if webhook != nil {
		r.GET("/webhook", webhook.Verify)
		r.POST("/webhook", webhook.Receive)
	}

	api := r.Group("/api", sessionMiddleware())
	api.GET("/day", handler.Day)

	api.GET("/spots", handler.Spots)
	api.GET("/spots/stream", handler.StreamSpots)
	api.POST("/spots", handler.AddSpot)
	api.POST("/spots/:id/vote", handler.Vote)

	api.GET("/routes", handler.Routes)
	api.GET("/routes/stream", handler.StreamRoutes)
	api.POST("/routes", handler.AddRoute)

	api.GET("/help", handler.HelpRequests)
	api.GET("/help/stream", handler.StreamHelpRequests)
	api.POST("/help", handler.AddHelpRequest)
	api.POST("/help/:id/fulfill", handler.MarkFulfilled)

	api.GET("/volunteers", handler.Volunteers)
	api.GET("/volunteers/stream", handler.StreamVolunteers)
	api.POST("/volunteers", handler.RegisterVolunteer)

	api.GET("/stats", handler.Stats)
	api.GET("/stats/stream", handler.StreamStats)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

// sessionMiddleware reads the client session id, issuing one when absent, and
// echoes it back so the client can keep it for the rest of the day.
func sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(session.Header)
		if id == "" {
			id = session.NewID()
		}
		c.Set(handlers.SessionIDKey, id)
		c.Header(session.Header, id)
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
