package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/iftarsharebd/iftarmap/internal/domain/models"
	service "github.com/iftarsharebd/iftarmap/internal/service/whatsapp"
)

// WebhookHandler accepts the coordinator's WhatsApp replies and the delivery
// receipts of the aid alerts sent to them.
type WebhookHandler struct {
	coordinator service.MessagingService
	logger      *zap.Logger
}

// NewWebhookHandler constructs the coordinator callback adapter.
func NewWebhookHandler(coordinator service.MessagingService, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{coordinator: coordinator, logger: logger}
}

// Verify answers the hub.challenge handshake Meta sends when the callback URL is registered.
func (h *WebhookHandler) Verify(c *gin.Context) {
	challenge, err := h.coordinator.VerifyWebhookToken(c.Query("hub.mode"), c.Query("hub.verify_token"), c.Query("hub.challenge"))
	if err != nil {
		h.logger.Warn("callback handshake rejected", zap.String("client_ip", c.ClientIP()), zap.Error(err))
		c.String(http.StatusForbidden, "verification failed")
		return
	}
	c.String(http.StatusOK, challenge)
}

// Receive handles a callback batch. Alert receipts are only logged; replies
// are handed to the coordinator service. Anything well-formed is acknowledged
// with 200, even when a reply could not be applied, so Meta does not redeliver.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.Warn("invalid webhook payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	replies := 0
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			replies += len(change.Value.Messages)
			for _, receipt := range change.Value.Statuses {
				if receipt.Status == "failed" {
					h.logger.Warn("aid alert not delivered", zap.String("message_id", receipt.ID), zap.String("recipient", receipt.RecipientID))
				}
			}
		}
	}
	if replies == 0 {
		c.Status(http.StatusOK)
		return
	}

	if err := h.coordinator.HandleWebhook(c.Request.Context(), payload); err != nil {
		h.logger.Error("coordinator reply not applied", zap.Int("replies", replies), zap.Error(err))
	}
	c.Status(http.StatusOK)
}
