// Package whatsapp handles replies sent by the coordinator to the alert number.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iftarsharebd/iftarmap/internal/config"
	"github.com/iftarsharebd/iftarmap/internal/domain/models"
	"github.com/iftarsharebd/iftarmap/internal/service/board"
	client "github.com/iftarsharebd/iftarmap/pkg/clients/whatsapp"
)

const replyTimeout = 10 * time.Second

// MessagingService describes the operations the HTTP layer can perform.
type MessagingService interface {
	VerifyWebhookToken(mode, verifyToken, challenge string) (string, error)
	HandleWebhook(ctx context.Context, payload models.WebhookPayload) error
}

// Fulfiller closes aid requests.
type Fulfiller interface {
	MarkFulfilled(ctx context.Context, sessionID, requestID string) (board.FulfilResult, error)
}

// StatsReader reads the daily counter.
type StatsReader interface {
	Current(ctx context.Context) models.DailyStats
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg       config.WhatsAppConfig
	client    client.Sender
	fulfiller Fulfiller
	stats     StatsReader
	logger    *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, client client.Sender, fulfiller Fulfiller, stats StatsReader, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		cfg:       cfg,
		client:    client,
		fulfiller: fulfiller,
		stats:     stats,
		logger:    logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

const helpReply = "কমান্ড: done <request-id> সাহায্য সম্পন্ন করতে, status আজকের হিসাব দেখতে।"

// VerifyWebhookToken validates the callback verification token.
func (s *MetaWhatsAppService) VerifyWebhookToken(mode, verifyToken, challenge string) (string, error) {
	if mode == "" || verifyToken == "" {
		return "", errors.New("missing mode or verify token")
	}

	if !strings.EqualFold(mode, "subscribe") {
		return "", fmt.Errorf("unsupported hub.mode %s", mode)
	}

	if s.cfg.VerifyToken == "" || verifyToken != s.cfg.VerifyToken {
		return "", errors.New("invalid verify token")
	}

	return challenge, nil
}

// HandleWebhook processes inbound webhook payloads. Messages from anyone but
// the coordinator are ignored.
func (s *MetaWhatsAppService) HandleWebhook(ctx context.Context, payload models.WebhookPayload) error {
	var firstErr error

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.From != s.cfg.CoordinatorID {
					s.logger.Debug("ignoring message from non-coordinator", zap.String("from", msg.From))
					continue
				}
				if err := s.handleInboundMessage(ctx, msg); err != nil {
					s.logger.Error("failed to handle inbound message", zap.Error(err), zap.String("message_id", msg.ID))
					if firstErr == nil {
						firstErr = err
					}
				}
			}
		}
	}

	return firstErr
}

func (s *MetaWhatsAppService) handleInboundMessage(ctx context.Context, msg models.InboundMessage) error {
	text := msg.Body()
	if text == "" {
		return errors.New("empty message body")
	}

	cmd := models.ParseCommand(text)
	s.logger.Info("parsed coordinator command",
		zap.String("from", msg.From),
		zap.String("command", string(cmd.Type)),
		zap.Strings("args", cmd.Args))

	var reply string
	switch cmd.Type {
	case models.CommandDone:
		reply = s.markDone(ctx, msg.From, cmd.Args)
	case models.CommandStatus:
		reply = statusReply(s.stats.Current(ctx))
	default:
		reply = helpReply
	}

	replyCtx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()

	_, err := s.client.SendText(replyCtx, msg.From, reply)
	return err
}

func (s *MetaWhatsAppService) markDone(ctx context.Context, from string, args []string) string {
	if len(args) == 0 {
		return helpReply
	}

	id := args[0]
	_, err := s.fulfiller.MarkFulfilled(ctx, "whatsapp:"+from, id)
	switch {
	case err == nil:
		return fmt.Sprintf("✅ %s সম্পন্ন হিসেবে চিহ্নিত", id)
	case errors.Is(err, board.ErrAlreadyFulfilled):
		return fmt.Sprintf("%s আগেই সম্পন্ন হয়েছে", id)
	case errors.Is(err, board.ErrRequestNotFound):
		return fmt.Sprintf("%s খুঁজে পাওয়া যায়নি", id)
	default:
		s.logger.Warn("coordinator fulfil failed", zap.String("help_request_id", id), zap.Error(err))
		return "এই মুহূর্তে আপডেট করা যায়নি, আবার চেষ্টা করুন"
	}
}

func statusReply(d models.DailyStats) string {
	d = d.WithProgress()
	return fmt.Sprintf("📊 %s\nমোট খাবার: %d (%.0f%%)\nস্থান: %d, স্বেচ্ছাসেবক: %d\nসাহায্য সম্পন্ন: %d, রাস্তার রিপোর্ট: %d",
		d.DayKey, d.Total, d.Progress, d.Locations, d.Volunteers, d.HelpFulfilled, d.RoutesReported)
}
