// Package notify alerts helpers when an urgent aid request is posted.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"

	"github.com/iftarsharebd/iftarmap/internal/domain/models"
	"github.com/iftarsharebd/iftarmap/pkg/clients/whatsapp"
)

// Notifier is told about newly stored aid requests.
type Notifier interface {
	NotifyHelpRequest(ctx context.Context, req models.HelpRequest) error
}

// Nop discards every notification.
type Nop struct{}

// NotifyHelpRequest does nothing.
func (Nop) NotifyHelpRequest(context.Context, models.HelpRequest) error { return nil }

// Multi fans a notification out to every notifier and joins their errors.
type Multi []Notifier

// NotifyHelpRequest calls each notifier in order.
func (m Multi) NotifyHelpRequest(ctx context.Context, req models.HelpRequest) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyHelpRequest(ctx, req); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MessageSender is the subset of the FCM client used here.
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCM pushes a topic message through Firebase Cloud Messaging.
type FCM struct {
	client MessageSender
	topic  string
	logger *zap.Logger
}

// NewFCM builds a topic notifier.
func NewFCM(client MessageSender, topic string, logger *zap.Logger) *FCM {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FCM{client: client, topic: topic, logger: logger}
}

// NotifyHelpRequest publishes the request to the configured topic.
func (f *FCM) NotifyHelpRequest(ctx context.Context, req models.HelpRequest) error {
	msg := &messaging.Message{
		Topic: f.topic,
		Notification: &messaging.Notification{
			Title: "জরুরি ইফতার সাহায্য প্রয়োজন",
			Body:  summary(req),
		},
		Data: map[string]string{
			"help_request_id": req.ID,
			"urgency":         string(req.Urgency),
			"lat":             strconv.FormatFloat(req.Lat, 'f', 6, 64),
			"lng":             strconv.FormatFloat(req.Lng, 'f', 6, 64),
			"day_key":         req.DayKey,
		},
	}

	id, err := f.client.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to send FCM message: %w", err)
	}
	f.logger.Debug("fcm message sent", zap.String("message_id", id), zap.String("topic", f.topic))
	return nil
}

// WhatsApp texts a coordinator number.
type WhatsApp struct {
	client      whatsapp.Sender
	coordinator string
	logger      *zap.Logger
}

// NewWhatsApp builds a coordinator notifier.
func NewWhatsApp(client whatsapp.Sender, coordinator string, logger *zap.Logger) *WhatsApp {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WhatsApp{client: client, coordinator: coordinator, logger: logger}
}

// NotifyHelpRequest sends a short text describing the request.
func (w *WhatsApp) NotifyHelpRequest(ctx context.Context, req models.HelpRequest) error {
	body := fmt.Sprintf("🚨 %s\n📍 https://maps.google.com/?q=%.6f,%.6f", summary(req), req.Lat, req.Lng)
	if req.Contact != "" {
		body += "\n📞 " + req.Contact
	}

	id, err := w.client.SendText(ctx, w.coordinator, body)
	if err != nil {
		return fmt.Errorf("notify coordinator: %w", err)
	}
	w.logger.Debug("coordinator alerted", zap.String("message_id", id))
	return nil
}

func summary(req models.HelpRequest) string {
	where := req.Location
	if req.Name != "" {
		where = req.Name + ", " + req.Location
	}
	return fmt.Sprintf("%s (%d জন): %s", where, req.PeopleCount, req.NeedDescription)
}
