package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"firebase.google.com/go/v4/messaging"

	"github.com/iftarsharebd/iftarmap/internal/domain/models"
)

type fakeFCM struct {
	sent []*messaging.Message
	err  error
}

func (f *fakeFCM) Send(_ context.Context, m *messaging.Message) (string, error) {
	f.sent = append(f.sent, m)
	return "projects/p/messages/1", f.err
}

type fakeSender struct {
	to, body string
	err      error
}

func (f *fakeSender) SendText(_ context.Context, to, body string) (string, error) {
	f.to, f.body = to, body
	return "wamid.1", f.err
}

var req = models.HelpRequest{
	ID:              "h1",
	Name:            "Rickshaw group",
	Location:        "Old Dhaka",
	Lat:             23.7104,
	Lng:             90.4074,
	PeopleCount:     50,
	Urgency:         models.LevelHigh,
	NeedDescription: "iftar for 50",
	Contact:         "017",
	DayKey:          "2026-03-01",
}

func TestFCMNotifier(t *testing.T) {
	f := &fakeFCM{}
	if err := NewFCM(f, "help-high", nil).NotifyHelpRequest(context.Background(), req); err != nil {
		t.Fatalf("NotifyHelpRequest failed: %v", err)
	}
	if len(f.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(f.sent))
	}
	m := f.sent[0]
	if m.Topic != "help-high" || m.Data["help_request_id"] != "h1" || m.Data["urgency"] != "high" {
		t.Errorf("unexpected message %+v", m)
	}
	if !strings.Contains(m.Notification.Body, "iftar for 50") {
		t.Errorf("body missing need: %q", m.Notification.Body)
	}
}

func TestWhatsAppNotifier(t *testing.T) {
	s := &fakeSender{}
	if err := NewWhatsApp(s, "88017", nil).NotifyHelpRequest(context.Background(), req); err != nil {
		t.Fatalf("NotifyHelpRequest failed: %v", err)
	}
	if s.to != "88017" || !strings.Contains(s.body, "23.710400,90.407400") || !strings.Contains(s.body, "017") {
		t.Errorf("unexpected text to %s: %q", s.to, s.body)
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	ok := &fakeSender{}
	failing := &fakeFCM{err: errors.New("quota")}
	m := Multi{NewFCM(failing, "t", nil), NewWhatsApp(ok, "1", nil), Nop{}}

	err := m.NotifyHelpRequest(context.Background(), req)
	if err == nil || !strings.Contains(err.Error(), "quota") {
		t.Errorf("expected joined error, got %v", err)
	}
	if ok.to != "1" {
		t.Error("a failing notifier must not stop the others")
	}
}
