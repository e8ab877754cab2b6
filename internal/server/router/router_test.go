package router

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/iftarsharebd/iftarmap/internal/clock"
	"github.com/iftarsharebd/iftarmap/internal/domain/models"
	"github.com/iftarsharebd/iftarmap/internal/geo"
	"github.com/iftarsharebd/iftarmap/internal/repository/docstore"
	"github.com/iftarsharebd/iftarmap/internal/scheduler"
	"github.com/iftarsharebd/iftarmap/internal/server/handlers"
	"github.com/iftarsharebd/iftarmap/internal/service/board"
	"github.com/iftarsharebd/iftarmap/internal/service/session"
	"github.com/iftarsharebd/iftarmap/internal/service/stats"
	"github.com/iftarsharebd/iftarmap/internal/service/views"
)

type testEnv struct {
	store    *docstore.Memory
	rollover *scheduler.Broadcaster
	handler  http.Handler
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	ctx := context.Background()
	clk := clock.Clock{Now: func() time.Time { return time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC) }, Local: time.UTC}

	m := docstore.NewMemory(docstore.WithClock(clk.Now))
	t.Cleanup(func() { _ = m.Close(ctx) })

	statsSvc := stats.NewService(m, clk, nil)
	if _, err := statsSvc.Seed(ctx); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	boardSvc := board.NewService(m, clk, statsSvc, session.NewSessionManager(), nil, board.Config{Policy: geo.DefaultPolicy()}, nil)
	rollover := scheduler.NewBroadcaster()

	h := handlers.NewBoardHandler(views.NewBuilder(m, clk, time.Second, nil), boardSvc, statsSvc, clk, nil, rollover, nil)
	return testEnv{store: m, rollover: rollover, handler: New(h, nil, nil)}
}

func (e testEnv) do(t *testing.T, method, path, sessionID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(session.Header, sessionID)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndDay(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/api/day", "", "")
	var body struct {
		DayKey       string `json:"day_key"`
		MsUntilReset int64  `json:"ms_until_reset"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.DayKey != "2026-03-01" || body.MsUntilReset != 18*60*60*1000 {
		t.Errorf("unexpected day payload %+v", body)
	}
	if rec.Header().Get(session.Header) == "" {
		t.Error("expected a session id to be issued")
	}
}

func TestAddSpotAndVote(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/spots", "", `{"name":"X","location":"Y","lat":23.8,"lng":90.4,"meals":100}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created board.Submission[models.Spot]
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !created.Persisted || created.Record.Verified || created.Record.DayKey != "2026-03-01" {
		t.Errorf("unexpected submission %+v", created)
	}

	path := "/api/spots/" + created.Record.ID + "/vote"
	if rec := env.do(t, http.MethodPost, path, "s1", `{"vote":"yes"}`); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := env.do(t, http.MethodPost, path, "s1", `{"vote":"yes"}`); rec.Code != http.StatusConflict {
		t.Errorf("expected 409 on repeat vote, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, path, "s2", `{"vote":"maybe"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 on bad vote, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/spots/nope/vote", "s1", `{"vote":"no"}`); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown spot, got %d", rec.Code)
	}
}

func TestValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/routes", "", `{"location":"Farmgate","type":"flood","description":"x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"field":"type"`) {
		t.Errorf("expected the failing field in the body, got %s", rec.Body.String())
	}

	if rec := env.do(t, http.MethodPost, "/api/volunteers", "", `{not json`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed json, got %d", rec.Code)
	}
}

func TestHelpFulfilDisappearsFromList(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/help", "", `{"location":"Old Dhaka","need_description":"iftar for 50","people_count":50,"urgency":"low"}`)
	var created board.Submission[models.HelpRequest]
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil || created.Record.ID == "" {
		t.Fatalf("create failed: %d %s", rec.Code, rec.Body.String())
	}
	env.do(t, http.MethodPost, "/api/help", "", `{"location":"Mirpur","need_description":"water"}`)

	var list views.Snapshot[models.HelpRequest]
	rec = env.do(t, http.MethodGet, "/api/help", "", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Source != models.SourceLive || len(list.Items) != 2 || list.Items[0].Urgency != models.LevelHigh {
		t.Fatalf("unexpected list %+v", list)
	}

	if rec := env.do(t, http.MethodPost, "/api/help/"+created.Record.ID+"/fulfill", "s1", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/help/"+created.Record.ID+"/fulfill", "s2", ""); rec.Code != http.StatusConflict {
		t.Errorf("expected 409 on second fulfil, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/help", "", "")
	list = views.Snapshot[models.HelpRequest]{}
	_ = json.Unmarshal(rec.Body.Bytes(), &list)
	if len(list.Items) != 1 || list.Items[0].ID == created.Record.ID {
		t.Errorf("fulfilled request still listed: %+v", list.Items)
	}

	rec = env.do(t, http.MethodGet, "/api/stats", "", "")
	var daily models.DailyStats
	_ = json.Unmarshal(rec.Body.Bytes(), &daily)
	if daily.HelpFulfilled != 1 || daily.Total != models.BaselineTotal {
		t.Errorf("unexpected counter %+v", daily)
	}
}

func TestStatsStreamSnapshotAndReset(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/stats/stream", nil)
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("stream request failed: %v", err)
	}
	defer resp.Body.Close()

	lines := bufio.NewScanner(resp.Body)
	waitFor := func(event string) {
		t.Helper()
		for lines.Scan() {
			if lines.Text() == "event:"+event {
				return
			}
		}
		t.Fatalf("stream ended before %q event: %v", event, lines.Err())
	}

	waitFor("snapshot")
	env.rollover.Notify("2026-03-02")
	waitFor("reset")
	waitFor("snapshot")
}

type stubCoordinator struct{}

func (stubCoordinator) VerifyWebhookToken(mode, verifyToken, challenge string) (string, error) {
	if verifyToken != "secret" {
		return "", errors.New("invalid verify token")
	}
	return challenge, nil
}

func (stubCoordinator) HandleWebhook(context.Context, models.WebhookPayload) error {
	return nil
}

func TestWebhookRoutesOnlyWhenConfigured(t *testing.T) {
	env := newTestEnv(t)
	if rec := env.do(t, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=7", "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 without a webhook handler, got %d", rec.Code)
	}

	clk := clock.Clock{Now: func() time.Time { return time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC) }, Local: time.UTC}
	h := handlers.NewBoardHandler(views.NewBuilder(env.store, clk, time.Second, nil), nil, nil, clk, nil, env.rollover, nil)
	withWebhook := testEnv{store: env.store, rollover: env.rollover, handler: New(h, handlers.NewWebhookHandler(stubCoordinator{}, nil), nil)}

	rec := withWebhook.do(t, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=7", "", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "7" {
		t.Errorf("expected challenge echo, got %d %q", rec.Code, rec.Body.String())
	}
	if rec := withWebhook.do(t, http.MethodPost, "/webhook", "", `{"entry":[]}`); rec.Code != http.StatusOK {
		t.Errorf("expected 200 for an empty batch, got %d", rec.Code)
	}
}
