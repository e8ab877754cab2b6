package handlers

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/iftarsharebd/iftarmap/internal/repository/docstore"
	"github.com/iftarsharebd/iftarmap/internal/scheduler"
)

// pushRecorder keeps the callback of every subscription the stream opens.
type pushRecorder struct {
	mu     sync.Mutex
	pushes []func(int)
}

func (r *pushRecorder) open(_ context.Context, push func(int)) docstore.Unsubscribe {
	r.mu.Lock()
	r.pushes = append(r.pushes, push)
	n := len(r.pushes)
	r.mu.Unlock()
	if n == 1 {
		push(1)
	}
	return func() {}
}

func (r *pushRecorder) push(i, v int) {
	r.mu.Lock()
	p := r.pushes[i]
	r.mu.Unlock()
	p(v)
}

func TestStreamDropsPreviousDayUpdates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rollover := scheduler.NewBroadcaster()
	h := &BoardHandler{rollover: rollover, logger: zap.NewNop()}
	rec := &pushRecorder{}

	engine := gin.New()
	engine.GET("/stream", func(c *gin.Context) { stream(h, c, "test", rec.open) })
	srv := httptest.NewServer(engine)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/stream", nil)
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("stream request failed: %v", err)
	}
	defer resp.Body.Close()

	lines := bufio.NewScanner(resp.Body)
	nextData := func(event string) string {
		t.Helper()
		for lines.Scan() {
			if lines.Text() != "event:"+event {
				continue
			}
			if lines.Scan() {
				return lines.Text()
			}
		}
		t.Fatalf("stream ended before %q event: %v", event, lines.Err())
		return ""
	}

	if got := nextData("snapshot"); got != "data:1" {
		t.Fatalf("expected first snapshot data:1, got %q", got)
	}

	rollover.Notify("2026-03-02")
	nextData("reset")

	// The first subscription is still finishing a callback after the reset.
	rec.push(0, 99)
	rec.push(1, 2)

	if got := nextData("snapshot"); got != "data:2" {
		t.Errorf("expected the new day's snapshot data:2, got %q", got)
	}
}
