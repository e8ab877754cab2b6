package geo

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

func TestHaversineMeters(t *testing.T) {
	if d := HaversineMeters(23.8, 90.4, 23.8, 90.4); d != 0 {
		t.Errorf("expected 0 for identical points, got %v", d)
	}

	d := HaversineMeters(0, 0, 0, 1)
	if math.Abs(d-111195) > 111195*0.01 {
		t.Errorf("expected ~111195m for one degree of longitude, got %v", d)
	}

	if d := HaversineMeters(math.NaN(), 0, 0, 0); !math.IsNaN(d) {
		t.Errorf("expected NaN to propagate, got %v", d)
	}
}

func TestPolicyEvaluate(t *testing.T) {
	claimed := Point{Latitude: 23.8, Longitude: 90.4}
	near := Point{Latitude: 23.801, Longitude: 90.4}
	far := Point{Latitude: 23.9, Longitude: 90.4}

	lenient := DefaultPolicy()
	strict := Policy{ThresholdMeters: 500, Strict: true}

	if c := lenient.Evaluate(near, claimed); c.Status != StatusOK || !c.Verified(lenient) {
		t.Errorf("near fix: got %+v", c)
	}

	c := lenient.Evaluate(far, claimed)
	if c.Status != StatusFar {
		t.Fatalf("expected far status, got %s", c.Status)
	}
	if !c.Verified(lenient) {
		t.Error("lenient policy must still accept a far fix")
	}
	if c.Verified(strict) {
		t.Error("strict policy must withhold the flag for a far fix")
	}
}

type slowLocator struct{}

func (slowLocator) Locate(ctx context.Context) (Point, error) {
	<-ctx.Done()
	return Point{}, ctx.Err()
}

type failingLocator struct{}

func (failingLocator) Locate(context.Context) (Point, error) {
	return Point{}, errors.New("permission denied")
}

func TestPolicyResolve(t *testing.T) {
	p := DefaultPolicy()
	claimed := Point{Latitude: 23.8, Longitude: 90.4}
	ctx := context.Background()

	if c := p.Resolve(ctx, nil, time.Second, claimed); c.Status != StatusIdle {
		t.Errorf("nil locator: expected idle, got %s", c.Status)
	}

	start := time.Now()
	if c := p.Resolve(ctx, slowLocator{}, 20*time.Millisecond, claimed); c.Status != StatusDenied {
		t.Errorf("timeout: expected denied, got %s", c.Status)
	}
	if time.Since(start) > time.Second {
		t.Error("resolve did not honour the timeout")
	}

	if c := p.Resolve(ctx, failingLocator{}, time.Second, claimed); c.Status != StatusDenied {
		t.Errorf("failure: expected denied, got %s", c.Status)
	}

	if c := p.Resolve(ctx, DeviceFix{}, time.Second, claimed); c.Status != StatusDenied {
		t.Errorf("missing fix: expected denied, got %s", c.Status)
	}

	fix := Point{Latitude: 23.8, Longitude: 90.4}
	c := p.Resolve(ctx, DeviceFix{Fix: &fix}, time.Second, claimed)
	if c.Status != StatusOK || c.Fix == nil || *c.Fix != fix {
		t.Errorf("device fix: got %+v", c)
	}
}
