package geo

import (
	"context"
	"errors"
	"time"
)

// DefaultThresholdMeters is the conventional "near enough" radius for a GPS fix.
const DefaultThresholdMeters = 500.0

// ErrLocationDenied signals that no location fix is available, either because
// the device refused or the request timed out.
var ErrLocationDenied = errors.New("location denied")

// Status is the outcome of a GPS check as shown to the submitter.
type Status string

const (
	StatusIdle   Status = "idle"
	StatusOK     Status = "ok"
	StatusFar    Status = "far"
	StatusDenied Status = "denied"
)

// Locator resolves the submitter's current position.
type Locator interface {
	Locate(ctx context.Context) (Point, error)
}

// DeviceFix is a Locator backed by a fix the client already obtained.
type DeviceFix struct {
	Fix *Point
}

// Locate returns the device fix or ErrLocationDenied when the client sent none.
func (d DeviceFix) Locate(ctx context.Context) (Point, error) {
	if err := ctx.Err(); err != nil {
		return Point{}, ErrLocationDenied
	}
	if d.Fix == nil {
		return Point{}, ErrLocationDenied
	}
	return *d.Fix, nil
}

// Check is the result of evaluating a fix against a claimed location.
type Check struct {
	Status         Status  `json:"status"`
	DistanceMeters float64 `json:"distance_meters,omitempty"`
	Fix            *Point  `json:"fix,omitempty"`
}

// Verified reports whether the submission may be flagged as GPS verified under p.
func (c Check) Verified(p Policy) bool {
	switch c.Status {
	case StatusOK:
		return true
	case StatusFar:
		return !p.Strict
	default:
		return false
	}
}

// Policy decides how a fix relates to the claimed location. The check is
// informational: it never rejects a submission, Strict only withholds the flag.
type Policy struct {
	ThresholdMeters float64
	Strict          bool
}

// DefaultPolicy accepts any fix, matching how the board has always behaved.
func DefaultPolicy() Policy {
	return Policy{ThresholdMeters: DefaultThresholdMeters}
}

// Evaluate compares a fix with the claimed coordinates.
func (p Policy) Evaluate(fix, claimed Point) Check {
	threshold := p.ThresholdMeters
	if threshold <= 0 {
		threshold = DefaultThresholdMeters
	}

	dist := fix.DistanceTo(claimed)
	check := Check{Status: StatusOK, DistanceMeters: dist, Fix: &fix}
	if !(dist < threshold) {
		check.Status = StatusFar
	}
	return check
}

// Resolve asks loc for a fix within timeout and evaluates it against claimed.
// A nil locator yields StatusIdle; any failure or timeout yields StatusDenied.
func (p Policy) Resolve(ctx context.Context, loc Locator, timeout time.Duration, claimed Point) Check {
	if loc == nil {
		return Check{Status: StatusIdle}
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	fix, err := loc.Locate(ctx)
	if err != nil {
		return Check{Status: StatusDenied}
	}
	return p.Evaluate(fix, claimed)
}
