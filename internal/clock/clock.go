// Package clock derives the logical day that partitions ephemeral records and
// the countdown to the next client reload.
package clock

import "time"

// DayKeyLayout is the wire format of a day key.
const DayKeyLayout = "2006-01-02"

// DayKeyOffset shifts wall-clock time into the board's fixed UTC+6 day.
const DayKeyOffset = 6 * time.Hour

// Clock reads wall-clock time. The zero value uses time.Now and time.Local.
type Clock struct {
	Now   func() time.Time
	Local *time.Location
}

// New returns a Clock whose countdown runs in the given device-local location.
func New(local *time.Location) Clock {
	return Clock{Now: time.Now, Local: local}
}

func (c Clock) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c Clock) local() *time.Location {
	if c.Local == nil {
		return time.Local
	}
	return c.Local
}

// DayKey returns the current logical day as YYYY-MM-DD.
func (c Clock) DayKey() string {
	return DayKeyAt(c.now())
}

// DayKeyAt computes the day key for t: shift by +6h, take the UTC calendar date.
func DayKeyAt(t time.Time) string {
	return t.UTC().Add(DayKeyOffset).Format(DayKeyLayout)
}

// UntilNextReset returns the time left until the next midnight in the
// device-local location. This deliberately ignores the +6h day-key offset.
func (c Clock) UntilNextReset() time.Duration {
	now := c.now().In(c.local())
	y, m, d := now.Date()
	midnight := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
	return midnight.Sub(now)
}

// MsUntilNextReset is UntilNextReset in whole milliseconds, within (0, 86_400_000].
func (c Clock) MsUntilNextReset() int64 {
	ms := c.UntilNextReset().Milliseconds()
	if ms <= 0 {
		return 1
	}
	if ms > 86_400_000 {
		return 86_400_000
	}
	return ms
}
