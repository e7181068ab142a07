// Package wallclock converts the daily boundaries of a time policy into
// absolute timestamps.
//
// Boundaries are stored by the mobile client as ISO-8601 UTC date-times
// ("2023-05-01T13:00:00.000Z"). Only the clock part is meaningful and it is
// a UTC clock value: adding the user's fixed timezone offset yields the
// local hour. A day anchor is the epoch-millisecond timestamp of a local
// midnight, so
//
//	Resolve(c, anchor, offset) = anchor + ((c.Hour+offset) mod 24)h + c.Minute
//
// No daylight-saving rules apply; the offset is fixed.
package wallclock

import (
	"fmt"
	"strings"
	"time"
)

const (
	// HourMillis is one hour in milliseconds.
	HourMillis int64 = 60 * 60 * 1000
	// DayMillis is one day in milliseconds.
	DayMillis int64 = 24 * HourMillis

	minuteMillis int64 = 60 * 1000
)

// StoredLayout is the layout the client writes boundaries in.
const StoredLayout = "2006-01-02T15:04:05.000Z"

// Clock is a time of day.
type Clock struct {
	Hour   int
	Minute int
}

// String formats the clock as HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Valid reports whether the clock is within 00:00 to 23:59.
func (c Clock) Valid() bool {
	return c.Hour >= 0 && c.Hour <= 23 && c.Minute >= 0 && c.Minute <= 59
}

// Parse reads a stored boundary. It accepts the client's layout, any
// RFC3339 date-time (converted to UTC) and a bare "HH:MM".
func Parse(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Clock{}, fmt.Errorf("empty time boundary")
	}

	if t, err := time.Parse(StoredLayout, s); err == nil {
		return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t = t.UTC()
		return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
	}
	if t, err := time.Parse("15:04", s); err == nil {
		return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
	}

	return Clock{}, fmt.Errorf("unrecognised time boundary %q", s)
}

// Resolve returns the absolute timestamp of boundary c on the day starting
// at anchor. An hour pushed past 23 by the offset wraps back onto the same
// anchor.
func Resolve(c Clock, anchor int64, offsetHours int) int64 {
	hour := c.Hour + offsetHours
	if hour > 23 {
		hour -= 24
	}
	if hour < 0 {
		hour += 24
	}
	return anchor + int64(hour)*HourMillis + int64(c.Minute)*minuteMillis
}

// Window resolves a start/end pair on the day starting at anchor. When the
// resolved end is earlier than the resolved start the window crosses local
// midnight and the end moves to the following day.
func Window(start, end Clock, anchor int64, offsetHours int) (int64, int64) {
	startTS := Resolve(start, anchor, offsetHours)
	endTS := Resolve(end, anchor, offsetHours)
	if endTS < startTS {
		endTS += DayMillis
	}
	return startTS, endTS
}

// DayAnchor returns the local midnight on or before ts's UTC day, that is
// the UTC day floor shifted back by the offset.
func DayAnchor(ts int64, offsetHours int) int64 {
	return ts - mod(ts, DayMillis) - int64(offsetHours)*HourMillis
}

func mod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
