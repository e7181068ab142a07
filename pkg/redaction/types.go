package redaction

import (
	"context"
	"sort"
	"strings"
	"time"
)

// Mode is the privacy mode of one data type.
type Mode string

const (
	// ModeOn makes every record of the data type visible.
	ModeOn Mode = "on"
	// ModeOff hides every record of the data type.
	ModeOff Mode = "off"
	// ModeTime redacts records inside a daily wall-clock window.
	ModeTime Mode = "time"
	// ModeLocation redacts records captured inside a geofence.
	ModeLocation Mode = "location"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeOn, ModeOff, ModeTime, ModeLocation:
		return true
	}
	return false
}

// Redacting reports whether the mode produces redaction intervals.
func (m Mode) Redacting() bool {
	return m == ModeTime || m == ModeLocation
}

// User is the membership document of one user as stored by the
// settings endpoints. Field names match the stored document.
type User struct {
	Email             string                    `json:"email" bson:"email" yaml:"email"`
	Status            map[string]Mode           `json:"status" bson:"status" yaml:"status"`
	TimeFiltering     map[string]TimeFilter     `json:"timeFiltering" bson:"timeFiltering" yaml:"timeFiltering"`
	LocationFiltering map[string]LocationFilter `json:"locationFiltering" bson:"locationFiltering" yaml:"locationFiltering"`
}

// TimeFilter is the stored form of a time policy. StartingTime and
// EndingTime are ISO-8601 UTC date-times of which only the clock is used.
type TimeFilter struct {
	StartingTime string `json:"startingTime,omitempty" bson:"startingTime,omitempty" yaml:"startingTime,omitempty"`
	EndingTime   string `json:"endingTime,omitempty" bson:"endingTime,omitempty" yaml:"endingTime,omitempty"`
	ApplyTS      int64  `json:"applyTS,omitempty" bson:"applyTS,omitempty" yaml:"applyTS,omitempty"`
}

// IsZero reports whether the filter is the empty placeholder written at
// account creation.
func (f TimeFilter) IsZero() bool {
	return f.StartingTime == "" && f.EndingTime == ""
}

// LocationFilter is the stored form of a location policy. Radius is in
// meters.
type LocationFilter struct {
	Latitude  float64 `json:"latitude,omitempty" bson:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty" bson:"longitude,omitempty" yaml:"longitude,omitempty"`
	Radius    float64 `json:"radius,omitempty" bson:"radius,omitempty" yaml:"radius,omitempty"`
	ApplyTS   int64   `json:"applyTS,omitempty" bson:"applyTS,omitempty" yaml:"applyTS,omitempty"`
}

// IsZero reports whether the filter is the empty placeholder written at
// account creation.
func (f LocationFilter) IsZero() bool {
	return f.Latitude == 0 && f.Longitude == 0 && f.Radius == 0
}

// DataTypes returns the user's data types in a stable order.
func (u *User) DataTypes() []string {
	names := make([]string, 0, len(u.Status))
	for name := range u.Status {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LocationSample is one position fix reported by a device.
type LocationSample struct {
	Email     string  `json:"email" bson:"email"`
	Timestamp int64   `json:"timestamp" bson:"timestamp"`
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}

// Subject identifies the owner of an event record.
type Subject struct {
	Email string `json:"email" bson:"email"`
}

// EventRecord is one entry of the primary event log. Payload holds the
// remaining fields of the stored document.
type EventRecord struct {
	ID        string         `json:"id,omitempty" bson:"-"`
	Subject   Subject        `json:"subject" bson:"subject"`
	DatumType string         `json:"datumType" bson:"datumType"`
	Timestamp int64          `json:"timestamp" bson:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty" bson:"-"`
}

// Interval is a range of epoch-millisecond timestamps. Consumers treat it
// as open on both ends.
type Interval struct {
	StartTS int64 `json:"startTS"`
	EndTS   int64 `json:"endTS"`
}

// Covers reports whether ts lies strictly inside the interval.
func (i Interval) Covers(ts int64) bool {
	return ts > i.StartTS && ts < i.EndTS
}

// Contains reports whether ts lies inside the interval or on one of its
// bounds.
func (i Interval) Contains(ts int64) bool {
	return ts >= i.StartTS && ts <= i.EndTS
}

// AtOrAfter clips the interval so that it only covers timestamps at or
// after floor. It reports false when nothing remains.
func (i Interval) AtOrAfter(floor int64) (Interval, bool) {
	if floor > 0 && i.StartTS < floor-1 {
		i.StartTS = floor - 1
	}
	if i.EndTS-i.StartTS < 2 {
		return i, false
	}
	return i, true
}

// Window bounds a query on timestamps. Both bounds are exclusive; a zero
// bound is unbounded.
type Window struct {
	From int64
	To   int64
}

// Contains reports whether ts lies strictly inside the window.
func (w Window) Contains(ts int64) bool {
	if w.From != 0 && ts <= w.From {
		return false
	}
	if w.To != 0 && ts >= w.To {
		return false
	}
	return true
}

// EventQuery selects event records of one subject and data type.
// After and Before are exclusive; zero means unbounded.
type EventQuery struct {
	Email     string
	DatumType string
	After     int64
	Before    int64
}

// NewEventQuery builds a query for the given interval, normalising the data
// type name to the stored uppercase form.
func NewEventQuery(email, dataType string, iv Interval) *EventQuery {
	return &EventQuery{
		Email:     email,
		DatumType: DatumType(dataType),
		After:     iv.StartTS,
		Before:    iv.EndTS,
	}
}

// CheckScoped returns ErrUnscopedQuery when the query names no subject.
// Count and Delete refuse such queries; an empty email never selects every
// subject's records.
func (q *EventQuery) CheckScoped() error {
	if q == nil || q.Email == "" {
		return ErrUnscopedQuery
	}
	return nil
}

// Matches reports whether a record satisfies the query.
func (q *EventQuery) Matches(r *EventRecord) bool {
	if q.Email != "" && r.Subject.Email != q.Email {
		return false
	}
	if q.DatumType != "" && r.DatumType != q.DatumType {
		return false
	}
	return Window{From: q.After, To: q.Before}.Contains(r.Timestamp)
}

// DatumType converts a data type name to the form stored in the event log.
func DatumType(dataType string) string {
	return strings.ToUpper(dataType)
}

// UserStore reads membership documents.
type UserStore interface {
	// ListUsers returns every user.
	ListUsers(ctx context.Context) ([]*User, error)

	// GetUser returns the user with the given email, or nil if none exists.
	GetUser(ctx context.Context, email string) (*User, error)
}

// LocationStore reads location traces.
type LocationStore interface {
	// Samples returns the user's samples strictly inside the window,
	// ordered by ascending timestamp.
	Samples(ctx context.Context, email string, window Window) ([]LocationSample, error)
}

// EventStore reads and deletes event records.
type EventStore interface {
	// Query returns the matching records ordered by ascending timestamp.
	Query(ctx context.Context, query *EventQuery) ([]*EventRecord, error)

	// Count returns the number of matching records.
	Count(ctx context.Context, query *EventQuery) (int64, error)

	// Delete removes the matching records and returns how many were removed.
	Delete(ctx context.Context, query *EventQuery) (int64, error)
}

// NowMillis returns the current time in epoch milliseconds.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
