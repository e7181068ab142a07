package filter

import (
	"context"
	"errors"
	"fmt"

	"privacyviz/redactor/pkg/redaction"
)

// ErrUnknownUser is returned by Query for an email without a membership
// document.
var ErrUnknownUser = errors.New("unknown user")

// Reader serves filtered reads of the event log.
type Reader struct {
	users  redaction.UserStore
	events redaction.EventStore
	filter *Filter
}

// NewReader creates a Reader.
func NewReader(users redaction.UserStore, events redaction.EventStore, filter *Filter) *Reader {
	return &Reader{
		users:  users,
		events: events,
		filter: filter,
	}
}

// Query returns the visible records of one user and data type with
// date+from < timestamp < date+to. date is an epoch-millisecond day start;
// from and to are millisecond offsets from it.
func (r *Reader) Query(ctx context.Context, email, dataType string, date, from, to int64) ([]*redaction.EventRecord, error) {
	if to <= from {
		return nil, fmt.Errorf("empty time range: from %d, to %d", from, to)
	}

	user, err := r.users.GetUser(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUser, email)
	}

	window := redaction.Window{From: date + from, To: date + to}
	records, err := r.events.Query(ctx, &redaction.EventQuery{
		Email:     email,
		DatumType: redaction.DatumType(dataType),
		After:     window.From,
		Before:    window.To,
	})
	if err != nil {
		return nil, err
	}

	return r.filter.Apply(ctx, user, dataType, records, window)
}
