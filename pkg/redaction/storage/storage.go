package storage

import (
	"context"

	"privacyviz/redactor/pkg/redaction"
)

// Storage is implemented by every backend that can serve as user, location
// and event store at once.
type Storage interface {
	redaction.UserStore
	redaction.LocationStore
	redaction.EventStore

	// PutUser creates or replaces a membership document.
	PutUser(ctx context.Context, user *redaction.User) error

	// AppendSamples adds location samples.
	AppendSamples(ctx context.Context, samples []redaction.LocationSample) error

	// AppendEvents adds event records. Records without an ID are given one.
	AppendEvents(ctx context.Context, records []*redaction.EventRecord) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases resources held by the backend.
	Close() error
}

var (
	_ Storage = (*MemoryStorage)(nil)
	_ Storage = (*SQLiteStorage)(nil)
	_ Storage = (*MongoStorage)(nil)

	_ redaction.UserStore = (*PolicyFile)(nil)
)
