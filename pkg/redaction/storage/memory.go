package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"privacyviz/redactor/pkg/redaction"
)

// MemoryStorage implements Storage with in-memory maps.
// It is intended for tests and local experiments.
type MemoryStorage struct {
	users   map[string]*redaction.User
	samples map[string][]redaction.LocationSample
	events  map[string]*redaction.EventRecord
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users:   make(map[string]*redaction.User),
		samples: make(map[string][]redaction.LocationSample),
		events:  make(map[string]*redaction.EventRecord),
	}
}

// ListUsers returns copies of all users ordered by email.
func (s *MemoryStorage) ListUsers(ctx context.Context) ([]*redaction.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*redaction.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, copyUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })

	return users, nil
}

// GetUser returns a copy of the user, or nil if none exists.
func (s *MemoryStorage) GetUser(ctx context.Context, email string) (*redaction.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[email]
	if !ok {
		return nil, nil
	}
	return copyUser(u), nil
}

// PutUser stores a copy of the user.
func (s *MemoryStorage) PutUser(ctx context.Context, user *redaction.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[user.Email] = copyUser(user)
	return nil
}

// Samples returns the user's samples strictly inside the window.
func (s *MemoryStorage) Samples(ctx context.Context, email string, window redaction.Window) ([]redaction.LocationSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []redaction.LocationSample
	for _, sample := range s.samples[email] {
		if window.Contains(sample.Timestamp) {
			out = append(out, sample)
		}
	}
	return out, nil
}

// AppendSamples adds samples, keeping each user's trace sorted.
func (s *MemoryStorage) AppendSamples(ctx context.Context, samples []redaction.LocationSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	touched := make(map[string]struct{})
	for _, sample := range samples {
		s.samples[sample.Email] = append(s.samples[sample.Email], sample)
		touched[sample.Email] = struct{}{}
	}
	for email := range touched {
		trace := s.samples[email]
		sort.SliceStable(trace, func(i, j int) bool { return trace[i].Timestamp < trace[j].Timestamp })
	}
	return nil
}

// AppendEvents stores copies of the records.
func (s *MemoryStorage) AppendEvents(ctx context.Context, records []*redaction.EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		recordCopy := *r
		if recordCopy.ID == "" {
			recordCopy.ID = uuid.New().String()
			r.ID = recordCopy.ID
		}
		s.events[recordCopy.ID] = &recordCopy
	}
	return nil
}

// Query returns copies of the matching records ordered by timestamp.
func (s *MemoryStorage) Query(ctx context.Context, query *redaction.EventQuery) ([]*redaction.EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*redaction.EventRecord
	for _, r := range s.events {
		if query.Matches(r) {
			recordCopy := *r
			results = append(results, &recordCopy)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Timestamp != results[j].Timestamp {
			return results[i].Timestamp < results[j].Timestamp
		}
		return results[i].ID < results[j].ID
	})

	return results, nil
}

// Count returns the number of matching records.
func (s *MemoryStorage) Count(ctx context.Context, query *redaction.EventQuery) (int64, error) {
	if err := query.CheckScoped(); err != nil {
		return 0, redaction.NewStorageError("memory", "count", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, r := range s.events {
		if query.Matches(r) {
			count++
		}
	}
	return count, nil
}

// Delete removes the matching records.
func (s *MemoryStorage) Delete(ctx context.Context, query *redaction.EventQuery) (int64, error) {
	if err := query.CheckScoped(); err != nil {
		return 0, redaction.NewStorageError("memory", "delete", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, r := range s.events {
		if query.Matches(r) {
			delete(s.events, id)
			deleted++
		}
	}
	return deleted, nil
}

// Ping always succeeds.
func (s *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// Close releases all data held by the store.
func (s *MemoryStorage) Close() error {
	s.Clear()
	return nil
}

// Clear removes all data (for testing).
func (s *MemoryStorage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[string]*redaction.User)
	s.samples = make(map[string][]redaction.LocationSample)
	s.events = make(map[string]*redaction.EventRecord)
}

// Size returns the number of event records (for testing).
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.events)
}

func copyUser(u *redaction.User) *redaction.User {
	c := &redaction.User{
		Email:             u.Email,
		Status:            make(map[string]redaction.Mode, len(u.Status)),
		TimeFiltering:     make(map[string]redaction.TimeFilter, len(u.TimeFiltering)),
		LocationFiltering: make(map[string]redaction.LocationFilter, len(u.LocationFiltering)),
	}
	for k, v := range u.Status {
		c.Status[k] = v
	}
	for k, v := range u.TimeFiltering {
		c.TimeFiltering[k] = v
	}
	for k, v := range u.LocationFiltering {
		c.LocationFiltering[k] = v
	}
	return c
}
