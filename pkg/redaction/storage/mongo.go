package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"privacyviz/redactor/pkg/redaction"
)

// MongoConfig describes the two databases the redactor works with.
type MongoConfig struct {
	// MemberURI is the connection URI of the member database.
	MemberURI string
	// MemberDatabase holds membership documents and location traces.
	MemberDatabase string
	// MemberCollection holds membership documents.
	MemberCollection string
	// LocationCollection holds location samples.
	LocationCollection string

	// EventURI is the connection URI of the logger database. Empty means
	// MemberURI.
	EventURI string
	// EventDatabase holds the event log.
	EventDatabase string
	// EventCollection holds event records.
	EventCollection string

	// ConnectTimeout bounds the initial connect and ping.
	// Default: 10 seconds
	ConnectTimeout time.Duration

	// EnsureIndexes creates the query indexes on open.
	EnsureIndexes bool
}

// DefaultMongoConfig returns the default MongoDB configuration.
func DefaultMongoConfig() *MongoConfig {
	return &MongoConfig{
		MemberURI:          "mongodb://localhost:27017",
		MemberDatabase:     "privacyviz",
		MemberCollection:   "members",
		LocationCollection: "locations",
		EventDatabase:      "abclogger",
		EventCollection:    "datum",
		ConnectTimeout:     10 * time.Second,
		EnsureIndexes:      true,
	}
}

// MongoStorage implements Storage on MongoDB.
type MongoStorage struct {
	memberClient *mongo.Client
	eventClient  *mongo.Client
	members      *mongo.Collection
	locations    *mongo.Collection
	events       *mongo.Collection
	logger       *slog.Logger
}

// eventDocument is the stored shape of an event record. Fields other than
// the indexed ones are kept in Extra.
type eventDocument struct {
	ID        bson.ObjectID     `bson:"_id,omitempty"`
	Subject   redaction.Subject `bson:"subject"`
	DatumType string            `bson:"datumType"`
	Timestamp int64             `bson:"timestamp"`
	Extra     bson.M            `bson:",inline"`
}

// NewMongoStorage connects to both databases.
func NewMongoStorage(ctx context.Context, config *MongoConfig) (*MongoStorage, error) {
	if config == nil {
		config = DefaultMongoConfig()
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = 10 * time.Second
	}

	logger := slog.Default().With("component", "redaction.storage.mongo")

	ctx, cancel := context.WithTimeout(ctx, config.ConnectTimeout)
	defer cancel()

	memberClient, err := connect(ctx, config.MemberURI)
	if err != nil {
		return nil, redaction.NewStorageError("mongo", "connect_member", err)
	}

	eventClient := memberClient
	if config.EventURI != "" && config.EventURI != config.MemberURI {
		eventClient, err = connect(ctx, config.EventURI)
		if err != nil {
			memberClient.Disconnect(context.Background())
			return nil, redaction.NewStorageError("mongo", "connect_event", err)
		}
	}

	memberDB := memberClient.Database(config.MemberDatabase)
	s := &MongoStorage{
		memberClient: memberClient,
		eventClient:  eventClient,
		members:      memberDB.Collection(config.MemberCollection),
		locations:    memberDB.Collection(config.LocationCollection),
		events:       eventClient.Database(config.EventDatabase).Collection(config.EventCollection),
		logger:       logger,
	}

	if config.EnsureIndexes {
		if err := s.ensureIndexes(ctx); err != nil {
			logger.Warn("ensure indexes failed", "error", err)
		}
	}

	logger.Info("MongoDB storage initialized",
		"member_database", config.MemberDatabase,
		"event_database", config.EventDatabase,
	)

	return s, nil
}

func connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect failed: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping failed: %w", err)
	}
	return client, nil
}

func (s *MongoStorage) ensureIndexes(ctx context.Context) error {
	type idx struct {
		col    *mongo.Collection
		keys   bson.D
		unique bool
	}

	indexes := []idx{
		{s.members, bson.D{{Key: "email", Value: 1}}, true},
		{s.locations, bson.D{{Key: "email", Value: 1}, {Key: "timestamp", Value: 1}}, false},
		{s.events, bson.D{{Key: "subject.email", Value: 1}, {Key: "datumType", Value: 1}, {Key: "timestamp", Value: 1}}, false},
	}

	for _, i := range indexes {
		model := mongo.IndexModel{Keys: i.keys}
		if i.unique {
			model.Options = options.Index().SetUnique(true)
		}
		if _, err := i.col.Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index on %s: %w", i.col.Name(), err)
		}
	}
	return nil
}

// ListUsers returns every membership document.
func (s *MongoStorage) ListUsers(ctx context.Context) ([]*redaction.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "email", Value: 1}})
	users, err := findMany[redaction.User](ctx, s.members, bson.D{}, opts)
	if err != nil {
		return nil, redaction.NewStorageError("mongo", "list_users", err)
	}
	return users, nil
}

// GetUser returns the user, or nil if none exists.
func (s *MongoStorage) GetUser(ctx context.Context, email string) (*redaction.User, error) {
	user, err := findOne[redaction.User](ctx, s.members, bson.D{{Key: "email", Value: email}})
	if err != nil {
		return nil, redaction.NewStorageError("mongo", "get_user", err)
	}
	return user, nil
}

// PutUser creates or replaces the user's document.
func (s *MongoStorage) PutUser(ctx context.Context, user *redaction.User) error {
	_, err := s.members.ReplaceOne(ctx,
		bson.D{{Key: "email", Value: user.Email}},
		user,
		options.Replace().SetUpsert(true))
	if err != nil {
		return redaction.NewStorageError("mongo", "put_user", err)
	}
	return nil
}

// Samples returns the user's samples strictly inside the window.
func (s *MongoStorage) Samples(ctx context.Context, email string, window redaction.Window) ([]redaction.LocationSample, error) {
	filter := bson.D{{Key: "email", Value: email}}
	if ts := timestampRange(window.From, window.To); ts != nil {
		filter = append(filter, bson.E{Key: "timestamp", Value: ts})
	}

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	docs, err := findMany[redaction.LocationSample](ctx, s.locations, filter, opts)
	if err != nil {
		return nil, redaction.NewStorageError("mongo", "samples", err)
	}

	samples := make([]redaction.LocationSample, len(docs))
	for i, d := range docs {
		samples[i] = *d
	}
	return samples, nil
}

// AppendSamples inserts samples.
func (s *MongoStorage) AppendSamples(ctx context.Context, samples []redaction.LocationSample) error {
	if len(samples) == 0 {
		return nil
	}
	docs := make([]interface{}, len(samples))
	for i, sample := range samples {
		docs[i] = sample
	}
	if _, err := s.locations.InsertMany(ctx, docs); err != nil {
		return redaction.NewStorageError("mongo", "append_samples", err)
	}
	return nil
}

// AppendEvents inserts records. IDs, when set, must be object ID hex
// strings.
func (s *MongoStorage) AppendEvents(ctx context.Context, records []*redaction.EventRecord) error {
	if len(records) == 0 {
		return nil
	}

	docs := make([]interface{}, len(records))
	for i, r := range records {
		doc := eventDocument{
			Subject:   r.Subject,
			DatumType: r.DatumType,
			Timestamp: r.Timestamp,
			Extra:     bson.M(r.Payload),
		}
		if r.ID != "" {
			id, err := bson.ObjectIDFromHex(r.ID)
			if err != nil {
				return redaction.NewStorageError("mongo", "append_events", fmt.Errorf("record id %q: %w", r.ID, err))
			}
			doc.ID = id
		} else {
			doc.ID = bson.NewObjectID()
			r.ID = doc.ID.Hex()
		}
		docs[i] = doc
	}

	if _, err := s.events.InsertMany(ctx, docs); err != nil {
		return redaction.NewStorageError("mongo", "append_events", err)
	}
	return nil
}

// Query returns the matching records ordered by timestamp.
func (s *MongoStorage) Query(ctx context.Context, query *redaction.EventQuery) ([]*redaction.EventRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	docs, err := findMany[eventDocument](ctx, s.events, eventFilter(query), opts)
	if err != nil {
		return nil, redaction.NewStorageError("mongo", "query", err)
	}

	records := make([]*redaction.EventRecord, len(docs))
	for i, d := range docs {
		records[i] = &redaction.EventRecord{
			ID:        d.ID.Hex(),
			Subject:   d.Subject,
			DatumType: d.DatumType,
			Timestamp: d.Timestamp,
			Payload:   map[string]any(d.Extra),
		}
	}
	return records, nil
}

// Count returns the number of matching records.
func (s *MongoStorage) Count(ctx context.Context, query *redaction.EventQuery) (int64, error) {
	if err := query.CheckScoped(); err != nil {
		return 0, redaction.NewStorageError("mongo", "count", err)
	}
	n, err := s.events.CountDocuments(ctx, eventFilter(query))
	if err != nil {
		return 0, redaction.NewStorageError("mongo", "count", err)
	}
	return n, nil
}

// Delete removes the matching records.
func (s *MongoStorage) Delete(ctx context.Context, query *redaction.EventQuery) (int64, error) {
	if err := query.CheckScoped(); err != nil {
		return 0, redaction.NewStorageError("mongo", "delete", err)
	}
	res, err := s.events.DeleteMany(ctx, eventFilter(query))
	if err != nil {
		return 0, redaction.NewStorageError("mongo", "delete", err)
	}
	return res.DeletedCount, nil
}

// Ping checks both deployments.
func (s *MongoStorage) Ping(ctx context.Context) error {
	if err := s.memberClient.Ping(ctx, nil); err != nil {
		return redaction.NewStorageError("mongo", "ping_member", err)
	}
	if s.eventClient != s.memberClient {
		if err := s.eventClient.Ping(ctx, nil); err != nil {
			return redaction.NewStorageError("mongo", "ping_event", err)
		}
	}
	return nil
}

// Close disconnects both clients.
func (s *MongoStorage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	if s.eventClient != s.memberClient {
		errs = append(errs, s.eventClient.Disconnect(ctx))
	}
	errs = append(errs, s.memberClient.Disconnect(ctx))

	if err := errors.Join(errs...); err != nil {
		return redaction.NewStorageError("mongo", "close", err)
	}
	return nil
}

func eventFilter(query *redaction.EventQuery) bson.D {
	filter := bson.D{}
	if query.Email != "" {
		filter = append(filter, bson.E{Key: "subject.email", Value: query.Email})
	}
	if query.DatumType != "" {
		filter = append(filter, bson.E{Key: "datumType", Value: query.DatumType})
	}
	if ts := timestampRange(query.After, query.Before); ts != nil {
		filter = append(filter, bson.E{Key: "timestamp", Value: ts})
	}
	return filter
}

// timestampRange builds an exclusive range condition; zero bounds are
// omitted.
func timestampRange(after, before int64) bson.D {
	var cond bson.D
	if after != 0 {
		cond = append(cond, bson.E{Key: "$gt", Value: after})
	}
	if before != 0 {
		cond = append(cond, bson.E{Key: "$lt", Value: before})
	}
	return cond
}

// findOne decodes a single document; a missing document yields (nil, nil).
func findOne[T any](ctx context.Context, col *mongo.Collection, filter bson.D) (*T, error) {
	var result T
	err := col.FindOne(ctx, filter).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func findMany[T any](ctx context.Context, col *mongo.Collection, filter bson.D, opts ...options.Lister[options.FindOptions]) ([]*T, error) {
	cursor, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []*T
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, err
		}
		results = append(results, &item)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
