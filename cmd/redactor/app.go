package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"privacyviz/redactor/pkg/config"
	"privacyviz/redactor/pkg/redaction"
	"privacyviz/redactor/pkg/redaction/evaluator"
	"privacyviz/redactor/pkg/redaction/filter"
	"privacyviz/redactor/pkg/redaction/retention"
	"privacyviz/redactor/pkg/redaction/storage"
	"privacyviz/redactor/pkg/security/secrets"
	"privacyviz/redactor/pkg/telemetry/metrics"
	"privacyviz/redactor/pkg/telemetry/tracing"
)

// app holds the components shared by the commands.
type app struct {
	cfg        *config.Config
	store      storage.Storage
	policyFile *storage.PolicyFile
	evaluator  *evaluator.Evaluator
	metrics    *metrics.Collector
	tracer     *tracing.Tracer
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	resolver, err := newSecretResolver(cfg.Secrets)
	if err != nil {
		return nil, err
	}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	store, err := openStorage(ctx, cfg.Storage, resolver)
	if err != nil {
		shutdownTracer(tracer)
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		store:  store,
		tracer: tracer,
		evaluator: evaluator.New(store, &evaluator.Config{
			OffsetHours: cfg.Redaction.TimezoneOffsetHours,
			Gap:         cfg.Redaction.DwellGapThreshold,
		}),
		metrics: metrics.NewCollector(&cfg.Telemetry.Metrics, nil),
	}

	if path := cfg.Storage.PolicyFile.Path; path != "" {
		pf, err := storage.NewPolicyFile(path)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to load policy file: %w", err)
		}
		a.policyFile = pf
	}

	return a, nil
}

// users returns the policy file when one is configured, the backend
// otherwise.
func (a *app) users() redaction.UserStore {
	if a.policyFile != nil {
		return a.policyFile
	}
	return a.store
}

func (a *app) job(dryRun bool) *retention.Job {
	return retention.NewJob(a.users(), a.store, a.evaluator, &retention.Config{
		Concurrency: a.cfg.Redaction.Concurrency,
		DryRun:      dryRun,
		Schedule:    a.cfg.Schedule.Cron,
		Timezone:    a.cfg.Schedule.Timezone,
	}).WithMetrics(a.metrics).WithTracer(a.tracer.Tracer())
}

func (a *app) reader() *filter.Reader {
	return filter.NewReader(a.users(), a.store, filter.New(a.evaluator).WithMetrics(a.metrics))
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("failed to close storage", "error", err)
	}
	shutdownTracer(a.tracer)
}

// shutdownTracer flushes spans still buffered for the collector.
func shutdownTracer(t *tracing.Tracer) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := t.Shutdown(ctx); err != nil {
		slog.Warn("failed to shutdown tracer", "error", err)
	}
}

// newSecretResolver looks secrets up in the environment first, then in
// the secrets directory when one is configured.
func newSecretResolver(cfg config.SecretsConfig) (*secrets.Resolver, error) {
	providers := []secrets.Provider{secrets.NewEnvProvider(cfg.EnvPrefix)}
	if cfg.Dir != "" {
		fp, err := secrets.NewFileProvider(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open secrets directory: %w", err)
		}
		providers = append(providers, fp)
	}
	return secrets.NewResolver(providers...), nil
}

// openStorage opens the configured backend. Secret references in the Mongo
// URIs are resolved first.
func openStorage(ctx context.Context, cfg config.StorageConfig, resolver *secrets.Resolver) (storage.Storage, error) {
	switch cfg.Backend {
	case "memory":
		return storage.NewMemoryStorage(), nil
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLite.Path); cfg.SQLite.Path != ":memory:" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
			}
		}
		return storage.NewSQLiteStorage(&storage.SQLiteConfig{
			Path:         cfg.SQLite.Path,
			Driver:       cfg.SQLite.Driver,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.SQLite.MaxOpenConns / 2,
			WALMode:      cfg.SQLite.WALMode,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		})
	case "mongo":
		memberURI, err := resolver.Resolve(ctx, cfg.Mongo.MemberURI)
		if err != nil {
			return nil, err
		}
		eventURI, err := resolver.Resolve(ctx, cfg.Mongo.EventURI)
		if err != nil {
			return nil, err
		}
		return storage.NewMongoStorage(ctx, &storage.MongoConfig{
			MemberURI:          memberURI,
			MemberDatabase:     cfg.Mongo.MemberDatabase,
			MemberCollection:   cfg.Mongo.MemberCollection,
			LocationCollection: cfg.Mongo.LocationCollection,
			EventURI:           eventURI,
			EventDatabase:      cfg.Mongo.EventDatabase,
			EventCollection:    cfg.Mongo.EventCollection,
			ConnectTimeout:     cfg.Mongo.ConnectTimeout,
			EnsureIndexes:      true,
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}
