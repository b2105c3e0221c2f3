package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"

	_ "github.com/lib/pq"

	"termo/internal/audit"
	"termo/internal/document/artifact"
	"termo/internal/document/lock"
	docService "termo/internal/document/service"
	participantService "termo/internal/participant/service"
	"termo/internal/participant/store"
	"termo/internal/platform/config"
	platformredis "termo/internal/platform/redis"
	"termo/pkg/platform/circuit"
)

// auditTopicPartitions keeps a single participant's events ordered while
// spreading subjects across brokers.
const auditTopicPartitions = 3

type participantStore interface {
	docService.ParticipantStore
	participantService.Store
	store.Upserter
}

// infra holds the backing services selected by configuration.
type infra struct {
	participants participantStore
	artifacts    artifact.Store
	locker       lock.Locker
	auditSink    audit.Sink
	checks       map[string]func(context.Context) error
	closers      []func()
}

func newInfra(ctx context.Context, cfg config.Config, log *slog.Logger) (inf *infra, err error) {
	inf = &infra{checks: make(map[string]func(context.Context) error)}
	defer func() {
		if err != nil {
			inf.Close()
			inf = nil
		}
	}()

	if err = inf.openParticipants(ctx, cfg.Database, log); err != nil {
		return inf, err
	}
	if err = inf.openLocker(ctx, cfg, log); err != nil {
		return inf, err
	}
	if err = inf.openArtifacts(ctx, cfg.Artifacts); err != nil {
		return inf, err
	}
	if err = inf.openAudit(ctx, cfg.Kafka, log); err != nil {
		return inf, err
	}
	return inf, nil
}

func (inf *infra) openParticipants(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) error {
	if cfg.URL == "" {
		log.Warn("DATABASE_URL not set, using in-memory participant store")
		inf.participants = store.NewInMemoryStore()
	} else {
		db, err := sql.Open("postgres", cfg.URL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		inf.closers = append(inf.closers, func() { _ = db.Close() })
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		pg := store.NewPostgres(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		inf.participants = pg
		inf.checks["postgres"] = db.PingContext
	}

	if cfg.SeedFile != "" {
		n, err := store.LoadSeed(ctx, cfg.SeedFile, inf.participants)
		if err != nil {
			return err
		}
		log.Info("participants seeded", "count", n, "file", cfg.SeedFile)
	}
	return nil
}

func (inf *infra) openLocker(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	client, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if client == nil {
		log.Info("REDIS_URL not set, document locks are in-process")
		inf.locker = lock.NewShardedLocker(cfg.Document.LockTimeout)
		return nil
	}
	inf.closers = append(inf.closers, func() { _ = client.Close() })
	inf.checks["redis"] = client.Health
	inf.locker = lock.NewRedisLocker(client.Client, lock.WithTimeout(cfg.Document.LockTimeout))
	return nil
}

func (inf *infra) openArtifacts(ctx context.Context, cfg config.ArtifactsConfig) error {
	if cfg.Backend != config.BackendGCS {
		inf.artifacts = artifact.NewFSStore(cfg.Dir)
		return nil
	}
	gcsCfg := artifact.GCSConfig{Bucket: cfg.GCSBucket, Prefix: cfg.GCSPrefix, Endpoint: cfg.GCSEndpoint}
	client, err := artifact.NewGCSClient(ctx, gcsCfg)
	if err != nil {
		return err
	}
	inf.closers = append(inf.closers, func() { _ = client.Close() })
	inf.artifacts = artifact.NewGCSStore(client, gcsCfg)
	return nil
}

func (inf *infra) openAudit(ctx context.Context, cfg config.KafkaConfig, log *slog.Logger) error {
	if len(cfg.Brokers) == 0 {
		inf.auditSink = audit.NewLogSink(log)
		return nil
	}
	sink, err := audit.NewKafkaSink(cfg.Brokers, cfg.AuditTopic)
	if err != nil {
		return err
	}
	inf.closers = append(inf.closers, sink.Close)
	if err := sink.EnsureTopic(ctx, auditTopicPartitions, 1); err != nil {
		return err
	}
	inf.auditSink = audit.NewFallbackSink(sink, audit.NewLogSink(log), circuit.New("kafka-audit"), log)
	return nil
}

// Close releases connections in reverse order of acquisition.
func (inf *infra) Close() {
	for _, c := range slices.Backward(inf.closers) {
		c()
	}
	inf.closers = nil
}
