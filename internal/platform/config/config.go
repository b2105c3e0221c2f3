package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full process configuration, read once at startup.
type Config struct {
	Server    Server
	Database  DatabaseConfig
	Redis     RedisConfig
	Artifacts ArtifactsConfig
	Kafka     KafkaConfig
	Document  DocumentConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	LogLevel        string
	ShutdownTimeout time.Duration
}

// DatabaseConfig selects the participant store. An empty URL means the
// in-memory store, optionally seeded from SeedFile.
type DatabaseConfig struct {
	URL      string
	SeedFile string
}

// RedisConfig enables distributed document locks. An empty URL keeps locks
// in-process.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Artifact backends.
const (
	BackendFS  = "fs"
	BackendGCS = "gcs"
)

// ArtifactsConfig locates generated documents.
type ArtifactsConfig struct {
	Backend     string
	Dir         string
	URLPrefix   string
	GCSBucket   string
	GCSPrefix   string
	GCSEndpoint string
}

// KafkaConfig enables the Kafka audit sink when Brokers is non-empty.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// DocumentConfig tunes document generation.
type DocumentConfig struct {
	LockTimeout time.Duration
	// Location is the time zone of the date printed on documents.
	Location *time.Location
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	return fromLookup(os.Getenv)
}

func fromLookup(getenv func(string) string) (Config, error) {
	e := env{getenv: getenv}

	cfg := Config{
		Server: Server{
			Addr:            e.str("ADDR", ":3001"),
			LogLevel:        e.str("LOG_LEVEL", "info"),
			ShutdownTimeout: e.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			URL:      e.str("DATABASE_URL", ""),
			SeedFile: e.str("SEED_FILE", ""),
		},
		Redis: RedisConfig{
			URL:          e.str("REDIS_URL", ""),
			PoolSize:     e.int("REDIS_POOL_SIZE", 10),
			MinIdleConns: e.int("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  e.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  e.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: e.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Artifacts: ArtifactsConfig{
			Backend:     strings.ToLower(e.str("ARTIFACTS_BACKEND", BackendFS)),
			Dir:         e.str("ARTIFACTS_DIR", "public/artifacts"),
			URLPrefix:   e.str("ARTIFACTS_URL_PREFIX", "/artifacts"),
			GCSBucket:   e.str("GCS_BUCKET", ""),
			GCSPrefix:   e.str("GCS_PREFIX", ""),
			GCSEndpoint: e.str("GCS_ENDPOINT", ""),
		},
		Kafka: KafkaConfig{
			Brokers:    e.list("KAFKA_BROKERS"),
			AuditTopic: e.str("KAFKA_AUDIT_TOPIC", "termo.audit"),
		},
		Document: DocumentConfig{
			LockTimeout: e.duration("DOCUMENT_LOCK_TIMEOUT", 5*time.Second),
		},
	}

	loc, err := time.LoadLocation(e.str("DOCUMENT_LOCATION", "America/Campo_Grande"))
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("DOCUMENT_LOCATION: %v", err))
	}
	cfg.Document.Location = loc

	switch cfg.Artifacts.Backend {
	case BackendFS:
	case BackendGCS:
		if cfg.Artifacts.GCSBucket == "" {
			e.errs = append(e.errs, "GCS_BUCKET is required when ARTIFACTS_BACKEND=gcs")
		}
	default:
		e.errs = append(e.errs, fmt.Sprintf("ARTIFACTS_BACKEND: unknown backend %q", cfg.Artifacts.Backend))
	}

	if len(e.errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(e.errs, "; "))
	}
	return cfg, nil
}

// env reads typed values and collects parse errors instead of failing on the
// first one.
type env struct {
	getenv func(string) string
	errs   []string
}

func (e *env) str(key, def string) string {
	if v := strings.TrimSpace(e.getenv(key)); v != "" {
		return v
	}
	return def
}

func (e *env) int(key string, def int) int {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return n
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return d
}

func (e *env) list(key string) []string {
	var out []string
	for _, part := range strings.Split(e.getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
