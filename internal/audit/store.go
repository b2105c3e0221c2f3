package audit

import (
	"context"
	"log/slog"
	"sync"
)

// Sink persists or forwards audit events.
type Sink interface {
	Append(ctx context.Context, e Event) error
}

// MemorySink keeps events in memory, for development and tests.
type MemorySink struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Append(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

// List returns a copy of every event appended so far.
func (s *MemorySink) List() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event(nil), s.events...)
}

// ListBySubject returns events whose subject hash matches subject.
func (s *MemorySink) ListBySubject(subject string) []Event {
	hash := HashSubject(subject)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.SubjectHash == hash {
			out = append(out, e)
		}
	}
	return out
}

// LogSink writes each event as a structured log line. It is the default
// sink when no broker is configured.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Append(ctx context.Context, e Event) error {
	args := []any{
		"log_type", "audit",
		"event_id", e.ID,
		"action", string(e.Action),
		"subject_hash", e.SubjectHash,
		"timestamp", e.Timestamp,
	}
	if e.RequestID != "" {
		args = append(args, "request_id", e.RequestID)
	}
	if e.Reason != "" {
		args = append(args, "reason", e.Reason)
	}
	for k, v := range e.Attributes {
		args = append(args, k, v)
	}
	s.logger.InfoContext(ctx, "audit event", args...)
	return nil
}
