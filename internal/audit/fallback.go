package audit

import (
	"context"
	"log/slog"

	"termo/pkg/platform/circuit"
)

// FallbackSink appends to primary while it is healthy and to fallback while
// the breaker is open or primary fails, so broker outages degrade to the
// fallback instead of losing events.
type FallbackSink struct {
	primary  Sink
	fallback Sink
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

func NewFallbackSink(primary, fallback Sink, breaker *circuit.Breaker, logger *slog.Logger) *FallbackSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackSink{primary: primary, fallback: fallback, breaker: breaker, logger: logger}
}

func (s *FallbackSink) Append(ctx context.Context, e Event) error {
	if !s.breaker.Allow() {
		return s.fallback.Append(ctx, e)
	}
	if err := s.primary.Append(ctx, e); err != nil {
		if s.breaker.RecordFailure() {
			s.logger.WarnContext(ctx, "audit sink circuit opened",
				"breaker", s.breaker.Name(),
				"error", err,
			)
		}
		return s.fallback.Append(ctx, e)
	}
	if s.breaker.RecordSuccess() {
		s.logger.InfoContext(ctx, "audit sink circuit closed", "breaker", s.breaker.Name())
	}
	return nil
}
