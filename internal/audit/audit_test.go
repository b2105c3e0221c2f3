package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termo/pkg/platform/circuit"
	"termo/pkg/requestcontext"
)

func TestPublisherEmit(t *testing.T) {
	p := NewPublisher(2)
	ctx := requestcontext.WithRequestID(context.Background(), "req_1")

	require.NoError(t, p.Emit(ctx, Event{Action: EventDocumentGenerated, SubjectHash: HashSubject("12345678901")}))
	require.NoError(t, p.Emit(ctx, Event{Action: EventDocumentSigned}))
	assert.ErrorIs(t, p.Emit(ctx, Event{Action: EventDocumentSigned}), ErrBufferFull)

	e := <-p.Events()
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.Timestamp.IsZero())
	assert.Equal(t, "req_1", e.RequestID)
	assert.Equal(t, EventDocumentGenerated, e.Action)

	p.Close()
	p.Close()
	assert.ErrorIs(t, p.Emit(ctx, Event{}), ErrClosed)
}

func TestHashSubject(t *testing.T) {
	h := HashSubject("12345678901")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashSubject("12345678901"))
	assert.NotEqual(t, h, HashSubject("10987654321"))
	assert.NotContains(t, h, "12345678901")
}

func TestWorkerDeliversAndDrains(t *testing.T) {
	p := NewPublisher(10)
	sink := NewMemorySink()
	w := NewWorker(sink, p.Events(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	for i := 0; i < 3; i++ {
		require.NoError(t, p.Emit(context.Background(), Event{Action: EventDocumentSigned, SubjectHash: HashSubject("12345678901")}))
	}
	require.Eventually(t, func() bool { return len(sink.List()) == 3 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Len(t, sink.ListBySubject("12345678901"), 3)
}

func TestWorkerStopsWhenInboxCloses(t *testing.T) {
	p := NewPublisher(10)
	sink := NewMemorySink()
	require.NoError(t, p.Emit(context.Background(), Event{Action: EventDocumentGenerated}))
	p.Close()

	require.NoError(t, NewWorker(sink, p.Events(), nil).Run(context.Background()))
	assert.Len(t, sink.List(), 1)
}

type failingSink struct{ calls int }

func (f *failingSink) Append(context.Context, Event) error {
	f.calls++
	return errors.New("sink down")
}

func TestWorkerSkipsFailingEvents(t *testing.T) {
	p := NewPublisher(10)
	sink := &failingSink{}
	require.NoError(t, p.Emit(context.Background(), Event{}))
	require.NoError(t, p.Emit(context.Background(), Event{}))
	p.Close()

	require.NoError(t, NewWorker(sink, p.Events(), nil).Run(context.Background()))
	assert.Equal(t, 2, sink.calls)
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, sink.Append(context.Background(), Event{
		ID:          "evt-1",
		Action:      EventSignatureRejected,
		SubjectHash: HashSubject("12345678901"),
		Reason:      "conflict",
		Attributes:  map[string]string{"format": "png"},
	}))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "signature_rejected", line["action"])
	assert.Equal(t, "conflict", line["reason"])
	assert.Equal(t, "png", line["format"])
	assert.NotContains(t, buf.String(), "12345678901")
}

type flakySink struct {
	err   error
	calls int
}

func (s *flakySink) Append(context.Context, Event) error {
	s.calls++
	return s.err
}

func TestFallbackSink(t *testing.T) {
	primary := &flakySink{err: errors.New("broker unavailable")}
	fallback := NewMemorySink()
	sink := NewFallbackSink(primary, fallback, circuit.New("test", circuit.WithThreshold(2), circuit.WithCooldown(time.Hour)), nil)
	ctx := context.Background()

	for range 4 {
		require.NoError(t, sink.Append(ctx, Event{Action: EventDocumentSigned}))
	}
	assert.Equal(t, 2, primary.calls, "open breaker skips the primary")
	assert.Len(t, fallback.List(), 4)

	primary.err = nil
	healthy := NewFallbackSink(primary, fallback, circuit.New("healthy"), nil)
	require.NoError(t, healthy.Append(ctx, Event{Action: EventDocumentSigned}))
	assert.Equal(t, 3, primary.calls)
	assert.Len(t, fallback.List(), 4)
}
