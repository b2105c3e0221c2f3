package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"termo/internal/audit"
	"termo/internal/document/artifact"
	"termo/internal/document/layout"
	"termo/internal/document/lock"
	"termo/internal/document/models"
	"termo/internal/document/render"
	"termo/internal/document/signature"
	"termo/internal/document/stamp"
	"termo/internal/document/template"
	pmodels "termo/internal/participant/models"
	"termo/internal/platform/metrics"
	dErrors "termo/pkg/domain-errors"
	"termo/pkg/platform/sentinel"
	"termo/pkg/requestcontext"
)

// ParticipantStore is the write-through view of the participant records the
// document lifecycle needs.
type ParticipantStore interface {
	FindByDocumentID(ctx context.Context, id pmodels.DocumentID) (*pmodels.Participant, error)
	UpdateDetails(ctx context.Context, id pmodels.DocumentID, d pmodels.Details, at time.Time) (*pmodels.Participant, error)
	SetArtifact(ctx context.Context, id pmodels.DocumentID, path string, at time.Time) (*pmodels.Participant, error)
	MarkSigned(ctx context.Context, id pmodels.DocumentID, at time.Time) (*pmodels.Participant, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// CaptionPrefix precedes the guardian name under the signature.
const CaptionPrefix = "Assinatura do responsável: "

const (
	opCompose = "compose"
	opSign    = "sign"
)

// Service generates consent documents and stamps signatures onto them.
// Operations on the same participant are serialized through the Locker.
type Service struct {
	participants   ParticipantStore
	artifacts      artifact.Store
	paths          artifact.Paths
	locker         lock.Locker
	composer       *layout.Composer
	compositor     *stamp.Compositor
	location       *time.Location
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLocker replaces the in-process locker, e.g. with a RedisLocker when
// several instances share the artifact store.
func WithLocker(l lock.Locker) Option {
	return func(s *Service) {
		s.locker = l
	}
}

// WithPaths sets the URL prefix recorded on participants.
func WithPaths(p artifact.Paths) Option {
	return func(s *Service) {
		s.paths = p
	}
}

// WithLocation sets the time zone of the date line.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// New constructs a Service.
func New(participants ParticipantStore, artifacts artifact.Store, opts ...Option) *Service {
	s := &Service{
		participants: participants,
		artifacts:    artifacts,
		paths:        artifact.NewPaths("/artifacts"),
		composer:     layout.NewComposer(render.NewMetrics(), layout.DefaultStyle()),
		compositor:   stamp.NewCompositor(stamp.DefaultPlacement()),
		location:     time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.locker == nil {
		s.locker = lock.NewShardedLocker(lock.DefaultTimeout)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("termo/internal/document")
	}
	return s
}

// Compose persists the contact fields and any overrides, renders a fresh
// consent document, replaces the stored artifact and resets the signed flag.
func (s *Service) Compose(ctx context.Context, id pmodels.DocumentID, req models.ComposeRequest) (*pmodels.Participant, error) {
	ctx, span := s.tracer.Start(ctx, "document.Compose", trace.WithAttributes(attribute.String("document_id", id.Masked())))
	defer span.End()
	start := time.Now()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, traced(span, err)
	}

	unlock, err := s.locker.Lock(ctx, string(id))
	if err != nil {
		return nil, traced(span, err)
	}
	defer unlock()

	p, err := s.load(ctx, id)
	if err != nil {
		return nil, traced(span, err)
	}

	now := requestcontext.Now(ctx)
	details := pmodels.DetailsOf(p)
	req.Overrides.ApplyTo(&details)
	details.ContactName = req.ContactName
	details.ContactPhone = req.ContactPhone
	if p, err = s.participants.UpdateDetails(ctx, id, details, now); err != nil {
		return nil, traced(span, storeError(err, "failed to save participant details"))
	}

	doc := s.composer.Compose(template.Consent(template.Fields{
		ParticipantName: p.FullName,
		GuardianName:    p.GuardianName,
		ContactName:     p.ContactName,
		ContactPhone:    p.ContactPhone,
		Date:            now.In(s.location),
	}.Values()))
	pdf, err := render.Render(doc, s.metadata(p, now))
	if err != nil {
		return nil, traced(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render document"))
	}

	name := s.paths.Name(string(id))
	if err := s.artifacts.Write(ctx, name, pdf); err != nil {
		return nil, traced(span, dErrors.Wrap(err, dErrors.CodeStorage, "failed to write document"))
	}
	if p, err = s.participants.SetArtifact(ctx, id, s.paths.URL(name), now); err != nil {
		return nil, traced(span, storeError(err, "failed to record document"))
	}

	pages := strconv.Itoa(len(doc.Pages))
	span.SetAttributes(attribute.Int("pages", len(doc.Pages)), attribute.Int("bytes", len(pdf)))
	s.metrics.IncrementDocumentsGenerated()
	s.metrics.ObserveOperation(opCompose, start)
	s.metrics.ObserveArtifact(opCompose, len(pdf))
	s.logAudit(ctx, audit.EventDocumentGenerated, id, "", "pages", pages)
	return p, nil
}

// ApplySignature stamps the signature and guardian caption onto the last page
// of the stored document and marks the participant signed once the new
// artifact is written. A signed participant is rejected with conflict unless
// req.Resign is set. A document that already carries the stamp while the
// flag is unset is only flagged, never stamped twice.
func (s *Service) ApplySignature(ctx context.Context, id pmodels.DocumentID, req models.SignRequest) (*models.SignResult, error) {
	ctx, span := s.tracer.Start(ctx, "document.ApplySignature", trace.WithAttributes(
		attribute.String("document_id", id.Masked()),
		attribute.Bool("resign", req.Resign),
	))
	defer span.End()
	start := time.Now()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, traced(span, s.reject(ctx, id, err))
	}

	unlock, err := s.locker.Lock(ctx, string(id))
	if err != nil {
		return nil, traced(span, err)
	}
	defer unlock()

	p, err := s.load(ctx, id)
	if err != nil {
		return nil, traced(span, err)
	}
	if !p.HasDocument() {
		return nil, traced(span, dErrors.New(dErrors.CodeNotFound, "document has not been generated"))
	}
	if p.Signed && !req.Resign {
		s.metrics.IncrementSignatureConflicts()
		return nil, traced(span, s.reject(ctx, id, dErrors.New(dErrors.CodeConflict, "document is already signed")))
	}

	name, err := s.paths.Resolve(p.DocumentPath)
	if err != nil {
		return nil, traced(span, dErrors.Wrap(err, dErrors.CodeStorage, "stored document path is invalid"))
	}
	src, err := s.artifacts.Read(ctx, name)
	if err != nil {
		return nil, traced(span, dErrors.Wrap(err, dErrors.CodeStorage, "failed to read document"))
	}

	now := requestcontext.Now(ctx)
	if !p.Signed && stamp.IsStamped(src) {
		if _, err := s.participants.MarkSigned(ctx, id, now); err != nil {
			return nil, traced(span, storeError(err, "failed to mark document signed"))
		}
		span.SetAttributes(attribute.Bool("recovered", true))
		s.logAudit(ctx, audit.EventSignatureRecovered, id, "")
		return &models.SignResult{Success: true, DocumentURL: p.DocumentPath, Recovered: true}, nil
	}

	img, err := signature.Decode(req.Signature)
	if err != nil {
		return nil, traced(span, s.reject(ctx, id, dErrors.Wrap(err, dErrors.CodeDecode, "signature is not a valid image")))
	}

	out, err := s.compositor.Apply(src, stamp.Overlay{
		PNG:     img.PNG,
		Caption: CaptionPrefix + p.GuardianName,
		Meta:    s.metadata(p, now),
	})
	if err != nil {
		if errors.Is(err, stamp.ErrUnreadable) {
			return nil, traced(span, dErrors.Wrap(err, dErrors.CodeStorage, "stored document cannot be read"))
		}
		return nil, traced(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to stamp signature"))
	}
	if err := s.artifacts.Write(ctx, name, out); err != nil {
		return nil, traced(span, dErrors.Wrap(err, dErrors.CodeStorage, "failed to write signed document"))
	}
	if _, err := s.participants.MarkSigned(ctx, id, now); err != nil {
		return nil, traced(span, storeError(err, "failed to mark document signed"))
	}

	s.metrics.IncrementDocumentsSigned()
	s.metrics.ObserveOperation(opSign, start)
	s.metrics.ObserveArtifact(opSign, len(out))
	s.logAudit(ctx, audit.EventDocumentSigned, id, "", "format", img.Format, "resign", strconv.FormatBool(req.Resign))
	return &models.SignResult{Success: true, DocumentURL: p.DocumentPath}, nil
}

// Artifact returns the stored document named name, e.g. "12345678901.pdf".
func (s *Service) Artifact(ctx context.Context, name string) ([]byte, error) {
	if !artifact.ValidName(name) {
		return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	data, err := s.artifacts.Read(ctx, name)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to read document")
	}
	s.metrics.ObserveArtifact("download", len(data))
	return data, nil
}

func (s *Service) load(ctx context.Context, id pmodels.DocumentID) (*pmodels.Participant, error) {
	p, err := s.participants.FindByDocumentID(ctx, id)
	if err != nil {
		return nil, storeError(err, "failed to load participant")
	}
	return p, nil
}

func (s *Service) metadata(p *pmodels.Participant, now time.Time) render.Metadata {
	return render.Metadata{
		Title:     template.Title,
		Author:    template.Subtitle,
		Subject:   p.FullName,
		CreatedAt: now,
	}
}

// reject records a refused signature and returns err unchanged.
func (s *Service) reject(ctx context.Context, id pmodels.DocumentID, err error) error {
	code := string(dErrors.CodeOf(err))
	s.metrics.IncrementSignatureRejected(code)
	s.logAudit(ctx, audit.EventSignatureRejected, id, code)
	return err
}

func (s *Service) logAudit(ctx context.Context, action audit.Action, id pmodels.DocumentID, reason string, attributes ...string) {
	args := []any{"event", string(action), "log_type", "audit", "document_id", id.Masked()}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	if reason != "" {
		args = append(args, "reason", reason)
	}
	attrs := make(map[string]string, len(attributes)/2)
	for i := 0; i+1 < len(attributes); i += 2 {
		attrs[attributes[i]] = attributes[i+1]
		args = append(args, attributes[i], attributes[i+1])
	}
	s.logger.InfoContext(ctx, string(action), args...)

	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:      action,
		SubjectHash: audit.HashSubject(string(id)),
		Reason:      reason,
		Attributes:  attrs,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", string(action), "error", err)
	}
}

// storeError translates participant store failures.
func storeError(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "participant not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func traced(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	return err
}
