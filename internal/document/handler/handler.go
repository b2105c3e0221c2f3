package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"termo/internal/document/artifact"
	"termo/internal/document/models"
	pmodels "termo/internal/participant/models"
	dErrors "termo/pkg/domain-errors"
	"termo/pkg/platform/httputil"
	"termo/pkg/requestcontext"
)

// Service defines the document operations the handler needs.
type Service interface {
	Compose(ctx context.Context, id pmodels.DocumentID, req models.ComposeRequest) (*pmodels.Participant, error)
	ApplySignature(ctx context.Context, id pmodels.DocumentID, req models.SignRequest) (*models.SignResult, error)
	Artifact(ctx context.Context, name string) ([]byte, error)
}

// Handler serves document generation, signing and downloads.
type Handler struct {
	service Service
	logger  *slog.Logger
	paths   artifact.Paths
}

// New creates a document Handler. Artifacts are served under paths.Prefix().
func New(service Service, logger *slog.Logger, paths artifact.Paths) *Handler {
	return &Handler{service: service, logger: logger, paths: paths}
}

// Register registers the document routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/participants/{documentID}/document", h.handleCompose)
	r.Post("/api/participants/{documentID}/signature", h.handleSign)
	r.Get(h.paths.Prefix()+"/{name}", h.handleArtifact)
}

func (h *Handler) handleCompose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := pmodels.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeJSON[models.ComposeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p, err := h.service.Compose(ctx, id, *req)
	if err != nil {
		h.logFailure(ctx, "failed to generate document", requestID, err, "document_id", id.Masked())
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "document generated",
		"request_id", requestID,
		"document_id", id.Masked(),
	)
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleSign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := pmodels.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeJSON[models.SignRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.service.ApplySignature(ctx, id, *req)
	if err != nil {
		h.logFailure(ctx, "failed to apply signature", requestID, err, "document_id", id.Masked())
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "document signed",
		"request_id", requestID,
		"document_id", id.Masked(),
		"recovered", res.Recovered,
	)
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleArtifact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	name := chi.URLParam(r, "name")

	data, err := h.service.Artifact(ctx, name)
	if err != nil {
		h.logFailure(ctx, "failed to serve document", requestID, err)
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", `inline; filename="`+name+`"`)
	// documents are overwritten in place on regeneration and signing
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) logFailure(ctx context.Context, msg, requestID string, err error, attrs ...any) {
	args := append([]any{"request_id", requestID, "error", err}, attrs...)
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeStorage:
		h.logger.ErrorContext(ctx, msg, args...)
	default:
		h.logger.InfoContext(ctx, msg, args...)
	}
}
