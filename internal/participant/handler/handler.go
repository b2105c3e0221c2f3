package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"termo/internal/participant/models"
	dErrors "termo/pkg/domain-errors"
	"termo/pkg/platform/httputil"
	"termo/pkg/requestcontext"
)

// Service defines the participant operations the handler needs.
type Service interface {
	Get(ctx context.Context, id models.DocumentID) (*models.Participant, error)
	ListSigned(ctx context.Context, filter models.SignedFilter) (*models.SignedPage, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

// DateLayout is the format of the signed_from and signed_to query parameters.
const DateLayout = "2006-01-02"

// Handler serves participant lookups and the signed listing.
type Handler struct {
	service  Service
	logger   *slog.Logger
	location *time.Location
}

// New creates a participant Handler. Date filters are interpreted in loc
// (UTC when nil).
func New(service Service, logger *slog.Logger, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{service: service, logger: logger, location: loc}
}

// Register registers the participant routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/participants/signed", h.handleListSigned)
	r.Get("/api/participants/signed/stats", h.handleStats)
	r.Get("/api/participants/{documentID}", h.handleGet)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := models.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	p, err := h.service.Get(ctx, id)
	if err != nil {
		h.logFailure(ctx, "failed to get participant", requestID, err, "document_id", id.Masked())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleListSigned(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	filter, err := h.parseFilter(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	page, err := h.service.ListSigned(ctx, filter)
	if err != nil {
		h.logFailure(ctx, "failed to list signed participants", requestID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	stats, err := h.service.Stats(ctx)
	if err != nil {
		h.logFailure(ctx, "failed to compute signed stats", requestID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) parseFilter(q url.Values) (models.SignedFilter, error) {
	f := models.SignedFilter{
		Search: q.Get("search"),
		Campus: q.Get("campus"),
	}

	var err error
	if f.Page, err = optionalInt(q, "page"); err != nil {
		return f, err
	}
	if f.Limit, err = optionalInt(q, "limit"); err != nil {
		return f, err
	}

	if v := q.Get("signed_from"); v != "" {
		from, err := time.ParseInLocation(DateLayout, v, h.location)
		if err != nil {
			return f, dErrors.New(dErrors.CodeBadRequest, "signed_from must be YYYY-MM-DD")
		}
		f.SignedFrom = &from
	}
	if v := q.Get("signed_to"); v != "" {
		to, err := time.ParseInLocation(DateLayout, v, h.location)
		if err != nil {
			return f, dErrors.New(dErrors.CodeBadRequest, "signed_to must be YYYY-MM-DD")
		}
		before := to.AddDate(0, 0, 1)
		f.SignedBefore = &before
	}
	return f, nil
}

func optionalInt(q url.Values, key string) (int, error) {
	v := q.Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, key+" must be an integer")
	}
	return n, nil
}

func (h *Handler) logFailure(ctx context.Context, msg, requestID string, err error, attrs ...any) {
	args := append([]any{"request_id", requestID, "error", err}, attrs...)
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, args...)
		return
	}
	h.logger.InfoContext(ctx, msg, args...)
}
