// Package handler exposes the renewal-request flow over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"seacert/internal/platform/metrics"
	"seacert/internal/platform/middleware"
	"seacert/internal/renewal"
	id "seacert/pkg/domain"
	dErrors "seacert/pkg/domain-errors"
	"seacert/pkg/platform/httputil"
)

// Service defines the renewal operations the handler needs.
type Service interface {
	RequestRenewal(ctx context.Context, docID id.DocumentID) (*renewal.Request, error)
	Complete(ctx context.Context, reqID id.RenewalID) (*renewal.Request, error)
	ListByStatus(ctx context.Context, status renewal.RequestStatus) ([]*renewal.Request, error)
}

// Handler handles renewal endpoints.
type Handler struct {
	logger       *slog.Logger
	renewals     Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

func New(renewals Service, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		renewals:     renewals,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the renewal routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(rr chi.Router) {
		rr.Use(middleware.Recovery(h.logger))
		rr.Use(middleware.RequestID)
		rr.Use(middleware.RequestTime)
		rr.Use(middleware.Logger(h.logger))
		rr.Use(middleware.Timeout(15 * time.Second))
		rr.Use(middleware.Latency(h.metrics))
		rr.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		rr.Post("/documents/{documentID}/renewals", h.handleRequest)
		rr.Get("/renewals", h.handleList)
		rr.With(middleware.RequireRole("admin", "reviewer")).
			Post("/renewals/{renewalID}/complete", h.handleComplete)
	})
}

type renewalResponse struct {
	ID          string     `json:"id"`
	DocumentID  string     `json:"document_id"`
	Status      string     `json:"status"`
	RequestDate time.Time  `json:"request_date"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func toRenewalResponse(req *renewal.Request) renewalResponse {
	return renewalResponse{
		ID:          req.ID.String(),
		DocumentID:  req.DocumentID.String(),
		Status:      string(req.Status),
		RequestDate: req.RequestDate,
		CompletedAt: req.CompletedAt,
	}
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	docID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid document id"))
		return
	}
	req, err := h.renewals.RequestRenewal(r.Context(), docID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toRenewalResponse(req))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	status := renewal.RequestStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = renewal.StatusPending
	}
	reqs, err := h.renewals.ListByStatus(r.Context(), status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]renewalResponse, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, toRenewalResponse(req))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]renewalResponse{"renewals": out})
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	reqID, err := id.ParseRenewalID(chi.URLParam(r, "renewalID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid renewal id"))
		return
	}
	req, err := h.renewals.Complete(r.Context(), reqID)
	if err != nil {
		h.logger.WarnContext(r.Context(), "renewal completion rejected",
			"renewal_id", reqID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRenewalResponse(req))
}
