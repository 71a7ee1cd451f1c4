// Package handler exposes accreditation applications over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"seacert/internal/application"
	"seacert/internal/platform/metrics"
	"seacert/internal/platform/middleware"
	"seacert/internal/workflow"
	id "seacert/pkg/domain"
	dErrors "seacert/pkg/domain-errors"
	"seacert/pkg/platform/httputil"
)

// Service defines the application operations the handler needs.
type Service interface {
	Create(ctx context.Context, instID id.InstitutionID, typ application.Type) (*application.Application, error)
	Get(ctx context.Context, appID id.ApplicationID) (*application.Application, error)
	ListByInstitution(ctx context.Context, instID id.InstitutionID) ([]*application.Application, error)
	Submit(ctx context.Context, appID id.ApplicationID, comment string) (*application.Application, error)
	Transition(ctx context.Context, appID id.ApplicationID, target workflow.State, comment string) (*application.Application, error)
	AddComment(ctx context.Context, appID id.ApplicationID, comment string) (*application.Application, error)
}

// Handler handles application endpoints.
type Handler struct {
	logger       *slog.Logger
	applications Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

func New(applications Service, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		applications: applications,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the application routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(ar chi.Router) {
		ar.Use(middleware.Recovery(h.logger))
		ar.Use(middleware.RequestID)
		ar.Use(middleware.RequestTime)
		ar.Use(middleware.Logger(h.logger))
		ar.Use(middleware.Timeout(15 * time.Second))
		ar.Use(middleware.Latency(h.metrics))
		ar.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		ar.Post("/applications", h.handleCreate)
		ar.Get("/applications", h.handleList)
		ar.Get("/applications/{applicationID}", h.handleGet)
		// Submission and review transitions are reviewer work; the
		// workflow's role gate backstops this at the service layer.
		ar.With(middleware.RequireRole("admin", "reviewer")).
			Post("/applications/{applicationID}/submit", h.handleSubmit)
		ar.With(middleware.RequireRole("admin", "reviewer")).
			Post("/applications/{applicationID}/transition", h.handleTransition)
		ar.Post("/applications/{applicationID}/comments", h.handleAddComment)
	})
}

type createRequest struct {
	InstitutionID string `json:"institution_id"`
	Type          string `json:"type"`
}

type transitionRequest struct {
	Target  string `json:"target"`
	Comment string `json:"comment"`
}

type commentRequest struct {
	Comment string `json:"comment"`
}

type applicationResponse struct {
	ID            string         `json:"id"`
	InstitutionID string         `json:"institution_id"`
	Type          string         `json:"type"`
	WorkflowState string         `json:"workflow_state"`
	Revision      int            `json:"revision"`
	CreatedAt     time.Time      `json:"created_at"`
	History       []historyEntry `json:"history"`
	NextStates    []string       `json:"next_states"`
}

type historyEntry struct {
	State     string    `json:"state"`
	Timestamp time.Time `json:"timestamp"`
	Comment   string    `json:"comment,omitempty"`
	ActorID   string    `json:"actor_id,omitempty"`
}

func toApplicationResponse(app *application.Application) applicationResponse {
	history := make([]historyEntry, 0, len(app.History))
	for _, e := range app.History {
		he := historyEntry{
			State:     string(e.State),
			Timestamp: e.Timestamp,
			Comment:   e.Comment,
		}
		if !e.ActorID.IsNil() {
			he.ActorID = e.ActorID.String()
		}
		history = append(history, he)
	}
	next := workflow.Successors(app.WorkflowState)
	nextStates := make([]string, 0, len(next))
	for _, s := range next {
		nextStates = append(nextStates, string(s))
	}
	return applicationResponse{
		ID:            app.ID.String(),
		InstitutionID: app.InstitutionID.String(),
		Type:          string(app.Type),
		WorkflowState: string(app.WorkflowState),
		Revision:      app.Revision,
		CreatedAt:     app.CreatedAt,
		History:       history,
		NextStates:    nextStates,
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	instID, err := id.ParseInstitutionID(req.InstitutionID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid institution id"))
		return
	}
	app, err := h.applications.Create(r.Context(), instID, application.Type(req.Type))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toApplicationResponse(app))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	appID, err := pathApplicationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	app, err := h.applications.Get(r.Context(), appID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	instID, err := id.ParseInstitutionID(r.URL.Query().Get("institution"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid institution id"))
		return
	}
	apps, err := h.applications.ListByInstitution(r.Context(), instID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]applicationResponse, 0, len(apps))
	for _, app := range apps {
		out = append(out, toApplicationResponse(app))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]applicationResponse{"applications": out})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	appID, err := pathApplicationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req commentRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}
	}
	app, err := h.applications.Submit(r.Context(), appID, req.Comment)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, err := pathApplicationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	app, err := h.applications.Transition(ctx, appID, workflow.State(req.Target), req.Comment)
	if err != nil {
		h.logger.WarnContext(ctx, "application transition rejected",
			"application_id", appID.String(),
			"target", req.Target,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

func (h *Handler) handleAddComment(w http.ResponseWriter, r *http.Request) {
	appID, err := pathApplicationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Comment == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "comment must not be empty"))
		return
	}
	app, err := h.applications.AddComment(r.Context(), appID, req.Comment)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}

func pathApplicationID(r *http.Request) (id.ApplicationID, error) {
	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		return id.ApplicationID{}, dErrors.New(dErrors.CodeBadRequest, "invalid application id")
	}
	return appID, nil
}
