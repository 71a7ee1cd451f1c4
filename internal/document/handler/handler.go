// Package handler exposes the document lifecycle over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"seacert/internal/document"
	"seacert/internal/platform/metrics"
	"seacert/internal/platform/middleware"
	"seacert/internal/workflow"
	id "seacert/pkg/domain"
	dErrors "seacert/pkg/domain-errors"
	"seacert/pkg/platform/httputil"
	"seacert/pkg/requestcontext"
)

// maxUploadBytes caps the multipart form we are willing to parse. Descriptor
// size limits are enforced per slot by the validator.
const maxUploadBytes = 64 << 20

// Service defines the document operations the handler needs.
type Service interface {
	Upload(ctx context.Context, kind document.OwnerKind, ownerID, requirementKey string, file document.FileInfo) (*document.Document, document.ValidationResult, error)
	Get(ctx context.Context, docID id.DocumentID) (*document.Document, error)
	ListByOwner(ctx context.Context, kind document.OwnerKind, ownerID string) ([]*document.Document, error)
	Transition(ctx context.Context, docID id.DocumentID, target workflow.State, comment string, expectedVersion int) (*document.Document, error)
	AddComment(ctx context.Context, docID id.DocumentID, comment string) (*document.Document, error)
	CreateVersion(ctx context.Context, docID id.DocumentID, file document.FileInfo) (*document.Document, document.ValidationResult, error)
	Versions(ctx context.Context, docID id.DocumentID) ([]*document.Version, error)
	SignedURL(ctx context.Context, docID id.DocumentID) (string, error)
	Expiry(ctx context.Context, docID id.DocumentID) (document.ExpiryStatus, *time.Time, error)
}

// Handler handles document endpoints.
type Handler struct {
	logger       *slog.Logger
	documents    Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

func New(documents Service, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		documents:    documents,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the document routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(dr chi.Router) {
		dr.Use(middleware.Recovery(h.logger))
		dr.Use(middleware.RequestID)
		dr.Use(middleware.RequestTime)
		dr.Use(middleware.Logger(h.logger))
		dr.Use(middleware.Timeout(30 * time.Second))
		dr.Use(middleware.Latency(h.metrics))
		dr.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		dr.Post("/documents", h.handleUpload)
		dr.Get("/documents", h.handleList)
		dr.Get("/documents/{documentID}", h.handleGet)
		// Transitions are reviewer work; the workflow's role gate backstops
		// this at the service layer.
		dr.With(middleware.RequireRole("admin", "reviewer")).
			Post("/documents/{documentID}/transition", h.handleTransition)
		dr.Post("/documents/{documentID}/comments", h.handleAddComment)
		dr.Post("/documents/{documentID}/versions", h.handleCreateVersion)
		dr.Get("/documents/{documentID}/versions", h.handleListVersions)
		dr.Get("/documents/{documentID}/url", h.handleSignedURL)
		dr.Get("/documents/{documentID}/expiry", h.handleExpiry)
	})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	file, kind, ownerID, requirementKey, err := parseUploadForm(r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid upload request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	doc, result, err := h.documents.Upload(ctx, kind, ownerID, requirementKey, file)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeValidationFailed) {
			writeValidationFailure(w, result)
			return
		}
		h.logger.ErrorContext(ctx, "upload failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, uploadResponse{
		Document: toDocumentResponse(doc),
		Warnings: result.Warnings,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	docID, err := pathDocumentID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	doc, err := h.documents.Get(r.Context(), docID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDocumentResponse(doc))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	kind := document.OwnerKind(r.URL.Query().Get("owner_kind"))
	ownerID := r.URL.Query().Get("owner")
	if kind == "" {
		kind = document.OwnerApplication
	}

	docs, err := h.documents.ListByOwner(r.Context(), kind, ownerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]documentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toDocumentResponse(doc))
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Documents: out})
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID, err := pathDocumentID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	doc, err := h.documents.Transition(ctx, docID, workflow.State(req.Target), req.Comment, req.ExpectedVersion)
	if err != nil {
		h.logger.WarnContext(ctx, "transition rejected",
			"request_id", requestcontext.RequestID(ctx),
			"document_id", docID.String(),
			"target", req.Target,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDocumentResponse(doc))
}

func (h *Handler) handleAddComment(w http.ResponseWriter, r *http.Request) {
	docID, err := pathDocumentID(r)
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

	doc, err := h.documents.AddComment(r.Context(), docID, req.Comment)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDocumentResponse(doc))
}

func (h *Handler) handleCreateVersion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID, err := pathDocumentID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	file, err := parseFilePart(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	doc, result, err := h.documents.CreateVersion(ctx, docID, file)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeValidationFailed) {
			writeValidationFailure(w, result)
			return
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, uploadResponse{
		Document: toDocumentResponse(doc),
		Warnings: result.Warnings,
	})
}

func (h *Handler) handleListVersions(w http.ResponseWriter, r *http.Request) {
	docID, err := pathDocumentID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	versions, err := h.documents.Versions(r.Context(), docID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]versionResponse, 0, len(versions))
	for _, v := range versions {
		out = append(out, toVersionResponse(v))
	}
	httputil.WriteJSON(w, http.StatusOK, versionsResponse{Versions: out})
}

func (h *Handler) handleSignedURL(w http.ResponseWriter, r *http.Request) {
	docID, err := pathDocumentID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	url, err := h.documents.SignedURL(r.Context(), docID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, signedURLResponse{URL: url})
}

func (h *Handler) handleExpiry(w http.ResponseWriter, r *http.Request) {
	docID, err := pathDocumentID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	status, expiry, err := h.documents.Expiry(r.Context(), docID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := expiryResponse{Status: string(status)}
	if expiry != nil {
		formatted := expiry.Format(time.RFC3339)
		resp.ExpiryDate = &formatted
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func pathDocumentID(r *http.Request) (id.DocumentID, error) {
	docID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		return id.DocumentID{}, dErrors.New(dErrors.CodeBadRequest, "invalid document id")
	}
	return docID, nil
}

func parseUploadForm(r *http.Request) (document.FileInfo, document.OwnerKind, string, string, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return document.FileInfo{}, "", "", "", dErrors.New(dErrors.CodeBadRequest, "expected multipart form upload")
	}
	kind := document.OwnerKind(r.FormValue("owner_kind"))
	if kind == "" {
		kind = document.OwnerApplication
	}
	ownerID := r.FormValue("owner_id")
	requirementKey := r.FormValue("requirement_key")

	file, err := parseFilePart(r)
	if err != nil {
		return document.FileInfo{}, "", "", "", err
	}
	return file, kind, ownerID, requirementKey, nil
}

func parseFilePart(r *http.Request) (document.FileInfo, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return document.FileInfo{}, dErrors.New(dErrors.CodeBadRequest, "expected multipart form upload")
	}
	part, header, err := r.FormFile("file")
	if err != nil {
		return document.FileInfo{}, dErrors.New(dErrors.CodeBadRequest, "missing file part")
	}
	defer part.Close()

	content, err := io.ReadAll(part)
	if err != nil {
		return document.FileInfo{}, dErrors.Wrap(dErrors.CodeBadRequest, "read uploaded file", err)
	}
	return document.FileInfo{
		Name:      header.Filename,
		MimeType:  header.Header.Get("Content-Type"),
		SizeBytes: int64(len(content)),
		Content:   content,
	}, nil
}

func writeValidationFailure(w http.ResponseWriter, result document.ValidationResult) {
	httputil.WriteJSON(w, http.StatusUnprocessableEntity, validationFailureResponse{
		Error:            string(dErrors.CodeValidationFailed),
		ErrorDescription: "file failed validation",
		Errors:           result.Errors,
		Warnings:         result.Warnings,
	})
}
