// Package handler serves signed download URLs: it verifies the
// path/expiry/signature triple issued by the URL signer and streams the
// stored bytes. The signature is the sole credential, so the route runs
// without bearer auth.
package handler

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"seacert/internal/platform/metrics"
	"seacert/internal/platform/middleware"
	"seacert/internal/storage"
	dErrors "seacert/pkg/domain-errors"
	"seacert/pkg/platform/httputil"
	"seacert/pkg/platform/sentinel"
	"seacert/pkg/requestcontext"
)

// Verifier checks a presented path/expiry/signature triple.
type Verifier interface {
	Verify(storagePath string, expires int64, signature string) bool
}

// Handler handles the download endpoint.
type Handler struct {
	logger   *slog.Logger
	objects  storage.ObjectStore
	verifier Verifier
	metrics  *metrics.Metrics
}

func New(objects storage.ObjectStore, verifier Verifier, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		logger:   logger,
		objects:  objects,
		verifier: verifier,
		metrics:  m,
	}
}

// Register mounts the download route.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(dr chi.Router) {
		dr.Use(middleware.Recovery(h.logger))
		dr.Use(middleware.RequestID)
		dr.Use(middleware.Logger(h.logger))
		dr.Use(middleware.Timeout(30 * time.Second))
		dr.Use(middleware.Latency(h.metrics))

		dr.Get("/download", h.handleDownload)
	})
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	storagePath := q.Get("path")
	signature := q.Get("signature")
	expires, err := strconv.ParseInt(q.Get("expires"), 10, 64)
	if storagePath == "" || signature == "" || err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "missing or malformed download parameters"))
		return
	}

	if !h.verifier.Verify(storagePath, expires, signature) {
		h.logger.WarnContext(ctx, "rejected download link",
			"request_id", requestcontext.RequestID(ctx),
			"path", storagePath,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "download link is invalid or expired"))
		return
	}

	content, err := h.objects.Fetch(ctx, storagePath)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "file not found"))
			return
		}
		h.logger.ErrorContext(ctx, "fetch stored file",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeUnavailable, "file storage failed", err))
		return
	}

	name := path.Base(storagePath)
	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}
