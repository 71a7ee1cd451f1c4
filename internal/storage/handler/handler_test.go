package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"seacert/internal/platform/metrics"
	"seacert/internal/storage"
)

// metrics.New registers against the default prometheus registry; once per
// test binary.
var testMetrics = metrics.New()

type DownloadSuite struct {
	suite.Suite
	router  *chi.Mux
	objects *storage.InMemoryStore
	signer  *storage.HMACSigner
}

func (s *DownloadSuite) SetupTest() {
	s.objects = storage.NewInMemoryStore()
	// Empty base keeps the signed URL relative so it can be replayed
	// straight against the router.
	s.signer = storage.NewHMACSigner("", "url-secret")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(s.objects, s.signer, logger, testMetrics)
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func TestDownloadSuite(t *testing.T) {
	suite.Run(t, new(DownloadSuite))
}

func (s *DownloadSuite) get(target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func (s *DownloadSuite) TestSignedURLServesStoredBytes() {
	ctx := context.Background()
	path, err := s.objects.Upload(ctx, "documents/app-1/cert/v1/certificate.pdf", []byte("%PDF-1.7 body"))
	s.Require().NoError(err)

	url, err := s.signer.SignedURL(ctx, path, 15*time.Minute)
	s.Require().NoError(err)

	w := s.get(url)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal([]byte("%PDF-1.7 body"), w.Body.Bytes())
	s.Equal("application/pdf", w.Header().Get("Content-Type"))
	s.Contains(w.Header().Get("Content-Disposition"), `filename="certificate.pdf"`)
}

func (s *DownloadSuite) TestTamperedSignatureRejected() {
	ctx := context.Background()
	path, err := s.objects.Upload(ctx, "documents/app-1/cert/v1/certificate.pdf", []byte("%PDF-1.7"))
	s.Require().NoError(err)

	url, err := s.signer.SignedURL(ctx, path, 15*time.Minute)
	s.Require().NoError(err)

	w := s.get(url + "00")
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *DownloadSuite) TestExpiredLinkRejected() {
	ctx := context.Background()
	path, err := s.objects.Upload(ctx, "documents/app-1/cert/v1/certificate.pdf", []byte("%PDF-1.7"))
	s.Require().NoError(err)

	// Same secret, clock an hour behind: the issued expiry is already past.
	stale := storage.NewHMACSigner("", "url-secret", storage.WithSignerClock(func() time.Time {
		return time.Now().Add(-time.Hour)
	}))
	url, err := stale.SignedURL(ctx, path, 30*time.Minute)
	s.Require().NoError(err)

	w := s.get(url)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *DownloadSuite) TestMissingObjectIsNotFound() {
	url, err := s.signer.SignedURL(context.Background(), "documents/app-1/cert/v1/gone.pdf", 15*time.Minute)
	s.Require().NoError(err)

	w := s.get(url)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *DownloadSuite) TestMalformedParametersRejected() {
	s.Equal(http.StatusBadRequest, s.get("/download?path=x").Code)
	s.Equal(http.StatusBadRequest, s.get("/download?expires=abc&path=x&signature=y").Code)
	s.Equal(http.StatusBadRequest, s.get("/download?expires=123&signature=y").Code)
}
