package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"seacert/internal/application"
	"seacert/internal/audit"
	"seacert/internal/document"
	"seacert/internal/jwttoken"
	"seacert/internal/platform/metrics"
	"seacert/internal/requirement"
	"seacert/internal/storage"
	id "seacert/pkg/domain"
	"seacert/pkg/requestcontext"
)

// metrics.New registers against the default prometheus registry; once per
// test binary.
var testMetrics = metrics.New()

type ApplicationHandlerSuite struct {
	suite.Suite
	router    *chi.Mux
	tokens    *jwttoken.JWTService
	documents *document.Service
}

func (s *ApplicationHandlerSuite) SetupTest() {
	s.tokens = jwttoken.NewJWTService("test-signing-key", "seacert-test", "seacert")

	descriptors, err := requirement.NewSet(requirement.Defaults())
	s.Require().NoError(err)

	s.documents = document.NewService(
		document.NewInMemoryStore(),
		storage.NewInMemoryStore(),
		storage.NewHMACSigner("https://files.test", "url-secret"),
		document.NewValidator(nil),
		descriptors,
		audit.NopRecorder{},
		15*time.Minute,
	)
	svc := application.NewService(application.NewInMemoryStore(), s.documents, audit.NopRecorder{})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(svc, logger, testMetrics, jwttoken.NewMiddlewareAdapter(s.tokens))
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func TestApplicationHandlerSuite(t *testing.T) {
	suite.Run(t, new(ApplicationHandlerSuite))
}

func (s *ApplicationHandlerSuite) bearer(role string) string {
	token, err := s.tokens.GenerateAccessToken(uuid.New(), role, time.Hour)
	s.Require().NoError(err)
	return "Bearer " + token
}

func (s *ApplicationHandlerSuite) do(method, target, role string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if role != "" {
		req.Header.Set("Authorization", s.bearer(role))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *ApplicationHandlerSuite) createApplication() applicationResponse {
	w := s.do(http.MethodPost, "/applications", "institution", createRequest{
		InstitutionID: uuid.NewString(),
		Type:          "new_accreditation",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp applicationResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (s *ApplicationHandlerSuite) attachDocument(appID string) {
	ctx := requestcontext.WithUserID(context.Background(), id.NewUserID())
	ctx = requestcontext.WithRole(ctx, "submitter")

	_, result, err := s.documents.Upload(ctx, document.OwnerApplication, appID, "accreditation_certificate", document.FileInfo{
		Name:      "certificate.pdf",
		MimeType:  "application/pdf",
		SizeBytes: 1_000_000,
		Content:   []byte("%PDF-1.7"),
	})
	s.Require().NoError(err)
	s.Require().True(result.IsValid)
}

func (s *ApplicationHandlerSuite) TestCreate() {
	app := s.createApplication()
	s.Equal("draft", app.WorkflowState)
	s.Equal(1, app.Revision)
	s.Contains(app.NextStates, "submitted")

	s.Run("unknown type rejected", func() {
		w := s.do(http.MethodPost, "/applications", "institution", createRequest{
			InstitutionID: uuid.NewString(),
			Type:          "franchise",
		})
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("missing token rejected", func() {
		w := s.do(http.MethodPost, "/applications", "", createRequest{})
		s.Equal(http.StatusUnauthorized, w.Code)
	})
}

func (s *ApplicationHandlerSuite) TestSubmit() {
	app := s.createApplication()

	s.Run("institution role forbidden", func() {
		w := s.do(http.MethodPost, "/applications/"+app.ID+"/submit", "institution", nil)
		s.Equal(http.StatusForbidden, w.Code)
		// Rejected at the route, before the service is consulted.
		s.Contains(w.Body.String(), "Insufficient role")
	})

	s.Run("draft without documents rejected", func() {
		w := s.do(http.MethodPost, "/applications/"+app.ID+"/submit", "reviewer", nil)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("reviewer submits once a document is attached", func() {
		s.attachDocument(app.ID)
		w := s.do(http.MethodPost, "/applications/"+app.ID+"/submit", "reviewer", nil)
		s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

		var resp applicationResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal("submitted", resp.WorkflowState)
		s.Equal(2, resp.Revision)
	})
}

func (s *ApplicationHandlerSuite) TestTransition() {
	app := s.createApplication()
	s.attachDocument(app.ID)
	w := s.do(http.MethodPost, "/applications/"+app.ID+"/submit", "admin", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	s.Run("institution role forbidden", func() {
		w := s.do(http.MethodPost, "/applications/"+app.ID+"/transition", "institution", transitionRequest{Target: "under_review"})
		s.Equal(http.StatusForbidden, w.Code)
		s.Contains(w.Body.String(), "Insufficient role")
	})

	s.Run("reviewer starts review", func() {
		w := s.do(http.MethodPost, "/applications/"+app.ID+"/transition", "reviewer", transitionRequest{Target: "under_review", Comment: "starting review"})
		s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

		var resp applicationResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal("under_review", resp.WorkflowState)
	})

	s.Run("illegal jump rejected", func() {
		w := s.do(http.MethodPost, "/applications/"+app.ID+"/transition", "admin", transitionRequest{Target: "submitted"})
		s.Equal(http.StatusConflict, w.Code)
	})

	s.Run("unknown application", func() {
		w := s.do(http.MethodPost, "/applications/"+uuid.NewString()+"/transition", "admin", transitionRequest{Target: "under_review"})
		s.Equal(http.StatusNotFound, w.Code)
	})
}

func (s *ApplicationHandlerSuite) TestComments() {
	app := s.createApplication()

	w := s.do(http.MethodPost, "/applications/"+app.ID+"/comments", "reviewer", commentRequest{Comment: "missing the safety annex"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp applicationResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("draft", resp.WorkflowState)
	s.Equal("missing the safety annex", resp.History[len(resp.History)-1].Comment)
}

func (s *ApplicationHandlerSuite) TestListByInstitution() {
	app := s.createApplication()

	w := s.do(http.MethodGet, "/applications?institution="+app.InstitutionID, "institution", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp map[string][]applicationResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Require().Len(resp["applications"], 1)
	s.Equal(app.ID, resp["applications"][0].ID)
}
