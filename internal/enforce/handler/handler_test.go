package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"orgguard/internal/enforce/engine"
	"orgguard/internal/enforce/models"
	"orgguard/internal/enforce/observability"
	"orgguard/pkg/platform/audit"
	"orgguard/pkg/sentinel"
)

// Handler tests validate HTTP concerns (parsing, response mapping) over a real
// engine wired with in-memory collaborators, not mocks.

type stubCatalog struct {
	entries []models.CatalogEntry
	err     error
}

func (s *stubCatalog) ListPolicies(context.Context) ([]models.CatalogEntry, error) {
	return s.entries, s.err
}

type stubAttacher struct {
	err error
}

func (s *stubAttacher) AttachPolicy(context.Context, string, string) error {
	return s.err
}

type discardPublisher struct{}

func (discardPublisher) Emit(context.Context, audit.Event) error { return nil }

type HandlerSuite struct {
	suite.Suite
	router   http.Handler
	catalog  *stubCatalog
	attacher *stubAttacher
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.catalog = &stubCatalog{entries: []models.CatalogEntry{{ID: "p-aaa"}}}
	s.attacher = &stubAttacher{}

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	reporter := observability.NewReporter(logger, discardPublisher{})
	eng, err := engine.New([]string{"p-aaa", "p-bbb"}, s.catalog, s.attacher, reporter, engine.WithLogger(logger))
	s.Require().NoError(err)

	h := New(eng, logger)
	r := chi.NewRouter()
	h.Register(r)
	s.router = r
}

func (s *HandlerSuite) postEvent(body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/events", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func acceptHandshakeBody(accountID string) []byte {
	event := models.MembershipEvent{
		ID:     "evt-42",
		Source: models.SourceOrganizations,
		Detail: models.EventDetail{EventName: models.EventAcceptHandshake},
	}
	if accountID != "" {
		event.Detail.UserIdentity = &models.UserIdentity{AccountID: accountID}
	}
	body, _ := json.Marshal(event)
	return body
}

func (s *HandlerSuite) TestHandleEvent_InvalidJSON() {
	rec := s.postEvent([]byte("not valid json"))
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestHandleEvent_IgnoresNonHandshakeEvents() {
	body, _ := json.Marshal(models.MembershipEvent{
		ID:     "evt-43",
		Source: models.SourceOrganizations,
		Detail: models.EventDetail{EventName: "CreateAccount"},
	})
	rec := s.postEvent(body)

	s.Equal(http.StatusAccepted, rec.Code)

	var resp map[string]string
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal("ignored", resp["status"])
}

func (s *HandlerSuite) TestHandleEvent_MissingAccountID() {
	rec := s.postEvent(acceptHandshakeBody(""))

	s.Equal(http.StatusUnprocessableEntity, rec.Code)

	var resp map[string]string
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal("missing_account_id", resp["error"])
	s.NotEmpty(resp["invocation_id"])
}

func (s *HandlerSuite) TestHandleEvent_ReturnsOrderedOutcomes() {
	rec := s.postEvent(acceptHandshakeBody("111111111111"))

	s.Require().Equal(http.StatusOK, rec.Code)

	var result models.Result
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &result))
	s.Equal("111111111111", result.AccountID)
	s.Require().Len(result.Outcomes, 2)
	s.Equal("p-aaa", result.Outcomes[0].PolicyID)
	s.Equal(models.StatusAttached, result.Outcomes[0].Status)
	s.Equal("p-bbb", result.Outcomes[1].PolicyID)
	s.Equal(models.StatusSkippedMissing, result.Outcomes[1].Status)
}

func (s *HandlerSuite) TestHandleEvent_AttachFailureStillReturnsOK() {
	// Per-policy failures are outcomes, not HTTP errors.
	s.attacher.err = fmt.Errorf("throttled: %w", sentinel.ErrUnavailable)

	rec := s.postEvent(acceptHandshakeBody("111111111111"))

	s.Require().Equal(http.StatusOK, rec.Code)

	var result models.Result
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &result))
	s.Equal(models.StatusFailed, result.Outcomes[0].Status)
}
