package orgs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"orgguard/internal/enforce/models"
	"orgguard/pkg/sentinel"
)

type ClientSuite struct {
	suite.Suite
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) newClient(server *httptest.Server) *Client {
	c, err := New(server.URL, "backend-token", 5*time.Second)
	s.Require().NoError(err)
	return c
}

func (s *ClientSuite) TestNew() {
	s.Run("empty base URL returns error", func() {
		_, err := New("", "", time.Second)
		s.Error(err)
		s.Contains(err.Error(), "base URL is required")
	})
}

// =============================================================================
// ListPolicies
// =============================================================================

func (s *ClientSuite) TestListPolicies_DrainsAllPages() {
	pages := map[string]listPoliciesResponse{
		"": {
			Policies:  []models.CatalogEntry{{ID: "p-aaa"}, {ID: "p-bbb"}},
			NextToken: "page-2",
		},
		"page-2": {
			Policies:  []models.CatalogEntry{{ID: "p-ccc"}},
			NextToken: "page-3",
		},
		"page-3": {
			Policies: []models.CatalogEntry{{ID: "p-ddd"}},
		},
	}

	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		s.Equal("/v1/policies", r.URL.Path)
		s.Equal("SERVICE_CONTROL_POLICY", r.URL.Query().Get("filter"))
		s.Equal("Bearer backend-token", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(pages[r.URL.Query().Get("nextToken")])
	}))
	defer server.Close()

	got, err := s.newClient(server).ListPolicies(context.Background())
	s.Require().NoError(err)

	var ids []string
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	s.Equal([]string{"p-aaa", "p-bbb", "p-ccc", "p-ddd"}, ids)
	s.Equal(3, requests, "every page must be fetched")
}

func (s *ClientSuite) TestListPolicies_BackendErrorIsUnavailable() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := s.newClient(server).ListPolicies(context.Background())
	s.ErrorIs(err, sentinel.ErrUnavailable)
}

func (s *ClientSuite) TestListPolicies_TransportErrorIsUnavailable() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	_, err := s.newClient(server).ListPolicies(context.Background())
	s.ErrorIs(err, sentinel.ErrUnavailable)
}

func (s *ClientSuite) TestListPolicies_EmptyCatalog() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(listPoliciesResponse{})
	}))
	defer server.Close()

	got, err := s.newClient(server).ListPolicies(context.Background())
	s.NoError(err)
	s.Empty(got)
}

// =============================================================================
// AttachPolicy
// =============================================================================

func (s *ClientSuite) TestAttachPolicy_Success() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Equal(http.MethodPost, r.Method)
		s.Equal("/v1/policies/p-aaa/attachments", r.URL.Path)

		var req attachRequest
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&req))
		s.Equal("111111111111", req.TargetID)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	err := s.newClient(server).AttachPolicy(context.Background(), "p-aaa", "111111111111")
	s.NoError(err)
}

func (s *ClientSuite) TestAttachPolicy_DuplicateAttachment() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(backendError{Error: "DuplicatePolicyAttachment"})
	}))
	defer server.Close()

	err := s.newClient(server).AttachPolicy(context.Background(), "p-aaa", "111111111111")
	s.ErrorIs(err, sentinel.ErrAlreadyAttached)
}

func (s *ClientSuite) TestAttachPolicy_OtherConflict() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(backendError{Error: "ConcurrentModification"})
	}))
	defer server.Close()

	err := s.newClient(server).AttachPolicy(context.Background(), "p-aaa", "111111111111")
	s.ErrorIs(err, sentinel.ErrConflict)
	s.NotErrorIs(err, sentinel.ErrAlreadyAttached)
}

func (s *ClientSuite) TestAttachPolicy_NotFound() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	err := s.newClient(server).AttachPolicy(context.Background(), "p-gone", "111111111111")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ClientSuite) TestAttachPolicy_PermissionDenied() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(backendError{Error: "AccessDenied"})
	}))
	defer server.Close()

	err := s.newClient(server).AttachPolicy(context.Background(), "p-aaa", "111111111111")
	s.Error(err)
	s.Contains(err.Error(), "AccessDenied")
	s.NotErrorIs(err, sentinel.ErrAlreadyAttached)
}
