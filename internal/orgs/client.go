// Package orgs is the HTTP client for the policy-management backend. It
// implements the catalog lookup (SCP-filtered, pagination fully drained) and
// the attachment write the enforcement engine depends on.
package orgs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"orgguard/internal/enforce/models"
	"orgguard/pkg/sentinel"
)

const policyFilterSCP = "SERVICE_CONTROL_POLICY"

// Client talks to the policy-management backend. It holds no state beyond
// connection settings; every lookup is a live round-trip.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (tests, custom
// transports).
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) {
		c.httpc = httpc
	}
}

// New creates a backend client. The token authenticates this service against
// the backend's management API.
func New(baseURL, token string, timeout time.Duration, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	c := &Client{
		baseURL: baseURL,
		token:   token,
		httpc:   &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type listPoliciesResponse struct {
	Policies  []models.CatalogEntry `json:"policies"`
	NextToken string                `json:"nextToken"`
}

// ListPolicies returns every currently defined SCP. Pagination is drained
// fully before returning; a partial page would make a configured policy look
// deleted and skip its enforcement.
func (c *Client) ListPolicies(ctx context.Context) ([]models.CatalogEntry, error) {
	var out []models.CatalogEntry
	nextToken := ""
	for {
		page, err := c.listPage(ctx, nextToken)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Policies...)
		if page.NextToken == "" {
			return out, nil
		}
		nextToken = page.NextToken
	}
}

func (c *Client) listPage(ctx context.Context, nextToken string) (*listPoliciesResponse, error) {
	u, err := url.Parse(c.baseURL + "/v1/policies")
	if err != nil {
		return nil, fmt.Errorf("build policies URL: %w", err)
	}
	q := u.Query()
	q.Set("filter", policyFilterSCP)
	if nextToken != "" {
		q.Set("nextToken", nextToken)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build policies request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list policies: %v: %w", err, sentinel.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list policies: %s: %w", resp.Status, sentinel.ErrUnavailable)
	}

	var page listPoliciesResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode policies page: %v: %w", err, sentinel.ErrUnavailable)
	}
	return &page, nil
}

type attachRequest struct {
	TargetID string `json:"targetId"`
}

type backendError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// AttachPolicy attaches one policy to the target account. The backend
// guarantees atomicity of the call; attaching an already-attached policy
// returns an error wrapping sentinel.ErrAlreadyAttached for the engine to
// classify.
func (c *Client) AttachPolicy(ctx context.Context, policyID, accountID string) error {
	body, err := json.Marshal(attachRequest{TargetID: accountID})
	if err != nil {
		return fmt.Errorf("marshal attach request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/policies/%s/attachments", c.baseURL, url.PathEscape(policyID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build attach request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("attach policy %s: %v: %w", policyID, err, sentinel.ErrUnavailable)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	case http.StatusConflict:
		be := decodeBackendError(resp.Body)
		if be.Error == "DuplicatePolicyAttachment" {
			return fmt.Errorf("policy %s on %s: %w", policyID, accountID, sentinel.ErrAlreadyAttached)
		}
		return fmt.Errorf("attach policy %s: %s: %w", policyID, be.Error, sentinel.ErrConflict)
	case http.StatusNotFound:
		return fmt.Errorf("attach policy %s: target or policy: %w", policyID, sentinel.ErrNotFound)
	default:
		be := decodeBackendError(resp.Body)
		if be.Error != "" {
			return fmt.Errorf("attach policy %s: %s: %s", policyID, resp.Status, be.Error)
		}
		return fmt.Errorf("attach policy %s: %s", policyID, resp.Status)
	}
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func decodeBackendError(r io.Reader) backendError {
	var be backendError
	// Best effort; an empty struct just yields a status-only error message.
	_ = json.NewDecoder(io.LimitReader(r, 4096)).Decode(&be)
	return be
}
