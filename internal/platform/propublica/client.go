package propublica

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nonprofit-ads-analysis/internal/features/nonprofit/models"
)

const (
	DefaultBaseURL = "https://projects.propublica.org/nonprofits/api/v2/organizations"

	maxBodySize = 4 << 20
)

// Client talks to the ProPublica Nonprofit Explorer API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// LookupResponse is the raw outcome of a single organization lookup.
// Organization is nil when the response carried no organization object.
type LookupResponse struct {
	StatusCode   int
	Organization *models.Organization
}

type organizationEnvelope struct {
	Organization json.RawMessage `json:"organization"`
}

// NewClient builds a client. A zero timeout leaves requests unbounded apart
// from the context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// OrganizationURL returns the lookup URL for an EIN.
func (c *Client) OrganizationURL(ein string) string {
	return c.baseURL + "/" + url.PathEscape(ein) + ".json"
}

// LookupOrganization fetches the organization for an EIN. Non-200 responses
// are returned as data, not errors; transport failures and undecodable 200
// bodies are errors.
func (c *Client) LookupOrganization(ctx context.Context, ein string) (*LookupResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.OrganizationURL(ein), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	out := &LookupResponse{StatusCode: resp.StatusCode}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return out, nil
	}

	var env organizationEnvelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode registry response: %w", err)
	}

	org, err := decodeOrganization(env.Organization)
	if err != nil {
		return nil, fmt.Errorf("decode organization: %w", err)
	}
	out.Organization = org
	return out, nil
}

// decodeOrganization treats a missing, null, empty or non-object value as
// "no organization".
func decodeOrganization(raw json.RawMessage) (*models.Organization, error) {
	var fields map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &fields) != nil || len(fields) == 0 {
		return nil, nil
	}
	var org models.Organization
	if err := json.Unmarshal(raw, &org); err != nil {
		return nil, err
	}
	return &org, nil
}
