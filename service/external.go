package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrCatalogUnreachable marks any failure to get results out of the
// external catalog: transport errors, timeouts, non-2xx responses, bad
// payloads. Callers recover from it; it never reaches the end user.
var ErrCatalogUnreachable = errors.New("external catalog unreachable")

const externalTimeout = 5 * time.Second

// RawResult is one unparsed entry from the external catalog. Field names
// vary across providers, so it stays schemaless until normalization.
type RawResult map[string]any

// SearchClient is the capability the catalog service needs from an
// external lookup; fakes stand in for it in tests.
type SearchClient interface {
	Enabled() bool
	Search(ctx context.Context, query string) ([]RawResult, error)
}

// ExternalClient queries a remote catalog search endpoint over HTTP.
type ExternalClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewExternalClient(baseURL, token string) *ExternalClient {
	return &ExternalClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		// Short timeout so a hung catalog doesn't block the search request.
		client: &http.Client{Timeout: externalTimeout},
	}
}

// Enabled reports whether a base URL is configured.
func (c *ExternalClient) Enabled() bool {
	return c.baseURL != ""
}

// Search issues GET {base}/search?q={query}. A disabled client or empty
// query returns no results without touching the network.
func (c *ExternalClient) Search(ctx context.Context, query string) ([]RawResult, error) {
	if !c.Enabled() || query == "" {
		return nil, nil
	}
	q := url.Values{}
	q.Set("q", query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnreachable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrCatalogUnreachable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnreachable, err)
	}
	return decodeResults(body)
}

// decodeResults accepts either a bare JSON list or an object holding the
// list under a "results" key.
func decodeResults(body []byte) ([]RawResult, error) {
	var list []RawResult
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Results []RawResult `json:"results"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrCatalogUnreachable, err)
	}
	return wrapped.Results, nil
}
