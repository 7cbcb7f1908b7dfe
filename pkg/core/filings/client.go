// Package filings integrates with the FactSet Global Filings v2 API to locate
// technical report disclosures across filing venues.
// API documentation: https://developer.factset.com/api-catalog/global-filings-api
package filings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultBaseURL is the production Global Filings v2 endpoint.
const DefaultBaseURL = "https://api.factset.com/global-filings/v2"

// ErrUnauthorized is returned when the API rejects the configured
// credentials. Callers must abort the run rather than burn a retry per
// search: every subsequent request would fail the same way.
var ErrUnauthorized = errors.New("filings: credentials rejected")

// =============================================================================
// SEARCH RESPONSE TYPES
// =============================================================================

// SearchResponse is the top-level search payload.
type SearchResponse struct {
	Data []SearchEntry `json:"data"`
}

// SearchEntry groups the documents returned for one matched id.
type SearchEntry struct {
	Documents []SearchDocument `json:"documents"`
}

// SearchDocument is one filing document as the API reports it.
type SearchDocument struct {
	DocumentID      string   `json:"document_id"`
	Headline        string   `json:"headline"`
	FilingsLink     string   `json:"filings_link"`
	FilingsDateTime string   `json:"filings_date_time"`
	FormTypes       []string `json:"form_types"`
	Source          string   `json:"source"`
	FilingSize      string   `json:"filing_size"` // e.g. "2.4 MB"
	Accession       string   `json:"accession"`
	AllIDs          []string `json:"all_ids"`
}

// SearchRequest holds the query parameters for one search call.
type SearchRequest struct {
	IDs             []string
	Sources         []string
	SearchText      string
	StartDate       string // yyyymmdd
	EndDate         string // yyyymmdd
	PaginationLimit int
	Sort            string
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is an authenticated Global Filings API client. Credentials are
// injected; they are never read from the environment here.
type Client struct {
	httpClient *http.Client
	BaseURL    string
	Username   string
	APIKey     string
}

// NewClient creates a search client with a 30 second request timeout.
func NewClient(username, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		BaseURL:  DefaultBaseURL,
		Username: username,
		APIKey:   apiKey,
	}
}

// Search runs one filings search. A 404 means no results for the query and
// returns an empty response. 401 and 403 map to ErrUnauthorized.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	params := url.Values{}
	for _, id := range req.IDs {
		params.Add("ids", id)
	}
	for _, source := range req.Sources {
		params.Add("sources", source)
	}
	if req.SearchText != "" {
		params.Set("searchText", req.SearchText)
	}
	if req.StartDate != "" {
		params.Set("startDate", req.StartDate)
	}
	if req.EndDate != "" {
		params.Set("endDate", req.EndDate)
	}
	if req.PaginationLimit > 0 {
		params.Set("paginationLimit", strconv.Itoa(req.PaginationLimit))
	}
	if req.Sort != "" {
		params.Set("sort", req.Sort)
	}

	endpoint := c.BaseURL + "/search?" + params.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.SetBasicAuth(c.Username, c.APIKey)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("filings search request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("filings search returned status %d: %w", resp.StatusCode, ErrUnauthorized)
	case http.StatusNotFound:
		return &SearchResponse{}, nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("filings search returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	var parsed SearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}
	return &parsed, nil
}
