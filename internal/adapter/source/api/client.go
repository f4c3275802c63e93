package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/imo/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "imo/1.0"
)

// Client implements domain.ListingRepository, domain.StatsRepository and
// domain.MarksRemote against the listing service HTTP API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new listing service client
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// markRequest is the POST /api/marks body. An empty State clears the mark.
type markRequest struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// doRequest performs a request and returns the body of a 2xx response
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("api request", "method", method, "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("api request failed", "error", err, "path", path)
		return nil, fmt.Errorf("%w: %w", domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("api request error", "status", resp.StatusCode, "path", path, "bodyLen", len(data))
		return nil, fmt.Errorf("%w: %d from %s", domain.ErrUnexpectedStatus, resp.StatusCode, path)
	}

	return data, nil
}

// GetListings runs one listing query
func (c *Client) GetListings(ctx context.Context, q domain.ListingQuery) (*domain.RawResultSet, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/listings", q.Values(), nil)
	if err != nil {
		return nil, err
	}

	var rs domain.RawResultSet
	if err := json.Unmarshal(body, &rs); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return nil, fmt.Errorf("failed to parse listings: %w", err)
	}
	if rs.Results == nil {
		rs.Results = []domain.Listing{}
	}
	return &rs, nil
}

// GetStats returns the aggregate yield statistics
func (c *Client) GetStats(ctx context.Context) (*domain.AggregateStats, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/stats", nil, nil)
	if err != nil {
		return nil, err
	}

	var st domain.AggregateStats
	if err := json.Unmarshal(body, &st); err != nil {
		return nil, fmt.Errorf("failed to parse stats: %w", err)
	}
	return &st, nil
}

// GetMarks returns the remote url -> mark mapping
func (c *Client) GetMarks(ctx context.Context) (domain.Marks, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/marks", nil, nil)
	if err != nil {
		return nil, err
	}

	var raw map[string]string
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse marks: %w", err)
	}
	marks := make(domain.Marks, len(raw))
	for u, m := range raw {
		marks[u] = domain.Mark(m)
	}
	return marks, nil
}

// PostMark writes one mark; domain.MarkNone clears it
func (c *Client) PostMark(ctx context.Context, listingURL string, mark domain.Mark) error {
	_, err := c.doRequest(ctx, http.MethodPost, "/api/marks", nil, markRequest{URL: listingURL, State: mark.String()})
	return err
}
