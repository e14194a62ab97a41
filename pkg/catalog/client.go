// Package catalog provides the Rick and Morty character API client,
// its data model and the shared request error taxonomy.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/rm-catalog-client/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for catalog requests.
var (
	catalogRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rm_catalog_requests_total",
		Help: "Total catalog requests by operation and status",
	}, []string{"operation", "status"})

	catalogRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rm_catalog_request_duration_seconds",
		Help:    "Catalog request duration in seconds by operation",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"operation"})

	catalogErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rm_catalog_errors_total",
		Help: "Total catalog errors by class",
	}, []string{"class"})
)

// DefaultBaseURL is the public character resource.
const DefaultBaseURL = "https://rickandmortyapi.com/api/character"

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 4 << 10

// Service fetches pages of characters. Client is the HTTP implementation;
// catalogtest.StaticService is the in-memory double.
type Service interface {
	FetchPage(ctx context.Context, page int, filter StatusFilter) (*PageEnvelope, error)
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the character collection endpoint.
	BaseURL string

	// UserAgent header sent with every request.
	UserAgent string

	// Timeout is the transport timeout. Zero keeps the http.Client default.
	Timeout time.Duration

	// HTTPClient overrides the client built from Timeout (for testing).
	HTTPClient *http.Client
}

// DefaultConfig returns a configuration for the public API.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: "rm-catalog-client/0.1.0",
		Timeout:   30 * time.Second,
	}
}

// Client is the HTTP catalog client. It performs exactly one request per
// call: no retries, no caching.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	userAgent  string
	logger     zerolog.Logger
}

var _ Service = (*Client)(nil)

// New creates a new catalog client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if !base.IsAbs() || base.Host == "" {
		return nil, fmt.Errorf("base url must be absolute (got %q)", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    base,
		userAgent:  cfg.UserAgent,
		logger:     logging.NewLogger("catalog-client"),
	}, nil
}

// PageURL builds the request URL for one page. The status parameter is
// only present for a non-empty filter.
func (c *Client) PageURL(page int, filter StatusFilter) string {
	u := *c.baseURL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	if !filter.IsAll() {
		q.Set("status", string(filter))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// FetchPage fetches one page of characters.
func (c *Client) FetchPage(ctx context.Context, page int, filter StatusFilter) (*PageEnvelope, error) {
	if page < 1 {
		return nil, fmt.Errorf("page must be >= 1 (got %d)", page)
	}

	target := c.PageURL(page, filter)
	var raw rawEnvelope
	if err := c.getJSON(ctx, "page", target, &raw); err != nil {
		return nil, err
	}

	if raw.Info == nil || raw.Results == nil {
		err := &DecodeError{URL: target, Err: errors.New("envelope is missing info or results")}
		c.recordError("page", err)
		return nil, err
	}

	env := &PageEnvelope{Info: *raw.Info, Results: *raw.Results}
	c.logger.Debug().
		Int("page", page).
		Str("status", filter.String()).
		Int("results", len(env.Results)).
		Int("pages", env.Info.Pages).
		Msg("Fetched catalog page")

	return env, nil
}

// FetchCharacter fetches a single character by id.
func (c *Client) FetchCharacter(ctx context.Context, id int) (*Character, error) {
	if id < 1 {
		return nil, fmt.Errorf("character id must be >= 1 (got %d)", id)
	}

	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strconv.Itoa(id)
	u.RawQuery = ""
	target := u.String()

	var ch Character
	if err := c.getJSON(ctx, "character", target, &ch); err != nil {
		return nil, err
	}
	if ch.ID == 0 {
		err := &DecodeError{URL: target, Err: errors.New("character has no id")}
		c.recordError("character", err)
		return nil, err
	}
	return &ch, nil
}

// getJSON performs one GET and decodes a 2xx body into v.
func (c *Client) getJSON(ctx context.Context, operation, target string, v any) error {
	startTime := time.Now()
	defer func() {
		catalogRequestDuration.WithLabelValues(operation).Observe(time.Since(startTime).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		netErr := &NetworkError{URL: target, Err: err}
		catalogRequestsTotal.WithLabelValues(operation, "network_error").Inc()
		c.recordError(operation, netErr)
		return netErr
	}
	defer resp.Body.Close()

	catalogRequestsTotal.WithLabelValues(operation, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &HTTPStatusError{
			URL:        target,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.Body),
		}
		c.recordError(operation, statusErr)
		return statusErr
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		decErr := &DecodeError{URL: target, Err: err}
		c.recordError(operation, decErr)
		return decErr
	}
	return nil
}

func (c *Client) recordError(operation string, err error) {
	class := Classify(err)
	catalogErrorsTotal.WithLabelValues(string(class)).Inc()
	c.logger.Warn().
		Err(err).
		Str("operation", operation).
		Str("error_class", string(class)).
		Msg("Catalog request failed")
}

// errorMessage extracts the API's {"error": "..."} text from a body.
func errorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	return payload.Error
}
