package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/roach88/rowset/client"
	"github.com/roach88/rowset/config"
	"github.com/roach88/rowset/internal/zlog"
)

// defaultTimeout bounds a single round trip when the caller supplies
// no context deadline and no custom HTTP client.
const defaultTimeout = 30 * time.Second

// Client implements the client capability over HTTP against a remote
// tabular backend. One request is issued per terminal operation; no
// retries, no batching.
type Client struct {
	endpoint string
	apiKey   string
	httpc    *http.Client
	log      zerolog.Logger
}

var _ client.Client = (*Client)(nil)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying HTTP client, e.g. for
// test transports or custom timeouts.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithLogger substitutes the request logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a remote client for the configured endpoint and
// credential.
func New(cfg config.Config, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		httpc:    &http.Client{Timeout: defaultTimeout},
		log:      zlog.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Select returns the rows matching q.
func (c *Client) Select(ctx context.Context, q client.Query) ([]client.Row, error) {
	body, _, err := c.do(ctx, http.MethodGet, q.Table, Params(q), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeRows(c.tableURL(q.Table), body)
}

// Insert stores one row and returns the backend's echo of it, id
// assigned. The id column is stripped before sending; assignment is
// the backend's job.
func (c *Client) Insert(ctx context.Context, table string, row client.Row) (client.Row, error) {
	payload := row.Clone()
	delete(payload, client.PKColumn)

	body, _, err := c.do(ctx, http.MethodPost, table, nil, payload, map[string]string{
		"Prefer": "return=representation",
	})
	if err != nil {
		return nil, err
	}

	rows, err := decodeRows(c.tableURL(table), body)
	if err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, &client.BackendError{
			URL:     c.tableURL(table),
			Payload: body,
			Err:     fmt.Errorf("insert returned %d rows, want 1", len(rows)),
		}
	}
	return rows[0], nil
}

// Update applies patch to every row matching q's predicates and
// returns the updated rows. Ordering and slicing on q are ignored.
func (c *Client) Update(ctx context.Context, q client.Query, patch client.Row) ([]client.Row, error) {
	body, _, err := c.do(ctx, http.MethodPatch, q.Table, filterParams(q), patch, map[string]string{
		"Prefer": "return=representation",
	})
	if err != nil {
		return nil, err
	}
	return decodeRows(c.tableURL(q.Table), body)
}

// Delete removes every row matching q's predicates and returns the
// count of rows deleted, taken from the backend's representation echo.
func (c *Client) Delete(ctx context.Context, q client.Query) (int, error) {
	body, _, err := c.do(ctx, http.MethodDelete, q.Table, filterParams(q), nil, map[string]string{
		"Prefer": "return=representation",
	})
	if err != nil {
		return 0, err
	}
	rows, err := decodeRows(c.tableURL(q.Table), body)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Count returns the number of rows matching q without fetching them:
// a HEAD request with exact counting, total taken from Content-Range.
// Offset and limit are applied arithmetically so the result matches
// what Select would return.
func (c *Client) Count(ctx context.Context, q client.Query) (int, error) {
	_, resp, err := c.do(ctx, http.MethodHead, q.Table, filterParams(q), nil, map[string]string{
		"Prefer": "count=exact",
	})
	if err != nil {
		return 0, err
	}

	total, err := parseContentRange(resp.Header.Get("Content-Range"))
	if err != nil {
		return 0, &client.BackendError{
			Status: resp.StatusCode,
			URL:    c.tableURL(q.Table),
			Err:    err,
		}
	}

	if q.Offset != nil {
		total -= *q.Offset
		if total < 0 {
			total = 0
		}
	}
	if q.Limit != nil && *q.Limit >= 0 && *q.Limit < total {
		total = *q.Limit
	}
	return total, nil
}

// do performs one HTTP round trip and returns the response body.
// Non-success statuses and transport failures become BackendErrors
// carrying the backend's payload unmodified.
func (c *Client) do(ctx context.Context, method, table string, params url.Values, payload any, headers map[string]string) ([]byte, *http.Response, error) {
	reqURL := c.tableURL(table)
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	reqID := uuid.NewString()
	start := time.Now()

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.log.Error().Str("req_id", reqID).Str("method", method).Str("url", reqURL).Err(err).Msg("backend request failed")
		return nil, nil, &client.BackendError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &client.BackendError{Status: resp.StatusCode, URL: reqURL, Err: err}
	}

	c.log.Debug().
		Str("req_id", reqID).
		Str("method", method).
		Str("url", reqURL).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("backend request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Error().Str("req_id", reqID).Str("url", reqURL).Int("status", resp.StatusCode).Msg("backend returned error status")
		return nil, nil, &client.BackendError{Status: resp.StatusCode, URL: reqURL, Payload: body}
	}

	return body, resp, nil
}

func (c *Client) tableURL(table string) string {
	return c.endpoint + "/" + url.PathEscape(table)
}

// decodeRows parses a JSON array of row objects. An empty body decodes
// as no rows, which the backend sends for mutations matching nothing.
func decodeRows(reqURL string, body []byte) ([]client.Row, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var rows []client.Row
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &client.BackendError{URL: reqURL, Payload: body, Err: fmt.Errorf("decode response: %w", err)}
	}
	return rows, nil
}

// parseContentRange extracts the total from a Content-Range header of
// the form "0-24/3573" or "*/0".
func parseContentRange(header string) (int, error) {
	if header == "" {
		return 0, fmt.Errorf("missing Content-Range header")
	}
	idx := strings.LastIndex(header, "/")
	if idx < 0 || idx == len(header)-1 {
		return 0, fmt.Errorf("malformed Content-Range %q", header)
	}
	total, err := strconv.Atoi(header[idx+1:])
	if err != nil {
		return 0, fmt.Errorf("malformed Content-Range %q: %w", header, err)
	}
	return total, nil
}
