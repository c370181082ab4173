// Package repoclient is a small client for the content repository REST API,
// used by the browser suite to seed fixtures and verify server-side state.
package repoclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/kuitang/content-e2e/internal/api"
	"github.com/kuitang/content-e2e/internal/logutil"
	"github.com/kuitang/content-e2e/internal/obs"
	"github.com/kuitang/content-e2e/internal/urlutil"
)

const (
	defaultTimeout   = 10 * time.Second
	maxLoggedBody    = 512
	maxResponseBytes = 4 << 20
)

// APIError is a non-2xx response, decoded from the error envelope.
type APIError struct {
	Method       string
	Path         string
	StatusCode   int
	BriefSummary string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.BriefSummary)
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// Client talks to one server as one person. Requests use HTTP Basic auth.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
	logger   *slog.Logger

	People *PeopleAPI
	Sites  *SitesAPI
	Nodes  *NodesAPI
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for baseURL (the server origin) authenticating as username.
func New(baseURL, username, password string, opts ...Option) *Client {
	c := &Client{
		baseURL:  baseURL,
		username: username,
		password: password,
		http:     &http.Client{Timeout: defaultTimeout},
		logger:   obs.Pkg("repoclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.People = &PeopleAPI{c: c}
	c.Sites = &SitesAPI{c: c}
	c.Nodes = &NodesAPI{c: c}
	return c
}

// Username is the person the client authenticates as.
func (c *Client) Username() string {
	return c.username
}

// do sends a request below api.BasePath. in is JSON-encoded when non-nil;
// out is decoded from a 2xx body when non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
	}

	target := urlutil.WithQuery(urlutil.BuildAbsolute(c.baseURL, api.BasePath+path), query)
	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("repoclient_request",
		"method", method,
		"url", target,
		"headers", logutil.FormatHeadersForLog(req.Header),
		"body", logutil.FormatBodyForLog("application/json", body, maxLoggedBody))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}
	contentType := resp.Header.Get("Content-Type")
	c.logger.Debug("repoclient_response",
		"method", method,
		"url", target,
		"status", resp.StatusCode,
		"dur_ms", float64(time.Since(start).Microseconds())/1000.0,
		"body", logutil.FormatBodyForLog(contentType, respBody, maxLoggedBody))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, BriefSummary: http.StatusText(resp.StatusCode)}
		var envelope api.ErrorBody
		if json.Unmarshal(respBody, &envelope) == nil && envelope.Error.BriefSummary != "" {
			apiErr.BriefSummary = envelope.Error.BriefSummary
		}
		return apiErr
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
