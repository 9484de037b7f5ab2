// Package checker talks to a LanguageTool-compatible checking server.
package checker

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

// DefaultServerURL is where a locally started LanguageTool server listens.
const DefaultServerURL = "http://127.0.0.1:8081"

const maxResponseBytes = 32 << 20

// ErrService marks failures of the checking service: transport errors,
// non-2xx statuses and undecodable bodies.
var ErrService = errors.New("checking service error")

// Checker checks one request.
type Checker interface {
	Check(ctx context.Context, req *Request) (*Response, error)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("checking service returned HTTP %d", e.Code)
	}
	return fmt.Sprintf("checking service returned HTTP %d: %s", e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrService }

// Client is an HTTP client for the /v2/check endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	username   string
	apiKey     string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds every request. Zero means no timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: d, Transport: c.httpClient.Transport}
	}
}

// WithCredentials sets the username and API key of a premium account.
func WithCredentials(username, apiKey string) ClientOption {
	return func(c *Client) {
		c.username = username
		c.apiKey = apiKey
	}
}

// NewClient returns a client for the server at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = DefaultServerURL
	}
	base = strings.TrimRight(base, "/")
	base = strings.TrimSuffix(base, "/v2")
	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalised server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Check posts req and decodes the matches.
func (c *Client) Check(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("checker: nil request")
	}
	data, err := req.Data()
	if err != nil {
		return nil, fmt.Errorf("checker: encode data: %w", err)
	}
	form := url.Values{}
	language := req.Language
	if language == "" {
		language = "auto"
	}
	form.Set("language", language)
	form.Set("data", string(data))
	if req.Level != "" {
		form.Set("level", req.Level)
	}
	if len(req.EnabledRules) > 0 {
		form.Set("enabledRules", strings.Join(req.EnabledRules, ","))
	}
	if len(req.DisabledRules) > 0 {
		form.Set("disabledRules", strings.Join(req.DisabledRules, ","))
	}
	if c.username != "" && c.apiKey != "" {
		form.Set("username", c.username)
		form.Set("apiKey", c.apiKey)
	}

	endpoint := c.baseURL + "/v2/check"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("checker: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: post %s: %w", ErrService, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrService, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %w", ErrService, err)
	}
	return &out, nil
}
