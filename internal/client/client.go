// Package client is a cookie-carrying HTTP session against a /user API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"authflow/internal/domain"
)

// ErrUnreachable is returned when a request never produced an HTTP response.
var ErrUnreachable = errors.New("server unreachable")

// Response is the status and raw body of one call.
type Response struct {
	StatusCode int
	Body       []byte
}

// JSON decodes the body into a generic value.
func (r *Response) JSON() (any, error) {
	var v any
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return nil, fmt.Errorf("decode response body: %w", err)
	}
	return v, nil
}

// ValidatedName extracts user.name from a validate response. ok is false
// when the body is not JSON or the field is absent.
func (r *Response) ValidatedName() (name string, ok bool) {
	var body struct {
		User *struct {
			Name *string `json:"name"`
		} `json:"user"`
	}
	if err := json.Unmarshal(r.Body, &body); err != nil {
		return "", false
	}
	if body.User == nil || body.User.Name == nil {
		return "", false
	}
	return *body.User.Name, true
}

// Client keeps a single session against baseURL. Cookies set by the server
// are replayed on every later call.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option customises a Client.
type Option func(*http.Client)

// WithTimeout bounds every request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *http.Client) {
		c.Timeout = d
	}
}

// WithTransport swaps the round tripper, mostly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *http.Client) {
		c.Transport = rt
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	hc := &http.Client{Jar: jar}
	for _, opt := range opts {
		opt(hc)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}, nil
}

// BaseURL returns the normalised resource root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Register(ctx context.Context, creds domain.Credentials) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/register", map[string]string{
		"username": creds.Username,
		"password": creds.Password,
		"name":     creds.Name,
	})
}

func (c *Client) Login(ctx context.Context, username, password string) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/login", map[string]string{
		"username": username,
		"password": password,
	})
}

func (c *Client) Validate(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/validate", nil)
}

func (c *Client) UpdateName(ctx context.Context, username, name string) (*Response, error) {
	return c.do(ctx, http.MethodPut, "/update/username/"+url.PathEscape(username), map[string]string{
		"name": name,
	})
}

func (c *Client) UpdatePassword(ctx context.Context, username, password string) (*Response, error) {
	return c.do(ctx, http.MethodPut, "/update/password/"+url.PathEscape(username), map[string]string{
		"password": password,
	})
}

func (c *Client) Logout(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/logout", nil)
}

func (c *Client) Delete(ctx context.Context, username, password string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, "/delete/"+url.PathEscape(username), map[string]string{
		"password": password,
	})
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (*Response, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%s %s: %w: %v", method, path, ErrUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w: %v", method, path, ErrUnreachable, err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: raw}, nil
}
