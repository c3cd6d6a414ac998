package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/meetingmind/mm/internal/shared"
)

// RequestIDHeader is sent on every request so server logs can be correlated with client logs.
const RequestIDHeader = "X-Request-ID"

// ErrUnauthorized matches an [APIError] with status 401 or 403. It is [shared.ErrInvalidCredentials] so callers
// outside this package can classify rejections without importing it.
var ErrUnauthorized = shared.ErrInvalidCredentials

// APIError is a non-2xx response from the API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
}

// Unwrap lets callers match [shared.ErrAPIRequest], [ErrUnauthorized] and [shared.ErrNotFound] with [errors.Is].
func (e *APIError) Unwrap() []error {
	errs := []error{shared.ErrAPIRequest}
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		errs = append(errs, ErrUnauthorized)
	case http.StatusNotFound:
		errs = append(errs, shared.ErrNotFound)
	}
	return errs
}

// newAPIError builds an [APIError] from a response body in FastAPI's {"detail": ...} shape.
//
// Validation errors carry a list under detail; the first message is used.
func newAPIError(method, path string, status int, body []byte) *APIError {
	apiErr := &APIError{Method: method, Path: path, StatusCode: status}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		apiErr.Detail = strings.TrimSpace(shared.Truncate(string(body), 200))
		return apiErr
	}

	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err == nil {
		apiErr.Detail = detail
		return apiErr
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil && len(items) > 0 {
		apiErr.Detail = items[0].Msg
		return apiErr
	}

	apiErr.Detail = string(payload.Detail)
	return apiErr
}

// newRequest builds a request for path relative to the base URL, JSON-encoding body when non-nil.
func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, shared.GenerateID())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// send waits for the rate limiter, performs req with hc and decodes a 2xx JSON body into result.
func (c *Client) send(hc *http.Client, req *http.Request, result any) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	c.logger.Debug("request", "method", req.Method, "path", req.URL.Path, "request_id", req.Header.Get(RequestIDHeader))

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", shared.ErrServiceUnavailable, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(req.Method, strings.TrimPrefix(req.URL.Path, c.pathPrefix()), resp.StatusCode, body)
		c.logger.Debug("request failed", "status", resp.StatusCode, "detail", apiErr.Detail)
		return apiErr
	}

	if result == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// do is newRequest + send over the bearer client.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, result any) error {
	hc, err := c.bearer()
	if err != nil {
		return err
	}

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	return c.send(hc, req, result)
}

// pathPrefix is the path component of the base URL, stripped from paths in errors.
func (c *Client) pathPrefix() string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return ""
	}
	return strings.TrimRight(u.Path, "/")
}
