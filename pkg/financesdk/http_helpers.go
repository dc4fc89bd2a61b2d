package financesdk

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
	"strings"
	"time"

	"github.com/dimbox/dimbox/pkg/cryptox"
	"github.com/dimbox/dimbox/pkg/httpx"
	"github.com/dimbox/dimbox/pkg/idx"
	"github.com/dimbox/dimbox/pkg/slogx"
)

const (
	refreshPath    = "/token/refresh/"
	defaultTimeout = 10 * time.Second
)

// Request describes one call to the backend.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header

	// Body is JSON-encoded unless it is already a string or []byte.
	Body any

	// Token overrides the stored access token for this request only.
	Token string

	// NoRefresh disables the 401 refresh protocol for this request.
	NoRefresh bool
}

// Response is a buffered 2xx response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ContentType returns the Content-Type header.
func (r *Response) ContentType() string { return r.Header.Get("Content-Type") }

// IsJSON reports whether the response declares a JSON body.
func (r *Response) IsJSON() bool { return httpx.IsJSONContentType(r.ContentType()) }

// Value returns the decoded JSON body when the response is JSON, else the
// body as a string.
func (r *Response) Value() (any, error) {
	if !r.IsJSON() {
		return string(r.Body), nil
	}
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return v, nil
}

// Decode unmarshals the JSON body into target.
func (r *Response) Decode(target any) error {
	if err := json.Unmarshal(r.Body, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Do sends req and applies the 401 protocol: when the response is a 401, a
// refresh token is stored, and req is neither the refresh call nor opted
// out, the access token is refreshed once and req is retried once. When the
// backend rejects the refresh, the token source is cleared and Do returns the
// original 401. Any other refresh failure keeps the tokens and is returned
// as is.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	sent := c.bearer(req)
	resp, err := c.send(ctx, req, sent)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || !c.canRefresh(req) {
		return c.check(resp)
	}

	original := newAPIError(resp)

	// Another request may have refreshed while this one was in flight.
	access := c.tokens.Access()
	if access == "" || access == sent {
		access, err = c.refreshShared(ctx)
		if err != nil {
			if refreshRejected(err) {
				return nil, original
			}
			return nil, err
		}
	}

	retry, err := c.send(ctx, req, access)
	if err != nil {
		return nil, err
	}
	return c.check(retry)
}

func (c *Client) bearer(req Request) string {
	if req.Token != "" {
		return req.Token
	}
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Access()
}

func (c *Client) canRefresh(req Request) bool {
	if req.NoRefresh || req.Token != "" || c.tokens == nil {
		return false
	}
	if strings.HasSuffix(req.Path, refreshPath) {
		return false
	}
	return c.tokens.Refresh() != ""
}

func (c *Client) check(resp *Response) (*Response, error) {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp)
	}
	return resp, nil
}

// refreshShared runs one refresh for every caller that hit a 401 while it
// was in flight. The refresh is detached from ctx: a caller that gives up
// stops waiting but never cancels the refresh the others depend on.
func (c *Client) refreshShared(ctx context.Context) (string, error) {
	ch := c.refreshGroup.DoChan("refresh", func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout())
		defer cancel()
		return c.refresh(rctx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", &TransportError{Method: http.MethodPost, Path: refreshPath, Err: ctx.Err()}
	}
}

func (c *Client) refreshTimeout() time.Duration {
	if c.httpClient.Timeout > 0 {
		return c.httpClient.Timeout
	}
	return defaultTimeout
}

// refresh mints and stores a new access token. Credentials are cleared only
// when the backend rejects the refresh token.
func (c *Client) refresh(ctx context.Context) (string, error) {
	log := c.log(ctx)

	pair, err := c.RefreshAccess(ctx, c.tokens.Refresh())
	if err != nil {
		if !refreshRejected(err) {
			log.Warn("token refresh failed, keeping credentials", "error", err)
			return "", err
		}
		log.Warn("token refresh rejected, clearing credentials", "error", err)
		if clearErr := c.tokens.Clear(); clearErr != nil {
			log.Error("failed to clear credentials", "error", clearErr)
		}
		c.authFailed()
		return "", err
	}

	if err := c.tokens.SaveTokens(TokenPair{Access: pair.Access}); err != nil {
		log.Error("failed to store refreshed access token", "error", err)
		return "", fmt.Errorf("failed to store refreshed token: %w", err)
	}

	log.Info("access token refreshed", "token", cryptox.Fingerprint(pair.Access))
	return pair.Access, nil
}

// refreshRejected reports whether err means the backend refused the refresh
// token, as opposed to the refresh never completing.
func refreshRejected(err error) bool {
	if _, ok := AsAPIError(err); ok {
		return true
	}
	return errors.Is(err, ErrNoAccessToken) || errors.Is(err, ErrNoRefreshToken)
}

// send performs a single HTTP exchange and buffers the response.
func (c *Client) send(ctx context.Context, req Request, bearer string) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Method: req.Method, Path: req.Path, Err: err}
		}
	}

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.url(req.Path, req.Query), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	httpReq.Header.Set(idx.HeaderRequestID, requestID(ctx).String())
	for key, values := range req.Header {
		httpReq.Header[http.CanonicalHeaderKey(key)] = values
	}
	if bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Method: method, Path: req.Path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, Path: req.Path, Err: err}
	}

	c.log(ctx).Debug("api call",
		"method", method,
		"path", req.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// url builds a complete URL by appending the path and query to the base URL.
func (c *Client) url(path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) log(ctx context.Context) *slog.Logger {
	if c.logger != nil && slogx.RequestID(ctx).IsZero() {
		return c.logger
	}
	return slogx.FromContext(ctx)
}

func requestID(ctx context.Context) idx.ID {
	if id := slogx.RequestID(ctx); !id.IsZero() {
		return id
	}
	return idx.New()
}

func encodeBody(body any) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case string:
		return strings.NewReader(b), nil
	case []byte:
		return bytes.NewReader(b), nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(data), nil
	}
}
