// Package client is the single point of outbound HTTP access to the
// Talent Verify API. It attaches the bearer token to every request and,
// on a 401, performs exactly one refresh-and-retry, coalescing concurrent
// refreshes into a single exchange.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Tawa-dev/TalentVerify/internal/token"
)

// DefaultTimeout bounds every request, including the refresh exchange.
const DefaultTimeout = 30 * time.Second

// maxErrorBody limits how much of an error response is read for a detail
// message.
const maxErrorBody = 64 * 1024

// Client talks to the Talent Verify API on behalf of the whole
// application. It reads tokens from the store; it writes only the access
// token, and only from the refresh path.
type Client struct {
	baseURL string
	httpc   *http.Client
	tokens  token.Store
	logger  *slog.Logger

	mu               sync.Mutex
	refreshing       bool
	waiters          []chan refreshResult
	onRefresh        func(access string)
	onRefreshFailure func(err error)
}

type refreshResult struct {
	access string
	err    error
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) {
		c.httpc = httpc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for the API at baseURL, reading credentials from
// tokens.
func New(baseURL string, tokens token.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpc:   &http.Client{Timeout: DefaultTimeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetRefreshHooks registers callbacks invoked after each refresh exchange
// settles. The session uses these to reschedule its clock or tear itself
// down, so the proactive and reactive refresh paths stay in sync.
func (c *Client) SetRefreshHooks(onSuccess func(access string), onFailure func(err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRefresh = onSuccess
	c.onRefreshFailure = onFailure
}

// Get issues a GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, in, out)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPut, path, in, out)
}

// Patch issues a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, http.MethodPatch, path, in, out)
}

// Delete issues a DELETE. A 204 response is success.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// PostFile uploads a file as multipart form data under the "file" field.
func (c *Client) PostFile(ctx context.Context, path, filename string, file io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("build upload: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, mw.FormDataContentType(), buf.Bytes(), out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = raw
	}
	return c.do(ctx, method, path, "application/json", body, out)
}

// do issues the request, performing the single 401-driven refresh-and-retry
// for non-auth endpoints. The body is buffered so the retry can replay it.
func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte, out any) error {
	resp, err := c.send(ctx, method, path, contentType, body, "")
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && !isAuthPath(path) {
		drain(resp)

		access, rerr := c.RefreshAccess(ctx)
		if rerr != nil {
			return rerr
		}

		c.logger.Debug("retrying after token refresh", "method", method, "path", path)
		resp, err = c.send(ctx, method, path, contentType, body, access)
		if err != nil {
			return err
		}
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newAPIError(resp.StatusCode, raw)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// send issues one HTTP request. An explicit bearer overrides the stored
// access token; either is attached as an Authorization header when present.
func (c *Client) send(ctx context.Context, method, path, contentType string, body []byte, bearer string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Request-ID", uuid.New().String())

	if bearer == "" {
		bearer, err = c.tokens.AccessToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("read access token: %w", err)
		}
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// RefreshAccess exchanges the stored refresh token for a new access token.
// At most one exchange is in flight at a time; concurrent callers wait for
// the shared outcome in the order they arrived. Both the proactive
// (clock-driven) and reactive (401-driven) refresh paths funnel through
// here.
func (c *Client) RefreshAccess(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.refreshing {
		ch := make(chan refreshResult, 1)
		c.waiters = append(c.waiters, ch)
		c.mu.Unlock()

		select {
		case res := <-ch:
			return res.access, res.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	c.refreshing = true
	c.mu.Unlock()

	access, err := c.exchangeRefreshToken(ctx)

	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.refreshing = false
	onRefresh, onFailure := c.onRefresh, c.onRefreshFailure
	c.mu.Unlock()

	for _, ch := range waiters {
		ch <- refreshResult{access: access, err: err}
	}

	if err != nil {
		c.logger.Warn("token refresh failed", "error", err)
		if onFailure != nil {
			onFailure(err)
		}
		return "", err
	}
	if onRefresh != nil {
		onRefresh(access)
	}
	return access, nil
}

func (c *Client) exchangeRefreshToken(ctx context.Context) (string, error) {
	// The exchange outlives any single caller: its result is shared with
	// every queued waiter, so one caller's cancellation must not fail the
	// rest.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout())
	defer cancel()

	refresh, err := c.tokens.RefreshToken(rctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	if refresh == "" {
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, ErrNoRefreshToken)
	}

	body, err := json.Marshal(map[string]string{"refresh": refresh})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	resp, err := c.send(rctx, http.MethodPost, "/users/token/refresh/", "application/json", body, "")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, newAPIError(resp.StatusCode, raw))
	}

	var out struct {
		Access string `json:"access"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrRefreshFailed, err)
	}
	if out.Access == "" {
		return "", fmt.Errorf("%w: empty access token in response", ErrRefreshFailed)
	}

	// A logout may have cleared the store while the exchange was in
	// flight; the cleared store wins over the late-arriving token.
	current, err := c.tokens.RefreshToken(rctx)
	if err != nil || current != refresh {
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, ErrSessionEnded)
	}
	if err := c.tokens.SetAccessToken(rctx, out.Access); err != nil {
		return "", fmt.Errorf("%w: persist access token: %w", ErrRefreshFailed, err)
	}
	return out.Access, nil
}

func (c *Client) timeout() time.Duration {
	if c.httpc.Timeout > 0 {
		return c.httpc.Timeout
	}
	return DefaultTimeout
}

// isAuthPath reports whether a 401 from this path must never trigger a
// refresh: a rejected login is a rejected login.
func isAuthPath(path string) bool {
	return strings.Contains(path, "/token/") ||
		strings.Contains(path, "/login/") ||
		strings.Contains(path, "/register/")
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
}
