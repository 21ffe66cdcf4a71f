package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/nguyentantai21042004/awayrec/internal/apperr"
	"github.com/nguyentantai21042004/awayrec/internal/config"
	"github.com/nguyentantai21042004/awayrec/internal/logger"
)

const (
	defaultMaxAttempts = 3
	maxBackoff         = 8 * time.Second
)

// Timeouts are the phase budgets of one request. Read covers the wait for
// the model to generate.
type Timeouts struct {
	Connect time.Duration
	Write   time.Duration
	Read    time.Duration
	Pool    time.Duration
}

// Attempt is the overall deadline of one request.
func (t Timeouts) Attempt() time.Duration {
	return t.Connect + t.Write + t.Read
}

func timeoutsFrom(cfg config.SummaryConfig) Timeouts {
	return Timeouts{
		Connect: time.Duration(cfg.ConnectTimeout) * time.Second,
		Write:   time.Duration(cfg.WriteTimeout) * time.Second,
		Read:    time.Duration(cfg.StreamTimeout) * time.Second,
		Pool:    time.Duration(cfg.PoolTimeout) * time.Second,
	}
}

// Option customizes a workspace client.
type Option func(*workspaceClient)

// WithHTTPClient overrides the HTTP client built from the timeouts.
func WithHTTPClient(client *http.Client) Option {
	return func(c *workspaceClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSleeper overrides how retry backoff waits (useful for tests).
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(c *workspaceClient) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// workspaceClient talks to a workspace chat endpoint:
// POST <base>/workspace/<slug>/chat or /stream-chat.
type workspaceClient struct {
	baseURL     string
	slug        string
	apiKey      string
	stream      bool
	maxAttempts int
	timeouts    Timeouts
	httpClient  *http.Client
	sleep       func(context.Context, time.Duration) error
	logger      logger.Logger
}

type chatRequest struct {
	Message     string   `json:"message"`
	Mode        string   `json:"mode"`
	SessionID   string   `json:"sessionId"`
	Attachments []string `json:"attachments"`
}

type chatResponse struct {
	TextResponse string `json:"textResponse"`
	Close        bool   `json:"close"`
}

// NewWorkspaceClient builds the workspace transport from configuration.
func NewWorkspaceClient(cfg config.SummaryConfig, log logger.Logger, opts ...Option) ChatClient {
	timeouts := timeoutsFrom(cfg)
	c := &workspaceClient{
		baseURL:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		slug:        strings.TrimSpace(cfg.WorkspaceSlug),
		apiKey:      strings.TrimSpace(cfg.APIKey),
		stream:      cfg.Stream,
		maxAttempts: cfg.MaxAttempts,
		timeouts:    timeouts,
		httpClient:  newHTTPClient(timeouts),
		sleep:       sleepContext,
		logger:      log,
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = defaultMaxAttempts
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newHTTPClient(t Timeouts) *http.Client {
	dialer := &net.Dialer{Timeout: t.Connect, KeepAlive: 30 * time.Second}
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			TLSHandshakeTimeout:   t.Connect,
			ResponseHeaderTimeout: t.Read,
			IdleConnTimeout:       t.Pool,
			ExpectContinueTimeout: time.Second,
		},
	}
}

func (c *workspaceClient) endpoint() (string, error) {
	path := "chat"
	if c.stream {
		path = "stream-chat"
	}
	return url.JoinPath(c.baseURL, "workspace", c.slug, path)
}

// Chat posts message and returns the trimmed reply. Transport failures are
// retried with backoff; HTTP errors and malformed bodies are returned at once.
func (c *workspaceClient) Chat(ctx context.Context, message, sessionID string) (string, error) {
	endpoint, err := c.endpoint()
	if err != nil {
		return "", apperr.Config("summary.base_url", err.Error())
	}
	body, err := json.Marshal(chatRequest{
		Message:     message,
		Mode:        "chat",
		SessionID:   sessionID,
		Attachments: []string{},
	})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		text, err := c.once(ctx, endpoint, body)
		if err == nil {
			return text, nil
		}

		var te *transportError
		if !errors.As(err, &te) || ctx.Err() != nil {
			return "", err
		}
		lastErr = err
		if attempt == c.maxAttempts {
			break
		}

		delay := backoff(attempt)
		c.logger.Warn(ctx, "Summary attempt %d/%d failed: %v. Retrying in %s", attempt, c.maxAttempts, err, delay)
		if err := c.sleep(ctx, delay); err != nil {
			return "", err
		}
	}

	return "", apperr.Wrap(apperr.ErrSummaryTransport, "summary",
		fmt.Sprintf("failed after %d attempts (key %s)", c.maxAttempts, logger.Redact(c.apiKey)), lastErr)
}

func (c *workspaceClient) once(ctx context.Context, endpoint string, body []byte) (string, error) {
	if d := c.timeouts.Attempt(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return "", newHTTPError(resp.StatusCode, data)
	}

	if c.stream {
		text, err := readStream(resp.Body)
		if err != nil {
			return "", classifyTransport(err)
		}
		return strings.TrimSpace(text), nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyTransport(fmt.Errorf("read body: %w", err))
	}
	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", apperr.Wrap(apperr.ErrSummaryHTTP, "summary", "endpoint returned non-JSON: "+truncate(string(data), maxErrorBody), nil)
	}
	return strings.TrimSpace(parsed.TextResponse), nil
}

// classifyTransport marks connection-level failures as retryable. Anything
// else (bad scheme, TLS config, proxy setup) fails the summary at once.
func classifyTransport(err error) error {
	if isTransient(err) {
		return &transportError{err: err}
	}
	return apperr.Wrap(apperr.ErrSummaryTransport, "summary", "request failed", err)
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	// The per-attempt deadline; the caller's own context is checked in Chat.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// backoff is min(2^attempt, 8) seconds.
func backoff(attempt int) time.Duration {
	d := time.Duration(1<<uint(attempt)) * time.Second
	if d > maxBackoff || d <= 0 {
		return maxBackoff
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
