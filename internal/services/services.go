package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/recipebox/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "http://127.0.0.1:8000"
	maxBodyBytes   = 10 << 20
)

// Client performs JSON requests against the recipe service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// ClientOpts contains configuration options for creating a [Client].
type ClientOpts struct {
	BaseURL           string
	HTTPClient        *http.Client
	Timeout           time.Duration // ignored when HTTPClient is set
	RequestsPerSecond float64       // zero disables pacing
	Burst             int
	Logger            *log.Logger
}

// NewClient creates a new [Client] with the provided options.
func NewClient(opts ClientOpts) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		limiter:    limiter,
		logger:     opts.Logger,
	}
}

// NewClientFromConfig creates a [Client] from the [shared.APIConfig] section.
func NewClientFromConfig(cfg shared.APIConfig, logger *log.Logger) *Client {
	return NewClient(ClientOpts{
		BaseURL:           cfg.BaseURL,
		Timeout:           cfg.Timeout(),
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		Logger:            logger,
	})
}

// BaseURL returns the service root every path is resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// wait blocks until the limiter admits one more request.
func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrNetwork, err)
	}
	return nil
}

// Do sends a request and decodes a 2xx JSON body into result.
//
// body is JSON-encoded when non-nil. token, when non-empty, is sent as a bearer credential.
// result may be nil when the caller does not need the body.
func (c *Client) Do(ctx context.Context, method, path, token string, body, result any) error {
	data, err := c.send(ctx, method, path, token, body)
	if err != nil {
		return err
	}

	if result == nil {
		return nil
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: empty body", shared.ErrMalformedResponse)
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}

	return nil
}

// send performs the request and returns the raw body of a 2xx response.
func (c *Client) send(ctx context.Context, method, path, token string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to encode request body: %v", shared.ErrInvalidInput, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := shared.GenerateID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return nil, fmt.Errorf("%w: %w", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", shared.ErrNetwork, err)
	}

	c.logger.Debug("request complete", "method", method, "path", path, "status", resp.StatusCode,
		"request_id", requestID, "elapsed", time.Since(start))

	if err := classify(resp.StatusCode, data); err != nil {
		return nil, err
	}
	return data, nil
}

// classify maps a status code and body to the error taxonomy. 2xx returns nil.
func classify(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	detail := ParseDetail(body)

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		if detail == "" {
			return fmt.Errorf("%w: status %d", shared.ErrUnauthorized, status)
		}
		return fmt.Errorf("%w: status %d: %s", shared.ErrUnauthorized, status, detail)
	}

	return &shared.HTTPError{Status: status, Detail: detail}
}

type detailMsg struct {
	Msg string `json:"msg"`
}

// ParseDetail extracts the human-readable failure detail from a response body.
//
// Returns "" when the body carries no usable detail.
func ParseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return text
	}

	var items []detailMsg
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return ""
}
