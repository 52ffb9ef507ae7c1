// Package apiclient talks to the automation backend over HTTP. One Client
// implements the rules, groups and connectors gateways.
package apiclient

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

	shared "github.com/felixgeelhaar/aira/internal/shared/domain"
	"github.com/felixgeelhaar/aira/pkg/observability"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"
)

const maxBodyBytes = 4 << 20

// Config configures a Client.
type Config struct {
	// BaseURL is the API root, for example https://api.example.com.
	BaseURL string
	// Token is sent as a bearer token. Empty sends no Authorization header.
	Token string
	// TokenSource overrides Token.
	TokenSource oauth2.TokenSource
	Timeout     time.Duration

	// BreakerFailures is the number of consecutive failures that opens the
	// breaker. Zero disables the breaker.
	BreakerFailures uint32
	// BreakerTimeout is how long the breaker stays open.
	BreakerTimeout time.Duration

	// Transport is the base round tripper. Defaults to http.DefaultTransport.
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// Client is the backend API client.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *slog.Logger
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url %q: scheme must be http or https", cfg.BaseURL)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	source := cfg.TokenSource
	if source == nil && cfg.Token != "" {
		source = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"})
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL: base,
		http: &http.Client{
			Timeout:   timeout,
			Transport: &authTransport{base: transport, source: source},
		},
		logger: logger,
	}

	if cfg.BreakerFailures > 0 {
		threshold := cfg.BreakerFailures
		c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:    "aira-api",
			Timeout: cfg.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			IsSuccessful: isSuccessful,
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Info("circuit breaker state changed",
					"breaker", name,
					"from", from.String(),
					"to", to.String(),
				)
			},
		})
	}
	return c, nil
}

// isSuccessful decides what the breaker counts as a failure: transport
// errors and 5xx responses. Client errors mean the API is up.
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode < 500
	}
	return errors.Is(err, context.Canceled)
}

// authTransport adds the bearer token and tracing headers.
type authTransport struct {
	base   http.RoundTripper
	source oauth2.TokenSource
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.source != nil {
		token, err := t.source.Token()
		if err != nil {
			return nil, fmt.Errorf("api token: %w", err)
		}
		token.SetAuthHeader(req)
	}

	ctx := req.Context()
	requestID := observability.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set(observability.RequestIDHeader, requestID)
	if id := observability.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(observability.CorrelationIDHeader, id)
	}
	return t.base.RoundTrip(req)
}

// do sends a request and returns the 2xx body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in any) ([]byte, error) {
	call := func() ([]byte, error) { return c.send(ctx, method, path, query, in) }
	if c.breaker == nil {
		return call()
	}

	body, err := c.breaker.Execute(call)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrCircuitOpen
	}
	return body, err
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, in any) ([]byte, error) {
	// path segments arrive escaped
	u := c.baseURL.JoinPath(path)
	u.RawQuery = query.Encode()

	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "api request failed", "method", method, "path", path, "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.DebugContext(ctx, "api request",
		"method", method,
		"path", path,
		observability.StatusKey, resp.StatusCode,
		observability.DurationKey, time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body),
		}
		c.logger.WarnContext(ctx, "api request rejected",
			"method", method,
			"path", path,
			observability.StatusKey, resp.StatusCode,
			observability.ErrorKey, se.Message,
		)
		return nil, se
	}
	return body, nil
}

// decode validates a 2xx body against out's schema.
func decode(entity string, body []byte, out any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return shared.SchemaError(entity, errors.New("empty body"))
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return shared.SchemaError(entity, err)
	}
	return nil
}
