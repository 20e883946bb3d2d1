// Package client calls the Orbit credential-platform APIs. Credentials are
// passed per call rather than held on the client, because the active
// configuration can change at runtime when settings are saved or deleted.
//
// Error Contract:
//   - sentinel.ErrUnavailable (wrapped) when the circuit breaker is open.
//   - context.DeadlineExceeded (wrapped) when a call times out.
//   - *models.UpstreamError for non-2xx Orbit responses on registration calls.
//   - plain wrapped errors for transport failures.
package client

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

	"badgeforge/internal/orbit/models"
	"badgeforge/internal/sentinel"
	"badgeforge/pkg/platform/circuit"
	"badgeforge/pkg/platform/tracing"
)

// Span names, one per Orbit call.
const (
	spanVerify  = "orbit.verify_connection"
	spanSchema  = "orbit.register_schema"
	spanCredDef = "orbit.register_credential_definition"
	spanProbe   = "orbit.probe"
)

// maxResponseBody caps how much of an Orbit response is read. The APIs
// return small JSON documents; anything larger is already wrong.
const maxResponseBody = 1 << 20

// Client is an HTTP client for the Orbit platform with a circuit breaker
// guarding the shared upstream.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	breaker    *circuit.Breaker
	logger     *slog.Logger
	tracer     tracing.Tracer
}

type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithTracer(t tracing.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// WithBreaker replaces the default circuit breaker, letting tests use
// tighter thresholds.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

// New creates an Orbit client. Every call runs under the given timeout; a
// non-positive value falls back to 10 seconds.
func New(timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
		breaker:    circuit.New("orbit"),
		logger:     slog.Default(),
		tracer:     tracing.NewNoop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// VerifyConnection checks the lob credentials against the LOB API. Failures
// other than an open circuit fold into the returned ConnectionInfo, because
// for the settings panel "cannot connect" is a finding, not an error.
func (c *Client) VerifyConnection(ctx context.Context, creds models.Credentials) (*models.ConnectionInfo, error) {
	ctx, span := c.tracer.Start(ctx, spanVerify, tracing.String("lob_id", creds.LobID))

	u, err := lobEndpoint(creds)
	if err != nil {
		span.End(err)
		return nil, err
	}

	status, body, err := c.do(ctx, "verify connection", http.MethodGet, u, creds.APIKey, nil)
	span.End(err)
	if err != nil {
		if errors.Is(err, sentinel.ErrUnavailable) {
			return nil, err
		}
		return &models.ConnectionInfo{Connected: false, LobID: creds.LobID, Error: err.Error()}, nil
	}

	info := &models.ConnectionInfo{
		Connected: status == http.StatusOK,
		LobID:     creds.LobID,
		Status:    status,
	}
	if !info.Connected {
		info.Error = upstreamMessage(body, status)
	}
	return info, nil
}

// RegisterSchema registers a credential schema with the LOB API and returns
// the upstream response body.
func (c *Client) RegisterSchema(ctx context.Context, creds models.Credentials, payload json.RawMessage) (json.RawMessage, error) {
	return c.register(ctx, spanSchema, "register schema", "schemas", creds, payload)
}

// RegisterCredentialDefinition registers a credential definition with the
// LOB API and returns the upstream response body.
func (c *Client) RegisterCredentialDefinition(ctx context.Context, creds models.Credentials, payload json.RawMessage) (json.RawMessage, error) {
	return c.register(ctx, spanCredDef, "register credential definition", "credential-definitions", creds, payload)
}

func (c *Client) register(ctx context.Context, spanName, op, resource string, creds models.Credentials, payload json.RawMessage) (json.RawMessage, error) {
	ctx, span := c.tracer.Start(ctx, spanName, tracing.String("lob_id", creds.LobID))

	u, err := lobEndpoint(creds, resource)
	if err != nil {
		span.End(err)
		return nil, err
	}

	status, body, err := c.do(ctx, op, http.MethodPost, u, creds.APIKey, payload)
	if err != nil {
		span.End(err)
		return nil, err
	}

	if status < 200 || status > 299 {
		err = &models.UpstreamError{Status: status, Message: upstreamMessage(body, status)}
		span.End(err)
		return nil, err
	}

	span.End(nil)
	if len(body) == 0 {
		return json.RawMessage(`{}`), nil
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("orbit %s: response is not valid JSON", op)
	}
	return json.RawMessage(body), nil
}

// Probe checks whether an Orbit base URL answers at all. Any HTTP response
// counts as reachable. Probes bypass the circuit breaker so the health view
// stays useful while the breaker is open.
func (c *Client) Probe(ctx context.Context, name, baseURL string) models.APIHealth {
	ctx, span := c.tracer.Start(ctx, spanProbe, tracing.String("api", name))

	health := models.APIHealth{Name: name, URL: baseURL}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		health.Error = err.Error()
		span.End(err)
		return health
	}

	resp, err := c.httpClient.Do(req)
	health.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			health.Error = fmt.Sprintf("timed out after %s", c.timeout)
		} else {
			health.Error = err.Error()
		}
		span.End(err)
		return health
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))

	health.Reachable = true
	health.Status = resp.StatusCode
	span.End(nil)
	return health
}

// do runs one Orbit request under the client timeout and the breaker.
// Transport failures and 5xx responses count against the breaker; any
// response below 500 counts as a success because the upstream answered.
func (c *Client) do(ctx context.Context, op, method, u, apiKey string, payload []byte) (int, []byte, error) {
	now := time.Now()
	if !c.breaker.Allow(now) {
		return 0, nil, fmt.Errorf("orbit %s: %w", op, sentinel.ErrUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("orbit %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure(ctx, op, now)
		if ctx.Err() == context.DeadlineExceeded {
			return 0, nil, fmt.Errorf("orbit %s: %w", op, context.DeadlineExceeded)
		}
		return 0, nil, fmt.Errorf("orbit %s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		c.recordFailure(ctx, op, now)
		return 0, nil, fmt.Errorf("orbit %s: read response: %w", op, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		c.recordFailure(ctx, op, now)
	} else {
		c.recordSuccess(ctx, op)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) recordFailure(ctx context.Context, op string, now time.Time) {
	if _, change := c.breaker.RecordFailure(now); change.Opened {
		c.logger.WarnContext(ctx, "orbit circuit opened", "operation", op)
	}
}

func (c *Client) recordSuccess(ctx context.Context, op string) {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "orbit circuit closed", "operation", op)
	}
}

// lobEndpoint builds {lobUrl}/api/lob/{lobId}[/resource].
func lobEndpoint(creds models.Credentials, resource ...string) (string, error) {
	if creds.Endpoints.LobURL == "" {
		return "", fmt.Errorf("orbit lob url is not configured: %w", sentinel.ErrInvalidState)
	}
	u := fmt.Sprintf("%s/api/lob/%s", strings.TrimSuffix(creds.Endpoints.LobURL, "/"), url.PathEscape(creds.LobID))
	for _, r := range resource {
		u += "/" + r
	}
	return u, nil
}

// upstreamMessage pulls a human-readable message out of an Orbit error body.
func upstreamMessage(body []byte, status int) string {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return http.StatusText(status)
}
