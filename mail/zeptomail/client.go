package zeptomail

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pure-golang/zeptomail/mail"
)

var _ mail.Sender = (*Client)(nil)

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements mail.Sender. Its configuration is fixed at construction,
// so a Client is safe for concurrent use.
type Client struct {
	baseURL string
	header  http.Header
	http    Doer
	logger  *slog.Logger
}

// ClientOptions contains options for creating a Client.
type ClientOptions struct {
	// HTTPClient defaults to an http.Client with Config.Timeout and an
	// OpenTelemetry transport.
	HTTPClient Doer
	Logger     *slog.Logger
}

// New creates a Client. An empty Config.BaseURL selects DefaultBaseURL.
// The caller's options are not modified.
func New(cfg Config, options *ClientOptions) *Client {
	var opts ClientOptions
	if options != nil {
		opts = *options
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.HTTPClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		opts.HTTPClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	header := make(http.Header, 3)
	header.Set("Accept", "application/json")
	header.Set("Content-Type", "application/json")
	header.Set("Authorization", AuthScheme+" "+cfg.APIKey)

	return &Client{
		baseURL: baseURL,
		header:  header,
		http:    opts.HTTPClient,
		logger:  opts.Logger.WithGroup("zeptomail"),
	}
}

// Send composes a single message and posts it to /email.
func (c *Client) Send(ctx context.Context, p mail.SendParams) (mail.Response, error) {
	return c.Do(ctx, EndpointEmail, mail.ComposeSingle(p))
}

// SendBatch composes a batch message and posts it to /email/batch.
func (c *Client) SendBatch(ctx context.Context, p mail.BatchParams) (mail.Response, error) {
	return c.Do(ctx, EndpointBatch, mail.ComposeBatch(p))
}

// Do posts payload as JSON to endpoint and returns the decoded response body
// whatever the HTTP status. Provider errors come back as data; only transport
// and decode failures are returned as errors. No retries are made.
func (c *Client) Do(ctx context.Context, endpoint string, payload any) (mail.Response, error) {
	ctx, span := tracer.Start(ctx, "ZeptoMail.Send", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(attribute.String("zeptomail.endpoint", endpoint))
	if m, ok := payload.(interface{ RecipientCount() int }); ok {
		span.SetAttributes(attribute.Int("zeptomail.recipients_count", m.RecipientCount()))
	}

	start := time.Now()
	resp, status, err := c.do(ctx, endpoint, payload)
	observeRequest(endpoint, err, time.Since(start))

	if status != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	c.logger.DebugContext(ctx, "request dispatched",
		"endpoint", endpoint,
		"status", status,
		"duration", time.Since(start),
	)
	return resp, nil
}

func (c *Client) do(ctx context.Context, endpoint string, payload any) (mail.Response, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "failed to encode payload for %s", endpoint)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to build request")
	}
	req.Header = c.header.Clone()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close() // nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &TransportError{Endpoint: endpoint, Err: errors.Wrap(err, "read body")}
	}

	var out mail.Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, resp.StatusCode, &DecodeError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: raw, Err: err}
	}
	if out == nil {
		return nil, resp.StatusCode, &DecodeError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: raw, Err: errors.New("null body")}
	}

	return out, resp.StatusCode, nil
}

// Close releases idle connections of the underlying HTTP client.
func (c *Client) Close() error {
	if ic, ok := c.http.(interface{ CloseIdleConnections() }); ok {
		ic.CloseIdleConnections()
	}
	return nil
}
