// Package jaeger exports spans over OTLP/HTTP, which Jaeger accepts natively.
package jaeger

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"

	"github.com/pure-golang/zeptomail/tracing"
)

var _ tracing.Provider = (*Provider)(nil)

const closeTimeout = 5 * time.Second

type Config struct {
	EndPoint    string  `envconfig:"TRACING_ENDPOINT" required:"true"`
	ServiceName string  `envconfig:"SERVICE_NAME" default:"zeptomail-webhook"`
	AppVersion  string  `envconfig:"APP_VERSION" default:"dev"`
	SampleRatio float64 `envconfig:"TRACING_SAMPLE_RATIO" default:"1"`
}

func (c Config) validate() error {
	if c.EndPoint == "" {
		return errors.New("empty tracing endpoint")
	}
	if c.ServiceName == "" {
		return errors.New("service name is empty")
	}
	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return errors.Errorf("sample ratio %v is out of [0, 1]", c.SampleRatio)
	}
	return nil
}

func (c Config) sampler() tracesdk.Sampler {
	if c.SampleRatio >= 1 {
		return tracesdk.ParentBased(tracesdk.AlwaysSample())
	}
	return tracesdk.ParentBased(tracesdk.TraceIDRatioBased(c.SampleRatio))
}

// Provider is a batching tracer provider bound to an OTLP/HTTP exporter.
type Provider struct {
	*tracesdk.TracerProvider
}

// Close flushes pending spans and shuts the provider down.
func (p *Provider) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	flushErr := p.ForceFlush(ctx)
	shutdownErr := p.Shutdown(ctx)
	if flushErr != nil {
		return errors.Wrap(flushErr, "failed to flush spans")
	}
	return errors.Wrap(shutdownErr, "failed to shutdown tracer provider")
}

// NewProviderBuilder returns a tracing.ProviderBuilder for conf.
func NewProviderBuilder(conf Config) tracing.ProviderBuilder {
	return func() (tracing.Provider, error) {
		if err := conf.validate(); err != nil {
			return nil, err
		}

		exp, err := otlptrace.New(
			context.Background(),
			otlptracehttp.NewClient(otlptracehttp.WithEndpointURL(conf.EndPoint)),
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create otlp exporter")
		}

		tp := tracesdk.NewTracerProvider(
			tracesdk.WithBatcher(exp),
			tracesdk.WithResource(resource.NewWithAttributes(
				semconv.SchemaURL,
				semconv.ServiceNameKey.String(conf.ServiceName),
				semconv.ServiceVersionKey.String(conf.AppVersion),
			)),
			tracesdk.WithSampler(conf.sampler()),
		)

		return &Provider{TracerProvider: tp}, nil
	}
}
