package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/pure-golang/zeptomail/logger"
)

const (
	instrumentationName = "github.com/pure-golang/zeptomail/httpserver/middleware"
	RequestIDHeader     = "X-Request-Id"
	TraceIDHeader       = "X-Trace-Id"

	// UnmatchedRoute labels requests no mux pattern matched, keeping metric
	// cardinality bounded on path scans.
	UnmatchedRoute = "unmatched"
	otherMethod    = "_OTHER"
)

// Instruments and the tracer are resolved per request so providers installed
// after package init are honored.
func instruments() (metric.Int64Counter, metric.Float64Histogram, metric.Int64Histogram) {
	meter := otel.GetMeterProvider().Meter(instrumentationName)
	// nolint:errcheck // sync instruments fall back to no-ops on error
	count, _ := meter.Int64Counter("http.server.request_count")
	// nolint:errcheck
	duration, _ := meter.Float64Histogram("http.server.duration", metric.WithUnit("ms"))
	// nolint:errcheck
	size, _ := meter.Int64Histogram("http.server.request_size", metric.WithUnit("By"))
	return count, duration, size
}

// Monitoring traces incoming requests, records request metrics and puts a
// request scoped logger into the context. Bodies are never recorded since
// webhook payloads carry recipient addresses.
func Monitoring(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		ctx, span := otel.Tracer(instrumentationName).Start(ctx, r.Method+" "+r.URL.Path, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		log := slog.Default().With("method", r.Method, "path", r.URL.Path, "request_id", requestID)
		if sc := span.SpanContext(); sc.HasTraceID() {
			log = log.With("trace_id", sc.TraceID().String())
			w.Header().Set(TraceIDHeader, sc.TraceID().String())
		}
		w.Header().Set(RequestIDHeader, requestID)

		body := &countingBody{ReadCloser: r.Body}
		r.Body = body
		srw := newStatefulRespWriter(w)

		inner := r.WithContext(logger.NewContext(ctx, log))
		next.ServeHTTP(srw, inner)

		// http.ServeMux records the matched pattern on the request it serves.
		route := inner.Pattern
		if route == "" {
			route = UnmatchedRoute
		}
		span.SetName(r.Method + " " + route)

		attrs := semconv.NetAttributesFromHTTPRequest("tcp", r)
		attrs = append(attrs, semconv.HTTPServerAttributesFromHTTPRequest("webhook", route, r)...)
		attrs = append(attrs,
			attribute.String("http.request_id", requestID),
			attribute.Int64("http.request_content_length_read", body.n),
			attribute.Int("http.status_code", srw.status),
			attribute.Int64("http.response_content_length", srw.written),
		)
		span.SetAttributes(attrs...)

		labels := metric.WithAttributes(
			attribute.String("http.method", methodLabel(r.Method)),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", srw.status),
		)
		count, duration, size := instruments()
		count.Add(ctx, 1, labels)
		duration.Record(ctx, float64(time.Since(start).Microseconds())/1000, labels)
		size.Record(ctx, body.n, labels)

		if srw.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(srw.status))
			return
		}
		span.SetStatus(codes.Ok, "")
	})
}

func methodLabel(m string) string {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch,
		http.MethodDelete, http.MethodConnect, http.MethodOptions, http.MethodTrace:
		return m
	default:
		return otherMethod
	}
}

type countingBody struct {
	io.ReadCloser
	n int64
}

func (b *countingBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	b.n += int64(n)
	return n, err
}

// statefulRespWriter remembers the status and the number of bytes written.
type statefulRespWriter struct {
	http.ResponseWriter
	status  int
	written int64
}

func newStatefulRespWriter(w http.ResponseWriter) *statefulRespWriter {
	return &statefulRespWriter{ResponseWriter: w, status: http.StatusOK}
}

func (w *statefulRespWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statefulRespWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

func (w *statefulRespWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statefulRespWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
