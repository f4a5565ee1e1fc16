package webhook

import (
	"context"
	stdErr "errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pure-golang/zeptomail/logger"
)

// MaxBodySize bounds the accepted delivery body.
const MaxBodySize = 1 << 20

const instrumentationName = "github.com/pure-golang/zeptomail/webhook"

// Handler processes a single event.
type Handler interface {
	Handle(ctx context.Context, ev Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, ev Event) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, ev Event) error { return f(ctx, ev) }

// RouterOptions contains options for NewRouter.
type RouterOptions struct {
	Logger *slog.Logger
}

// Router dispatches events to the handler registered for their type. Events
// without a handler go to the fallback, or are acknowledged and dropped.
// Handlers must be registered before the router starts serving.
type Router struct {
	handlers map[EventType]Handler
	fallback Handler
	logger   *slog.Logger
}

var _ http.Handler = (*Router)(nil)

// NewRouter creates a Router with no handlers. Logger defaults to slog.Default.
func NewRouter(opts *RouterOptions) *Router {
	if opts == nil {
		opts = &RouterOptions{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Router{
		handlers: make(map[EventType]Handler),
		logger:   opts.Logger.WithGroup("webhook"),
	}
}

// On registers h for t, replacing any previous handler.
func (r *Router) On(t EventType, h Handler) *Router {
	r.handlers[t] = h
	return r
}

// OnBounce registers fn for both hard and soft bounces.
func (r *Router) OnBounce(fn func(context.Context, *BounceEvent) error) *Router {
	h := HandlerFunc(func(ctx context.Context, ev Event) error {
		return fn(ctx, ev.(*BounceEvent))
	})
	return r.On(EventHardBounce, h).On(EventSoftBounce, h)
}

// OnOpen registers fn for open events.
func (r *Router) OnOpen(fn func(context.Context, *OpenEvent) error) *Router {
	return r.On(EventOpen, HandlerFunc(func(ctx context.Context, ev Event) error {
		return fn(ctx, ev.(*OpenEvent))
	}))
}

// OnClick registers fn for link click events.
func (r *Router) OnClick(fn func(context.Context, *ClickEvent) error) *Router {
	return r.On(EventClick, HandlerFunc(func(ctx context.Context, ev Event) error {
		return fn(ctx, ev.(*ClickEvent))
	}))
}

// Fallback receives events with no registered handler.
func (r *Router) Fallback(h Handler) *Router {
	r.fallback = h
	return r
}

// Dispatch parses body and hands every event to its handler. All events are
// dispatched even when some handlers fail; the failures are joined.
func (r *Router) Dispatch(ctx context.Context, body []byte) error {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "ZeptoMail.Webhook", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	events, err := Parse(body)
	if err != nil {
		recordError(span, err)
		return err
	}
	span.SetAttributes(attribute.Int("zeptomail.webhook.events", len(events)))

	var errs []error
	for _, ev := range events {
		meta := ev.Metadata()
		log := logger.FromContextOr(ctx, r.logger).With("delivery_id", meta.DeliveryID, "event", string(ev.Type()), "request_id", meta.RequestID)
		span.SetAttributes(attribute.String("zeptomail.webhook.delivery_id", meta.DeliveryID))

		h, ok := r.handlers[ev.Type()]
		if !ok {
			h = r.fallback
		}
		if h == nil {
			observeEvent(ev.Type(), outcomeIgnored)
			log.Debug("no handler for event")
			continue
		}

		if err := h.Handle(logger.NewContext(ctx, log), ev); err != nil {
			observeEvent(ev.Type(), outcomeFailed)
			log.With("error", err.Error()).Warn("webhook handler failed")
			errs = append(errs, errors.Wrapf(err, "failed to handle %s event", ev.Type()))
			continue
		}
		observeEvent(ev.Type(), outcomeHandled)
		log.Debug("event handled")
	}

	if err := stdErr.Join(errs...); err != nil {
		recordError(span, err)
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// ServeHTTP accepts POST deliveries: 405 for other methods, 413 for bodies
// over MaxBodySize, 400 for malformed payloads and 500 when a handler fails.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	ctx := req.Context()
	log := logger.FromContextOr(ctx, r.logger)

	body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, MaxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
			return
		}
		log.With("error", err.Error()).Warn("failed to read webhook body")
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	switch err := r.Dispatch(ctx, body); {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, ErrMalformedPayload):
		log.With("error", err.Error()).Warn("rejected webhook delivery")
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
