package route

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-logr/logr"

	"payhook/internal/model"
)

// HandlerFunc processes one verified event. Returned errors are contained by
// the router and never reach the HTTP response path.
type HandlerFunc func(ctx context.Context, event model.Event) error

// Registry maps exact event-type strings to handlers. It is populated once
// during bootstrap and read-only afterwards, so concurrent lookups need no
// locking.
type Registry struct {
	handlers map[string]HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{handlers: map[string]HandlerFunc{}}
}

func (r *Registry) Register(eventType string, h HandlerFunc) {
	if r == nil || h == nil {
		return
	}
	eventType = strings.TrimSpace(eventType)
	if eventType == "" {
		return
	}
	r.handlers[eventType] = h
}

func (r *Registry) Handler(eventType string) (HandlerFunc, bool) {
	if r == nil {
		return nil, false
	}
	h, ok := r.handlers[eventType]
	return h, ok
}

// Types returns the registered event types sorted, for the metadata endpoint.
func (r *Registry) Types() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// HandlerError records a failure inside a per-type handler. It is logged and
// contained; an authentically received event must not trigger a platform
// retry because one handler misbehaved.
type HandlerError struct {
	EventType string
	EventID   string
	Message   string
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler for %s failed on event %s: %s", e.EventType, e.EventID, e.Message)
}

// Outcome reports how an event was dispatched. It never aborts the request.
type Outcome struct {
	Handled bool
	Err     *HandlerError
}

type Router struct {
	registry *Registry
	logger   logr.Logger
}

func NewRouter(registry *Registry, logger logr.Logger) *Router {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Router{registry: registry, logger: logger}
}

// Route invokes exactly one handler for the event, or the fallback logger
// when the type is unregistered. Unknown types are a supported no-op, not an
// error. Panics and errors inside handlers are converted to a HandlerError.
func (r *Router) Route(ctx context.Context, event model.Event) Outcome {
	h, ok := r.registry.Handler(event.Type)
	if !ok {
		r.logger.Info("unhandled event type",
			"event_type", event.Type,
			"event_id", event.ID,
			"object_keys", len(event.Object()),
		)
		return Outcome{Handled: false}
	}
	if err := invoke(ctx, h, event); err != nil {
		return Outcome{Handled: true, Err: &HandlerError{
			EventType: event.Type,
			EventID:   event.ID,
			Message:   err.Error(),
		}}
	}
	return Outcome{Handled: true}
}

func invoke(ctx context.Context, h HandlerFunc, event model.Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return h(ctx, event)
}
