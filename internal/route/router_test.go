package route

import (
	"context"
	"errors"
	"testing"

	"github.com/go-logr/logr"

	"payhook/internal/model"
)

func TestRouteInvokesExactlyTheRegisteredHandler(t *testing.T) {
	calls := map[string]int{}
	reg := NewRegistry()
	reg.Register("payment_intent.succeeded", func(_ context.Context, e model.Event) error {
		calls["succeeded"]++
		return nil
	})
	reg.Register("payment_intent.payment_failed", func(_ context.Context, e model.Event) error {
		calls["failed"]++
		return nil
	})
	r := NewRouter(reg, logr.Discard())

	out := r.Route(context.Background(), model.Event{ID: "evt_1", Type: "payment_intent.succeeded"})
	if !out.Handled || out.Err != nil {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if calls["succeeded"] != 1 || calls["failed"] != 0 {
		t.Fatalf("unexpected call counts: %v", calls)
	}
}

func TestRouteUnregisteredTypeFallsBackWithoutError(t *testing.T) {
	reg := NewRegistry()
	reg.Register("payment_intent.succeeded", func(_ context.Context, e model.Event) error {
		t.Fatal("handler must not run for a different type")
		return nil
	})
	r := NewRouter(reg, logr.Discard())

	out := r.Route(context.Background(), model.Event{ID: "evt_2", Type: "foo.bar"})
	if out.Handled {
		t.Fatal("expected handled=false for unregistered type")
	}
	if out.Err != nil {
		t.Fatalf("unknown type is not an error, got %v", out.Err)
	}
}

func TestRouteContainsHandlerErrors(t *testing.T) {
	reg := NewRegistry()
	reg.Register("invoice.paid", func(_ context.Context, e model.Event) error {
		return errors.New("ledger write timed out")
	})
	r := NewRouter(reg, logr.Discard())

	out := r.Route(context.Background(), model.Event{ID: "evt_3", Type: "invoice.paid"})
	if !out.Handled {
		t.Fatal("a failing handler still counts as handled")
	}
	if out.Err == nil {
		t.Fatal("expected a HandlerError")
	}
	if out.Err.EventType != "invoice.paid" || out.Err.EventID != "evt_3" {
		t.Fatalf("handler error missing context: %+v", out.Err)
	}
	if out.Err.Message != "ledger write timed out" {
		t.Fatalf("unexpected message: %q", out.Err.Message)
	}
}

func TestRouteContainsHandlerPanics(t *testing.T) {
	reg := NewRegistry()
	reg.Register("charge.succeeded", func(_ context.Context, e model.Event) error {
		panic("nil map write")
	})
	r := NewRouter(reg, logr.Discard())

	out := r.Route(context.Background(), model.Event{ID: "evt_4", Type: "charge.succeeded"})
	if out.Err == nil {
		t.Fatal("expected a HandlerError from the panic")
	}
}

func TestDefaultRegistryCoversKnownTypes(t *testing.T) {
	reg := DefaultRegistry(logr.Discard())
	for _, typ := range []string{
		"payment_intent.succeeded",
		"payment_intent.payment_failed",
		"charge.succeeded",
		"customer.subscription.deleted",
		"invoice.payment_failed",
		"checkout.session.completed",
	} {
		if _, ok := reg.Handler(typ); !ok {
			t.Fatalf("expected handler for %s", typ)
		}
	}
	types := reg.Types()
	for i := 1; i < len(types); i++ {
		if types[i-1] >= types[i] {
			t.Fatalf("types not sorted: %v", types)
		}
	}
}

func TestDefaultRegistryHandlersRunCleanly(t *testing.T) {
	reg := DefaultRegistry(logr.Discard())
	r := NewRouter(reg, logr.Discard())
	event := model.Event{
		ID:   "evt_5",
		Type: "payment_intent.payment_failed",
		Data: model.EventData{Object: map[string]interface{}{
			"id":     "pi_5",
			"amount": float64(1250),
			"last_payment_error": map[string]interface{}{
				"message": "card declined",
			},
		}},
	}
	out := r.Route(context.Background(), event)
	if !out.Handled || out.Err != nil {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}
