package route

import (
	"context"

	"github.com/go-logr/logr"

	"payhook/internal/model"
)

// DefaultRegistry wires the event types this receiver understands. The
// bodies record what happened; fulfillment, dunning and the like live in
// downstream systems fed by these logs.
func DefaultRegistry(logger logr.Logger) *Registry {
	reg := NewRegistry()

	reg.Register("payment_intent.created", func(_ context.Context, e model.Event) error {
		obj := e.Object()
		logger.Info("payment intent created",
			"event_id", e.ID,
			"intent_id", stringField(obj, "id"),
			"amount", obj["amount"],
			"currency", stringField(obj, "currency"),
		)
		return nil
	})

	reg.Register("payment_intent.succeeded", func(_ context.Context, e model.Event) error {
		obj := e.Object()
		logger.Info("payment intent succeeded",
			"event_id", e.ID,
			"intent_id", stringField(obj, "id"),
			"amount", obj["amount"],
			"currency", stringField(obj, "currency"),
			"livemode", e.Livemode,
		)
		return nil
	})

	reg.Register("payment_intent.payment_failed", func(_ context.Context, e model.Event) error {
		obj := e.Object()
		reason := ""
		if lastErr, ok := obj["last_payment_error"].(map[string]interface{}); ok {
			reason = stringField(lastErr, "message")
		}
		logger.Info("payment intent failed",
			"event_id", e.ID,
			"intent_id", stringField(obj, "id"),
			"amount", obj["amount"],
			"reason", reason,
		)
		return nil
	})

	reg.Register("charge.succeeded", func(_ context.Context, e model.Event) error {
		obj := e.Object()
		logger.Info("charge succeeded",
			"event_id", e.ID,
			"charge_id", stringField(obj, "id"),
			"amount", obj["amount"],
			"currency", stringField(obj, "currency"),
		)
		return nil
	})

	reg.Register("charge.refunded", func(_ context.Context, e model.Event) error {
		obj := e.Object()
		logger.Info("charge refunded",
			"event_id", e.ID,
			"charge_id", stringField(obj, "id"),
			"amount_refunded", obj["amount_refunded"],
		)
		return nil
	})

	reg.Register("customer.created", func(_ context.Context, e model.Event) error {
		obj := e.Object()
		logger.Info("customer created",
			"event_id", e.ID,
			"customer_id", stringField(obj, "id"),
			"email", stringField(obj, "email"),
		)
		return nil
	})

	reg.Register("customer.subscription.created", func(_ context.Context, e model.Event) error {
		obj := e.Object()
		logger.Info("subscription created",
			"event_id", e.ID,
			"subscription_id", stringField(obj, "id"),
			"status", stringField(obj, "status"),
		)
		return nil
	})

	reg.Register("customer.subscription.updated", func(_ context.Context, e model.Event) error {
		obj := e.Object()
		logger.Info("subscription updated",
			"event_id", e.ID,
			"subscription_id", stringField(obj, "id"),
			"status", stringField(obj, "status"),
		)
		return nil
	})

	reg.Register("customer.subscription.deleted", func(_ context.Context, e model.Event) error {
		obj := e.Object()
		logger.Info("subscription deleted",
			"event_id", e.ID,
			"subscription_id", stringField(obj, "id"),
		)
		return nil
	})

	reg.Register("invoice.paid", func(_ context.Context, e model.Event) error {
		obj := e.Object()
		logger.Info("invoice paid",
			"event_id", e.ID,
			"invoice_id", stringField(obj, "id"),
			"amount_paid", obj["amount_paid"],
			"customer", stringField(obj, "customer"),
		)
		return nil
	})

	reg.Register("invoice.payment_failed", func(_ context.Context, e model.Event) error {
		obj := e.Object()
		logger.Info("invoice payment failed",
			"event_id", e.ID,
			"invoice_id", stringField(obj, "id"),
			"customer", stringField(obj, "customer"),
			"attempt_count", obj["attempt_count"],
		)
		return nil
	})

	reg.Register("checkout.session.completed", func(_ context.Context, e model.Event) error {
		obj := e.Object()
		logger.Info("checkout session completed",
			"event_id", e.ID,
			"session_id", stringField(obj, "id"),
			"amount_total", obj["amount_total"],
			"customer_email", stringField(obj, "customer_email"),
		)
		return nil
	})

	return reg
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
