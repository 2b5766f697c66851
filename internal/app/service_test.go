package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-logr/logr"

	"payhook/internal/model"
	"payhook/internal/route"
	"payhook/internal/store"
	"payhook/internal/verify"
)

const testSecret = "whsec_service_test"

func signedBody(t *testing.T, eventType string, object map[string]interface{}) ([]byte, string) {
	t.Helper()
	payload := map[string]interface{}{
		"id":      "evt_svc_1",
		"type":    eventType,
		"created": time.Now().Unix(),
		"data":    map[string]interface{}{"object": object},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return body, verify.Sign(testSecret, time.Now(), body)
}

func newTestService(reg *route.Registry, slot store.LastEventStore) *Service {
	logger := logr.Discard()
	verifier := verify.New(verify.Options{Secret: testSecret}, logger)
	return NewService(verifier, route.NewRouter(reg, logger), slot, nil, logger)
}

func TestProcessWebhookVerifiesRoutesAndPersists(t *testing.T) {
	handled := 0
	reg := route.NewRegistry()
	reg.Register("payment_intent.succeeded", func(_ context.Context, e model.Event) error {
		handled++
		return nil
	})
	slot := store.NewMemoryStore()
	svc := newTestService(reg, slot)

	body, sig := signedBody(t, "payment_intent.succeeded", map[string]interface{}{
		"id": "pi_1", "amount": 2999,
	})
	receipt, err := svc.ProcessWebhook(context.Background(), body, sig)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if receipt.EventType != "payment_intent.succeeded" || receipt.EventID != "evt_svc_1" || !receipt.Handled {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
	if handled != 1 {
		t.Fatalf("handler ran %d times", handled)
	}
	data, err := svc.LastEvent(context.Background())
	if err != nil {
		t.Fatalf("last event: %v", err)
	}
	if data["id"] != "pi_1" {
		t.Fatalf("slot missing event data: %v", data)
	}
}

func TestProcessWebhookVerificationFailureShortCircuits(t *testing.T) {
	reg := route.NewRegistry()
	reg.Register("payment_intent.succeeded", func(_ context.Context, e model.Event) error {
		t.Fatal("handler must not run on verification failure")
		return nil
	})
	slot := store.NewMemoryStore()
	svc := newTestService(reg, slot)

	body, _ := signedBody(t, "payment_intent.succeeded", map[string]interface{}{"id": "pi_2"})
	if _, err := svc.ProcessWebhook(context.Background(), body, "t=1,v1=deadbeef"); err == nil {
		t.Fatal("expected verification error")
	}
	data, err := svc.LastEvent(context.Background())
	if err != nil {
		t.Fatalf("last event: %v", err)
	}
	if data != nil {
		t.Fatalf("slot must stay empty after a rejected delivery, got %v", data)
	}
}

func TestProcessWebhookHandlerFailureDoesNotFailRequest(t *testing.T) {
	reg := route.NewRegistry()
	reg.Register("invoice.paid", func(_ context.Context, e model.Event) error {
		return errors.New("downstream ledger unavailable")
	})
	slot := store.NewMemoryStore()
	svc := newTestService(reg, slot)

	body, sig := signedBody(t, "invoice.paid", map[string]interface{}{"id": "in_1"})
	receipt, err := svc.ProcessWebhook(context.Background(), body, sig)
	if err != nil {
		t.Fatalf("handler failure must not surface: %v", err)
	}
	if !receipt.Handled {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
	data, _ := svc.LastEvent(context.Background())
	if data["id"] != "in_1" {
		t.Fatalf("persistence must proceed despite handler failure, got %v", data)
	}
}

type failingStore struct{}

func (failingStore) Save(context.Context, map[string]interface{}) (map[string]interface{}, error) {
	return nil, errors.New("disk full")
}

func (failingStore) Load(context.Context) (map[string]interface{}, error) {
	return nil, nil
}

func TestProcessWebhookPersistFailureDoesNotFailRequest(t *testing.T) {
	svc := newTestService(route.NewRegistry(), failingStore{})

	body, sig := signedBody(t, "foo.bar", map[string]interface{}{"id": "x_1"})
	receipt, err := svc.ProcessWebhook(context.Background(), body, sig)
	if err != nil {
		t.Fatalf("persist failure must not surface: %v", err)
	}
	if receipt.EventType != "foo.bar" || receipt.Handled {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
}

func TestProcessWebhookEventWithoutDataLeavesSlotUnchanged(t *testing.T) {
	slot := store.NewMemoryStore()
	svc := newTestService(route.NewRegistry(), slot)

	body, sig := signedBody(t, "seed.event", map[string]interface{}{"id": "seed_1"})
	if _, err := svc.ProcessWebhook(context.Background(), body, sig); err != nil {
		t.Fatalf("seed: %v", err)
	}

	payload := map[string]interface{}{
		"id":      "evt_nodata",
		"type":    "ping",
		"created": time.Now().Unix(),
	}
	raw, _ := json.Marshal(payload)
	if _, err := svc.ProcessWebhook(context.Background(), raw, verify.Sign(testSecret, time.Now(), raw)); err != nil {
		t.Fatalf("no-data event must still be acknowledged: %v", err)
	}
	data, _ := svc.LastEvent(context.Background())
	if data["id"] != "seed_1" {
		t.Fatalf("slot must be unchanged by a data-less event, got %v", data)
	}
}
