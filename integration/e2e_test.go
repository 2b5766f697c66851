package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"

	"payhook/internal/bootstrap"
	"payhook/internal/config"
	"payhook/internal/verify"
)

const e2eSecret = "whsec_e2e"

// One runtime per test binary: the bootstrap registers prometheus
// collectors on the default registry.
func TestSignedDeliveryEndToEnd(t *testing.T) {
	cfg := config.Config{
		Addr:          ":0",
		WebhookSecret: e2eSecret,
		VerifyMode:    config.VerifyModeStrict,
		Tolerance:     5 * time.Minute,
		LastEventFile: filepath.Join(t.TempDir(), "last_event.json"),
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}
	rt := bootstrap.NewRuntime(cfg, logr.Discard())
	ts := httptest.NewServer(rt.Handler)
	defer ts.Close()

	payload := map[string]interface{}{
		"id":       "evt_e2e_1",
		"type":     "payment_intent.succeeded",
		"created":  time.Now().Unix(),
		"livemode": false,
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":       "pi_123",
				"amount":   2999,
				"currency": "usd",
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/webhook", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", verify.Sign(e2eSecret, time.Now(), body))
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post webhook: %v", err)
	}
	ackBody, _ := io.ReadAll(res.Body)
	_ = res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.StatusCode, ackBody)
	}
	var ack struct {
		Received  bool   `json:"received"`
		EventType string `json:"eventType"`
		EventID   string `json:"eventId"`
	}
	if err := json.Unmarshal(ackBody, &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if !ack.Received || ack.EventType != "payment_intent.succeeded" || ack.EventID != "evt_e2e_1" {
		t.Fatalf("unexpected ack: %+v", ack)
	}

	// A forged delivery is rejected and does not touch the slot.
	forged := []byte(`{"id":"evt_forged","type":"charge.succeeded"}`)
	fReq, _ := http.NewRequest(http.MethodPost, ts.URL+"/webhook", bytes.NewReader(forged))
	fReq.Header.Set("Stripe-Signature", verify.Sign("whsec_wrong", time.Now(), forged))
	fRes, err := http.DefaultClient.Do(fReq)
	if err != nil {
		t.Fatalf("post forged webhook: %v", err)
	}
	fBody, _ := io.ReadAll(fRes.Body)
	_ = fRes.Body.Close()
	if fRes.StatusCode != http.StatusBadRequest || !strings.Contains(string(fBody), "Webhook Error") {
		t.Fatalf("expected 400 Webhook Error, got %d: %s", fRes.StatusCode, fBody)
	}

	lwRes, err := http.Get(ts.URL + "/last-webhook")
	if err != nil {
		t.Fatalf("get last webhook: %v", err)
	}
	lwBody, _ := io.ReadAll(lwRes.Body)
	_ = lwRes.Body.Close()
	if lwRes.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /last-webhook, got %d", lwRes.StatusCode)
	}
	var lastData map[string]interface{}
	if err := json.Unmarshal(lwBody, &lastData); err != nil {
		t.Fatalf("decode last webhook: %v", err)
	}
	if lastData["id"] != "pi_123" || lastData["amount"] != float64(2999) || lastData["currency"] != "usd" {
		t.Fatalf("unexpected slot content: %v", lastData)
	}

	mRes, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	mBody, _ := io.ReadAll(mRes.Body)
	_ = mRes.Body.Close()
	if !strings.Contains(string(mBody), "payhook_webhook_deliveries_total") {
		t.Fatal("expected webhook delivery metrics to be exported")
	}

	hRes, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	hBody, _ := io.ReadAll(hRes.Body)
	_ = hRes.Body.Close()
	var health struct {
		Status                  string `json:"status"`
		WebhookSecretConfigured bool   `json:"webhookSecretConfigured"`
	}
	if err := json.Unmarshal(hBody, &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "OK" || !health.WebhookSecretConfigured {
		t.Fatalf("unexpected health: %+v", health)
	}
}
