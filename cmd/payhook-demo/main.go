package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"payhook/internal/verify"
)

// Signs a sample event the way the platform would and fires it at a running
// receiver. Handy for exercising the full pipeline without platform access.
func main() {
	fs := flag.NewFlagSet("payhook-demo", flag.ExitOnError)
	url := fs.String("url", "http://localhost:4242/webhook", "webhook endpoint")
	secret := fs.String("secret", "", "shared webhook secret (empty for permissive-test receivers)")
	eventType := fs.String("type", "payment_intent.succeeded", "event type to send")
	amount := fs.Int("amount", 2999, "amount in minor units")
	currency := fs.String("currency", "usd", "currency code")
	age := fs.Duration("age", 0, "backdate the signature by this much (tests replay rejection)")
	_ = fs.Parse(os.Args[1:])

	now := time.Now()
	payload := map[string]interface{}{
		"id":       fmt.Sprintf("evt_demo_%d", now.UnixNano()),
		"type":     *eventType,
		"created":  now.Unix(),
		"livemode": false,
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":       fmt.Sprintf("pi_demo_%d", now.UnixNano()),
				"amount":   *amount,
				"currency": *currency,
				"status":   "succeeded",
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	req, err := http.NewRequest(http.MethodPost, *url, bytes.NewReader(body))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(*secret) != "" {
		req.Header.Set("Stripe-Signature", verify.Sign(*secret, now.Add(-*age), body))
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer res.Body.Close()
	reply, _ := io.ReadAll(res.Body)
	fmt.Printf("%s %s\n", res.Status, strings.TrimSpace(string(reply)))
	if res.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}
