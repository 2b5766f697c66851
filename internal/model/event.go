package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrIncompleteEvent = errors.New("event is missing id or type")

// Event is the verified notification delivered by the payment platform.
// Types follow the platform's dot-delimited taxonomy, e.g.
// "payment_intent.succeeded".
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	APIVersion string    `json:"api_version,omitempty"`
	Created    int64     `json:"created"`
	Livemode   bool      `json:"livemode"`
	Data       EventData `json:"data"`
}

// EventData carries the resource the event describes (a payment intent,
// a customer record, ...). The platform may omit it entirely.
type EventData struct {
	Object map[string]interface{} `json:"object"`
}

// Object never returns nil so handlers can index without guarding.
func (e Event) Object() map[string]interface{} {
	if e.Data.Object == nil {
		return map[string]interface{}{}
	}
	return e.Data.Object
}

// ParseEvent decodes a raw webhook body. The caller is expected to have
// authenticated the bytes already; this only enforces structural shape.
func ParseEvent(body []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return Event{}, fmt.Errorf("decode event body: %w", err)
	}
	if strings.TrimSpace(e.ID) == "" || strings.TrimSpace(e.Type) == "" {
		return Event{}, ErrIncompleteEvent
	}
	return e, nil
}
