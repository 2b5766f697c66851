package app

import (
	"context"
	"errors"
	"sync"

	"github.com/go-logr/logr"

	"payhook/internal/model"
	"payhook/internal/observability"
	"payhook/internal/route"
	"payhook/internal/store"
	"payhook/internal/verify"
)

// Service runs the ingestion pipeline for one delivery: verify the raw
// bytes, dispatch to a handler, persist the data payload. Only verification
// can fail a request; routing and persistence are contained.
type Service struct {
	verifier *verify.Verifier
	router   *route.Router
	slot     store.LastEventStore
	metrics  *observability.WebhookMetrics
	logger   logr.Logger

	// Serializes slot overwrites; the file store itself does no locking.
	persistMu sync.Mutex
}

func NewService(verifier *verify.Verifier, router *route.Router, slot store.LastEventStore, metrics *observability.WebhookMetrics, logger logr.Logger) *Service {
	return &Service{
		verifier: verifier,
		router:   router,
		slot:     slot,
		metrics:  metrics,
		logger:   logger,
	}
}

// Receipt acknowledges an authentically received event. Handled reports
// whether a type-specific handler ran; the caller's response is identical
// either way.
type Receipt struct {
	EventType string
	EventID   string
	Handled   bool
}

// ProcessWebhook is terminal on the first applicable transition:
// verification failure returns an error and nothing else happens; a
// verified event is always routed, persisted best-effort, and acknowledged.
func (s *Service) ProcessWebhook(ctx context.Context, rawBody []byte, signatureHeader string) (Receipt, error) {
	event, err := s.verifier.Verify(rawBody, signatureHeader)
	if err != nil {
		s.metrics.DeliveryRejected()
		return Receipt{}, err
	}

	outcome := s.router.Route(ctx, event)
	if outcome.Err != nil {
		s.metrics.HandlerFailed(event.Type)
		s.logger.Error(outcome.Err, "handler failure contained",
			"event_type", outcome.Err.EventType,
			"event_id", outcome.Err.EventID,
		)
	}

	s.persist(ctx, event)
	s.metrics.DeliveryAccepted(event.Type, outcome.Handled)
	return Receipt{EventType: event.Type, EventID: event.ID, Handled: outcome.Handled}, nil
}

func (s *Service) persist(ctx context.Context, event model.Event) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if _, err := s.slot.Save(ctx, event.Data.Object); err != nil {
		if errors.Is(err, store.ErrEmptyData) {
			s.logger.Info("event carried no data payload, slot unchanged",
				"event_type", event.Type,
				"event_id", event.ID,
			)
			return
		}
		s.metrics.PersistFailed()
		s.logger.Error(err, "failed to persist last event",
			"event_type", event.Type,
			"event_id", event.ID,
		)
	}
}

// LastEvent returns the persisted slot; nil before the first accepted
// webhook.
func (s *Service) LastEvent(ctx context.Context) (map[string]interface{}, error) {
	return s.slot.Load(ctx)
}
