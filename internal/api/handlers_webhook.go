package api

import (
	"errors"
	"net/http"
)

// handleWebhook accepts one platform delivery. The response communicates
// "authentically received", not "fully processed": routing and persistence
// outcomes never change the acknowledgement.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.rateLimiter.Allow(r, "webhook") {
		s.auditDelivery(r, "deny", "rate limit exceeded", "", "")
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}
	body, err := readBodyLimited(w, r, maxWebhookBodyBytes)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.auditDelivery(r, "deny", "body too large", "", "")
			writeError(w, http.StatusRequestEntityTooLarge, "request body is too large")
			return
		}
		s.auditDelivery(r, "deny", "unreadable body", "", "")
		writeError(w, http.StatusBadRequest, "unable to read body")
		return
	}

	receipt, err := s.service.ProcessWebhook(r.Context(), body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		s.auditDelivery(r, "deny", err.Error(), "", "")
		http.Error(w, "Webhook Error: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.auditDelivery(r, "allow", "", receipt.EventType, receipt.EventID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"received":  true,
		"eventType": receipt.EventType,
		"eventId":   receipt.EventID,
	})
}
