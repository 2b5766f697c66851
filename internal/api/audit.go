package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// auditDelivery writes one structured line per webhook delivery decision so
// operators can correlate platform retries with receiver behavior.
func (s *Server) auditDelivery(r *http.Request, decision, reason, eventType, eventID string) {
	s.logger.Info("webhook delivery",
		"decision", decision,
		"reason", strings.TrimSpace(reason),
		"event_type", eventType,
		"event_id", eventID,
		"remote_ip", requestRemoteIP(r),
		"request_id", requestID(r),
	)
}

func requestID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-Request-Id")); id != "" {
		return id
	}
	return uuid.NewString()
}
