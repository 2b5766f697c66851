package api

import (
	"errors"
	"net/http"
	"time"

	"payhook/internal/platform"
	"payhook/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":                  "OK",
		"timestamp":               time.Now().UTC().Format(time.RFC3339),
		"webhookSecretConfigured": s.secretConfigured,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":    "payhook",
		"verifyMode": s.verifyMode,
		"endpoints":  []string{"POST /webhook", "GET /health", "GET /last-webhook", "GET /account"},
		"eventTypes": s.registry.Types(),
	})
}

// handleLastWebhook is a thin pass-through to the slot store: the persisted
// document verbatim, or null before the first accepted webhook.
func (s *Server) handleLastWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.rateLimiter.Allow(r, "read") {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}
	data, err := s.service.LastEvent(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrCorrupt) {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to read last webhook")
		return
	}
	if data == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.rateLimiter.Allow(r, "read") {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}
	account, err := s.platform.Account(r.Context())
	if err != nil {
		if errors.Is(err, platform.ErrNoAPIKey) {
			writeError(w, http.StatusServiceUnavailable, "platform api key is not configured")
			return
		}
		s.logger.Error(err, "account lookup failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, account)
}
