package main

import (
	"log"
	"net/http"
	"time"

	"github.com/go-logr/zapr"
	"go.uber.org/zap"

	"payhook/internal/bootstrap"
	"payhook/internal/config"
)

func main() {
	cfg := config.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zapLogger.Sync() }()
	logger := zapr.NewLogger(zapLogger)

	rt := bootstrap.NewRuntime(cfg, logger)

	summary := cfg.Summary()
	logger.Info("startup config",
		"verify_mode", summary.VerifyMode,
		"secret_configured", summary.SecretConfigured,
		"api_key_configured", summary.APIKeyConfigured,
		"tolerance", summary.Tolerance.String(),
		"slot_mode", summary.SlotMode,
		"last_event_file", summary.LastEventFile,
		"rate_limit", summary.RateLimit,
		"tls_enabled", summary.TLSEnabled,
	)
	logger.Info("payhook listening", "addr", cfg.Addr)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           rt.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	var serveErr error
	if cfg.TLS.Enabled {
		serveErr = server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
	} else {
		serveErr = server.ListenAndServe()
	}
	if serveErr != nil {
		logger.Error(serveErr, "http server failed")
		log.Fatal(serveErr)
	}
}
