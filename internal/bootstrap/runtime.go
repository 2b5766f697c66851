package bootstrap

import (
	"net/http"
	"strings"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"payhook/internal/api"
	"payhook/internal/app"
	"payhook/internal/config"
	"payhook/internal/observability"
	"payhook/internal/platform"
	"payhook/internal/route"
	"payhook/internal/store"
	"payhook/internal/verify"
)

type Runtime struct {
	Handler http.Handler
}

func NewRuntime(cfg config.Config, logger logr.Logger) *Runtime {
	slot := buildSlotStore(cfg, logger)
	registry := route.DefaultRegistry(logger.WithName("handlers"))
	router := route.NewRouter(registry, logger.WithName("router"))

	mode := verify.ModeStrict
	if strings.TrimSpace(cfg.VerifyMode) == config.VerifyModePermissive {
		mode = verify.ModePermissiveTest
		logger.Info("WARNING: webhook signature verification is DISABLED, do not run this mode in production")
	}
	verifier := verify.New(verify.Options{
		Secret:    cfg.WebhookSecret,
		Mode:      mode,
		Tolerance: cfg.Tolerance,
	}, logger.WithName("verify"))

	metrics := observability.NewWebhookMetrics()
	service := app.NewService(verifier, router, slot, metrics, logger.WithName("pipeline"))

	server := api.NewServerWithOptions(service, platform.NewClient(cfg.APIKey), registry, api.ServerOptions{
		Rate: api.RateLimitPolicy{
			Enabled:          cfg.RateLimit.Enabled,
			WebhookPerMinute: cfg.RateLimit.WebhookPerMinute,
			ReadPerMinute:    cfg.RateLimit.ReadPerMinute,
		},
		SecretConfigured: strings.TrimSpace(cfg.WebhookSecret) != "",
		VerifyMode:       cfg.VerifyMode,
		Logger:           logger.WithName("api"),
	})

	httpMetrics := observability.NewHTTPMetrics()
	rootMux := http.NewServeMux()
	rootMux.Handle("/metrics", promhttp.Handler())
	rootMux.Handle("/", httpMetrics.Wrap(server.Routes()))

	return &Runtime{Handler: rootMux}
}

func buildSlotStore(cfg config.Config, logger logr.Logger) store.LastEventStore {
	path := strings.TrimSpace(cfg.LastEventFile)
	if path == "" {
		logger.Info("no last-event file configured, running with in-memory slot")
		return store.NewMemoryStore()
	}
	logger.Info("last-event slot", "path", path)
	return store.NewFileStore(path)
}
