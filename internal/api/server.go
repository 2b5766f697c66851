package api

import (
	"github.com/go-logr/logr"

	"payhook/internal/app"
	"payhook/internal/platform"
	"payhook/internal/route"
)

type RateLimitPolicy struct {
	Enabled          bool
	WebhookPerMinute int
	ReadPerMinute    int
}

type ServerOptions struct {
	Rate             RateLimitPolicy
	SecretConfigured bool
	VerifyMode       string
	Logger           logr.Logger
}

type Server struct {
	service          *app.Service
	platform         *platform.Client
	registry         *route.Registry
	rateLimiter      *requestRateLimiter
	secretConfigured bool
	verifyMode       string
	logger           logr.Logger
}

func NewServer(service *app.Service, platformClient *platform.Client, registry *route.Registry) *Server {
	return NewServerWithOptions(service, platformClient, registry, ServerOptions{})
}

func NewServerWithOptions(service *app.Service, platformClient *platform.Client, registry *route.Registry, opts ServerOptions) *Server {
	if registry == nil {
		registry = route.NewRegistry()
	}
	return &Server{
		service:          service,
		platform:         platformClient,
		registry:         registry,
		rateLimiter:      newRequestRateLimiter(withRateDefaults(opts.Rate)),
		secretConfigured: opts.SecretConfigured,
		verifyMode:       opts.VerifyMode,
		logger:           opts.Logger,
	}
}

func withRateDefaults(in RateLimitPolicy) RateLimitPolicy {
	if in.WebhookPerMinute <= 0 {
		in.WebhookPerMinute = 240
	}
	if in.ReadPerMinute <= 0 {
		in.ReadPerMinute = 600
	}
	return in
}
