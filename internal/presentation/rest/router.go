package rest

import (
	"log/slog"
	"net/http"

	"github.com/bibbank/loan-approval/internal/presentation/rest/middleware"
	"github.com/bibbank/loan-approval/pkg/auth"
)

// PublicPaths never require a token.
var PublicPaths = []string{"/health", "/healthz", "/readyz", "/metrics", "/openapi.json"}

// RouterConfig collects the handlers and cross-cutting settings of the HTTP API.
type RouterConfig struct {
	Loan    *LoanHandler
	Health  *HealthHandler
	Metrics http.Handler
	OpenAPI http.Handler

	// JWT enables bearer authentication on the decision routes when non-nil.
	JWT *auth.JWTService

	CORSAllowedOrigins []string
	RateLimit          float64
	RateBurst          int
	Logger             *slog.Logger
}

// NewRouter registers every route and wraps the mux in the middleware chain.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	cfg.Health.RegisterRoutes(mux)
	cfg.Loan.RegisterRoutes(mux)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}
	if cfg.OpenAPI != nil {
		mux.Handle("GET /openapi.json", cfg.OpenAPI)
	}

	// Build middleware chain (applied in reverse order).
	var h http.Handler = mux
	if cfg.JWT != nil {
		h = middleware.AuthMiddleware(cfg.JWT, PublicPaths, auth.DecisionRoles...)(h)
	}
	if cfg.RateLimit > 0 {
		h = middleware.RateLimitMiddleware(middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst))(h)
	}
	if len(cfg.CORSAllowedOrigins) > 0 {
		h = middleware.CORSMiddleware(cfg.CORSAllowedOrigins)(h)
	}
	h = middleware.LoggingMiddleware(cfg.Logger)(h)
	return h
}
