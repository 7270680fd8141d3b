package app

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/odyssey-erp/storeledger/internal/observability"
	"github.com/odyssey-erp/storeledger/internal/platform/httpx"
	"github.com/odyssey-erp/storeledger/internal/shared"
)

// IdempotencyHeader carries the client-chosen key of a create request.
const IdempotencyHeader = "Idempotency-Key"

// IdempotencyKeys records processed keys per operation.
type IdempotencyKeys interface {
	CheckAndInsert(ctx context.Context, key, operation string) error
	Delete(ctx context.Context, key, operation string) error
}

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger      *slog.Logger
	Config      *Config
	Metrics     *observability.Metrics
	Tokens      *shared.TokenChecker
	Idempotency IdempotencyKeys
}

// MiddlewareStack installs the storeledger middleware chain.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'none'",
		SSLRedirect:           cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         cfg.Config == nil || !cfg.Config.IsProduction(),
	})

	timeout := 30 * time.Second
	limit := 600
	if cfg.Config != nil {
		if cfg.Config.AppRequestTimeout > 0 {
			timeout = cfg.Config.AppRequestTimeout
		}
		if cfg.Config.RateLimitPerMinute > 0 {
			limit = cfg.Config.RateLimitPerMinute
		}
	}

	middlewares := []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		middleware.Recoverer,
		middleware.Timeout(timeout),
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := secureMiddleware.Process(w, r); err != nil {
					logger.Warn("secure headers blocked request", slog.Any("error", err))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				next.ServeHTTP(w, r)
			})
		},
		middleware.Compress(5),
		httprate.Limit(limit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)),
	}
	if cfg.Metrics != nil {
		middlewares = append(middlewares, cfg.Metrics.Middleware)
	}
	if cfg.Tokens.Enabled() {
		middlewares = append(middlewares, tokenGate(cfg.Tokens, logger))
	}
	if cfg.Idempotency != nil {
		middlewares = append(middlewares, idempotent(cfg.Idempotency, logger))
	}
	return middlewares
}

// tokenGate leaves /healthz open so probes work without credentials.
func tokenGate(tokens *shared.TokenChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}
			if err := tokens.Check(r.Header.Get("Authorization")); err != nil {
				logger.Warn("rejected request without valid token", slog.String("path", r.URL.Path))
				httpx.RespondError(w, logger, "auth", err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// idempotent claims the Idempotency-Key of a POST before the handler runs. A repeat
// gets a conflict result; a key whose request failed is released so it can be retried.
func idempotent(keys IdempotencyKeys, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			if r.Method != http.MethodPost || key == "" {
				next.ServeHTTP(w, r)
				return
			}
			op := r.Method + " " + r.URL.Path
			if err := keys.CheckAndInsert(r.Context(), key, op); err != nil {
				httpx.RespondError(w, logger, "idempotency", err)
				return
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if ww.Status() >= http.StatusBadRequest {
				if err := keys.Delete(context.WithoutCancel(r.Context()), key, op); err != nil {
					logger.Error("release idempotency key", slog.String("key", key), slog.Any("error", err))
				}
			}
		})
	}
}
