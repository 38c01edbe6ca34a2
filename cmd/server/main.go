// Command server runs the rechner calculator session service.
//
// Configuration is loaded from a YAML file (see pkg/config) with
// environment overrides:
//
//	RECHNER_CONFIG        - Config file path (default: ./config.yaml)
//	RECHNER_PORT          - Listen port (default: 8080)
//	RECHNER_HISTORY_LIMIT - History entries kept per session (default: 50)
//	RECHNER_SESSIONS_MAX  - Max sessions in memory (default: 1000)
//	RECHNER_AUTH_TYPE     - "none", "apikey", or "jwt" (default: "none")
//	RECHNER_JWT_SECRET    - HS256 shared secret for auth type "jwt"
//	RECHNER_API_KEYS      - JSON array of API keys for auth type "apikey"
//	RECHNER_DEBUG         - Debug categories (e.g. "engine,session")
//	RECHNER_LOG_LEVEL     - ERROR, WARN, INFO, DEBUG, or TRACE
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rechner-dev/rechner/pkg/auth"
	"github.com/rechner-dev/rechner/pkg/auth/apikey"
	"github.com/rechner-dev/rechner/pkg/auth/jwt"
	"github.com/rechner-dev/rechner/pkg/auth/noop"
	"github.com/rechner-dev/rechner/pkg/config"
	"github.com/rechner-dev/rechner/pkg/debug"
	"github.com/rechner-dev/rechner/pkg/observability"
	"github.com/rechner-dev/rechner/pkg/session"
	transporthttp "github.com/rechner-dev/rechner/pkg/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	debug.Init(cfg.Debug.Categories, cfg.Debug.Level)

	mgr := session.NewManager(session.Options{
		MaxSize:      cfg.Sessions.MaxSize,
		HistoryLimit: cfg.Engine.HistoryLimit,
	})
	defer mgr.Close()

	authMW, err := buildAuthMiddleware(cfg)
	if err != nil {
		return fmt.Errorf("building auth: %w", err)
	}

	srv := transporthttp.NewServer(mgr,
		transporthttp.WithAddr(fmt.Sprintf(":%d", cfg.Server.Port)),
		transporthttp.WithShutdownTimeout(30*time.Second),
		transporthttp.WithHandlerWrapper(func(next http.Handler) http.Handler {
			return buildMux(cfg, mgr, next)
		}),
		transporthttp.WithHandlerWrapper(observability.Middleware),
		transporthttp.WithHandlerWrapper(authMW),
	)

	slog.Info("rechner starting",
		"port", cfg.Server.Port,
		"auth", cfg.Auth.Type,
		"max_sessions", cfg.Sessions.MaxSize,
		"history_limit", cfg.Engine.HistoryLimit,
	)

	return srv.ListenAndServe()
}

// buildMux attaches the health and metrics endpoints next to the
// session API.
func buildMux(cfg *config.Config, mgr *session.Manager, apiHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", apiHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := mgr.HealthCheck(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	if cfg.Observability.Metrics.Enabled {
		mux.Handle("GET "+cfg.Observability.Metrics.Path, promhttp.Handler())
	}
	return mux
}

// buildAuthMiddleware assembles the auth chain and rate limiter from
// configuration.
func buildAuthMiddleware(cfg *config.Config) (func(http.Handler) http.Handler, error) {
	var chain auth.AuthChain

	switch cfg.Auth.Type {
	case "", "none":
		chain = auth.AuthChain{
			Authenticators:  []auth.Authenticator{noop.New()},
			DefaultDecision: auth.Yes,
		}
	case "apikey":
		entries := make([]apikey.RawKeyEntry, 0, len(cfg.Auth.APIKeys))
		for _, k := range cfg.Auth.APIKeys {
			entries = append(entries, apikey.RawKeyEntry{
				Key: k.Key,
				Identity: auth.Identity{
					Subject:     k.Subject,
					ServiceTier: k.ServiceTier,
				},
			})
		}
		chain = auth.AuthChain{
			Authenticators:  []auth.Authenticator{apikey.New(entries)},
			DefaultDecision: auth.No,
		}
	case "jwt":
		chain = auth.AuthChain{
			Authenticators: []auth.Authenticator{jwt.New(jwt.Config{
				Secret:   cfg.Auth.JWT.Secret,
				Issuer:   cfg.Auth.JWT.Issuer,
				Audience: cfg.Auth.JWT.Audience,
			})},
			DefaultDecision: auth.No,
		}
	default:
		return nil, fmt.Errorf("unknown auth type %q", cfg.Auth.Type)
	}

	var limiter auth.RateLimiter
	if cfg.Auth.RateLimit.Enabled {
		tiers := make(map[string]auth.TierConfig, len(cfg.Auth.RateLimit.Tiers))
		for name, rpm := range cfg.Auth.RateLimit.Tiers {
			tiers[name] = auth.TierConfig{RequestsPerMinute: rpm}
		}
		limiter = auth.NewInProcessLimiter(tiers, cfg.Auth.RateLimit.DefaultRPM)
	}

	return auth.Middleware(&chain, limiter, auth.DefaultBypassEndpoints), nil
}
