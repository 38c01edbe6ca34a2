// Command mcp-server exposes calculator sessions over the Model
// Context Protocol, served via streamable HTTP on /mcp.
//
// Configuration via environment variables:
//
//	RECHNER_PORT          - Listen port (default: 8080)
//	RECHNER_HISTORY_LIMIT - History entries kept per session (default: 50)
//	RECHNER_SESSIONS_MAX  - Max sessions in memory (default: 1000)
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rechner-dev/rechner/pkg/config"
	"github.com/rechner-dev/rechner/pkg/debug"
	"github.com/rechner-dev/rechner/pkg/mcptools"
	"github.com/rechner-dev/rechner/pkg/session"
)

const version = "v0.1.0"

func main() {
	if err := run(); err != nil {
		slog.Error("mcp server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	debug.Init(cfg.Debug.Categories, cfg.Debug.Level)

	mgr := session.NewManager(session.Options{
		MaxSize:      cfg.Sessions.MaxSize,
		HistoryLimit: cfg.Engine.HistoryLimit,
	})
	defer mgr.Close()

	server := mcptools.NewServer(mgr, version)

	handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, nil)

	mux := http.NewServeMux()
	mux.Handle("/mcp", handler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("mcp server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
