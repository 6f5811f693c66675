// Package server composes the graph API and MCP transports into one process
// handler with port-fallback binding.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Brandtweary/cyberorganism/internal/adapters/server/graphapi"
	"github.com/Brandtweary/cyberorganism/internal/adapters/server/mcpapi"
	"github.com/Brandtweary/cyberorganism/internal/graph"
)

// defaultShutdownTimeout bounds graceful shutdown time once context cancellation starts.
const defaultShutdownTimeout = 5 * time.Second

// Config defines serve-mode endpoint configuration.
type Config struct {
	Host            string
	Port            int
	MaxPortAttempts int
	MCPEndpoint     string
	ServerName      string
	ServerVersion   string
}

// Dependencies defines the adapters required by the server transports.
type Dependencies struct {
	Graph  *graph.Datastore
	Tasks  mcpapi.TaskService
	Logger *log.Logger
}

// NewHandler composes one root HTTP mux containing health, graph, and MCP endpoints.
func NewHandler(cfg Config, deps Dependencies) (http.Handler, Config, error) {
	normalizedCfg := normalizeConfig(cfg)
	if deps.Graph == nil {
		return nil, Config{}, fmt.Errorf("graph datastore dependency is required")
	}
	if deps.Tasks == nil {
		return nil, Config{}, fmt.Errorf("task service dependency is required")
	}

	mcpHandler, err := mcpapi.NewHandler(
		mcpapi.Config{
			ServerName:    normalizedCfg.ServerName,
			ServerVersion: normalizedCfg.ServerVersion,
			EndpointPath:  normalizedCfg.MCPEndpoint,
		},
		deps.Tasks,
	)
	if err != nil {
		return nil, Config{}, fmt.Errorf("configure mcp handler: %w", err)
	}
	graphHandler := graphapi.NewHandler(deps.Graph, deps.Logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", writeHealthStatus)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			graphHandler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Cyberorganism Knowledge Graph Backend Server\n"))
	})
	mux.Handle(normalizedCfg.MCPEndpoint, mcpHandler)
	return mux, normalizedCfg, nil
}

// Listen binds the first free port starting at cfg.Port, trying up to
// MaxPortAttempts consecutive ports. Plugins discover the final port from
// the sync handshake, so falling forward beats failing to start.
func Listen(cfg Config, logger *log.Logger) (net.Listener, error) {
	cfg = normalizeConfig(cfg)
	if logger == nil {
		logger = log.Default()
	}
	var lastErr error
	for attempt := 0; attempt < cfg.MaxPortAttempts; attempt++ {
		port := cfg.Port + attempt
		addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", port))
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			if attempt > 0 {
				logger.Warn("default port busy, bound fallback", "addr", addr)
			}
			return ln, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("no free port in %d..%d: %w", cfg.Port, cfg.Port+cfg.MaxPortAttempts-1, lastErr)
}

// Run starts the composed HTTP server and blocks until shutdown or startup failure.
func Run(ctx context.Context, cfg Config, deps Dependencies) error {
	if ctx == nil {
		ctx = context.Background()
	}

	handler, normalizedCfg, err := NewHandler(cfg, deps)
	if err != nil {
		return fmt.Errorf("build server handler: %w", err)
	}
	ln, err := Listen(normalizedCfg, deps.Logger)
	if err != nil {
		return err
	}
	if deps.Logger != nil {
		deps.Logger.Info("server listening", "addr", ln.Addr().String())
	}
	httpServer := &http.Server{Handler: handler}

	serveErrCh := make(chan error, 1)
	go func() {
		serveErrCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-serveErrCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()

		shutdownErr := httpServer.Shutdown(shutdownCtx)
		serveErr := <-serveErrCh
		if shutdownErr != nil && !errors.Is(shutdownErr, context.Canceled) {
			return fmt.Errorf("shutdown server: %w", shutdownErr)
		}
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("serve after shutdown: %w", serveErr)
		}
		return nil
	}
}

// normalizeConfig applies deterministic serve defaults.
func normalizeConfig(cfg Config) Config {
	cfg.Host = strings.TrimSpace(cfg.Host)
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port <= 0 {
		cfg.Port = 3000
	}
	if cfg.MaxPortAttempts <= 0 {
		cfg.MaxPortAttempts = 10
	}
	cfg.MCPEndpoint = strings.TrimSpace(cfg.MCPEndpoint)
	if cfg.MCPEndpoint == "" {
		cfg.MCPEndpoint = "/mcp"
	}
	if !strings.HasPrefix(cfg.MCPEndpoint, "/") {
		cfg.MCPEndpoint = "/" + cfg.MCPEndpoint
	}
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "cyberorganism"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	return cfg
}

// writeHealthStatus responds with a deterministic readiness payload.
func writeHealthStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
}
