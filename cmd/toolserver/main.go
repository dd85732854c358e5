// Command toolserver runs the sandboxed tool server. It reads framed
// requests from stdin, executes tool directives under filesystem and
// shell confinement, and writes framed responses to stdout. Logs go to
// stderr so the frame stream stays clean.
//
// Configuration via config file and environment variables:
//
//	WERKBANK_CONFIG          - Config file path (default: ./config.yaml, /etc/werkbank/config.yaml)
//	WERKBANK_WORKSPACE       - Writable workspace root (default: /workspace)
//	WERKBANK_SHARED          - Optional read-only shared root
//	WERKBANK_IDLE_TIMEOUT    - Idle watchdog timeout (default: 5m)
//	WERKBANK_METRICS_ADDR    - Enable the local /metrics and /healthz listener
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rhuss/werkbank/pkg/config"
	"github.com/rhuss/werkbank/pkg/mcpbridge"
	"github.com/rhuss/werkbank/pkg/observability"
	"github.com/rhuss/werkbank/pkg/sandbox"
	"github.com/rhuss/werkbank/pkg/server"
	"github.com/rhuss/werkbank/pkg/tools"
	"github.com/rhuss/werkbank/pkg/vault"
)

const version = "v0.1.0"

func main() {
	configPath := flag.String("config", "", "config file path")
	mcpAddr := flag.String("mcp", "", "serve MCP over HTTP on this address instead of the stdio protocol")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := run(*configPath, *mcpAddr, logger); err != nil {
		logger.Error("server failed", "error", err)
	}
	// An isolated container must never signal failure through its exit
	// code; the orchestrator reads diagnostics from the frame stream.
	os.Exit(0)
}

func run(configPath, mcpAddr string, logger *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	paths, err := sandbox.NewPathResolver(cfg.Roots.Workspace, cfg.Roots.Shared)
	if err != nil {
		return fmt.Errorf("configuring roots: %w", err)
	}
	pipeline := sandbox.NewPipelineValidator(cfg.Bash.AllowedCommands, cfg.Bash.NetworkCommands)
	v := vault.New()

	toolbox := tools.New(v, paths, pipeline, tools.Options{
		EnvPasslist:    cfg.Bash.EnvPasslist,
		Limits:         cfg.ToolLimits(),
		DefaultTimeout: cfg.Bash.DefaultTimeout,
		Logger:         logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Observability.Metrics.Enabled {
		diag := observability.NewDiagnostics(cfg.Observability.Metrics.Addr, logger)
		go diag.Serve()
		defer diag.Shutdown(context.Background())
	}

	if mcpAddr != "" {
		return serveMCP(ctx, mcpAddr, toolbox, logger)
	}

	srv := server.New(toolbox, v, os.Stdin, os.Stdout, server.Options{
		IdleTimeout: cfg.Server.IdleTimeout,
		Logger:      logger,
	})

	logger.Info("tool server starting",
		"version", version,
		"workspace", cfg.Roots.Workspace,
		"shared", cfg.Roots.Shared,
		"idle_timeout", cfg.Server.IdleTimeout,
	)
	return srv.Run(ctx)
}

// serveMCP exposes the toolbox over the Model Context Protocol on an
// HTTP listener instead of the framed stdio protocol.
func serveMCP(ctx context.Context, addr string, toolbox *tools.Toolbox, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/mcp", mcpbridge.Handler(mcpbridge.NewServer(toolbox, version)))

	srv := &http.Server{Addr: addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("mcp server starting", "addr", addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
