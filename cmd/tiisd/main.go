// Tiisd is the interview-chatbot persistence daemon.
//
// This binary starts the tiisd HTTP server with full service initialization:
// the document store, the attachment store with its quota ledger, the
// conversation session manager, and the tool mention aggregator.
//
// Configuration is loaded from an optional YAML file plus TIIS_* environment
// variables. See internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	tiisd
//
//	# Configure via environment
//	TIIS_SERVER_PORT=9090 TIIS_STORAGE_ROOT=/var/lib/tiis tiisd
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/attachments"
	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/config"
	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/conversation"
	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/docstore"
	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/httpapi"
	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/llm/openai"
	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/logging"
	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/telemetry"
	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/toolmentions"
	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/users"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  tiisd           Start the tiisd daemon\n")
			fmt.Fprintf(os.Stderr, "  tiisd version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("tiisd\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the tiisd server and blocks until context is cancelled.
//
// Returns http.ErrServerClosed on graceful shutdown.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info("Starting tiisd",
		zap.Int("port", cfg.Server.Port),
		zap.String("storage_root", cfg.Storage.Root),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout))

	tel, err := telemetry.New(ctx, &cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	docs, err := docstore.New(cfg.Storage.Root, logger.Named("docstore"))
	if err != nil {
		return fmt.Errorf("failed to open document store: %w", err)
	}
	userStore, err := users.NewStore(docs, logger.Named("users"))
	if err != nil {
		return fmt.Errorf("failed to create user store: %w", err)
	}
	attach, err := attachments.NewStore(docs, userStore, logger.Named("attachments"))
	if err != nil {
		return fmt.Errorf("failed to create attachment store: %w", err)
	}

	var providerOpts []openai.Option
	if cfg.OpenAI.Model != "" {
		providerOpts = append(providerOpts, openai.WithModel(cfg.OpenAI.Model))
	}
	if cfg.OpenAI.BaseURL != "" {
		providerOpts = append(providerOpts, openai.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	provider, err := openai.NewProvider(cfg.OpenAI.APIKey.Value(), providerOpts...)
	if err != nil {
		return fmt.Errorf("failed to create llm provider: %w", err)
	}

	convs, err := conversation.NewService(docs, userStore, attach, provider, logger.Named("conversation"))
	if err != nil {
		return fmt.Errorf("failed to create conversation service: %w", err)
	}
	tools, err := toolmentions.NewAggregator(docs, logger.Named("toolmentions"))
	if err != nil {
		return fmt.Errorf("failed to create tool aggregator: %w", err)
	}

	srv, err := httpapi.NewServer(convs, tools, logger.Named("http"), &httpapi.Config{
		Host: "0.0.0.0",
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	logger.Info("Server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port)),
		zap.String("api_prefix", "/api/v1"),
		zap.String("metrics_endpoint", "/metrics"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
