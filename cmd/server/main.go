// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

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

	httpAdapter "github.com/leseb/docingest/pkg/adapters/http"
	"github.com/leseb/docingest/pkg/blobstore"
	"github.com/leseb/docingest/pkg/core/config"
	"github.com/leseb/docingest/pkg/docstore"
	"github.com/leseb/docingest/pkg/extraction"
	"github.com/leseb/docingest/pkg/ingest"
	"github.com/leseb/docingest/pkg/llm"
	"github.com/leseb/docingest/pkg/observability/logging"

	// Backends register themselves with their registry.
	_ "github.com/leseb/docingest/pkg/blobstore/filesystem"
	_ "github.com/leseb/docingest/pkg/blobstore/memory"
	_ "github.com/leseb/docingest/pkg/blobstore/s3"
	_ "github.com/leseb/docingest/pkg/docstore/memory"
	_ "github.com/leseb/docingest/pkg/docstore/postgres"
	_ "github.com/leseb/docingest/pkg/docstore/sqlite"
)

var (
	// Version is set via ldflags during build
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	port := flag.Int("port", 0, "HTTP port to listen on (overrides config)")
	version := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *version {
		fmt.Printf("Document Ingest Server\nVersion: %s\nBuild Time: %s\n", Version, BuildTime)
		os.Exit(0)
	}

	cfg, cfgErr := config.Load(*configPath)
	if cfgErr != nil {
		cfg = config.Default()
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	slog.SetDefault(logger.Logger)
	logger.Info("Starting Document Ingest Server",
		"version", Version,
		"build_time", BuildTime)
	if cfgErr != nil {
		logger.Warn("Failed to load config, using defaults", "error", cfgErr)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *logging.Logger) error {
	initCtx := context.Background()

	blobs, err := blobstore.Providers.New(initCtx, cfg.BlobStore.Type, cfg.BlobStore.Params)
	if err != nil {
		return err
	}
	defer blobs.Close(context.Background())
	logger.Info("Initialized blob store", "type", cfg.BlobStore.Type)

	docs, err := docstore.Providers.New(initCtx, cfg.DocStore.Type, cfg.DocStore.Params)
	if err != nil {
		return err
	}
	defer docs.Close(context.Background())
	logger.Info("Initialized document store", "type", cfg.DocStore.Type)

	pipeline := extraction.New(
		extraction.WithLogger(logger.Logger),
		extraction.WithPDFExtractor(extraction.NewPDFExtractor(
			extraction.WithPageWorkers(cfg.Extraction.PDFWorkers),
		)),
	)
	svc := ingest.NewService(blobs, docs, pipeline,
		ingest.WithLogger(logger.Logger),
		ingest.WithExtractTimeout(cfg.Extraction.Timeout),
		ingest.WithWorkers(cfg.Extraction.Workers),
	)

	opts := []httpAdapter.Option{httpAdapter.WithMaxUploadSize(cfg.Server.MaxUploadSize)}
	if cfg.LLM.Endpoint != "" || cfg.LLM.APIKey != "" {
		llmCfg, err := cfg.LLM.Client()
		if err != nil {
			return err
		}
		client, err := llm.NewClient(llmCfg, llm.WithLogger(logger.Logger))
		if err != nil {
			return fmt.Errorf("create llm client: %w", err)
		}
		opts = append(opts, httpAdapter.WithCompleter(client))
		logger.Info("Initialized model provider", "shape", client.Shape(), "model", cfg.LLM.Model)
	} else {
		logger.Info("No model provider configured, completions disabled")
	}

	handler := httpAdapter.New(svc, logger, opts...)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout + cfg.Extraction.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
