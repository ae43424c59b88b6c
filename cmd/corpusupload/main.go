// Command corpusupload pushes the extracted PDFs to blob storage and
// maintains the manifest the server imports at startup.
package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"marginalia/backend/internal/config"
	"marginalia/backend/internal/corpus"
	"marginalia/backend/pkg/logger"
	"marginalia/backend/pkg/network"
	"marginalia/backend/pkg/safeoutbound"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.ParseLevel(cfg.LogLevel))

	if cfg.BlobToken == "" {
		logger.Error("BLOB_READ_WRITE_TOKEN is not set")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	factory := network.NewClientFactory()
	if err := factory.TestEndpoint(ctx, "https://blob.vercel-storage.com"); err != nil {
		logger.Warn("blob endpoint preflight failed, continuing anyway", "error", err)
	}

	uploader := corpus.NewUploader(
		factory.NewHTTPClient(2*time.Minute),
		safeoutbound.New(net.DefaultResolver),
		cfg.BlobToken,
		cfg.DataDir,
		filepath.Join(cfg.DataDir, "blob_manifest.json"),
	)

	uploaded, failed, err := uploader.UploadAll(ctx)
	if err != nil {
		logger.Error("upload run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("upload complete", "uploaded", uploaded, "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}
