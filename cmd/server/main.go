package main

import (
	"context"
	"errors"
	"net"
	nethttp "net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"marginalia/backend/internal/config"
	"marginalia/backend/internal/corpus"
	"marginalia/backend/internal/db"
	"marginalia/backend/internal/handler"
	mhttp "marginalia/backend/internal/http"
	"marginalia/backend/internal/repository"
	"marginalia/backend/internal/scheduler"
	"marginalia/backend/internal/service"
	"marginalia/backend/pkg/logger"
	"marginalia/backend/pkg/network"
	"marginalia/backend/pkg/ratelimit"
	"marginalia/backend/pkg/safeoutbound"
	"marginalia/backend/pkg/snowflake"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.ParseLevel(cfg.LogLevel))

	if err := run(cfg); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	if cfg.JWTSecret == "" {
		return errors.New("MARGINALIA_JWT_SECRET is required")
	}
	if err := snowflake.Init(cfg.SnowflakeNodeID); err != nil {
		return err
	}

	// Open creates the data dir and runs migrations.
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	users := repository.NewUserRepository(database)
	bans := repository.NewBannedUserRepository(database)
	documents := repository.NewDocumentRepository(database)
	annotations := repository.NewAnnotationRepository(database)
	comments := repository.NewCommentRepository(database)
	wallets := repository.NewWalletRepository(database)

	store := newRateLimitStore(cfg)
	checker := safeoutbound.New(net.DefaultResolver)
	clientFactory := network.NewClientFactory()

	authService := service.NewAuthService(users, bans, cfg.JWTSecret)
	documentService := service.NewDocumentService(documents, bans)
	annotationService := service.NewAnnotationService(annotations, documents, bans)
	commentService := service.NewCommentService(comments, documents, bans)
	walletService := service.NewWalletService(wallets)
	reportService := service.NewReportService(
		ratelimit.New(store, cfg.ReportRateLimitWindow, cfg.ReportRateLimitMax),
		ratelimit.New(store, cfg.FeatureRateLimitWindow, cfg.FeatureRateLimitMax),
		checker,
		clientFactory.NewHTTPClient(30*time.Second),
		cfg.GitHubToken,
		cfg.GitHubRepo,
	)

	syncJob := manifestSyncJob(cfg, documentService)
	if err := syncJob(context.Background()); err != nil {
		logger.Warn("initial corpus manifest sync failed", "error", err)
	}
	if cfg.ManifestSyncInterval > 0 {
		sched := scheduler.New("manifest-sync", cfg.ManifestSyncInterval, syncJob)
		sched.Start()
		defer sched.Stop()
	}

	e := mhttp.NewRouter(
		handler.NewAuthHandler(authService),
		handler.NewDocumentHandler(documentService),
		handler.NewAnnotationHandler(annotationService),
		handler.NewCommentHandler(commentService),
		handler.NewWalletHandler(walletService),
		handler.NewReportHandler(reportService),
		authService,
		cfg.StaticDir,
		cfg.SwaggerEnabled,
	)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Addr)
		if err := e.Start(cfg.Addr); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(ctx)
}

// newRateLimitStore picks a shared Redis counter store when one is
// configured, otherwise counters stay in process.
func newRateLimitStore(cfg config.Config) ratelimit.Store {
	if cfg.RedisAddr == "" {
		return ratelimit.NewMemoryStore()
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	logger.Info("using redis rate limit store", "addr", cfg.RedisAddr)
	return ratelimit.NewRedisStore(client, "marginalia:ratelimit")
}

// manifestSyncJob imports the corpus manifest into the documents table
// so the server knows the corpus without a manual step. A missing
// manifest is not an error.
func manifestSyncJob(cfg config.Config, documents service.DocumentService) scheduler.Job {
	manifestPath := filepath.Join(cfg.DataDir, "blob_manifest.json")
	return func(ctx context.Context) error {
		entries, err := corpus.LoadManifest(manifestPath)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}

		converted := make([]service.ManifestEntry, 0, len(entries))
		for _, e := range entries {
			converted = append(converted, service.ManifestEntry{
				Key:       e.Pathname,
				URL:       e.URL,
				SizeBytes: e.Size,
			})
		}

		count, err := documents.SyncManifest(ctx, converted)
		if err != nil {
			return err
		}
		logger.Info("corpus manifest synced", "documents", count)
		return nil
	}
}
