package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	printingapp "github.com/warecore/printd/internal/application/printing"
	"github.com/warecore/printd/internal/infrastructure/config"
	"github.com/warecore/printd/internal/infrastructure/delivery"
	"github.com/warecore/printd/internal/infrastructure/labels"
	"github.com/warecore/printd/internal/infrastructure/logger"
	"github.com/warecore/printd/internal/infrastructure/persistence"
	"github.com/warecore/printd/internal/infrastructure/queue"
	"github.com/warecore/printd/internal/infrastructure/storage"
	"github.com/warecore/printd/internal/infrastructure/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting printd",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	// Initialize distributed tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.Endpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.App.Name,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Initialize database connection with zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled: cfg.Telemetry.TraceDB,
		DBName:  cfg.Database.DBName,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Initialize Redis connection
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing Redis connection", zap.Error(err))
		}
	}()
	log.Info("Redis connected successfully", zap.String("addr", cfg.Redis.Addr()))

	// Initialize artifact storage
	store, localStore, err := buildArtifactStore(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize artifact storage", zap.Error(err))
	}
	log.Info("Artifact storage initialized", zap.String("backend", cfg.Storage.Backend))

	// Initialize repositories
	jobRepo := persistence.NewGormPrintJobRepository(db.DB)
	printerRepo := persistence.NewGormPrinterRepository(db.DB)

	// Initialize label data providers
	providers := labels.NewProviderRegistry()
	providers.Register(persistence.NewItemLabelProvider(db.DB))

	// Initialize renderers
	htmlEngine := labels.NewChromedpEngine(&labels.ChromedpConfig{
		DefaultTimeout: cfg.Render.Timeout,
		RemoteURL:      cfg.Render.ChromeURL,
		NoSandbox:      cfg.Render.ChromeNoSandbox,
		Logger:         log,
	})
	defer func() {
		_ = htmlEngine.Close()
	}()

	pdfRenderer, err := labels.NewPDFRenderer(htmlEngine)
	if err != nil {
		log.Fatal("Failed to initialize PDF renderer", zap.Error(err))
	}
	labelService := printingapp.NewLabelService(providers,
		[]labels.LabelRenderer{labels.NewZPLRenderer(), pdfRenderer}, log)

	// Initialize delivery drivers
	rawDriver := delivery.NewRawDriver(&delivery.RawDriverConfig{
		DialTimeout:  cfg.Delivery.TCPTimeout,
		WriteTimeout: cfg.Delivery.TCPTimeout,
		Logger:       log,
	})
	ippDriver := delivery.NewIPPDriver(&delivery.IPPDriverConfig{
		Timeout:  cfg.Delivery.IPPTimeout,
		Username: cfg.Delivery.IPPUsername,
		Logger:   log,
	})
	fileDriver := delivery.NewFileDriver(store, log)
	dispatcher := delivery.NewDispatcher(rawDriver, ippDriver, fileDriver, log)

	// Initialize job processing
	processor := printingapp.NewPrintJobProcessor(jobRepo, printerRepo, labelService, dispatcher, log)
	jobQueue := queue.NewRedisQueue(redisClient, log)
	pool := queue.NewWorkerPool(jobQueue, processor, queue.WorkerPoolConfig{
		Workers:        cfg.Queue.Workers,
		MaxAttempts:    cfg.Queue.MaxAttempts,
		RetryBaseDelay: cfg.Queue.RetryBaseDelay,
		PollTimeout:    cfg.Queue.PollTimeout,
	}, log)

	if err := pool.Start(context.Background()); err != nil {
		log.Fatal("Failed to start worker pool", zap.Error(err))
	}

	// Periodic artifact cleanup only applies to local storage; S3 retention
	// is expected to be handled by a bucket lifecycle rule
	var cleanupStop context.CancelFunc
	if cfg.Cleanup.Enabled && localStore != nil {
		var cleanupCtx context.Context
		cleanupCtx, cleanupStop = context.WithCancel(context.Background())
		go runCleanupLoop(cleanupCtx, localStore, cfg.Cleanup, log)
		log.Info("Artifact cleanup enabled",
			zap.Duration("interval", cfg.Cleanup.Interval),
			zap.Duration("retention", cfg.Cleanup.Retention))
	}

	log.Info("printd started",
		zap.Int("workers", cfg.Queue.Workers),
		zap.Int("max_attempts", cfg.Queue.MaxAttempts))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	if cleanupStop != nil {
		cleanupStop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := pool.Stop(ctx); err != nil {
		log.Error("Worker pool did not stop cleanly", zap.Error(err))
	}

	log.Info("printd exited gracefully")
}

// buildArtifactStore selects the configured storage backend. The local store
// is returned separately when in use so the cleanup loop can reach it.
func buildArtifactStore(cfg *config.Config, log *zap.Logger) (storage.ArtifactStore, *storage.LocalStore, error) {
	switch cfg.Storage.Backend {
	case "s3":
		s3Store, err := storage.NewS3Store(&storage.S3StoreConfig{
			Endpoint:     cfg.Storage.Endpoint,
			Region:       cfg.Storage.Region,
			Bucket:       cfg.Storage.Bucket,
			AccessKey:    cfg.Storage.AccessKey,
			SecretKey:    cfg.Storage.SecretKey,
			UseSSL:       cfg.Storage.UseSSL,
			UsePathStyle: cfg.Storage.UsePathStyle,
		}, storage.WithLogger(log))
		if err != nil {
			return nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s3Store.EnsureBucket(ctx); err != nil {
			return nil, nil, err
		}
		return s3Store, nil, nil
	default:
		localStore, err := storage.NewLocalStore(&storage.LocalStoreConfig{
			BasePath: cfg.Storage.BasePath,
			Logger:   log,
		})
		if err != nil {
			return nil, nil, err
		}
		return localStore, localStore, nil
	}
}

func runCleanupLoop(ctx context.Context, store *storage.LocalStore, cfg config.CleanupConfig, log *zap.Logger) {
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.CleanupOlderThan(ctx, cfg.Retention)
			if err != nil {
				log.Error("Artifact cleanup failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				log.Info("Artifact cleanup removed old files", zap.Int("count", removed))
			}
		}
	}
}
