package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	printingapp "github.com/erp/docgen/internal/application/printing"
	"github.com/erp/docgen/internal/domain/printing"
	"github.com/erp/docgen/internal/infrastructure/auth"
	"github.com/erp/docgen/internal/infrastructure/cache"
	"github.com/erp/docgen/internal/infrastructure/config"
	"github.com/erp/docgen/internal/infrastructure/extraction"
	"github.com/erp/docgen/internal/infrastructure/logger"
	infraprinting "github.com/erp/docgen/internal/infrastructure/printing"
	"github.com/erp/docgen/internal/infrastructure/storage"
	"github.com/erp/docgen/internal/infrastructure/telemetry"
	"github.com/erp/docgen/internal/interfaces/http/handler"
	"github.com/erp/docgen/internal/interfaces/http/middleware"
	"github.com/erp/docgen/internal/interfaces/http/router"
)

//	@title			Document Generation API
//	@version		1.0
//	@description	Paginated invoice and payslip PDF generation

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	// Telemetry
	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
	}
	startCtx := context.Background()
	tracerProvider, err := telemetry.NewTracerProvider(startCtx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(startCtx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(startCtx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	if loggerProvider.IsEnabled() {
		otelCore := telemetry.NewZapOTELCore(cfg.Telemetry.ServiceName, loggerProvider, logger.ParseLevel(cfg.Log.Level))
		log = telemetry.Bridge(log, otelCore, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	}
	documentMetrics, err := telemetry.NewDocumentMetrics(meterProvider.Meter(telemetry.TracerName))
	if err != nil {
		log.Fatal("Failed to register document metrics", zap.Error(err))
	}

	log.Info("Starting document service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("storage_driver", cfg.Storage.Driver),
	)

	system := handler.NewSystemHandler(cfg.App.Name, version)

	// Object storage
	objects, files, err := newObjectStorage(cfg, log, system)
	if err != nil {
		log.Fatal("Failed to initialize storage", zap.Error(err))
	}

	// Upload status store and token revocation list
	statusStore, err := cache.NewUploadStatusStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore()
	if err != nil {
		log.Fatal("Failed to initialize upload status store", zap.Error(err))
	}
	defer func() {
		if err := statusStore.Close(); err != nil {
			log.Error("Error closing upload status store", zap.Error(err))
		}
	}()

	var revocations auth.RevocationList = auth.NewInMemoryRevocationList()
	if redisStore, ok := statusStore.(*cache.RedisUploadStatusStore); ok {
		client := redisStore.GetClient()
		revocations = auth.NewRedisRevocationList(client)
		system.AddCheck("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}

	// Background uploads
	dispatcher := printingapp.NewUploadDispatcher(objects, statusStore, printingapp.UploadDispatcherConfig{
		Workers:        cfg.Upload.Workers,
		QueueSize:      cfg.Upload.QueueSize,
		MaxAttempts:    cfg.Upload.MaxAttempts,
		RetryDelay:     cfg.Upload.RetryDelay,
		AttemptTimeout: cfg.Upload.AttemptTimeout,
	}, log, printingapp.WithUploadMetrics(documentMetrics))
	dispatcher.Start()

	// Document assembly
	margin := cfg.Render.Margin
	catalog := printing.NewGeometryCatalog().WithMargins(printing.Margins{
		Top: margin, Right: margin, Bottom: margin, Left: margin,
	})
	assemblerOpts := []printingapp.AssemblerOption{printingapp.WithMetrics(documentMetrics)}
	if cfg.Render.VerifyOutput {
		assemblerOpts = append(assemblerOpts, printingapp.WithInspector(infraprinting.NewPDFInspector()))
	}
	assembler := printingapp.NewDocumentAssembler(
		catalog,
		infraprinting.NewPNGQRGenerator(256),
		printingapp.AssemblerConfig{
			DefaultPaper:     cfg.Render.DefaultPaper,
			PageNumberFormat: cfg.Render.PageNumberFormat,
			DefaultBucket:    cfg.Storage.Bucket,
			Creator:          cfg.App.Name,
		},
		log,
		assemblerOpts...,
	)

	extractor := extraction.NewRegistrationExtractor(
		nil,
		nil,
		extraction.Config{
			FetchTimeout: cfg.Extraction.FetchTimeout,
			MaxSize:      cfg.Extraction.MaxSize,
		},
		log,
	)

	documentService := printingapp.NewDocumentService(
		assembler,
		dispatcher,
		objects,
		statusStore,
		extractor,
		catalog,
		printingapp.ServiceConfig{
			CheckBucket:   cfg.Storage.CheckBucket,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
		},
		log,
	)

	// Authentication
	credentials, err := auth.NewCredentialStore(cfg.Auth.Users)
	if err != nil {
		log.Fatal("Failed to load service accounts", zap.Error(err))
	}
	if credentials.Len() == 0 {
		log.Warn("No service accounts configured, login is disabled")
	}
	jwtService := auth.NewJWTService(cfg.JWT)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	handlers := router.Handlers{
		Auth:      handler.NewAuthHandler(credentials, jwtService, revocations),
		Documents: handler.NewDocumentHandler(documentService),
		System:    system,
	}
	if files != nil {
		handlers.Files = handler.NewFileHandler(files)
	}
	engine, err := router.New(router.Config{
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		RequestTimeout: cfg.Render.Timeout,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		JWTService:     jwtService,
		Revocations:    revocations,
		Logger:         log,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
	}, handlers)
	if err != nil {
		log.Fatal("Failed to initialize router", zap.Error(err))
	}

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	// pending uploads are drained after requests stop arriving
	if err := dispatcher.Shutdown(ctx); err != nil {
		log.Error("Upload dispatcher did not drain", zap.Error(err))
	}
	// exporters flush last so the drain itself is recorded
	if err := tracerProvider.Shutdown(ctx); err != nil {
		log.Error("Tracer provider shutdown failed", zap.Error(err))
	}
	if err := meterProvider.Shutdown(ctx); err != nil {
		log.Error("Meter provider shutdown failed", zap.Error(err))
	}
	if err := loggerProvider.Shutdown(ctx); err != nil {
		log.Error("Logger provider shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newObjectStorage builds the configured store. The filesystem store is
// also returned as a file opener so its documents can be served over HTTP.
func newObjectStorage(cfg *config.Config, log *zap.Logger, system *handler.SystemHandler) (printingapp.ObjectStorage, handler.FileOpener, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverS3:
		s3, err := storage.NewS3ObjectStorage(&cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiration))
		if err != nil {
			return nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s3.EnsureBucket(ctx); err != nil {
			return nil, nil, err
		}
		system.AddCheck("storage", func(ctx context.Context) error {
			ok, err := s3.BucketExists(ctx, s3.GetBucket())
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("bucket not found")
			}
			return nil
		})
		return s3, nil, nil
	case config.StorageDriverMemory:
		log.Warn("Using in-memory storage, documents are lost on restart")
		return storage.NewMemoryObjectStorage(), nil, nil
	default:
		fs, err := storage.NewFileSystemStorage(cfg.Storage.BasePath, log)
		if err != nil {
			return nil, nil, err
		}
		return fs, fs, nil
	}
}
