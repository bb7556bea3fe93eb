package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/handlers"
	"github.com/Ramsey-B/fern/internal/repositories/documentversion"
	"github.com/Ramsey-B/fern/internal/repositories/metadata"
	"github.com/Ramsey-B/fern/internal/repositories/record"
	"github.com/Ramsey-B/fern/internal/repositories/settings"
	"github.com/Ramsey-B/fern/internal/repositories/template"
	"github.com/Ramsey-B/fern/pkg/attribute"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/docgen"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/filename"
	"github.com/Ramsey-B/fern/pkg/health"
	"github.com/Ramsey-B/fern/pkg/mergedata"
	"github.com/Ramsey-B/fern/pkg/mergeservice"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/schemacache"
	"github.com/Ramsey-B/fern/pkg/startup"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

var version = "dev"

func newServeCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the document generation API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logger, sync, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger, migrate)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply database migrations before serving")
	return cmd
}

// application holds the components started before the server accepts requests.
type application struct {
	conn     database.DB
	metadata *metadata.Repository
	redis    *redis.Client
	schema   mergedata.SchemaService
	cache    *schemacache.Cache
	producer *events.Producer
}

func serve(ctx context.Context, cfg *config.Config, logger ectologger.Logger, migrate bool) error {
	if cfg.OTLPEnabled {
		shutdown, err := tracing.Setup(ctx, tracing.Config{
			ServiceName: cfg.AppName,
			Endpoint:    cfg.OTLPEndpoint,
			Protocol:    cfg.OTLPProtocol,
			Insecure:    cfg.OTLPInsecure,
			Timeout:     10 * time.Second,
		})
		if err != nil {
			return fmt.Errorf("failed to set up tracing: %w", err)
		}
		defer func() { _ = shutdown(context.Background()) }()
	}

	conn, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	db := database.NewDatabaseInstance(conn, logger)

	app := &application{conn: db}
	checker := health.NewChecker(version)
	checker.AddCheck("database", db.PingContext)

	boot := startup.NewStartup(logger, cfg.StartupMaxAttempts)
	boot.AddDependency(&startup.Func{
		Name: "database",
		StartFunc: func(ctx context.Context) error {
			if err := db.PingContext(ctx); err != nil {
				return err
			}
			if migrate {
				return migrateDatabase(cfg, conn, logger)
			}
			return nil
		},
		StopFunc: func(context.Context) error { return db.Close() },
	})

	app.metadata = metadata.NewRepository(db, logger)
	app.schema = app.metadata

	if cfg.RedisEnabled {
		app.redis = redis.NewClient(redis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		app.cache = schemacache.New(app.metadata, app.redis, logger, cfg.SchemaCacheTTL, cfg.SchemaCacheKeyspace)
		app.schema = app.cache
		checker.AddCheck("redis", app.redis.Ping)

		boot.AddDependency(&startup.Func{
			Name:      "redis",
			StartFunc: app.redis.Connect,
			StopFunc:  func(context.Context) error { return app.redis.Close() },
		})
	}

	if cfg.KafkaEnabled {
		producer, err := events.NewProducer(events.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaDocumentTopic,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeoutMs) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			MaxAttempts:  cfg.KafkaMaxAttempts,
			WriteTimeout: cfg.KafkaWriteTimeout,
			Compression:  cfg.KafkaCompression,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to create event producer: %w", err)
		}
		app.producer = producer

		boot.AddDependency(&startup.Func{
			Name:     "events",
			StopFunc: func(context.Context) error { return producer.Close() },
		})
	}

	if err := boot.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = boot.Stop(stopCtx)
	}()

	e, err := newServer(ctx, cfg, logger, app, checker)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Port),
		Handler:        e,
		ReadTimeout:    time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:   time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:    time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	checker.SetReady(true)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	checker.SetReady(false)
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newServer(ctx context.Context, cfg *config.Config, logger ectologger.Logger, app *application, checker *health.Checker) (*echo.Echo, error) {
	records := record.NewRepository(app.conn, logger)

	deps := docgen.Dependencies{
		Templates: template.NewRepository(records, logger),
		Versions:  documentversion.NewRepository(records, logger),
		Schema:    app.schema,
		Resolver: mergedata.NewResolver(logger, records, attribute.NewResolver(logger), mergedata.Config{
			RepeatSetConcurrency: cfg.RepeatSetConcurrency,
		}),
		FileNames: filename.NewEngine(logger, records),
		Merger: mergeservice.NewClient(mergeservice.Config{
			URL:            cfg.MergeServiceURL,
			Token:          cfg.MergeServiceToken,
			Timeout:        cfg.MergeServiceTimeout,
			MaxRequestSize: cfg.MergeServiceMaxBodySize,
		}, logger),
		Settings: settings.NewRepository(records, logger),
	}
	// a nil *Producer must not reach the interface
	if app.producer != nil {
		deps.Publisher = app.producer
	}

	service := docgen.NewService(logger, deps, docgen.Config{
		DefaultFileNameFormat: cfg.DefaultFileNameFormat,
	})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.AllowOrigins}))
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	checker.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	if cfg.AuthEnabled {
		verifier, err := middleware.NewOIDCVerifier(ctx, cfg.AuthIssuerURL, cfg.AuthClientID)
		if err != nil {
			return nil, fmt.Errorf("failed to create token verifier: %w", err)
		}
		api.Use(middleware.Authentication(logger, verifier))
	}

	handlers.NewDocumentHandler(service, logger).RegisterRoutes(api)

	var invalidator handlers.SchemaInvalidator
	if app.cache != nil {
		invalidator = app.cache
	}
	handlers.NewSchemaHandler(app.metadata, invalidator, logger).RegisterRoutes(api)

	return e, nil
}
