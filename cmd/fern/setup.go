package main

import (
	"fmt"
	"strings"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newLogger(cfg *config.Config) (ectologger.Logger, func(), error) {
	zapConfig := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zapConfig = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid LOG_LEVEL '%s': %w", cfg.LogLevel, err)
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	zapLogger, err := zapConfig.Build(zap.Fields(zap.String("app", cfg.AppName)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return zapadapter.NewZapEctoLogger(zapLogger, nil), func() { _ = zapLogger.Sync() }, nil
}

func openDatabase(cfg *config.Config) (*sqlx.DB, error) {
	conn, err := sqlx.Open(cfg.DatabaseDriver, cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.DatabaseDriver, err)
	}

	conn.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	conn.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	conn.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)
	return conn, nil
}

func migrateDatabase(cfg *config.Config, conn *sqlx.DB, logger ectologger.Logger) error {
	service := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})

	if strings.HasPrefix(cfg.DatabaseDriver, "sqlite") {
		driver, err := sqlite3.WithInstance(conn.DB, &sqlite3.Config{})
		if err != nil {
			return fmt.Errorf("failed to create sqlite migration driver: %w", err)
		}
		return service.Migrate(cfg.DatabaseName, driver)
	}

	driver, err := postgres.WithInstance(conn.DB, &postgres.Config{DatabaseName: cfg.DatabaseName})
	if err != nil {
		return fmt.Errorf("failed to create postgres migration driver: %w", err)
	}
	return service.Migrate(cfg.DatabaseName, driver)
}

func loadConfig() (*config.Config, error) {
	return config.Load(envFile)
}
