// Package database opens the postgres connection shared by the server and the CLI.
package database

import (
	"context"
	"fmt"
	"log/slog"

	sloggorm "github.com/orandin/slog-gorm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	gormtracing "gorm.io/plugin/opentelemetry/tracing"

	"github.com/oralvis/oralvis-api/internal/config"
	"github.com/oralvis/oralvis-api/internal/logger"
	"github.com/oralvis/oralvis-api/internal/migrations"
)

var tracer = otel.Tracer("github.com/oralvis/oralvis-api/internal/database")

func queryLogger(cfg *config.GormLogConfig) gormlogger.Interface {
	opts := []sloggorm.Option{
		sloggorm.WithHandler(logger.Handler),
		sloggorm.SetLogLevel(sloggorm.DefaultLogType, slog.Level(cfg.Level)),
	}
	if cfg.TraceQueries {
		opts = append(opts, sloggorm.WithTraceAll())
	}
	return sloggorm.New(opts...)
}

// Open connects with query logging and tracing, sizes the pool and migrates
// the schema to the latest version.
func Open(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	ctx, span := tracer.Start(ctx, "Open")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.host", cfg.Postgres.Host),
		attribute.String("db.name", cfg.Postgres.Database),
	)

	fail := func(step string, err error) (*gorm.DB, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, step)
		return nil, fmt.Errorf("%s: %w", step, err)
	}

	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN()), &gorm.Config{
		Logger:         queryLogger(&cfg.Logging.Gorm),
		TranslateError: true,
	})
	if err != nil {
		return fail("connecting to postgres", err)
	}

	pool, err := db.DB()
	if err != nil {
		return fail("reaching the connection pool", err)
	}
	pool.SetMaxIdleConns(cfg.Postgres.MaxIdleConnections)
	pool.SetMaxOpenConns(cfg.Postgres.MaxOpenConnections)
	pool.SetConnMaxLifetime(cfg.Postgres.ConnectionTTL)

	if err := db.Use(gormtracing.NewPlugin()); err != nil {
		return fail("installing the tracing plugin", err)
	}

	if err := migrations.Up(ctx, db); err != nil {
		return fail("migrating", err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "opened database")
	return db, nil
}
