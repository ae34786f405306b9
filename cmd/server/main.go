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

	"github.com/labstack/echo/v4"
	otellib "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/oralvis/oralvis-api/internal/artifact"
	"github.com/oralvis/oralvis-api/internal/config"
	"github.com/oralvis/oralvis-api/internal/database"
	"github.com/oralvis/oralvis-api/internal/logger"
	"github.com/oralvis/oralvis-api/internal/models"
	"github.com/oralvis/oralvis-api/internal/otel"
)

var tracer = otellib.Tracer("github.com/oralvis/oralvis-api/server")

// Builds the router against the configured database and artifact store.
func wire(ctx context.Context, cfg *config.Config) (*echo.Echo, error) {
	ctx, span := tracer.Start(ctx, "wire")
	defer span.End()

	fail := func(msg string, err error) (*echo.Echo, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, msg)
		return nil, fmt.Errorf("%s: %w", msg, err)
	}

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return fail("failed to open database", err)
	}

	if err := models.LoadReviewersFromConfig(ctx, db, cfg.Auth.Reviewers); err != nil {
		return fail("failed to load reviewers from config", err)
	}
	span.AddEvent("loaded reviewers")

	if err := artifact.Provision(ctx, cfg.Storage); err != nil {
		return fail("failed to provision storage", err)
	}

	store, err := artifact.FromConfig(cfg.Storage)
	if err != nil {
		return fail("failed to construct artifact store", err)
	}

	storeID, err := store.StoreIdentifier(ctx)
	if err != nil {
		return fail("failed to identify artifact store", err)
	}
	logger.Logger.InfoContext(ctx, "artifact store ready", "store", storeID)

	e, err := buildRouter(cfg, db, store)
	if err != nil {
		return fail("failed to build router", err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "wired server")
	return e, nil
}

// Serves until ctx is cancelled, then drains requests and flushes telemetry
// within the configured grace period.
func run(ctx context.Context) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.SetLevel(cfg.Logging.App.Level)
	grace := time.Duration(cfg.GracefulShutdownSecs) * time.Second

	shutdownOTel, err := otel.SetupOTelSDK(ctx, otel.Options{
		ServiceName: "oralvis-api",
		UseOTLP:     cfg.Logging.UseOTLP,
	})
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		if err := shutdownOTel(flushCtx); err != nil {
			logger.Logger.Error("failed to flush otel data", "error", err)
		}
	}()
	if err != nil {
		return fmt.Errorf("failed to initialize OTEL SDK: %w", err)
	}

	e, err := wire(ctx, cfg)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Logger.Info("listening", "address", cfg.ListenAddress)
		if err := e.Start(cfg.ListenAddress); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Logger.Info("shutting down")
		drainCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		return e.Shutdown(drainCtx)
	})

	return g.Wait()
}

//go:generate swag init --parseDependency --output docs

//	@title						Oralvis API
//	@version					1.0.0
//	@securityDefinitions.basic	BasicAuth
//	@securityDefinitions.apikey	PatientJWT
//	@in							header
//	@name						Authorization
func main() {
	logger.InitSlog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	err := run(ctx)
	stop()

	if err != nil {
		logger.Logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}
