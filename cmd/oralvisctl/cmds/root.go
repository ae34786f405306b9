package cmds

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/oralvis/oralvis-api/internal/artifact"
	"github.com/oralvis/oralvis-api/internal/config"
	"github.com/oralvis/oralvis-api/internal/database"
	"github.com/oralvis/oralvis-api/internal/logger"
	otelsetup "github.com/oralvis/oralvis-api/internal/otel"
)

const name = "github.com/oralvis/oralvis-api/oralvisctl"

var tracer = otel.Tracer(name)

var rootCmd = &cobra.Command{
	Use:           "oralvisctl",
	Short:         "Operator tooling for the oral health submission service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.InitSlog()
	},
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// Shared state of commands that talk to the deployment's database and artifact store
type environment struct {
	config *config.Config
	db     *gorm.DB
	store  artifact.Store
	close  func()
}

func openEnvironment(ctx context.Context) (*environment, error) {
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.SetLevel(cfg.Logging.App.Level)

	shutdownOTel, err := otelsetup.SetupOTelSDK(ctx, otelsetup.Options{
		ServiceName: "oralvisctl",
		UseOTLP:     cfg.Logging.UseOTLP,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OTEL SDK: %w", err)
	}
	flush := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdownOTel(shutdownCtx); err != nil {
			logger.Logger.Error("failed to flush otel data", "error", err)
		}
	}

	db, err := database.Open(ctx, cfg)
	if err != nil {
		flush()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store, err := artifact.FromConfig(cfg.Storage)
	if err != nil {
		flush()
		return nil, fmt.Errorf("failed to construct artifact store: %w", err)
	}

	return &environment{
		config: cfg,
		db:     db,
		store:  store,
		close: func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
			flush()
		},
	}, nil
}
