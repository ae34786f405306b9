package lifecycle

import (
	"gorm.io/gorm"

	"github.com/oralvis/oralvis-api/internal/artifact"
	"github.com/oralvis/oralvis-api/internal/compositor"
	"github.com/oralvis/oralvis-api/internal/config"
	"github.com/oralvis/oralvis-api/internal/models"
	"github.com/oralvis/oralvis-api/internal/report"
)

// Builds the synthesizer a config asks for
func SynthesizerFromConfig(cfg *config.ReportConfig) *report.Synthesizer {
	return report.New(report.Options{
		Title:    cfg.Title,
		Subtitle: cfg.Subtitle,
		Clinic:   cfg.Clinic,
	})
}

// Controller backed by postgres through db. opts are applied after the configured limits.
func FromConfig(cfg *config.Config, db *gorm.DB, store artifact.Store, opts ...Option) *Controller {
	opts = append([]Option{WithLimits(Limits{
		MaxImages:     cfg.Limits.MaxImages,
		MaxImageBytes: cfg.Limits.MaxImageBytes,
	})}, opts...)

	return NewController(
		models.NewSubmissionRepository(db),
		store,
		compositor.New(),
		SynthesizerFromConfig(cfg.Report),
		opts...,
	)
}
