package main

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	_ "github.com/oralvis/oralvis-api/cmd/server/docs"
	servermiddleware "github.com/oralvis/oralvis-api/cmd/server/internal/middleware"
	"github.com/oralvis/oralvis-api/cmd/server/internal/routes"
	routesv1 "github.com/oralvis/oralvis-api/cmd/server/internal/routes/v1"
	"github.com/oralvis/oralvis-api/internal/artifact"
	"github.com/oralvis/oralvis-api/internal/config"
	"github.com/oralvis/oralvis-api/internal/lifecycle"
	"github.com/oralvis/oralvis-api/internal/logger"
)

func buildRouter(
	cfg *config.Config,
	db *gorm.DB,
	store artifact.Store,
	opts ...lifecycle.Option,
) (*echo.Echo, error) {
	e, err := routes.BuildEcho(logger.Logger)
	if err != nil {
		return nil, err
	}

	middlewareHandler := servermiddleware.Handler{
		DB:         db,
		JWTSecret:  []byte(cfg.Auth.JWTSecret),
		CookieName: cfg.Auth.CookieName,
	}
	v1Handler := routesv1.NewHandler(lifecycle.FromConfig(cfg, db, store, opts...), store, cfg)
	v1Handler.AddRoutes(e, &middlewareHandler)

	return e, nil
}
