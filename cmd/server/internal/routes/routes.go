package routes

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	servermiddleware "github.com/oralvis/oralvis-api/cmd/server/internal/middleware"
	"github.com/oralvis/oralvis-api/internal/validator"
)

// Paths served verbatim: artifact references are file names and the docs UI
// serves its own assets.
func keepsTrailingSlash(c echo.Context) bool {
	p := c.Request().URL.Path
	return strings.HasPrefix(p, "/uploads/") || strings.HasPrefix(p, "/swagger/")
}

// BuildEcho returns an echo instance with the shared middleware stack, the
// health probe and the API docs. Versioned routes are added by the caller.
func BuildEcho(logger *slog.Logger) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	v := validator.Create()
	e.Validator = &v

	e.Pre(middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		Skipper: keepsTrailingSlash,
	}))

	e.Use(
		middleware.RequestID(),
		otelecho.Middleware("oralvis-api"),
		slogecho.NewWithConfig(logger, slogecho.Config{
			DefaultLevel:     slog.LevelInfo,
			ClientErrorLevel: slog.LevelWarn,
			ServerErrorLevel: slog.LevelError,
			WithRequestID:    true,
			WithSpanID:       true,
			WithTraceID:      true,
			Filters:          []slogecho.Filter{slogecho.IgnorePath("/health/")},
		}),
		middleware.Recover(),
		// responses carry medical images and reports
		middleware.SecureWithConfig(middleware.SecureConfig{
			ContentTypeNosniff: "nosniff",
			XFrameOptions:      "DENY",
			ReferrerPolicy:     "no-referrer",
		}),
		servermiddleware.Stamp(nil),
	)

	e.GET("/health/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e, nil
}
