package v1

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	servermiddleware "github.com/oralvis/oralvis-api/cmd/server/internal/middleware"
	"github.com/oralvis/oralvis-api/cmd/server/internal/ratelimit"
	"github.com/oralvis/oralvis-api/cmd/server/internal/srverr"
	"github.com/oralvis/oralvis-api/internal/artifact"
	"github.com/oralvis/oralvis-api/internal/config"
	"github.com/oralvis/oralvis-api/internal/lifecycle"
	"github.com/oralvis/oralvis-api/internal/logger"
	"github.com/oralvis/oralvis-api/internal/patienttoken"
)

const name = "github.com/oralvis/oralvis-api/server/routes/v1"

var tracer = otel.Tracer(name)

const (
	// multipart framing and text fields on top of the photographs
	formOverhead = 1 << 20
)

type Handler struct {
	controller *lifecycle.Controller
	store      artifact.Store
	config     *config.Config
}

func NewHandler(controller *lifecycle.Controller, store artifact.Store, cfg *config.Config) Handler {
	return Handler{controller: controller, store: store, config: cfg}
}

// Download location of an artifact reference
func ArtifactURL(ref string) string {
	return "/uploads/" + ref
}

func NewRedisLimiter(
	redisHost string,
	limiterKey string,
	perMinute int64,
	failOpen bool,
) middleware.RateLimiterConfig {
	redisAddr := redisHost + ":6379"
	logger.Logger.Debug("Setting up rate limiter with Redis", "redis", redisAddr)
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	return middleware.RateLimiterConfig{
		Store: ratelimit.NewRedisLimitStore(ratelimit.RedisLimiterConfig{
			PerMinute:   perMinute,
			RedisClient: rdb,
			LimiterKey:  limiterKey,
			FailOpen:    failOpen,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			patient, ok := c.Get(servermiddleware.PatientKey).(*patienttoken.Claims)
			if !ok {
				return "", srverr.ErrTypeAssertMismatch
			}
			return patient.Email, nil
		},
		ErrorHandler: func(context echo.Context, _ error) error {
			return context.JSON(http.StatusForbidden, nil)
		},
		DenyHandler: func(context echo.Context, _ string, _ error) error {
			return context.JSON(http.StatusTooManyRequests, nil)
		},
	}
}

// echo size string rounded up to whole kilobytes
func kilobytes(n int64) string {
	return fmt.Sprintf("%dK", n/1024+1)
}

func (h *Handler) AddRoutes(e *echo.Echo, middlewareHandler *servermiddleware.Handler) {
	l := logger.Logger
	reviewerAuth := middleware.BasicAuth(middlewareHandler.BasicAuthValidator)
	limits := h.config.Limits

	v1Group := e.Group("/v1")

	patientGroup := v1Group.Group("/submissions", middlewareHandler.PatientJWT())
	createMiddleware := []echo.MiddlewareFunc{
		middleware.BodyLimit(kilobytes(int64(limits.MaxImages)*limits.MaxImageBytes + formOverhead)),
	}
	if h.config.RateLimit != nil && h.config.RateLimit.SubmitPerMinute > 0 {
		createMiddleware = append(createMiddleware, middleware.RateLimiterWithConfig(
			NewRedisLimiter(
				h.config.RateLimit.RedisHost,
				"submit",
				h.config.RateLimit.SubmitPerMinute,
				h.config.RateLimit.FailOpen,
			),
		))
	} else {
		l.Warn("not configured to have a submit rate limit")
	}
	patientGroup.POST("/", h.CreateSubmission, createMiddleware...)
	patientGroup.GET("/mine/", h.ListMine)

	adminGroup := v1Group.Group("/admin", reviewerAuth)
	adminGroup.GET("/submissions/", h.ListSubmissions)
	adminGroup.POST("/reconcile/", h.Reconcile)

	submissionGroup := adminGroup.Group(
		"/submissions/:submission_id",
		middlewareHandler.LoadSubmission("submission_id"),
	)
	submissionGroup.GET("/", h.GetSubmission)
	submissionGroup.POST(
		"/annotate/",
		h.Annotate,
		middleware.BodyLimit(kilobytes(int64(limits.MaxOverlayBytes)*4/3+formOverhead)),
	)
	submissionGroup.POST("/report/", h.Report)
	submissionGroup.GET("/report/", h.Report)

	e.GET("/uploads/*", h.Download, middlewareHandler.ReviewerOrPatient(reviewerAuth))
}
