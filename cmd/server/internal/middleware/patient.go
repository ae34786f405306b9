package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/oralvis/oralvis-api/internal/patienttoken"
	"github.com/oralvis/oralvis-api/internal/types"
)

var errNoToken = errors.New("no patient token presented")

// Bearer header wins over the cookie
func (h *Handler) patientToken(c echo.Context) (string, error) {
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "bearer") && token != "" {
			return token, nil
		}
	}

	cookie, err := c.Cookie(h.CookieName)
	if err != nil || cookie.Value == "" {
		return "", errNoToken
	}
	return cookie.Value, nil
}

// Requires a valid patient token from the Authorization header or the session cookie
func (h *Handler) PatientJWT() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			_, span := tracer.Start(c.Request().Context(), "PatientJWT")
			defer span.End()

			raw, err := h.patientToken(c)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Ok, "no token")
				return echo.NewHTTPError(http.StatusUnauthorized, types.StringError("missing token"))
			}

			claims, err := patienttoken.Parse(h.JWTSecret, raw)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Ok, "invalid token")
				return echo.NewHTTPError(http.StatusUnauthorized, types.StringError("invalid token"))
			}

			span.SetAttributes(attribute.String("patient.subject", claims.Subject))
			c.Set(PatientKey, claims)

			span.RecordError(nil)
			span.SetStatus(codes.Ok, "authenticated patient")
			return next(c)
		}
	}
}

// Accepts reviewer basic auth when an Authorization: Basic header is present and a patient token otherwise
func (h *Handler) ReviewerOrPatient(reviewer echo.MiddlewareFunc) echo.MiddlewareFunc {
	patient := h.PatientJWT()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		asReviewer := reviewer(next)
		asPatient := patient(next)
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if scheme, _, _ := strings.Cut(header, " "); strings.EqualFold(scheme, "basic") {
				return asReviewer(c)
			}
			return asPatient(c)
		}
	}
}
