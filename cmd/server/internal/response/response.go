package response

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/oralvis/oralvis-api/internal/lifecycle"
	"github.com/oralvis/oralvis-api/internal/types"
)

var (
	InternalServerError = echo.NewHTTPError(
		http.StatusInternalServerError,
		types.StringError("something went wrong"),
	)
	NotFoundError = echo.NewHTTPError(http.StatusNotFound, types.StringError("not found"))
)

// Renders lifecycle failures with their status and message. Anything else is an opaque 500.
func FromLifecycle(err error) *echo.HTTPError {
	var lerr *lifecycle.Error
	if !errors.As(err, &lerr) {
		return InternalServerError
	}

	body := types.Error{Message: lerr.Message}
	if len(lerr.Fields) != 0 {
		fields := lerr.Fields
		body.Fields = &fields
	}
	return echo.NewHTTPError(lerr.Kind.HTTPStatus(), body)
}
