// Package handler translates HTTP requests into booking service calls.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/vehicle-reservation/internal/booking"
	"github.com/iliyamo/vehicle-reservation/internal/middleware"
	"github.com/iliyamo/vehicle-reservation/internal/repository"
)

// fail writes the JSON error response for err.  Core errors keep their
// message; anything unrecognized is logged and reported as a generic 500
// so driver details never reach the client.
func fail(c echo.Context, log *logrus.Entry, err error) error {
	var (
		verr *booking.ValidationError
		cerr *booking.ConflictError
		aerr *booking.AuthorizationError
		nerr *booking.NotFoundError
	)
	switch {
	case errors.As(err, &verr):
		body := echo.Map{"error": verr.Error()}
		if verr.Field != "" {
			body["field"] = verr.Field
		}
		return c.JSON(http.StatusBadRequest, body)
	case errors.As(err, &cerr):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "resource conflict",
			"conflicts": conflictViews(cerr.Conflicts),
		})
	case errors.As(err, &aerr):
		return c.JSON(http.StatusForbidden, echo.Map{"error": aerr.Error()})
	case errors.As(err, &nerr):
		return c.JSON(http.StatusNotFound, echo.Map{"error": nerr.Error()})
	case errors.Is(err, repository.ErrDuplicate):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already exists"})
	}
	middleware.LoggerFrom(c, log).WithError(err).Error("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
