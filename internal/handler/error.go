// Package handler contains the HTTP handlers exposing the pricing and
// reservation engine.  Handlers bind requests, delegate to the service
// layer and translate the error taxonomy into status codes; no business
// rules live here.
package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gerswin/2025v2POS-sub001/internal/repository"
	"github.com/gerswin/2025v2POS-sub001/internal/service"
)

// respondError maps service and repository errors onto HTTP responses.
// Business rejections carry enough payload for the client to act:
// quota/capacity conflicts include the remaining count, transient lock
// contention includes a retry hint.
func respondError(c echo.Context, err error) error {
	var quotaErr *service.QuotaExceededError
	if errors.As(err, &quotaErr) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "quota_exceeded",
			"message":   quotaErr.Error(),
			"remaining": quotaErr.Remaining,
		})
	}
	var capErr *service.CapacityError
	if errors.As(err, &capErr) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "capacity_exceeded",
			"message":   capErr.Error(),
			"remaining": capErr.Remaining,
		})
	}

	switch {
	case errors.Is(err, service.ErrRetryLater):
		c.Response().Header().Set("Retry-After", "1")
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"error":   "retry_later",
			"message": "resource busy, retry shortly",
		})
	case errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrStageNotCurrent),
		errors.Is(err, service.ErrSeatUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict", "message": err.Error()})
	case errors.Is(err, service.ErrNotLockOwner):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": err.Error()})
	case errors.Is(err, service.ErrSeatRequired),
		errors.Is(err, service.ErrSeatNotInZone),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrSessionRequired):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": err.Error()})
	case errors.Is(err, repository.ErrStageNotFound),
		errors.Is(err, repository.ErrZoneNotFound),
		errors.Is(err, repository.ErrEventNotFound),
		errors.Is(err, repository.ErrSeatNotFound),
		errors.Is(err, repository.ErrLockNotFound),
		errors.Is(err, repository.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": err.Error()})
	}

	log.Printf("internal error on %s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal_error"})
}

// sessionID pulls the verified checkout session from the request
// context.  Routes using it are always behind the session middleware.
func sessionID(c echo.Context) string {
	if v, ok := c.Get("session_id").(string); ok {
		return v
	}
	return ""
}
