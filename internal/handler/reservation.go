package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/gerswin/2025v2POS-sub001/internal/service"
)

// ReservationHandler exposes the quota reservation lifecycle.
type ReservationHandler struct {
	coordinator *service.Coordinator
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(coordinator *service.Coordinator) *ReservationHandler {
	return &ReservationHandler{coordinator: coordinator}
}

// Create handles POST /v1/reservations.  The quantity is validated
// against the stage quota and held for the session until confirmed,
// released or expired.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req struct {
		StageID  uint64 `json:"stage_id"`
		Quantity int64  `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": "invalid body"})
	}
	res, err := h.coordinator.Reserve(c.Request().Context(), req.StageID, sessionID(c), req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	res, err := h.coordinator.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Confirm handles POST /v1/reservations/:id/confirm.  The amount is the
// final sale total folded into the revenue ledger; confirming twice is
// an idempotent no-op.
func (h *ReservationHandler) Confirm(c echo.Context) error {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": "invalid body"})
	}
	res, err := h.coordinator.Confirm(c.Request().Context(), c.Param("id"), req.Amount)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Release handles POST /v1/reservations/:id/release.
func (h *ReservationHandler) Release(c echo.Context) error {
	if err := h.coordinator.Release(c.Request().Context(), c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
