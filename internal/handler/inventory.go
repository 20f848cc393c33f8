package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gerswin/2025v2POS-sub001/internal/service"
)

// InventoryHandler exposes the inventory lock lifecycle.
type InventoryHandler struct {
	inventory *service.InventoryService
}

// NewInventoryHandler constructs an InventoryHandler.
func NewInventoryHandler(inventory *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventory: inventory}
}

// Create handles POST /v1/locks.  Numbered zones take seat_id; general
// admission takes quantity.  ttl_seconds is optional and capped
// server-side.
func (h *InventoryHandler) Create(c echo.Context) error {
	var req struct {
		ZoneID     uint64  `json:"zone_id"`
		SeatID     *uint64 `json:"seat_id"`
		Quantity   int     `json:"quantity"`
		TTLSeconds int     `json:"ttl_seconds"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": "invalid body"})
	}
	lock, err := h.inventory.Lock(c.Request().Context(), service.LockRequest{
		SessionID: sessionID(c),
		ZoneID:    req.ZoneID,
		SeatID:    req.SeatID,
		Quantity:  req.Quantity,
		TTL:       time.Duration(req.TTLSeconds) * time.Second,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, lock)
}

// Get handles GET /v1/locks/:id.
func (h *InventoryHandler) Get(c echo.Context) error {
	lock, err := h.inventory.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, lock)
}

// Extend handles POST /v1/locks/:id/extend.
func (h *InventoryHandler) Extend(c echo.Context) error {
	var req struct {
		TTLSeconds int `json:"ttl_seconds"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": "invalid body"})
	}
	lock, err := h.inventory.Extend(c.Request().Context(), c.Param("id"), sessionID(c),
		time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, lock)
}

// Release handles POST /v1/locks/:id/release.
func (h *InventoryHandler) Release(c echo.Context) error {
	if err := h.inventory.Release(c.Request().Context(), c.Param("id"), sessionID(c)); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
