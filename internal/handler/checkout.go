package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/gerswin/2025v2POS-sub001/internal/service"
)

// CheckoutHandler ties the two claims of a purchase together at the end
// of checkout: the stage quota reservation and the inventory lock.
type CheckoutHandler struct {
	coordinator *service.Coordinator
	inventory   *service.InventoryService
}

// NewCheckoutHandler constructs a CheckoutHandler.
func NewCheckoutHandler(coordinator *service.Coordinator, inventory *service.InventoryService) *CheckoutHandler {
	return &CheckoutHandler{coordinator: coordinator, inventory: inventory}
}

// Complete handles POST /v1/checkout/complete.  The inventory lock is
// converted first: inventory is the scarcer claim and conversion
// re-validates that the lock is still active.  The reservation confirm
// that follows is idempotent, so a retry after a partial failure
// converges instead of double-counting.
func (h *CheckoutHandler) Complete(c echo.Context) error {
	var req struct {
		ReservationID string `json:"reservation_id"`
		LockID        string `json:"lock_id"`
	}
	if err := c.Bind(&req); err != nil || req.ReservationID == "" || req.LockID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": "reservation_id and lock_id required"})
	}
	ctx := c.Request().Context()
	sid := sessionID(c)

	lock, err := h.inventory.Convert(ctx, req.LockID, sid)
	if err != nil {
		return respondError(c, err)
	}
	amount := lock.PriceSnapshot.Mul(decimal.NewFromInt(int64(lock.Quantity)))
	res, err := h.coordinator.Confirm(ctx, req.ReservationID, amount)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reservation":  res,
		"lock":         lock,
		"final_amount": amount.StringFixed(2),
	})
}

// Abandon handles POST /v1/checkout/abandon.  Both claims are released;
// a claim that already expired or was released is simply skipped, since
// the customer's intent either way is "this purchase is over".
func (h *CheckoutHandler) Abandon(c echo.Context) error {
	var req struct {
		ReservationID string `json:"reservation_id"`
		LockID        string `json:"lock_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": "invalid body"})
	}
	ctx := c.Request().Context()
	sid := sessionID(c)

	if req.ReservationID != "" {
		if err := h.coordinator.Release(ctx, req.ReservationID); err != nil && !isIgnorableOnAbandon(err) {
			return respondError(c, err)
		}
	}
	if req.LockID != "" {
		if err := h.inventory.Release(ctx, req.LockID, sid); err != nil && !isIgnorableOnAbandon(err) {
			return respondError(c, err)
		}
	}
	return c.NoContent(http.StatusNoContent)
}

func isIgnorableOnAbandon(err error) bool {
	return errors.Is(err, service.ErrInvalidState)
}
