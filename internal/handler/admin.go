package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/gerswin/2025v2POS-sub001/internal/service"
)

// AdminHandler exposes operator-facing operations: manual stage
// transitions, on-demand transition processing, the transition log and
// sold-counter corrections.
type AdminHandler struct {
	engine  *service.TransitionEngine
	tracker *service.QuantityTracker
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(engine *service.TransitionEngine, tracker *service.QuantityTracker) *AdminHandler {
	return &AdminHandler{engine: engine, tracker: tracker}
}

// TransitionStage handles POST /v1/admin/stages/:id/transition, ending a
// stage immediately regardless of its window or quota.
func (h *AdminHandler) TransitionStage(c echo.Context) error {
	stageID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": "invalid stage id"})
	}
	if err := h.engine.Manual(c.Request().Context(), stageID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ProcessTransitions handles POST /v1/admin/events/:id/transitions/process,
// evaluating the event's auto-transition stages on demand rather than
// waiting for the periodic monitor.  An optional zone_id query narrows
// the scan to one scope.
func (h *AdminHandler) ProcessTransitions(c echo.Context) error {
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": "invalid event id"})
	}
	var zoneID *uint64
	if raw := c.QueryParam("zone_id"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": "invalid zone id"})
		}
		zoneID = &v
	}
	n, err := h.engine.ProcessPending(c.Request().Context(), eventID, zoneID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"transitioned": n})
}

// Transitions handles GET /v1/events/:id/transitions, returning the
// transition log newest first.
func (h *AdminHandler) Transitions(c echo.Context) error {
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": "invalid event id"})
	}
	log, err := h.engine.History(c.Request().Context(), eventID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"transitions": log})
}

// CorrectSold handles POST /v1/admin/stages/:id/sold-correction, the
// administrative escape hatch for reconciling the sold counter after
// refunds or data incidents.
func (h *AdminHandler) CorrectSold(c echo.Context) error {
	stageID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": "invalid stage id"})
	}
	var req struct {
		Sold int64 `json:"sold"`
	}
	if err := c.Bind(&req); err != nil || req.Sold < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": "sold must be a non-negative integer"})
	}
	if err := h.tracker.Correct(c.Request().Context(), stageID, req.Sold); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
