package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/turf-slot-booking/internal/service"
)

// AdminHandler serves the review queues and the approval transitions.
type AdminHandler struct {
	wf       *service.ApprovalWorkflow
	bookings *service.BookingEngine
	dir      *service.Directory
	purger   ListingPurger
	log      *zap.Logger
}

func NewAdminHandler(wf *service.ApprovalWorkflow, bookings *service.BookingEngine, dir *service.Directory, purger ListingPurger, log *zap.Logger) *AdminHandler {
	if purger == nil {
		purger = nopPurger{}
	}
	return &AdminHandler{wf: wf, bookings: bookings, dir: dir, purger: purger, log: orNop(log)}
}

func (h *AdminHandler) PendingOwners(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.wf.PendingOwners(ctx)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

func (h *AdminHandler) PendingVenues(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.wf.PendingVenues(ctx)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Bookings handles GET /v1/admin/bookings?limit=.
func (h *AdminHandler) Bookings(c echo.Context) error {
	limit, err := intParam(c, "limit")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.bookings.ListAll(ctx, limit)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// ApproveVenue handles PATCH /v1/admin/venues/:id/approve.  The response
// reports how much inventory the approval generated.
func (h *AdminHandler) ApproveVenue(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, res, err := h.wf.ApproveVenue(ctx, c.Param("id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	h.purge(c)
	return c.JSON(http.StatusOK, echo.Map{"venue": v, "inventory": res})
}

func (h *AdminHandler) RejectVenue(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.wf.RejectVenue(ctx, c.Param("id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	h.purge(c)
	return c.JSON(http.StatusOK, echo.Map{"venue": v})
}

func (h *AdminHandler) ApproveOwner(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	acc, err := h.wf.ApproveOwner(ctx, c.Param("id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, acc)
}

func (h *AdminHandler) RejectOwner(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	acc, err := h.wf.RejectOwner(ctx, c.Param("id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, acc)
}

type cityReq struct {
	Name string `json:"name"`
}

// AddCity handles POST /v1/admin/cities.
func (h *AdminHandler) AddCity(c echo.Context) error {
	var req cityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.dir.AddCity(ctx, req.Name); err != nil {
		return fail(c, h.log, err)
	}
	return c.NoContent(http.StatusCreated)
}

// DeleteCity handles DELETE /v1/admin/cities/:name.
func (h *AdminHandler) DeleteCity(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.dir.DeleteCity(ctx, c.Param("name")); err != nil {
		return fail(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) purge(c echo.Context) {
	if err := h.purger.Purge(c.Request().Context()); err != nil {
		h.log.Warn("purge listing cache", zap.Error(err))
	}
}
