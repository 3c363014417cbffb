package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/turf-slot-booking/internal/model"
	"github.com/iliyamo/turf-slot-booking/internal/service"
)

// VenueHandler serves the public directory and slot availability.
// Nothing here requires authentication.
type VenueHandler struct {
	dir *service.Directory
	inv *service.Inventory
	log *zap.Logger
}

func NewVenueHandler(dir *service.Directory, inv *service.Inventory, log *zap.Logger) *VenueHandler {
	return &VenueHandler{dir: dir, inv: inv, log: orNop(log)}
}

// List handles GET /v1/venues?city=&sport=&q=&page=&page_size=.
func (h *VenueHandler) List(c echo.Context) error {
	f := model.VenueFilter{
		City:  strings.TrimSpace(c.QueryParam("city")),
		Sport: strings.TrimSpace(c.QueryParam("sport")),
		Query: strings.TrimSpace(c.QueryParam("q")),
	}
	var err error
	if f.Page, err = intParam(c, "page"); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid page"})
	}
	if f.PageSize, err = intParam(c, "page_size"); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid page_size"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := h.dir.List(ctx, f)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, page)
}

// Get handles GET /v1/venues/:id.  Unapproved venues are not found.
func (h *VenueHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.dir.Get(ctx, c.Param("id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Slots handles GET /v1/venues/:id/slots/:date.  A day without
// generated inventory yields an empty list.
func (h *VenueHandler) Slots(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	slots, err := h.inv.SlotsFor(ctx, c.Param("id"), c.Param("date"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, slots)
}

// Cities handles GET /v1/cities.
func (h *VenueHandler) Cities(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	cities, err := h.dir.Cities(ctx)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": cities})
}

// intParam parses an optional integer query parameter; absent is 0.
func intParam(c echo.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
