package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/turf-slot-booking/internal/middleware"
	"github.com/iliyamo/turf-slot-booking/internal/model"
	"github.com/iliyamo/turf-slot-booking/internal/service"
)

// ListingPurger drops cached directory responses.
type ListingPurger interface {
	Purge(ctx context.Context) error
}

type nopPurger struct{}

func (nopPurger) Purge(context.Context) error { return nil }

// OwnerHandler serves owner onboarding and venue management.
type OwnerHandler struct {
	wf       *service.ApprovalWorkflow
	bookings *service.BookingEngine
	purger   ListingPurger
	log      *zap.Logger
}

func NewOwnerHandler(wf *service.ApprovalWorkflow, bookings *service.BookingEngine, purger ListingPurger, log *zap.Logger) *OwnerHandler {
	if purger == nil {
		purger = nopPurger{}
	}
	return &OwnerHandler{wf: wf, bookings: bookings, purger: purger, log: orNop(log)}
}

// Apply handles POST /v1/owner/apply.  The owner role is granted with
// the pending status; clients refresh their token to pick it up.
func (h *OwnerHandler) Apply(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	acc, err := h.wf.RequestOwnerRole(ctx, middleware.UserID(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusAccepted, acc)
}

// Status handles GET /v1/owner/status.
func (h *OwnerHandler) Status(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	acc, err := h.wf.OwnerStatus(ctx, middleware.UserID(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, acc)
}

// CreateVenue handles POST /v1/owner/venues.  The venue starts pending.
func (h *OwnerHandler) CreateVenue(c echo.Context) error {
	var in service.VenueInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.wf.SubmitVenue(ctx, middleware.UserID(c), in)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, v)
}

// Venues handles GET /v1/owner/venues.
func (h *OwnerHandler) Venues(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.wf.OwnerVenues(ctx, middleware.UserID(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

type availabilityReq struct {
	IsAvailable *bool `json:"isAvailable"`
}

// SetAvailability handles PATCH /v1/owner/venues/:id/availability.
// Admins may toggle any venue.
func (h *OwnerHandler) SetAvailability(c echo.Context) error {
	var req availabilityReq
	if err := c.Bind(&req); err != nil || req.IsAvailable == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "isAvailable required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.wf.SetAvailability(ctx, middleware.UserID(c), middleware.HasRole(c, model.RoleAdmin), c.Param("id"), *req.IsAvailable)
	if err != nil {
		return fail(c, h.log, err)
	}
	if err := h.purger.Purge(ctx); err != nil {
		h.log.Warn("purge listing cache", zap.Error(err))
	}
	return c.JSON(http.StatusOK, v)
}

// Bookings handles GET /v1/owner/bookings.
func (h *OwnerHandler) Bookings(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.bookings.ListForOwner(ctx, middleware.UserID(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
