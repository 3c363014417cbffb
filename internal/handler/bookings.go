package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/turf-slot-booking/internal/middleware"
	"github.com/iliyamo/turf-slot-booking/internal/service"
	"github.com/iliyamo/turf-slot-booking/internal/ticket"
)

// BookingHandler serves reservation creation and check-in lookups.
type BookingHandler struct {
	engine *service.BookingEngine
	log    *zap.Logger
}

func NewBookingHandler(engine *service.BookingEngine, log *zap.Logger) *BookingHandler {
	return &BookingHandler{engine: engine, log: orNop(log)}
}

// Create handles POST /v1/bookings.  Guests may book; a bearer token,
// when present, attaches the booking to that user.
func (h *BookingHandler) Create(c echo.Context) error {
	var req service.BookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.UserID = middleware.UserID(c)

	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.engine.CreateBooking(ctx, req)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// Verify handles GET /v1/bookings/verify/:code.
func (h *BookingHandler) Verify(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.engine.Verify(ctx, c.Param("code"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// QR handles GET /v1/bookings/verify/:code/qr and returns a PNG.
func (h *BookingHandler) QR(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.engine.Verify(ctx, c.Param("code"))
	if err != nil {
		return fail(c, h.log, err)
	}
	png, err := ticket.QRPNG(b.BookingCode, ticket.DefaultQRSize)
	if err != nil {
		h.log.Error("render qr", zap.String("code", b.BookingCode), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "render failed"})
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

// Receipt handles GET /v1/bookings/verify/:code/receipt and returns a PDF.
func (h *BookingHandler) Receipt(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.engine.Verify(ctx, c.Param("code"))
	if err != nil {
		return fail(c, h.log, err)
	}
	pdf, err := ticket.ReceiptPDF(b)
	if err != nil {
		h.log.Error("render receipt", zap.String("code", b.BookingCode), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "render failed"})
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", b.BookingCode+".pdf"))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

// Mine handles GET /v1/bookings/mine.
func (h *BookingHandler) Mine(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.engine.ListMine(ctx, middleware.UserID(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
