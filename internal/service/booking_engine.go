package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/iliyamo/turf-slot-booking/internal/apperr"
	"github.com/iliyamo/turf-slot-booking/internal/model"
	"github.com/iliyamo/turf-slot-booking/internal/queue"
	"github.com/iliyamo/turf-slot-booking/internal/slotgrid"
	"github.com/iliyamo/turf-slot-booking/internal/store"
)

// maxCodeAttempts bounds booking code regeneration on a unique-key clash.
const maxCodeAttempts = 3

// BookingRequest is the body of POST /v1/bookings.  TotalAmount and
// BalanceAmount are accepted for compatibility but recomputed.
type BookingRequest struct {
	VenueID       string `json:"venueId"`
	Date          string `json:"date"`
	StartTime     string `json:"startTime"`
	Duration      int    `json:"duration"`
	TotalAmount   int    `json:"totalAmount"`
	PaidAmount    int    `json:"paidAmount"`
	BalanceAmount int    `json:"balanceAmount"`
	PaymentMethod string `json:"paymentMethod"`

	// UserID is taken from the bearer token, never from the body.
	UserID string `json:"-"`
}

// BookingEngine turns reservation requests into bookings.  The check of
// the covered slots and their flip to booked happen in one store unit
// of work, so concurrent requests for overlapping hours of the same
// venue day cannot both succeed.
type BookingEngine struct {
	venues    store.VenueStore
	bookings  store.BookingStore
	inventory *Inventory
	events    EventPublisher
	cache     SlotCache
	log       *zap.Logger
	codes     *codeSource
}

// NewBookingEngine wires a BookingEngine.  events and cache may be nil.
func NewBookingEngine(venues store.VenueStore, bookings store.BookingStore, inv *Inventory, events EventPublisher, cache SlotCache, log *zap.Logger) *BookingEngine {
	if events == nil {
		events = queue.NopPublisher{}
	}
	if cache == nil {
		cache = noCache{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingEngine{
		venues:    venues,
		bookings:  bookings,
		inventory: inv,
		events:    events,
		cache:     cache,
		log:       log,
		codes:     newCodeSource(nil),
	}
}

// span is the validated hour range of a request.
type span struct {
	startHour int
	hours     int
	remainder int // minutes billed on the last hour, 0 when it is full
}

func (e *BookingEngine) validate(req *BookingRequest) (span, error) {
	req.VenueID = strings.TrimSpace(req.VenueID)
	req.PaymentMethod = strings.TrimSpace(req.PaymentMethod)
	if req.VenueID == "" {
		return span{}, apperr.Validation("venueId", "is required")
	}
	if !slotgrid.ValidDate(req.Date) {
		return span{}, apperr.Validation("date", "must be a calendar date in YYYY-MM-DD form")
	}
	if req.Date < e.inventory.Today() {
		return span{}, apperr.Validation("date", "%s is in the past", req.Date)
	}
	h, ok := parseHour(req.StartTime)
	if !ok {
		return span{}, apperr.Validation("startTime", "must be a full hour such as 14:00")
	}
	switch req.Duration {
	case 60, 90, 120:
	default:
		return span{}, apperr.Validation("duration", "must be 60, 90 or 120 minutes")
	}
	if req.PaidAmount < 0 {
		return span{}, apperr.Validation("paidAmount", "must not be negative")
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = "cash"
	}
	return span{
		startHour: h,
		hours:     (req.Duration + 59) / 60,
		remainder: req.Duration % 60,
	}, nil
}

// parseHour accepts "HH:00" with HH in 00..23.
func parseHour(s string) (int, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil || t.Minute() != 0 || len(s) != 5 {
		return 0, false
	}
	return t.Hour(), true
}

// cover picks the slots of sp out of the day's inventory, checks that
// none is booked and returns them with the prorated total.
func cover(day []model.Slot, sp span) ([]model.Slot, int, error) {
	byHour := make(map[int]model.Slot, len(day))
	for _, s := range day {
		byHour[s.StartHour()] = s
	}
	picked := make([]model.Slot, 0, sp.hours)
	total := 0
	for i := 0; i < sp.hours; i++ {
		h := sp.startHour + i
		s, ok := byHour[h]
		if !ok {
			return nil, 0, apperr.Validation("startTime", "no bookable slot at %s", slotgrid.HourLabel(h))
		}
		if s.IsBooked {
			return nil, 0, apperr.SlotConflict(s.StartTime)
		}
		if i == sp.hours-1 && sp.remainder > 0 {
			total += (s.Price*sp.remainder + 30) / 60
		} else {
			total += s.Price
		}
		picked = append(picked, s)
	}
	return picked, total, nil
}

func endTime(startHour, minutes int) string {
	end := startHour*60 + minutes
	return fmt.Sprintf("%02d:%02d", end/60, end%60)
}

// CreateBooking reserves the hours covered by req.  It returns a
// ValidationError for malformed requests or missing inventory, a
// ConflictError naming the first booked start time, a NotFoundError for
// an unknown venue and a StorageError for everything else.  On any
// error no slot changes state.
func (e *BookingEngine) CreateBooking(ctx context.Context, req BookingRequest) (*model.Booking, error) {
	ctx, sp := tracer.Start(ctx, "booking.create")
	defer sp.End()

	b, err := e.createBooking(ctx, req)
	if err != nil {
		sp.RecordError(err)
		sp.SetStatus(codes.Error, apperr.PublicMessage(err))
		return nil, err
	}
	sp.SetAttributes(
		attribute.String("booking.code", b.BookingCode),
		attribute.String("venue.id", b.VenueID),
		attribute.Int("booking.slots", len(b.SlotIDs)),
	)
	return b, nil
}

func (e *BookingEngine) createBooking(ctx context.Context, req BookingRequest) (*model.Booking, error) {
	rng, err := e.validate(&req)
	if err != nil {
		return nil, err
	}
	venue, err := e.venues.GetByID(ctx, req.VenueID)
	if err != nil {
		return nil, classify("get venue", "venue", req.VenueID, err)
	}
	if !venue.Bookable() {
		return nil, apperr.Validation("venueId", "venue %s is not open for booking", venue.ID)
	}

	var booking *model.Booking
	err = e.bookings.InBookingTx(ctx, venue.ID, req.Date, func(tx store.BookingTx) error {
		day, err := tx.LockSlots(ctx)
		if err != nil {
			return apperr.Storage("lock slots", err)
		}
		picked, total, err := cover(day, rng)
		if err != nil {
			return err
		}
		if req.PaidAmount > total {
			return apperr.Validation("paidAmount", "must not exceed the total of %d", total)
		}
		if req.TotalAmount != 0 && req.TotalAmount != total {
			e.log.Warn("client total ignored",
				zap.String("venue_id", venue.ID), zap.Int("client_total", req.TotalAmount), zap.Int("total", total))
		}

		ids := make([]string, len(picked))
		for i, s := range picked {
			ids[i] = s.ID
		}
		if err := tx.MarkBooked(ctx, ids); err != nil {
			return apperr.Storage("mark booked", err)
		}

		b := &model.Booking{
			ID:            uuid.NewString(),
			VenueID:       venue.ID,
			VenueName:     venue.Name,
			VenueAddress:  venue.Address,
			Date:          req.Date,
			StartTime:     picked[0].StartTime,
			EndTime:       endTime(rng.startHour, req.Duration),
			Duration:      req.Duration,
			TotalAmount:   total,
			PaidAmount:    req.PaidAmount,
			BalanceAmount: total - req.PaidAmount,
			PaymentMethod: req.PaymentMethod,
			Status:        model.BookingConfirmed,
			SlotIDs:       ids,
			CreatedAt:     time.Now().UTC(),
		}
		if req.UserID != "" {
			uid := req.UserID
			b.UserID = &uid
		}
		for attempt := 1; ; attempt++ {
			b.BookingCode = e.codes.Next()
			err := tx.InsertBooking(ctx, b)
			if err == nil {
				break
			}
			if !errors.Is(err, store.ErrDuplicate) || attempt == maxCodeAttempts {
				return apperr.Storage("insert booking", err)
			}
		}
		booking = b
		return nil
	})
	if err != nil {
		if !apperr.Classified(err) || apperr.HTTPStatus(err) >= 500 {
			e.log.Error("booking transaction failed", zap.String("venue_id", venue.ID), zap.String("date", req.Date), zap.Error(err))
		}
		return nil, apperr.Storage("booking tx", err)
	}

	e.afterCommit(ctx, booking)
	return booking, nil
}

// afterCommit runs the best-effort side effects of a committed booking.
func (e *BookingEngine) afterCommit(ctx context.Context, b *model.Booking) {
	if err := e.cache.Invalidate(ctx, b.VenueID, b.Date); err != nil {
		e.log.Warn("slot cache invalidate failed", zap.String("venue_id", b.VenueID), zap.Error(err))
	}
	ev := queue.BookingConfirmedEvent{
		BookingID:     b.ID,
		BookingCode:   b.BookingCode,
		VenueID:       b.VenueID,
		VenueName:     b.VenueName,
		Date:          b.Date,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		SlotIDs:       b.SlotIDs,
		TotalAmount:   b.TotalAmount,
		PaidAmount:    b.PaidAmount,
		PaymentMethod: b.PaymentMethod,
		ConfirmedAt:   b.CreatedAt.Format(time.RFC3339),
	}
	if b.UserID != nil {
		ev.UserID = *b.UserID
	}
	if err := e.events.PublishBookingConfirmed(ctx, ev); err != nil {
		e.log.Warn("publish booking.confirmed failed", zap.String("code", b.BookingCode), zap.Error(err))
	}
	e.log.Info("booking confirmed",
		zap.String("code", b.BookingCode), zap.String("venue_id", b.VenueID),
		zap.String("date", b.Date), zap.String("start", b.StartTime), zap.Int("total", b.TotalAmount))
}

// Verify returns the booking carrying code.
func (e *BookingEngine) Verify(ctx context.Context, code string) (*model.Booking, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, apperr.Validation("code", "is required")
	}
	b, err := e.bookings.GetByCode(ctx, code)
	if err != nil {
		return nil, classify("get booking", "booking", code, err)
	}
	return b, nil
}

// ListMine returns the bookings made by userID.
func (e *BookingEngine) ListMine(ctx context.Context, userID string) ([]model.Booking, error) {
	out, err := e.bookings.ListByUser(ctx, userID)
	return nonNilBookings(out), classify("list user bookings", "user", userID, err)
}

// ListForOwner returns the bookings made at venues of ownerID.
func (e *BookingEngine) ListForOwner(ctx context.Context, ownerID string) ([]model.Booking, error) {
	out, err := e.bookings.ListByVenueOwner(ctx, ownerID)
	return nonNilBookings(out), classify("list owner bookings", "owner", ownerID, err)
}

// ListAll returns the newest bookings across every venue.
func (e *BookingEngine) ListAll(ctx context.Context, limit int) ([]model.Booking, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	out, err := e.bookings.ListAll(ctx, limit)
	return nonNilBookings(out), classify("list bookings", "bookings", "", err)
}

func nonNilBookings(b []model.Booking) []model.Booking {
	if b == nil {
		return []model.Booking{}
	}
	return b
}
