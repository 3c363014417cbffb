package ticket

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/turf-slot-booking/internal/model"
)

func TestQRPNG(t *testing.T) {
	png, err := QRPNG("TTABC123", 0)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	_, err = QRPNG("", 100)
	assert.Error(t, err)
}

func TestReceiptPDF(t *testing.T) {
	b := &model.Booking{
		BookingCode:   "TTABC123",
		VenueName:     "Greenfield Arena",
		VenueAddress:  "12 MG Road, Bengaluru",
		Date:          "2026-03-01",
		StartTime:     "14:00",
		EndTime:       "15:30",
		Duration:      90,
		TotalAmount:   1440,
		PaidAmount:    500,
		BalanceAmount: 940,
		PaymentMethod: "upi",
		Status:        model.BookingConfirmed,
		CreatedAt:     time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	pdf, err := ReceiptPDF(b)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
	assert.Greater(t, len(pdf), 1000)
}
