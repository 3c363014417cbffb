// Package ticket renders the check-in artefacts of a booking: a QR code
// carrying the booking code and a one-page PDF receipt.
package ticket

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/iliyamo/turf-slot-booking/internal/model"
)

// DefaultQRSize is the edge length in pixels of generated QR images.
const DefaultQRSize = 300

// QRPNG encodes the booking code as a PNG QR image.
func QRPNG(code string, size int) ([]byte, error) {
	if code == "" {
		return nil, fmt.Errorf("qr: empty booking code")
	}
	if size <= 0 {
		size = DefaultQRSize
	}
	qr, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr: %w", err)
	}
	png, err := qr.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("qr png: %w", err)
	}
	return png, nil
}

// ReceiptPDF renders an A4 receipt for b with its QR code embedded.
// Amounts are printed in whole rupees.
func ReceiptPDF(b *model.Booking) ([]byte, error) {
	png, err := QRPNG(b.BookingCode, DefaultQRSize)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Booking "+b.BookingCode, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 12, "Turf Booking Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	imgOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	name := "qr_" + b.BookingCode
	pdf.RegisterImageOptionsReader(name, imgOpts, bytes.NewReader(png))
	pdf.ImageOptions(name, (210.0-60.0)/2, pdf.GetY(), 60, 60, false, imgOpts, 0, "")
	pdf.Ln(62)

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 9, b.BookingCode, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(6)

	rows := [][2]string{
		{"Venue", tr(b.VenueName)},
		{"Address", tr(b.VenueAddress)},
		{"Date", b.Date},
		{"Time", fmt.Sprintf("%s - %s (%d min)", b.StartTime, b.EndTime, b.Duration)},
		{"Status", string(b.Status)},
		{"Payment", b.PaymentMethod},
		{"Total", rupees(b.TotalAmount)},
		{"Paid", rupees(b.PaidAmount)},
		{"Balance due", rupees(b.BalanceAmount)},
	}
	for _, r := range rows {
		pdf.SetX(25)
		pdf.SetFont("Arial", "", 12)
		pdf.CellFormat(45, 8, r[0]+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "B", 12)
		pdf.MultiCell(120, 8, r[1], "", "L", false)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "I", 10)
	pdf.SetTextColor(110, 110, 110)
	issued := b.CreatedAt
	if issued.IsZero() {
		issued = time.Now()
	}
	pdf.MultiCell(0, 6, fmt.Sprintf("Booked %s. Show this code or QR at the venue to check in.\nThe balance is payable at the venue.",
		issued.Format("02 Jan 2006 15:04")), "", "C", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("receipt pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func rupees(n int) string { return fmt.Sprintf("INR %d", n) }
