package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAuditLine(t *testing.T) {
	line := AuditLine(BookingConfirmedEvent{
		BookingID:     "b-1",
		BookingCode:   "TTABC",
		VenueName:     "Green Field",
		Date:          "2026-03-01",
		StartTime:     "14:00",
		EndTime:       "15:00",
		SlotIDs:       []string{"v-2026-03-01-a2"},
		TotalAmount:   960,
		PaidAmount:    288,
		PaymentMethod: "upi",
		ConfirmedAt:   "2026-03-01T08:00:00Z",
	})
	assert.True(t, strings.HasSuffix(line, "\n"))
	assert.Contains(t, line, "code=TTABC")
	assert.Contains(t, line, "user_id=guest")
	assert.Contains(t, line, `venue="Green Field"`)
	assert.Contains(t, line, "time=14:00-15:00")
	assert.Contains(t, line, "slots=[v-2026-03-01-a2]")
	assert.Contains(t, line, "total=960")
}

func TestHandleAppendsToLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "booking.log")
	c := &AuditConsumer{LogPath: path, Log: zap.NewNop()}

	for _, code := range []string{"TT1", "TT2"} {
		body, err := json.Marshal(BookingConfirmedEvent{BookingCode: code, UserID: "u-1"})
		require.NoError(t, err)
		require.NoError(t, c.Handle(body))
	}

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "code=TT1")
	assert.Contains(t, lines[1], "code=TT2")
	assert.Contains(t, lines[1], "user_id=u-1")
}

func TestHandleRejectsGarbage(t *testing.T) {
	c := &AuditConsumer{LogPath: filepath.Join(t.TempDir(), "booking.log"), Log: zap.NewNop()}
	assert.Error(t, c.Handle([]byte("{not json")))
}
