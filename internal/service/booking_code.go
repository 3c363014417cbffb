package service

import (
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// BookingCodePrefix starts every human booking code.
const BookingCodePrefix = "TT"

// codeSource hands out booking codes derived from a nanosecond token
// that never repeats within the process, even when the clock stalls.
type codeSource struct {
	last  atomic.Int64
	clock func() time.Time
}

func newCodeSource(clock func() time.Time) *codeSource {
	if clock == nil {
		clock = time.Now
	}
	return &codeSource{clock: clock}
}

// Next returns a fresh code such as "TT1A2B3C4D5E6F".
func (c *codeSource) Next() string {
	for {
		prev := c.last.Load()
		n := c.clock().UnixNano()
		if n <= prev {
			n = prev + 1
		}
		if c.last.CompareAndSwap(prev, n) {
			return BookingCodePrefix + strings.ToUpper(strconv.FormatInt(n, 36))
		}
	}
}
