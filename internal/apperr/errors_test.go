package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Validation("duration", "must be 60, 90 or 120")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(SlotConflict("06:00")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("venue", "x")))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(Forbidden("not yours")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(Storage("lock slots", errors.New("bad connection"))))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}

func TestWrappedErrorsKeepTheirKind(t *testing.T) {
	err := fmt.Errorf("create booking: %w", SlotConflict("14:00"))
	assert.Equal(t, http.StatusConflict, HTTPStatus(err))

	var ce *ConflictError
	assert.True(t, errors.As(err, &ce))
	assert.Equal(t, "14:00", ce.StartTime)
	assert.Contains(t, err.Error(), "14:00")
}

func TestStorageDoesNotRewrapClassified(t *testing.T) {
	conflict := SlotConflict("06:00")
	assert.Same(t, conflict, Storage("op", conflict))
	assert.Nil(t, Storage("op", nil))

	root := errors.New("dial tcp: refused")
	wrapped := Storage("load slots", root)
	assert.ErrorIs(t, wrapped, root)
}

func TestPublicMessageHidesStorageDetail(t *testing.T) {
	err := Storage("lock slots", errors.New("Error 1205: Lock wait timeout"))
	assert.Equal(t, "internal error, please retry", PublicMessage(err))
	assert.Equal(t, "slot at 06:00 is already booked", PublicMessage(SlotConflict("06:00")))
}
