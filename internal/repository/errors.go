// Package repository implements the store ports on MySQL through
// database/sql.  Driver errors are translated here so that the service
// layer only sees store.ErrNotFound, store.ErrDuplicate or wrapped
// infrastructure errors.
package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/turf-slot-booking/internal/store"
)

// MySQL server error numbers we react to.
const (
	errDupEntry = 1062
	errDeadlock = 1213
)

// ErrEmailExists is returned when registering an email twice.
var ErrEmailExists = fmt.Errorf("email already exists: %w", store.ErrDuplicate)

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == errDupEntry
}

// IsDeadlock reports whether MySQL chose this transaction as a deadlock
// victim; such transactions can be retried by the caller.
func IsDeadlock(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == errDeadlock
}

// translate maps driver errors onto store sentinels and adds op context.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return store.ErrNotFound
	case isDuplicate(err):
		return fmt.Errorf("%s: %w", op, store.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

var (
	_ store.SlotStore    = (*SlotRepo)(nil)
	_ store.BookingStore = (*BookingRepo)(nil)
	_ store.VenueStore   = (*VenueRepo)(nil)
	_ store.OwnerStore   = (*UserRepo)(nil)
	_ store.UserStore    = (*UserRepo)(nil)
	_ store.TokenStore   = (*TokenRepo)(nil)
	_ store.CityStore    = (*CityRepo)(nil)
)
