// Package apperr defines the error taxonomy shared by services and
// handlers.  Each type maps to exactly one HTTP status so callers can tell
// "pick another slot" apart from "try again later".
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError is returned for malformed requests before any side
// effect happens.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// ConflictError is returned when the request collides with current
// state.  StartTime is set for booking conflicts.
type ConflictError struct {
	StartTime string
	Message   string
}

func (e *ConflictError) Error() string { return e.Message }

// NotFoundError is returned for unknown venues, bookings, owners or codes.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// ForbiddenError is returned when the caller lacks rights on a resource.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

// StorageError wraps infrastructure failures.  Its message is never
// shown to clients.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }

func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// SlotConflict names the first already-booked start time.
func SlotConflict(startTime string) error {
	return &ConflictError{
		StartTime: startTime,
		Message:   fmt.Sprintf("slot at %s is already booked", startTime),
	}
}

func Conflict(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

func NotFound(resource, key string) error {
	return &NotFoundError{Resource: resource, Key: key}
}

func Forbidden(format string, args ...any) error {
	return &ForbiddenError{Message: fmt.Sprintf(format, args...)}
}

// Storage wraps err unless it already belongs to the taxonomy.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if Classified(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// Classified reports whether err is one of the taxonomy types.
func Classified(err error) bool {
	var (
		v *ValidationError
		c *ConflictError
		n *NotFoundError
		f *ForbiddenError
		s *StorageError
	)
	return errors.As(err, &v) || errors.As(err, &c) || errors.As(err, &n) ||
		errors.As(err, &f) || errors.As(err, &s)
}

// HTTPStatus maps err to a response status.  Unknown errors are 500.
func HTTPStatus(err error) int {
	var (
		v *ValidationError
		c *ConflictError
		n *NotFoundError
		f *ForbiddenError
	)
	switch {
	case errors.As(err, &v):
		return http.StatusBadRequest
	case errors.As(err, &c):
		return http.StatusConflict
	case errors.As(err, &n):
		return http.StatusNotFound
	case errors.As(err, &f):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// PublicMessage is the text safe to return to a client.
func PublicMessage(err error) string {
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "internal error, please retry"
	}
	return err.Error()
}
