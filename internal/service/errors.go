package service

import (
	"errors"

	"github.com/iliyamo/turf-slot-booking/internal/apperr"
	"github.com/iliyamo/turf-slot-booking/internal/model"
	"github.com/iliyamo/turf-slot-booking/internal/store"
)

// classify turns a store or state-machine error into the apperr
// taxonomy.  resource and key name the looked-up entity for NotFound.
func classify(op, resource, key string, err error) error {
	if err == nil {
		return nil
	}
	var te *model.TransitionError
	switch {
	case apperr.Classified(err):
		return err
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound(resource, key)
	case errors.As(err, &te):
		return apperr.Conflict("%s", te.Error())
	}
	return apperr.Storage(op, err)
}
