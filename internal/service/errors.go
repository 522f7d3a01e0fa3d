package service

import (
	"fmt"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrConflict           = errors.New("conflict")
	// ErrPartialSuccess marks an approval whose order transition was stored
	// but whose promotion could not be applied.
	ErrPartialSuccess    = errors.New("partial success")
	ErrNoApprovedListing = errors.New("no approved listing found for this buyer")
)

// storeErr classifies a repository error. Missing rows become ErrNotFound;
// anything else is reported as ErrStorageUnavailable with the cause kept.
func storeErr(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrapf(ErrNotFound, format, args...)
	}
	return errors.Wrapf(fmt.Errorf("%w: %w", ErrStorageUnavailable, err), format, args...)
}

func invalid(format string, args ...interface{}) error {
	return errors.Wrapf(ErrValidation, format, args...)
}
