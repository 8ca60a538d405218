package service

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownField   = errors.New("unknown field")
	ErrFormNotFound   = errors.New("form not found")
	ErrCommitInFlight = errors.New("a save is already in progress for this field")
	ErrSavePanicked   = errors.New("save failed unexpectedly")

	// Rejections returned by the remote save.
	ErrSalesPriceBelowMinimum = fmt.Errorf("sales price below minimum (%d)", MinSalesPrice)
	ErrInvalidAmount          = errors.New("amount is not a number")
)

// IsRejection reports whether err is a business-rule rejection rather than an
// infrastructure failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrSalesPriceBelowMinimum) || errors.Is(err, ErrInvalidAmount)
}
