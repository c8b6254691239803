package types

import "errors"

var (
	// ErrMalformedSnapshot is returned when a snapshot is missing a required
	// field. The evaluator must not advance its memory on this error.
	ErrMalformedSnapshot = errors.New("malformed snapshot")

	// ErrLotBelowMinimum is returned when a decision's lot is under the
	// configured minimum.
	ErrLotBelowMinimum = errors.New("lot size below minimum allowed")

	// ErrLotNotIncrement is returned when a lot is not an exact multiple of
	// the configured lot increment.
	ErrLotNotIncrement = errors.New("lot size not a multiple of lot increment")

	// ErrMaxExposureExceeded is returned when placing a ticket would breach
	// the open-trade ceiling.
	ErrMaxExposureExceeded = errors.New("max open trades exceeded")
)
