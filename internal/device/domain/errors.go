package domain

import "errors"

var (
	ErrDeviceNotFound = errors.New("device_not_found")
	ErrInvalidAmount  = errors.New("invalid_amount")
	ErrInvalidReading = errors.New("invalid_reading")
)
