package ledger

import "errors"

var (
	// ErrNotFound is returned for lookups on unknown record ids
	ErrNotFound = errors.New("record not found")
	// ErrEmptyRecord is returned when a record has no amount, liters or unit price
	ErrEmptyRecord = errors.New("record needs an amount, liters or unit price")
	// ErrInvalidAmount is returned for negative amounts
	ErrInvalidAmount = errors.New("amount must not be negative")
	// ErrInvalidDate is returned for dates not in YYYY-MM-DD form
	ErrInvalidDate = errors.New("date must be YYYY-MM-DD")
	// ErrRecognition is returned when the OCR backend fails on a photo
	ErrRecognition = errors.New("receipt could not be read")
)
