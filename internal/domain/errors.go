package domain

import "errors"

var (
	ErrPrecisionLookup  = errors.New("token precision lookup failed")
	ErrQuoteUnavailable = errors.New("quote unavailable")
	ErrStore            = errors.New("storage failure")
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
)
