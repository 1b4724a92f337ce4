package models

import "errors"

// Error kinds shared by the outbound clients and the form. Callers match them
// with errors.Is; clients wrap them with the provider and cause.
var (
	ErrNotFound          = errors.New("address not found")
	ErrNetwork           = errors.New("network error")
	ErrService           = errors.New("service error")
	ErrMalformedResponse = errors.New("malformed response")
	ErrInvalidCoordinate = errors.New("coordinate out of range")
)
