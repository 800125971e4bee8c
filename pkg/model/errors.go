package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a subscription is not found
	ErrNotFound = errors.New("subscription not found")
	// ErrBadRequest is returned when client-supplied parameters are invalid
	ErrBadRequest = errors.New("bad request")
	// ErrUnknownField is returned by a store when a query references a field
	// that does not exist in the schema
	ErrUnknownField = errors.New("unknown field")
)

// BadRequestf wraps ErrBadRequest with a descriptive, client-facing message.
func BadRequestf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}

// ClientMessage extracts the client-facing part of an ErrBadRequest,
// stripping the sentinel prefix added by BadRequestf.
func ClientMessage(err error) string {
	if err == nil {
		return ""
	}
	return strings.TrimPrefix(err.Error(), ErrBadRequest.Error()+": ")
}
