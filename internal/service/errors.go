package service

import (
	"errors"
	"fmt"
)

var ErrProductNotFound = errors.New("product not found")

const defaultCheckoutMessage = "Unable to create checkout"

// ValidationError is a request the caller must fix.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// UpstreamError is a failure of the commerce API. Message is safe to show to
// the caller.
type UpstreamError struct {
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
