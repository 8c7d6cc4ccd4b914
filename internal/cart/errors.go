package cart

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart        = errors.New("cart is empty, nothing to checkout")
	ErrInvalidLine      = errors.New("cart line needs a variant id and a positive quantity")
	ErrCartChanged      = errors.New("cart changed while checkout was being created")
	ErrSnapshotNotFound = errors.New("cart snapshot not found")
)

const defaultCheckoutMessage = "Unable to create checkout"

// CheckoutError carries the human-readable message returned by the storefront
// API, or a generic one when the response had none.
type CheckoutError struct {
	Status  int
	Message string
	Err     error
}

func (e *CheckoutError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("checkout failed (%d): %s", e.Status, e.Message)
	}
	return "checkout failed: " + e.Message
}

func (e *CheckoutError) Unwrap() error {
	return e.Err
}

// VersionError is returned when a persisted snapshot has an unknown shape.
// ClientCartID is whatever could be salvaged from it.
type VersionError struct {
	Version      int
	ClientCartID string
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("unsupported cart snapshot version %d", e.Version)
}
