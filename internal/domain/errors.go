package domain

import "errors"

// Sentinel errors for the order lifecycle core. Callers match with
// errors.Is; the HTTP layer owns the mapping to status codes.
var (
	ErrValidation          = errors.New("validation failed")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAccountNotFound     = errors.New("account not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrInstanceNotFound    = errors.New("instance not found")

	// ErrVendorUnavailable covers transport failures and timeouts; callers
	// may retry with backoff. ErrVendorRejected is a vendor-side non-success
	// code and is not retried automatically.
	ErrVendorUnavailable = errors.New("vendor unavailable")
	ErrVendorRejected    = errors.New("vendor rejected request")
	ErrDecryptFailure    = errors.New("vendor payload decryption failed")

	ErrInvalidTransition = errors.New("invalid order status transition")
)
