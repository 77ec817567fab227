package shared

import "errors"

// Error taxonomy surfaced by the billing core. Services wrap these with %w
// and the HTTP layer maps them to status codes in platform/httpx.
var (
	// ErrValidation indicates a payload failed schema or business rules.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates the entity is not visible to the tenant.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a unique-index collision survived retries.
	ErrConflict = errors.New("conflict")
	// ErrOverpayment indicates a payment exceeding the outstanding balance.
	ErrOverpayment = errors.New("overpayment")
	// ErrTimeout indicates the database deadline expired mid-operation.
	ErrTimeout = errors.New("timeout")
	// ErrDatabase indicates any other persistence failure.
	ErrDatabase = errors.New("database error")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
