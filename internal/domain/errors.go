package domain

import "github.com/cockroachdb/errors"

// Sentinels shared by the server, the REST client and the reservation controller.
// Wrapped errors are classified with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrDeadlineExpired = errors.New("payment deadline expired")
	ErrPaymentRejected = errors.New("payment rejected")
	ErrNetworkFailure  = errors.New("network failure")

	ErrInvalidInput = errors.New("invalid input")
	ErrOutOfStock   = errors.New("car is out of stock")
	ErrConflict     = errors.New("conflict")
	ErrNotPending   = errors.New("booking is not pending")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Invalidf builds a validation error marked as ErrInvalidInput.
func Invalidf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalidInput)
}
