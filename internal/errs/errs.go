// Package errs holds the error taxonomy shared by the note layer, the
// identity providers and the HTTP boundary.
package errs

import (
	"errors"
	"fmt"
)

// ErrBusy is returned when a write is submitted while another one is still
// outstanding for the same session.
var ErrBusy = errors.New("another operation is in progress")

// ValidationError reports an empty required field. It is always raised
// before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s is required", e.Field)
}

// AuthError carries a provider error code such as "auth/wrong-password".
type AuthError struct {
	Code string
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *AuthError) Unwrap() error { return e.Err }

// AccessError means the document store rejected a query or write.
type AccessError struct {
	Op  string
	Err error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *AccessError) Unwrap() error { return e.Err }

// NotFoundError means the update or delete target no longer exists (or is
// not visible to the caller).
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("note %s not found", e.ID)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsAccess(err error) bool {
	var target *AccessError
	return errors.As(err, &target)
}

// AuthCode returns the provider code of err, or "" when err is not an AuthError.
func AuthCode(err error) string {
	var target *AuthError
	if errors.As(err, &target) {
		return target.Code
	}
	return ""
}
