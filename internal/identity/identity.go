// Package identity wraps the hosted authentication provider. Providers do the
// actual credential work; a Client holds one browser session's sign-in state
// and publishes every transition as an Event.
package identity

import (
	"context"

	"mintylist/backend/internal/errs"
	"mintylist/backend/internal/models"
)

// Provider error codes, in the provider's "auth/..." namespace.
const (
	CodeUserNotFound      = "auth/user-not-found"
	CodeWrongPassword     = "auth/wrong-password"
	CodeInvalidEmail      = "auth/invalid-email"
	CodeTooManyRequests   = "auth/too-many-requests"
	CodeInvalidCredential = "auth/invalid-credential"
	CodeEmailInUse        = "auth/email-already-in-use"
	CodeWeakPassword      = "auth/weak-password"
	CodeUserDisabled      = "auth/user-disabled"
	CodeInvalidToken      = "auth/invalid-id-token"
	CodeInternal          = "auth/internal-error"
)

const GenericMessage = "An error occurred. Please try again."

var messages = map[string]string{
	CodeUserNotFound:      "No user found with this email.",
	CodeWrongPassword:     "Incorrect password. Please try again.",
	CodeInvalidEmail:      "Invalid email address.",
	CodeTooManyRequests:   "Too many failed attempts. Please try again later.",
	CodeInvalidCredential: "Invalid login credentials. Please check your email and password.",
	CodeEmailInUse:        "An account with this email already exists.",
	CodeWeakPassword:      "Password should be at least 6 characters.",
}

// Message maps an error to the text shown to the user. Unmapped codes and
// non-auth errors fall back to GenericMessage.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if msg, ok := messages[errs.AuthCode(err)]; ok {
		return msg
	}
	return GenericMessage
}

// Credential is the result of a successful sign-in or sign-up.
type Credential struct {
	User    models.User
	IDToken string
}

type Provider interface {
	SignUp(ctx context.Context, email, password, displayName string) (*Credential, error)
	SignIn(ctx context.Context, email, password string) (*Credential, error)
	SendPasswordReset(ctx context.Context, email string) error
	// VerifyToken validates an ID token issued by SignIn or SignUp.
	VerifyToken(ctx context.Context, token string) (*models.User, error)
}

func authErr(code string, err error) error {
	return &errs.AuthError{Code: code, Err: err}
}
