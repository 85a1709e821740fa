package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mintylist/backend/internal/models"

	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// Firebase signs users in through the Identity Toolkit REST API (the same
// endpoints the Firebase web SDK uses) and verifies ID tokens with the Admin SDK.
type Firebase struct {
	admin   *auth.Client
	toolkit *identitytoolkit.RelyingpartyService
}

func NewFirebase(ctx context.Context, admin *auth.Client, apiKey string) (*Firebase, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("FIREBASE_API_KEY is not set")
	}
	svc, err := identitytoolkit.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("identity toolkit client: %w", err)
	}
	return &Firebase{admin: admin, toolkit: svc.Relyingparty}, nil
}

func (f *Firebase) SignUp(ctx context.Context, email, password, displayName string) (*Credential, error) {
	resp, err := f.toolkit.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:       email,
		Password:    password,
		DisplayName: displayName,
	}).Context(ctx).Do()
	if err != nil {
		return nil, toolkitError(err)
	}
	return &Credential{
		User: models.User{
			ID:          resp.LocalId,
			Email:       resp.Email,
			DisplayName: displayName,
		},
		IDToken: resp.IdToken,
	}, nil
}

func (f *Firebase) SignIn(ctx context.Context, email, password string) (*Credential, error) {
	resp, err := f.toolkit.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, toolkitError(err)
	}
	return &Credential{
		User: models.User{
			ID:          resp.LocalId,
			Email:       resp.Email,
			DisplayName: resp.DisplayName,
		},
		IDToken: resp.IdToken,
	}, nil
}

func (f *Firebase) SendPasswordReset(ctx context.Context, email string) error {
	_, err := f.toolkit.GetOobConfirmationCode(&identitytoolkit.Relyingparty{
		Email:       email,
		RequestType: "PASSWORD_RESET",
	}).Context(ctx).Do()
	if err != nil {
		return toolkitError(err)
	}
	return nil
}

func (f *Firebase) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	tok, err := f.admin.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, authErr(CodeInvalidToken, err)
	}
	u := &models.User{ID: tok.UID}
	u.Email, _ = tok.Claims["email"].(string)
	u.DisplayName, _ = tok.Claims["name"].(string)
	return u, nil
}

// toolkitCodes maps Identity Toolkit error messages to provider codes.
var toolkitCodes = map[string]string{
	"EMAIL_NOT_FOUND":             CodeUserNotFound,
	"INVALID_PASSWORD":            CodeWrongPassword,
	"MISSING_PASSWORD":            CodeWrongPassword,
	"INVALID_EMAIL":               CodeInvalidEmail,
	"MISSING_EMAIL":               CodeInvalidEmail,
	"TOO_MANY_ATTEMPTS_TRY_LATER": CodeTooManyRequests,
	"INVALID_LOGIN_CREDENTIALS":   CodeInvalidCredential,
	"EMAIL_EXISTS":                CodeEmailInUse,
	"WEAK_PASSWORD":               CodeWeakPassword,
	"USER_DISABLED":               CodeUserDisabled,
}

func toolkitError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return authErr(CodeInternal, err)
	}
	msg := gerr.Message
	if msg == "" && len(gerr.Errors) > 0 {
		msg = gerr.Errors[0].Message
	}
	// Messages look like "TOO_MANY_ATTEMPTS_TRY_LATER : Access to this account..."
	key, _, _ := strings.Cut(msg, " ")
	if code, ok := toolkitCodes[key]; ok {
		return authErr(code, err)
	}
	return authErr(CodeInternal, err)
}
