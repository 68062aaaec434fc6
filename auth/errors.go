package auth

import (
	"errors"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeUnauthorized      = "UNAUTHORIZED"
	TextCodeInactiveAccount   = "INACTIVE_ACCOUNT"
	TextCodeDuplicateEmail    = "DUPLICATE_EMAIL"
	TextCodeDuplicateUsername = "DUPLICATE_USERNAME"
	TextCodeForbidden         = "FORBIDDEN"
	TextCodeIncorrectPassword = "INCORRECT_PASSWORD"
)

// BearerChallenge is the WWW-Authenticate value that goes with
// Unauthorized errors
const BearerChallenge = "Bearer"

const (
	MsgCouldNotValidate = "could not validate credentials"
	MsgUserNotFound     = "user not found"
	MsgIncorrectLogin   = "incorrect username or password"
	MsgIncorrectCurrent = "incorrect current password"
)

// ErrInvalidToken is returned by TokenService.Decode for every failure:
// bad signature, malformed payload, wrong algorithm or expiry.
var ErrInvalidToken = errors.New("invalid token")

// ErrIdentityNotFound is returned by lookups that match no user
var ErrIdentityNotFound = errors.New("identity not found")

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = errors.New("password must not be empty")

// ErrMismatchedHashAndPassword is returned when a password does not match
var ErrMismatchedHashAndPassword = errors.New("password does not match hash")

// NewUnauthorized returns the error surfaced for every rejected credential
func NewUnauthorized(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryAuth).
		WithCode(goerrors.CodeUnauthorized).
		WithTextCode(TextCodeUnauthorized).
		WithMetadata(map[string]any{"challenge": BearerChallenge})
}

// NewInactiveAccount is returned by the active gate for deactivated users
func NewInactiveAccount() *goerrors.Error {
	return goerrors.New("inactive user", goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(TextCodeInactiveAccount)
}

func NewDuplicateEmail() *goerrors.Error {
	return goerrors.New("email already registered", goerrors.CategoryConflict).
		WithCode(http.StatusConflict).
		WithTextCode(TextCodeDuplicateEmail)
}

func NewDuplicateUsername() *goerrors.Error {
	return goerrors.New("username already taken", goerrors.CategoryConflict).
		WithCode(http.StatusConflict).
		WithTextCode(TextCodeDuplicateUsername)
}

// NewIncorrectPassword is returned by a password change whose current
// password does not match
func NewIncorrectPassword() *goerrors.Error {
	return goerrors.New(MsgIncorrectCurrent, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(TextCodeIncorrectPassword)
}

// NewForbidden is returned when a resolved user lacks privileges
func NewForbidden(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryAuthz).
		WithCode(goerrors.CodeForbidden).
		WithTextCode(TextCodeForbidden)
}

func IsUnauthorized(err error) bool {
	return hasTextCode(err, TextCodeUnauthorized)
}

func IsInactiveAccount(err error) bool {
	return hasTextCode(err, TextCodeInactiveAccount)
}

func IsDuplicateEmail(err error) bool {
	return hasTextCode(err, TextCodeDuplicateEmail)
}

func IsDuplicateUsername(err error) bool {
	return hasTextCode(err, TextCodeDuplicateUsername)
}

func IsIncorrectPassword(err error) bool {
	return hasTextCode(err, TextCodeIncorrectPassword)
}

func IsForbidden(err error) bool {
	return hasTextCode(err, TextCodeForbidden)
}

// Challenge returns the WWW-Authenticate value for err, if any
func Challenge(err error) (string, bool) {
	if !IsUnauthorized(err) {
		return "", false
	}
	return BearerChallenge, true
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}
