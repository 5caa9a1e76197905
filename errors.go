package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCredentials     = "INVALID_CREDENTIALS"
	TextCodeDuplicateUsername      = "DUPLICATE_USERNAME"
	TextCodeTokenMalformed         = "TOKEN_MALFORMED"
	TextCodeTokenExpired           = "TOKEN_EXPIRED"
	TextCodeWrongTokenType         = "WRONG_TOKEN_TYPE"
	TextCodeTokenMissing           = "TOKEN_MISSING"
	TextCodeSessionNotFound        = "SESSION_NOT_FOUND"
	TextCodeInsufficientPermission = "INSUFFICIENT_PERMISSION"
	TextCodeInvalidIdentityToken   = "INVALID_IDENTITY_TOKEN"
	TextCodeStoreUnavailable       = "STORE_UNAVAILABLE"
)

// ErrInvalidCredentials is returned for a bad username or a bad password.
// The message is identical for both so callers cannot enumerate usernames.
var ErrInvalidCredentials = errors.New("invalid username or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrDuplicateUsername is returned when registration hits the username
// uniqueness constraint.
var ErrDuplicateUsername = errors.New("username already exists", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateUsername).
	WithCode(errors.CodeConflict)

// ErrTokenMalformed is returned for tokens that fail signature or
// structural validation.
var ErrTokenMalformed = errors.New("invalid token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned when a token is past its exp claim, or when
// the session it is bound to is no longer active.
var ErrTokenExpired = errors.New("token has expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrWrongTokenType is returned when an access token is presented where a
// refresh token is expected, or vice versa.
var ErrWrongTokenType = errors.New("token type incorrect", errors.CategoryAuth).
	WithTextCode(TextCodeWrongTokenType).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMissing is returned when the transport carries no token at all.
var ErrTokenMissing = errors.New("token has not been identified", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMissing).
	WithCode(errors.CodeUnauthorized)

// ErrSessionNotFound is returned by ownership-scoped revocation when no row
// matched. Callers are not told whether the session belongs to someone else
// or does not exist.
var ErrSessionNotFound = errors.New("session not found", errors.CategoryNotFound).
	WithTextCode(TextCodeSessionNotFound).
	WithCode(errors.CodeNotFound)

// ErrInsufficientPermission is returned when a session without can_abort
// tries to revoke a sibling session.
var ErrInsufficientPermission = errors.New("you don't have the necessary rights", errors.CategoryAuthz).
	WithTextCode(TextCodeInsufficientPermission).
	WithCode(errors.CodeForbidden)

// ErrInvalidIdentityToken is returned when a federated id token fails
// verification: bad signature, unknown issuer, wrong audience, or expired.
var ErrInvalidIdentityToken = errors.New("identity token could not be verified", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidIdentityToken).
	WithCode(errors.CodeBadRequest)

// ErrStoreUnavailable wraps durable-store failures not otherwise
// classified. Raw storage errors never reach external callers.
var ErrStoreUnavailable = errors.New("storage unavailable", errors.CategoryInternal).
	WithTextCode(TextCodeStoreUnavailable).
	WithCode(errors.CodeInternal)

// ErrMismatchedHashAndPassword is the internal bcrypt mismatch signal; the
// orchestrator translates it to ErrInvalidCredentials before it leaves the
// package.
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsDuplicateError reports whether err is the storage driver's unique
// constraint violation. Both the Postgres and SQLite spellings are matched
// so repositories behave the same under either dialect.
func IsDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicateUsername) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
