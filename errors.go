package accounts

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeMissingFields       = "missing_fields"
	TextCodeDuplicateAccount    = "duplicate_account"
	TextCodeInvalidCredentials  = "invalid_credentials"
	TextCodeEmailNotVerified    = "email_not_verified"
	TextCodeInvalidLink         = "invalid_or_expired_link"
	TextCodeUnauthenticated     = "unauthenticated"
	TextCodeForbidden           = "forbidden"
	TextCodeInvalidRole         = "invalid_role"
	TextCodeStoreUnavailable    = "store_unavailable"
	TextCodeTokenExpired        = "token_expired"
	TextCodeTokenMalformed      = "token_malformed"
	TextCodeEmailDeliveryFailed = "email_delivery_failed"
)

// ErrMissingFields is returned when register input lacks email or password.
var ErrMissingFields = errors.New("email and password are required", errors.CategoryValidation).
	WithTextCode(TextCodeMissingFields).
	WithCode(errors.CodeBadRequest)

// ErrDuplicateAccount is returned when the email is already registered.
var ErrDuplicateAccount = errors.New("account already exists", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateAccount).
	WithCode(errors.CodeBadRequest)

// ErrInvalidCredentials is returned for unknown emails and password
// mismatches alike, so the response carries no enumeration signal.
var ErrInvalidCredentials = errors.New("invalid email or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeBadRequest)

// ErrEmailNotVerified is returned on login when the credential matches but
// the address was never confirmed.
var ErrEmailNotVerified = errors.New("email address has not been verified", errors.CategoryAuth).
	WithTextCode(TextCodeEmailNotVerified).
	WithCode(errors.CodeBadRequest)

// ErrInvalidOrExpiredLink is returned for any verification failure. It does
// not distinguish expired from never-issued tokens.
var ErrInvalidOrExpiredLink = errors.New("verification link is invalid or has expired", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidLink).
	WithCode(errors.CodeBadRequest)

// ErrUnauthenticated is returned when a protected route has no usable bearer token.
var ErrUnauthenticated = errors.New("authentication required", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrForbidden is returned when the resolved account lacks the required role.
var ErrForbidden = errors.New("insufficient permissions", errors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(errors.CodeForbidden)

// ErrInvalidRole rejects role values outside the known set before mutation.
var ErrInvalidRole = errors.New("unknown or invalid role", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidRole).
	WithCode(errors.CodeBadRequest)

// ErrStoreUnavailable is surfaced when the account store cannot be reached.
var ErrStoreUnavailable = errors.New("account store unavailable", errors.CategoryInternal).
	WithTextCode(TextCodeStoreUnavailable).
	WithCode(errors.CodeInternal)

// ErrTokenExpired is returned when a bearer token is past its expiry.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens with a bad signature or shape.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is the internal bcrypt mismatch signal.
var ErrMismatchedHashAndPassword = errors.New("hashed password does not match", errors.CategoryAuth)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
