package storyhub

import (
	"github.com/goliatone/go-errors"
)

// Stable text codes for every client-recoverable failure. Handlers and
// clients key off these, never off message wording.
const (
	TextCodeDuplicateEmail       = "DUPLICATE_EMAIL"
	TextCodeDuplicateUsername    = "DUPLICATE_USERNAME"
	TextCodeAccountNotFound      = "ACCOUNT_NOT_FOUND"
	TextCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	TextCodeEmailUnconfirmed     = "EMAIL_UNCONFIRMED"
	TextCodeAccountInactive      = "ACCOUNT_INACTIVE"
	TextCodeTokenExpired         = "TOKEN_EXPIRED"
	TextCodeTokenMalformed       = "TOKEN_MALFORMED"
	TextCodeTokenSignature       = "TOKEN_SIGNATURE_INVALID"
	TextCodeTokenPurpose         = "TOKEN_PURPOSE_MISMATCH"
	TextCodeMissingToken         = "MISSING_TOKEN"
	TextCodeAdminRequired        = "ADMIN_REQUIRED"
	TextCodeInvalidRole          = "INVALID_ROLE"
	TextCodeEmptyPassword        = "EMPTY_PASSWORD"
	TextCodeSigningSecretMissing = "SIGNING_SECRET_MISSING"
	TextCodeNotificationFailed   = "NOTIFICATION_DELIVERY_FAILED"
)

// ErrDuplicateEmail is returned when registering an email already in use.
var ErrDuplicateEmail = errors.New("email already in use", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(errors.CodeBadRequest)

// ErrDuplicateUsername is the store-level uniqueness failure on usernames,
// surfaced as a client error rather than a server fault.
var ErrDuplicateUsername = errors.New("username already in use", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateUsername).
	WithCode(errors.CodeBadRequest)

// ErrAccountNotFound is returned when an account id or email does not resolve.
var ErrAccountNotFound = errors.New("account not found", errors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(errors.CodeNotFound)

// ErrInvalidCredentials covers both unknown email and wrong password during
// login so callers cannot enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid email or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrEmailUnconfirmed blocks login for accounts that never completed the
// confirmation handshake, regardless of password correctness.
var ErrEmailUnconfirmed = errors.New("email address has not been confirmed", errors.CategoryAuth).
	WithTextCode(TextCodeEmailUnconfirmed).
	WithCode(errors.CodeUnauthorized)

// ErrAccountInactive blocks login for deactivated accounts.
var ErrAccountInactive = errors.New("account is inactive, contact support for assistance", errors.CategoryAuth).
	WithTextCode(TextCodeAccountInactive).
	WithCode(errors.CodeForbidden)

// ErrTokenExpired is returned when a token is past its expiry.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for structurally invalid tokens.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrTokenSignature is returned when a token was tampered with or signed
// with a different secret.
var ErrTokenSignature = errors.New("token signature is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeTokenSignature).
	WithCode(errors.CodeUnauthorized)

// ErrTokenPurpose is returned when a structurally valid token is presented
// to an endpoint expecting the other token intent.
var ErrTokenPurpose = errors.New("token was issued for a different purpose", errors.CategoryAuth).
	WithTextCode(TextCodeTokenPurpose).
	WithCode(errors.CodeUnauthorized)

// ErrMissingToken is the fail-closed result when a request carries no token.
var ErrMissingToken = errors.New("no authentication token provided", errors.CategoryAuth).
	WithTextCode(TextCodeMissingToken).
	WithCode(errors.CodeUnauthorized)

// ErrAdminRequired is the capability-gate failure.
var ErrAdminRequired = errors.New("admin privileges required", errors.CategoryAuthz).
	WithTextCode(TextCodeAdminRequired).
	WithCode(errors.CodeForbidden)

// ErrInvalidRole rejects role values outside the accepted enum.
var ErrInvalidRole = errors.New("unknown role", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidRole).
	WithCode(errors.CodeBadRequest)

// ErrNoEmptyPassword rejects empty plaintext passwords before hashing.
var ErrNoEmptyPassword = errors.New("password must not be empty", errors.CategoryBadInput).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// ErrPasswordMismatch is the credential manager's verification failure. A
// malformed stored digest verifies as a mismatch, never as a fault.
var ErrPasswordMismatch = errors.New("password does not match", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrSigningSecretMissing is fatal at process start; token issuance cannot
// proceed without the process-wide secret.
var ErrSigningSecretMissing = errors.New("token signing secret is not configured", errors.CategoryOperation).
	WithTextCode(TextCodeSigningSecretMissing).
	WithCode(errors.CodeInternal)

// ErrNotificationDelivery wraps mailer failures. It is non-fatal to the
// lifecycle operation that triggered the dispatch.
var ErrNotificationDelivery = errors.New("notification delivery failed", errors.CategoryOperation).
	WithTextCode(TextCodeNotificationFailed).
	WithCode(errors.CodeInternal)

// HasTextCode reports whether err is (or wraps) a rich error carrying the
// given text code.
func HasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) {
		return rich.TextCode == code
	}
	return false
}

// IsAccountNotFound checks for the store's "no such account" result.
func IsAccountNotFound(err error) bool {
	return HasTextCode(err, TextCodeAccountNotFound) || errors.IsNotFound(err)
}

// IsTokenError reports whether err is one of the token verification
// failures (expired, malformed, bad signature, wrong purpose).
func IsTokenError(err error) bool {
	return HasTextCode(err, TextCodeTokenExpired) ||
		HasTextCode(err, TextCodeTokenMalformed) ||
		HasTextCode(err, TextCodeTokenSignature) ||
		HasTextCode(err, TextCodeTokenPurpose)
}
