package auth

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to structured errors so API clients can branch
// without parsing messages.
const (
	TextCodeInvalidCreds        = "INVALID_CREDENTIALS"
	TextCodeTooManyAttempts     = "TOO_MANY_ATTEMPTS"
	TextCodeSessionNotFound     = "SESSION_NOT_FOUND"
	TextCodeSessionDecodeError  = "SESSION_DECODE_ERROR"
	TextCodeClaimsMappingError  = "CLAIMS_MAPPING_ERROR"
	TextCodeDataParseError      = "DATA_PARSE_ERROR"
	TextCodeEmptyPassword       = "EMPTY_PASSWORD"
	TextCodeTokenExpired        = "TOKEN_EXPIRED"
	TextCodeTokenMalformed      = "TOKEN_MALFORMED"
	TextCodeTokenSignature      = "TOKEN_SIGNATURE_INVALID"
	TextCodeTokenRevoked        = "TOKEN_REVOKED"
	TextCodeStorageUnavailable  = "STORAGE_UNAVAILABLE"
	TextCodeResetTokenInvalid   = "RESET_TOKEN_INVALID"
	TextCodeNoTokenProvided     = "NO_TOKEN_PROVIDED"
)

// ErrIdentityNotFound is returned when no identity matches the lookup.
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrMismatchedHashAndPassword is the generic credential failure. Login
// returns it for unknown emails and wrong passwords alike so responses
// never reveal whether an account exists.
var ErrMismatchedHashAndPassword = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCreds)

// ErrTooManyLoginAttempts signals the account cool down is active.
var ErrTooManyLoginAttempts = goerrors.New("too many login attempts, retry later", goerrors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts)

// ErrUnableToFindSession is returned when the request carries no token.
var ErrUnableToFindSession = goerrors.New("unable to find session", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeSessionNotFound)

// ErrUnableToDecodeSession signals a token that could not be decoded.
var ErrUnableToDecodeSession = goerrors.New("unable to decode session", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeSessionDecodeError)

// ErrUnableToMapClaims signals claims that do not match the expected shape.
var ErrUnableToMapClaims = goerrors.New("unable to map claims", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeClaimsMappingError)

// ErrUnableToParseData is a payload parse error.
var ErrUnableToParseData = goerrors.New("unable to parse data", goerrors.CategoryBadInput).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode(TextCodeDataParseError)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = goerrors.New("value must not be empty", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode(TextCodeEmptyPassword)

// ErrTokenExpired is returned for tokens past their expiry.
var ErrTokenExpired = goerrors.New("authentication token expired", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed is returned for tokens that cannot be parsed.
var ErrTokenMalformed = goerrors.New("authentication token malformed", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

// ErrTokenSignature is returned when the signature does not verify.
var ErrTokenSignature = goerrors.New("authentication token signature invalid", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenSignature)

// ErrTokenRevoked is returned for a well-signed token whose registry
// record was invalidated.
var ErrTokenRevoked = goerrors.New("authentication token revoked", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenRevoked)

// ErrResetTokenInvalid covers every reset token failure: expired,
// malformed, bad signature, or stale email binding.
var ErrResetTokenInvalid = goerrors.New("invalid or expired reset token", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeResetTokenInvalid)

// ErrNoTokenProvided marks a request that should have carried a token
// but did not, e.g. logout or validate without a session. Refresh
// without a token is ErrUnableToFindSession instead.
var ErrNoTokenProvided = goerrors.New("no token provided", goerrors.CategoryBadInput).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode(TextCodeNoTokenProvided)

// WrapStorageError marks a persistence failure. Callers treat it as
// "cannot confirm validity" and refuse the request, never the opposite.
func WrapStorageError(err error, msg string) error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg).
		WithTextCode(TextCodeStorageUnavailable)
}

// IsStorageError reports whether err came from an unavailable store.
func IsStorageError(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == TextCodeStorageUnavailable
}

// IsTokenExpiredError will check for expired tokens, including errors
// surfaced by the underlying JWT library.
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for malformed token errors.
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeTokenMalformed {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
