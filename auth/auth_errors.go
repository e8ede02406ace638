package auth

import "github.com/pkg/errors"

// The full failure taxonomy of the core. Every operation returns one of
// these (possibly wrapped with call-site context); nothing is swallowed and
// nothing is retried here - transient store failures surface as
// ErrStoreUnavailable for a higher layer to retry.
var (
	ErrUnknownProvider       = errors.New("unknown identity provider")
	ErrEmailInUse            = errors.New("email is already in use")
	ErrEmailDelivery         = errors.New("verification email delivery failed")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired verification token")
	ErrAlreadyVerified       = errors.New("email is already verified")
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidCredentials    = errors.New("invalid login credentials")
	ErrInvalidToken          = errors.New("invalid token")
	ErrTokenExpired          = errors.New("token expired")
	ErrStaleToken            = errors.New("stale refresh token")
	ErrStoreUnavailable      = errors.New("store unavailable")
)
