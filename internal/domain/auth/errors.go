package auth

import "errors"

var (
	// ErrMissingCredential means no access token was present where one is required.
	ErrMissingCredential = errors.New("missing credential")
	// ErrInsufficientPrivilege means the token decoded but the requirement was not met.
	ErrInsufficientPrivilege = errors.New("insufficient privilege")
	// ErrMalformedToken means the access token could not be decoded.
	ErrMalformedToken = errors.New("malformed token")
	// ErrCredentialsRejected means the backend refused the sign-in credentials.
	ErrCredentialsRejected = errors.New("credentials rejected")
	// ErrTokenInvalid means the backend rejected a token as invalid or expired.
	// It is the only error kind the request guard recovers from.
	ErrTokenInvalid = errors.New("invalid or expired token")
)

// TokenError carries backend detail for an invalid/expired token.
// errors.Is(err, ErrTokenInvalid) holds for every TokenError.
type TokenError struct {
	Code   string
	Reason string
}

func (e *TokenError) Error() string {
	if e.Reason == "" {
		return ErrTokenInvalid.Error()
	}
	return ErrTokenInvalid.Error() + ": " + e.Reason
}

// Is lets errors.Is match ErrTokenInvalid.
func (e *TokenError) Is(target error) bool { return target == ErrTokenInvalid }
