package credcore

import (
	"errors"
	"fmt"
)

var (
	// ErrCredential matches every *CredentialError via errors.Is.
	ErrCredential = errors.New("invalid credentials")
	// ErrConfiguration matches every *ConfigurationError via errors.Is.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrInvalidInput matches every *InputError via errors.Is.
	ErrInvalidInput = errors.New("invalid input")
)

// RejectReason records which check rejected a token. It is for logs and metrics only;
// callers must not expose it to the presenter of the token.
type RejectReason uint8

const (
	// ReasonToken covers malformed tokens and signature, algorithm, kid, issuer,
	// audience and not-before failures.
	ReasonToken RejectReason = iota + 1
	// ReasonExpired is an exp claim in the past beyond the configured leeway.
	ReasonExpired
	// ReasonSchema is a verified payload that does not fit TokenData.
	ReasonSchema
)

func (r RejectReason) String() string {
	switch r {
	case ReasonToken:
		return "token"
	case ReasonExpired:
		return "expired"
	case ReasonSchema:
		return "schema"
	default:
		return "unknown"
	}
}

// CredentialError is the single error kind for rejected tokens.
type CredentialError struct {
	Reason RejectReason
	Cause  string
	err    error
}

func newCredentialError(reason RejectReason, err error) *CredentialError {
	return &CredentialError{Reason: reason, Cause: err.Error(), err: err}
}

func (e *CredentialError) Error() string { return "bad token: " + e.Cause }

// Unwrap exposes the underlying library error for internal classification.
func (e *CredentialError) Unwrap() error { return e.err }

// Is matches ErrCredential.
func (e *CredentialError) Is(target error) bool { return target == ErrCredential }

// ConfigurationError reports missing or unusable deployment configuration. It is
// never the result of a bad request and should be escalated, not answered with 401.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return fmt.Sprintf("configuration error: %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Is matches ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// InputError rejects caller-supplied data that can never be hashed or signed, such
// as an over-long password or custom claims that do not encode as JSON.
type InputError struct {
	Field string
	Err   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %v", e.Field, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// Is matches ErrInvalidInput.
func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

// IsCredentialError reports whether err is, or wraps, a *CredentialError.
func IsCredentialError(err error) bool {
	var ce *CredentialError
	return errors.As(err, &ce)
}

// IsConfigurationError reports whether err is, or wraps, a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
