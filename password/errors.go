package password

import "errors"

var (
	// ErrUnsupportedScheme is returned when a stored hash names a scheme the Context
	// does not have enabled.
	ErrUnsupportedScheme = errors.New("unsupported password hash scheme")
	// ErrMalformedHash is returned by scheme parsers for corrupt hash strings.
	// Context.Verify folds it into a plain mismatch.
	ErrMalformedHash = errors.New("malformed password hash")
	// ErrPasswordTooLong is returned when the plaintext exceeds the scheme or
	// configured byte limit.
	ErrPasswordTooLong = errors.New("password exceeds maximum length")
)
