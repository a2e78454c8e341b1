package password

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// SchemeBcrypt is the scheme name for bcrypt hashes.
const SchemeBcrypt = "bcrypt"

// bcryptMaxPasswordBytes is the input limit of the Blowfish key schedule.
const bcryptMaxPasswordBytes = 72

// bcryptLegacyPrefix marks the original 2 format. It verifies but is always due for
// a rehash.
const bcryptLegacyPrefix = "$2$"

var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$", bcryptLegacyPrefix}

// BcryptConfig holds the bcrypt work factor used for new hashes.
type BcryptConfig struct {
	Cost int
}

// DefaultBcryptConfig returns cost 12.
func DefaultBcryptConfig() BcryptConfig {
	return BcryptConfig{Cost: 12}
}

// Bcrypt hashes passwords with bcrypt.
type Bcrypt struct {
	cost int
}

// NewBcrypt validates the cost range.
func NewBcrypt(cfg BcryptConfig) (*Bcrypt, error) {
	if cfg.Cost < bcrypt.MinCost || cfg.Cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be within [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Bcrypt{cost: cfg.Cost}, nil
}

// Name returns SchemeBcrypt.
func (b *Bcrypt) Name() string { return SchemeBcrypt }

// Identify reports whether encoded carries one of the bcrypt version prefixes.
func (b *Bcrypt) Identify(encoded string) bool {
	for _, p := range bcryptPrefixes {
		if strings.HasPrefix(encoded, p) {
			return true
		}
	}
	return false
}

// Hash returns a $2a$ hash at the configured cost.
func (b *Bcrypt) Hash(password string) (string, error) {
	if len(password) > bcryptMaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	out, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(out), nil
}

// Verify compares password against encoded. Mismatches return false; corrupt hashes
// return ErrMalformedHash.
func (b *Bcrypt) Verify(password, encoded string) (bool, error) {
	if len(password) > bcryptMaxPasswordBytes {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
}

// NeedsUpgrade reports whether encoded used a lower cost than configured or the
// legacy $2$ format.
func (b *Bcrypt) NeedsUpgrade(encoded string) (bool, error) {
	cost, err := bcrypt.Cost([]byte(encoded))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	return cost < b.cost || strings.HasPrefix(encoded, bcryptLegacyPrefix), nil
}
