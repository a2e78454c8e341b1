package password

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMaxPasswordBytes caps plaintext length before any hashing work is done.
const DefaultMaxPasswordBytes = 1024

// Scheme is one adaptive hash algorithm usable inside a Context.
type Scheme interface {
	Name() string
	Identify(encoded string) bool
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
	NeedsUpgrade(encoded string) (bool, error)
}

// ContextConfig selects the enabled schemes and their parameters.
//
// Schemes lists the enabled scheme names; Default is the one used by Hash and must be
// in Schemes. An empty Schemes enables only Default.
type ContextConfig struct {
	Schemes          []string
	Default          string
	Bcrypt           BcryptConfig
	Argon2           Argon2Config
	MaxPasswordBytes int
}

// DefaultContextConfig enables bcrypt only.
func DefaultContextConfig() ContextConfig {
	return ContextConfig{
		Schemes:          []string{SchemeBcrypt},
		Default:          SchemeBcrypt,
		Bcrypt:           DefaultBcryptConfig(),
		Argon2:           DefaultArgon2Config(),
		MaxPasswordBytes: DefaultMaxPasswordBytes,
	}
}

// Context hashes with a default scheme and verifies against any enabled scheme.
// It is immutable after NewContext and safe for concurrent use.
type Context struct {
	schemes          []Scheme
	def              Scheme
	maxPasswordBytes int
}

// NewContext builds the enabled schemes. Unknown scheme names and a Default outside
// Schemes are rejected.
func NewContext(cfg ContextConfig) (*Context, error) {
	names := cfg.Schemes
	if len(names) == 0 && cfg.Default != "" {
		names = []string{cfg.Default}
	}
	if len(names) == 0 {
		return nil, errors.New("password context requires at least one scheme")
	}
	defName := cfg.Default
	if defName == "" {
		defName = names[0]
	}

	c := &Context{maxPasswordBytes: cfg.MaxPasswordBytes}
	if c.maxPasswordBytes <= 0 {
		c.maxPasswordBytes = DefaultMaxPasswordBytes
	}

	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("password scheme %q listed twice", name)
		}
		seen[name] = struct{}{}

		var (
			s   Scheme
			err error
		)
		switch name {
		case SchemeBcrypt:
			s, err = NewBcrypt(cfg.Bcrypt)
		case SchemeArgon2id:
			s, err = NewArgon2(cfg.Argon2)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, name)
		}
		if err != nil {
			return nil, err
		}
		c.schemes = append(c.schemes, s)
		if name == strings.ToLower(defName) {
			c.def = s
		}
	}
	if c.def == nil {
		return nil, fmt.Errorf("default scheme %q is not enabled", defName)
	}

	return c, nil
}

// DefaultScheme returns the name of the scheme used by Hash.
func (c *Context) DefaultScheme() string { return c.def.Name() }

// Hash hashes password with the default scheme and a fresh salt.
func (c *Context) Hash(password string) (string, error) {
	if len(password) > c.maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	return c.def.Hash(password)
}

// Verify reports whether password matches hashed. See the package documentation for
// the exact split between a false result and ErrUnsupportedScheme.
func (c *Context) Verify(password, hashed string) (bool, error) {
	s, err := c.identify(hashed)
	if err != nil {
		return false, err
	}
	if s == nil || len(password) > c.maxPasswordBytes {
		return false, nil
	}

	ok, err := s.Verify(password, hashed)
	if err != nil {
		if errors.Is(err, ErrMalformedHash) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

// NeedsRehash reports whether hashed should be replaced: it uses a deprecated scheme
// or weaker parameters than configured.
func (c *Context) NeedsRehash(hashed string) (bool, error) {
	s, err := c.identify(hashed)
	if err != nil {
		return false, err
	}
	if s == nil {
		return false, ErrMalformedHash
	}
	if s != c.def {
		return true, nil
	}
	return s.NeedsUpgrade(hashed)
}

// VerifyAndUpdate verifies password and, on a match against a hash that needs
// rehashing, returns a replacement hash. newHash is empty when no update is due.
func (c *Context) VerifyAndUpdate(password, hashed string) (ok bool, newHash string, err error) {
	ok, err = c.Verify(password, hashed)
	if err != nil || !ok {
		return ok, "", err
	}

	needs, err := c.NeedsRehash(hashed)
	if err != nil || !needs {
		// A verified hash that cannot be inspected is still a valid login.
		return true, "", nil
	}

	newHash, err = c.Hash(password)
	if err != nil {
		return true, "", err
	}
	return true, newHash, nil
}

// identify returns the enabled scheme for hashed, nil for strings without any scheme
// identifier, and ErrUnsupportedScheme for identifiers of schemes not enabled here.
func (c *Context) identify(hashed string) (Scheme, error) {
	for _, s := range c.schemes {
		if s.Identify(hashed) {
			return s, nil
		}
	}

	id, ok := schemeIdentifier(hashed)
	if !ok {
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, id)
}

// schemeIdentifier extracts id from strings shaped like "$id$...".
func schemeIdentifier(hashed string) (string, bool) {
	if len(hashed) < 3 || hashed[0] != '$' {
		return "", false
	}
	id, _, found := strings.Cut(hashed[1:], "$")
	if !found || id == "" {
		return "", false
	}
	for _, r := range id {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
			return "", false
		}
	}
	return id, true
}
