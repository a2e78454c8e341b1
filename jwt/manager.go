package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	maxLeeway           = 5 * time.Minute
	defaultMaxFutureIAT = 10 * time.Minute
	minRSAKeyBits       = 2048
)

var (
	// ErrNoSigningKey is returned by Sign on a verify-only Manager.
	ErrNoSigningKey = errors.New("manager has no signing key")
	// ErrIATInFuture is returned by Parse when iat exceeds MaxFutureIAT.
	ErrIATInFuture = errors.New("token iat too far in the future")

	// ErrTokenExpired and ErrInvalidKeyType are the golang-jwt sentinels callers need
	// to classify Parse failures.
	ErrTokenExpired   = jwt.ErrTokenExpired
	ErrInvalidKeyType = jwt.ErrInvalidKeyType
)

// Config selects the signing algorithm, key material and validation policy.
//
// Config values are read once by NewManager; later changes have no effect.
type Config struct {
	// Algorithm is a JWS "alg" identifier: HS256/384/512, EdDSA, RS256/384/512
	// or ES256/384/512. Matching is case-insensitive.
	Algorithm string
	// SecretKey is the shared secret for HMAC algorithms.
	SecretKey []byte
	// PrivateKey signs tokens for asymmetric algorithms (PEM, or raw for Ed25519).
	// A Manager without one can only verify.
	PrivateKey []byte
	// PublicKey verifies tokens for asymmetric algorithms. Derived from PrivateKey
	// when empty.
	PublicKey []byte
	// VerifyKeys selects the verification key by the "kid" header. When set, tokens
	// without a known kid are rejected.
	VerifyKeys map[string][]byte
	// KeyID is written to the "kid" header of issued tokens.
	KeyID string

	Issuer        string
	Audience      string
	Leeway        time.Duration
	RequireExpiry bool
	RequireIAT    bool
	MaxFutureIAT  time.Duration

	// Now overrides the clock used for time-based claims. Nil means time.Now.
	Now func() time.Time
}

// Manager signs and verifies compact JWS tokens with a fixed algorithm and key set.
// A Manager is immutable and safe for concurrent use.
type Manager struct {
	config     Config
	method     jwt.SigningMethod
	family     keyFamily
	signKey    interface{}
	verifyKey  interface{}
	verifyKeys map[string]interface{}
}

// NewManager validates cfg and parses all key material up front so that Sign and
// Parse never fail on configuration.
func NewManager(cfg Config) (*Manager, error) {
	entry, ok := supportedMethods[strings.ToUpper(strings.TrimSpace(cfg.Algorithm))]
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}
	if cfg.Leeway < 0 || cfg.Leeway > maxLeeway {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = defaultMaxFutureIAT
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	m := &Manager{config: cfg, method: entry.method, family: entry.family}

	if entry.family == familyHMAC {
		if len(cfg.SecretKey) == 0 {
			return nil, fmt.Errorf("%s requires a secret key", entry.method.Alg())
		}
		m.signKey = cfg.SecretKey
		m.verifyKey = cfg.SecretKey
	} else {
		if err := m.loadAsymmetricKeys(); err != nil {
			return nil, err
		}
	}

	if len(cfg.VerifyKeys) > 0 {
		m.verifyKeys = make(map[string]interface{}, len(cfg.VerifyKeys))
		for kid, raw := range cfg.VerifyKeys {
			if strings.TrimSpace(kid) == "" {
				return nil, errors.New("verify key map contains empty kid")
			}
			key, err := m.verifyKeyFromBytes(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid verify key for kid %q: %w", kid, err)
			}
			m.verifyKeys[kid] = key
		}
		if cfg.KeyID != "" {
			if _, ok := m.verifyKeys[cfg.KeyID]; !ok {
				return nil, errors.New("KeyID is not present in VerifyKeys")
			}
		}
	}

	if m.verifyKey == nil && m.verifyKeys == nil {
		return nil, fmt.Errorf("%s requires a public key or verify key set", entry.method.Alg())
	}

	return m, nil
}

func (m *Manager) loadAsymmetricKeys() error {
	if len(m.config.PrivateKey) > 0 {
		priv, err := parsePrivateKey(m.family, m.method, m.config.PrivateKey)
		if err != nil {
			return err
		}
		m.signKey = priv
		m.verifyKey = priv.Public()
	}
	if len(m.config.PublicKey) > 0 {
		pub, err := parsePublicKey(m.family, m.method, m.config.PublicKey)
		if err != nil {
			return err
		}
		m.verifyKey = pub
	}
	if m.family == familyRSA && m.verifyKey != nil && rsaKeyBits(m.verifyKey) < minRSAKeyBits {
		return fmt.Errorf("rsa keys must be at least %d bits", minRSAKeyBits)
	}
	return nil
}

func (m *Manager) verifyKeyFromBytes(raw []byte) (interface{}, error) {
	if m.family == familyHMAC {
		if len(raw) == 0 {
			return nil, errors.New("empty secret")
		}
		return raw, nil
	}
	return parsePublicKey(m.family, m.method, raw)
}

// Algorithm returns the canonical "alg" identifier.
func (m *Manager) Algorithm() string { return m.method.Alg() }

// CanSign reports whether the Manager holds signing key material.
func (m *Manager) CanSign() bool { return m.signKey != nil }

// Now returns the Manager's clock reading.
func (m *Manager) Now() time.Time { return m.config.Now() }

// Sign serializes claims as a compact JWS. The claims map is encoded as given; the
// caller decides which registered claims are present.
func (m *Manager) Sign(claims map[string]interface{}) (string, error) {
	if m.signKey == nil {
		return "", ErrNoSigningKey
	}

	token := jwt.NewWithClaims(m.method, jwt.MapClaims(claims))
	if m.config.KeyID != "" {
		token.Header["kid"] = m.config.KeyID
	}
	return token.SignedString(m.signKey)
}

// Parse verifies tokenStr and returns its claims. It rejects tokens whose header
// algorithm differs from the configured one, whose signature does not verify, and
// whose time-based or issuer/audience claims fail the configured policy. Segments
// must be canonical base64url, so every single-character edit is detected.
func (m *Manager) Parse(tokenStr string) (map[string]interface{}, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithTimeFunc(m.config.Now),
		jwt.WithStrictDecoding(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.RequireExpiry {
		options = append(options, jwt.WithExpirationRequired())
	}
	if m.config.RequireIAT {
		options = append(options, jwt.WithIssuedAt())
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		options = append(options, jwt.WithAudience(m.config.Audience))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, claims, m.keyFunc)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	iat, err := claims.GetIssuedAt()
	if err != nil {
		return nil, err
	}
	if iat != nil && iat.Time.After(m.config.Now().Add(m.config.MaxFutureIAT)) {
		return nil, ErrIATInFuture
	}

	return claims, nil
}

func (m *Manager) keyFunc(t *jwt.Token) (interface{}, error) {
	if t.Method.Alg() != m.method.Alg() {
		return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
	}

	kid, _ := t.Header["kid"].(string)
	if m.verifyKeys != nil {
		if kid == "" {
			return nil, errors.New("missing kid")
		}
		key, ok := m.verifyKeys[kid]
		if !ok {
			return nil, errors.New("unknown kid")
		}
		return key, nil
	}

	if m.config.KeyID != "" && kid != m.config.KeyID {
		return nil, errors.New("unknown kid")
	}
	return m.verifyKey, nil
}
