package credcore

import (
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/MrEthical07/credcore/jwt"
	"github.com/MrEthical07/credcore/password"
)

// Config is the process-wide configuration. Build it once at startup and pass it to
// the Builder; backends copy what they need and never read it again.
type Config struct {
	Auth     AuthConfig     `mapstructure:"auth"`
	Password PasswordConfig `mapstructure:"password"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

/*
====================================
AUTH CONFIG
====================================
*/

// AuthConfig configures token signing and validation.
type AuthConfig struct {
	// SecretKey is the HMAC secret. Required for HS* algorithms.
	SecretKey string `mapstructure:"secret_key"`
	// Algorithm is the JWS "alg" identifier, e.g. HS256 or EdDSA.
	Algorithm string `mapstructure:"algorithm"`
	// PrivateKey and PublicKey hold PEM key material for asymmetric algorithms.
	PrivateKey string `mapstructure:"private_key"`
	PublicKey  string `mapstructure:"public_key"`
	KeyID      string `mapstructure:"key_id"`

	// Issuer and Audience are stamped on issued tokens when the caller leaves them
	// unset, and enforced on every fetched token.
	Issuer   string `mapstructure:"issuer"`
	Audience string `mapstructure:"audience"`

	// AccessTTL sets exp on tokens issued without one. Zero leaves exp unset.
	AccessTTL time.Duration `mapstructure:"access_ttl"`
	// Leeway is the clock-skew tolerance for exp and nbf.
	Leeway        time.Duration `mapstructure:"leeway"`
	RequireExpiry bool          `mapstructure:"require_expiry"`

	StampIssuedAt   bool `mapstructure:"stamp_issued_at"`
	GenerateTokenID bool `mapstructure:"generate_token_id"`
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig configures the hashing context. Schemes other than Default stay
// verifiable but are flagged for rehash.
type PasswordConfig struct {
	Schemes           []string `mapstructure:"schemes"`
	Default           string   `mapstructure:"default"`
	BcryptCost        int      `mapstructure:"bcrypt_cost"`
	Argon2Memory      uint32   `mapstructure:"argon2_memory"`
	Argon2Time        uint32   `mapstructure:"argon2_time"`
	Argon2Parallelism uint8    `mapstructure:"argon2_parallelism"`
	Argon2SaltLength  uint32   `mapstructure:"argon2_salt_length"`
	Argon2KeyLength   uint32   `mapstructure:"argon2_key_length"`
	MaxPasswordBytes  int      `mapstructure:"max_password_bytes"`
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles the in-process counters.
type MetricsConfig struct {
	Enabled                 bool `mapstructure:"enabled"`
	EnableLatencyHistograms bool `mapstructure:"enable_latency_histograms"`
}

// DefaultConfig returns a Config with HS256 and bcrypt selected. The signing secret
// is left empty and must be supplied.
func DefaultConfig() Config {
	pc := password.DefaultContextConfig()
	return Config{
		Auth: AuthConfig{
			Algorithm: "HS256",
		},
		Password: PasswordConfig{
			Schemes:           append([]string(nil), pc.Schemes...),
			Default:           pc.Default,
			BcryptCost:        pc.Bcrypt.Cost,
			Argon2Memory:      pc.Argon2.Memory,
			Argon2Time:        pc.Argon2.Time,
			Argon2Parallelism: pc.Argon2.Parallelism,
			Argon2SaltLength:  pc.Argon2.SaltLength,
			Argon2KeyLength:   pc.Argon2.KeyLength,
			MaxPasswordBytes:  pc.MaxPasswordBytes,
		},
	}
}

// Validate checks the presence of required fields. Algorithm-specific key checks
// happen when the Builder constructs the signer.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.Algorithm) == "" {
		return &ConfigurationError{Field: "auth.algorithm", Err: errors.New("required")}
	}
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(c.Auth.Algorithm)), "HS") {
		if c.Auth.SecretKey == "" {
			return &ConfigurationError{Field: "auth.secret_key", Err: errors.New("required")}
		}
	} else if c.Auth.PrivateKey == "" && c.Auth.PublicKey == "" {
		return &ConfigurationError{Field: "auth.private_key", Err: errors.New("asymmetric algorithms require key material")}
	}
	if c.Auth.AccessTTL < 0 {
		return &ConfigurationError{Field: "auth.access_ttl", Err: errors.New("must be >= 0")}
	}
	if c.Auth.Leeway < 0 {
		return &ConfigurationError{Field: "auth.leeway", Err: errors.New("must be >= 0")}
	}
	if len(c.Password.Schemes) == 0 && c.Password.Default == "" {
		return &ConfigurationError{Field: "password.schemes", Err: errors.New("at least one scheme is required")}
	}
	return nil
}

func (c AuthConfig) managerConfig() jwt.Config {
	cfg := jwt.Config{
		Algorithm:     c.Algorithm,
		KeyID:         c.KeyID,
		Issuer:        c.Issuer,
		Audience:      c.Audience,
		Leeway:        c.Leeway,
		RequireExpiry: c.RequireExpiry,
	}
	if c.SecretKey != "" {
		cfg.SecretKey = []byte(c.SecretKey)
	}
	if c.PrivateKey != "" {
		cfg.PrivateKey = []byte(c.PrivateKey)
	}
	if c.PublicKey != "" {
		cfg.PublicKey = []byte(c.PublicKey)
	}
	return cfg
}

func (c PasswordConfig) contextConfig() password.ContextConfig {
	return password.ContextConfig{
		Schemes: append([]string(nil), c.Schemes...),
		Default: c.Default,
		Bcrypt:  password.BcryptConfig{Cost: c.BcryptCost},
		Argon2: password.Argon2Config{
			Memory:      c.Argon2Memory,
			Time:        c.Argon2Time,
			Parallelism: c.Argon2Parallelism,
			SaltLength:  c.Argon2SaltLength,
			KeyLength:   c.Argon2KeyLength,
		},
		MaxPasswordBytes: c.MaxPasswordBytes,
	}
}

func cloneConfig(in Config) Config {
	out := in
	out.Password.Schemes = append([]string(nil), in.Password.Schemes...)
	return out
}

// ConfigFromMap decodes an untyped configuration tree, such as one read from a file
// or assembled from the environment, on top of DefaultConfig. Unknown keys are
// rejected. Durations accept Go duration strings; scheme lists accept
// comma-separated strings.
func ConfigFromMap(m map[string]interface{}) (Config, error) {
	cfg := DefaultConfig()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		ZeroFields:       true,
		Result:           &cfg,
	})
	if err != nil {
		return Config{}, errors.Wrap(err, "config decoder")
	}
	if err := dec.Decode(m); err != nil {
		return Config{}, &ConfigurationError{Err: errors.Wrap(err, "decode config")}
	}
	return cfg, nil
}

// ConfigFromEnv builds the configuration tree from environment variables named
// PREFIX_SECTION_KEY, e.g. CREDCORE_AUTH_SECRET_KEY, and decodes it with
// ConfigFromMap. A nil environ reads the process environment.
func ConfigFromEnv(prefix string, environ []string) (Config, error) {
	if environ == nil {
		environ = os.Environ()
	}
	prefix = strings.ToUpper(strings.TrimSuffix(prefix, "_")) + "_"

	tree := map[string]interface{}{}
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		section, key, ok := strings.Cut(strings.ToLower(strings.TrimPrefix(name, prefix)), "_")
		if !ok || key == "" {
			continue
		}
		sub, _ := tree[section].(map[string]interface{})
		if sub == nil {
			sub = map[string]interface{}{}
			tree[section] = sub
		}
		sub[key] = value
	}

	cfg, err := ConfigFromMap(tree)
	if err != nil {
		return Config{}, errors.WithMessage(err, "environment")
	}
	return cfg, nil
}
