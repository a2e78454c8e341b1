package credcore

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/credcore/jwt"
)

// Builder assembles a TokenBackend from a Config. A Builder is single-use.
type Builder struct {
	config Config
	logger *zap.Logger
	clock  func() time.Time
	newID  func() string

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithLogger sets the logger for rejection causes and configuration failures.
// The default discards everything.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides the time source used for exp/nbf/iat. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithTokenIDGenerator overrides the jti generator used when
// AuthConfig.GenerateTokenID is set.
func (b *Builder) WithTokenIDGenerator(gen func() string) *Builder {
	b.newID = gen
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and constructs the backends. Every failure is a
// *ConfigurationError. An asymmetric configuration with only a public key yields a
// verify-only backend whose CreateAccessToken fails with a *ConfigurationError.
func (b *Builder) Build() (*TokenBackend, error) {
	if b.built {
		return nil, &ConfigurationError{Err: errors.New("builder already used")}
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := NewMetrics(cfg.Metrics)

	passwords, err := newPasswordBackend(cfg.Password, logger.Named("password"), metrics)
	if err != nil {
		return nil, err
	}

	mc := cfg.Auth.managerConfig()
	mc.Now = b.clock
	signer, err := jwt.NewManager(mc)
	if err != nil {
		return nil, &ConfigurationError{Field: "auth", Err: err}
	}

	newID := b.newID
	if newID == nil {
		newID = newTokenID
	}

	b.built = true
	return &TokenBackend{
		PasswordHasher: passwords,
		passwords:      passwords,
		signer:         signer,
		auth:           cfg.Auth,
		logger:         logger.Named("token"),
		metrics:        metrics,
		newID:          newID,
	}, nil
}
