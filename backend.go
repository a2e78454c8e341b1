package credcore

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MrEthical07/credcore/jwt"
	"github.com/MrEthical07/credcore/password"
)

// PasswordHasher is the one-way password capability.
type PasswordHasher interface {
	// Verify reports whether password matches hashedPassword. A mismatch, including
	// a corrupt hash, is false with a nil error; only a *ConfigurationError is
	// returned as an error.
	Verify(password, hashedPassword string) (bool, error)
	// CreatePasswordHash returns a self-describing salted hash of password. A
	// password over the configured length limit is an *InputError; any other error
	// means the system entropy source failed.
	CreatePasswordHash(password string) (string, error)
}

// TokenIssuer is the signed-token capability.
type TokenIssuer interface {
	CreateAccessToken(data TokenData) (Token, error)
	FetchData(accessToken string) (TokenData, error)
}

/*
====================================
PASSWORD BACKEND
====================================
*/

// PasswordBackend implements PasswordHasher over a multi-scheme password.Context.
type PasswordBackend struct {
	ctx     *password.Context
	logger  *zap.Logger
	metrics *Metrics
}

var _ PasswordHasher = (*PasswordBackend)(nil)

// NewPasswordBackend builds a standalone hasher for callers that never issue tokens.
func NewPasswordBackend(cfg PasswordConfig) (*PasswordBackend, error) {
	return newPasswordBackend(cfg, zap.NewNop(), nil)
}

func newPasswordBackend(cfg PasswordConfig, logger *zap.Logger, metrics *Metrics) (*PasswordBackend, error) {
	ctx, err := password.NewContext(cfg.contextConfig())
	if err != nil {
		return nil, &ConfigurationError{Field: "password", Err: err}
	}
	return &PasswordBackend{ctx: ctx, logger: logger, metrics: metrics}, nil
}

func (b *PasswordBackend) Verify(pw, hashedPassword string) (bool, error) {
	start := time.Now()
	ok, err := b.ctx.Verify(pw, hashedPassword)
	b.metrics.Observe(MetricHashLatency, time.Since(start))
	if err != nil {
		b.metrics.Inc(MetricPasswordSchemeUnsupported)
		b.logger.Error("stored password hash uses a scheme this deployment cannot verify", zap.Error(err))
		return false, &ConfigurationError{Field: "password.schemes", Err: err}
	}
	if ok {
		b.metrics.Inc(MetricPasswordMatch)
	} else {
		b.metrics.Inc(MetricPasswordMismatch)
	}
	return ok, nil
}

func (b *PasswordBackend) CreatePasswordHash(pw string) (string, error) {
	start := time.Now()
	hashed, err := b.ctx.Hash(pw)
	b.metrics.Observe(MetricHashLatency, time.Since(start))
	if err != nil {
		b.metrics.Inc(MetricPasswordHashFailed)
		if errors.Is(err, password.ErrPasswordTooLong) {
			return "", &InputError{Field: "password", Err: err}
		}
		return "", err
	}
	b.metrics.Inc(MetricPasswordHashed)
	return hashed, nil
}

// NeedsRehash reports whether hashedPassword uses a deprecated scheme or weaker
// parameters than configured.
func (b *PasswordBackend) NeedsRehash(hashedPassword string) (bool, error) {
	needs, err := b.ctx.NeedsRehash(hashedPassword)
	if errors.Is(err, password.ErrUnsupportedScheme) {
		return false, &ConfigurationError{Field: "password.schemes", Err: err}
	}
	return needs, err
}

// VerifyAndUpdate verifies pw and returns a replacement hash when the stored one is
// due for an upgrade. newHash is empty otherwise.
func (b *PasswordBackend) VerifyAndUpdate(pw, hashedPassword string) (ok bool, newHash string, err error) {
	ok, newHash, err = b.ctx.VerifyAndUpdate(pw, hashedPassword)
	switch {
	case errors.Is(err, password.ErrUnsupportedScheme):
		b.metrics.Inc(MetricPasswordSchemeUnsupported)
		return false, "", &ConfigurationError{Field: "password.schemes", Err: err}
	case err != nil:
		return ok, "", err
	}
	if ok {
		b.metrics.Inc(MetricPasswordMatch)
	} else {
		b.metrics.Inc(MetricPasswordMismatch)
	}
	if newHash != "" {
		b.metrics.Inc(MetricPasswordRehashNeeded)
	}
	return ok, newHash, nil
}

// DefaultScheme returns the scheme used for new hashes.
func (b *PasswordBackend) DefaultScheme() string { return b.ctx.DefaultScheme() }

/*
====================================
TOKEN BACKEND
====================================
*/

// TokenBackend issues and validates bearer tokens. It carries a PasswordHasher, so a
// caller holding a TokenBackend can also hash and verify passwords.
//
// TokenBackend is immutable after Build and safe for concurrent use.
type TokenBackend struct {
	PasswordHasher

	passwords *PasswordBackend
	signer    *jwt.Manager
	auth      AuthConfig
	logger    *zap.Logger
	metrics   *Metrics
	newID     func() string
}

var _ TokenIssuer = (*TokenBackend)(nil)

// Passwords returns the concrete password backend for rehash support.
func (b *TokenBackend) Passwords() *PasswordBackend { return b.passwords }

// CreateAccessToken signs the Normalize form of data as a bearer token. data is not
// modified; configured defaults (issuer, audience, TTL, iat, jti) only fill claims
// data leaves unset. Extra values that do not encode as JSON are an *InputError.
func (b *TokenBackend) CreateAccessToken(data TokenData) (Token, error) {
	data, err := data.Normalize()
	if err != nil {
		b.metrics.Inc(MetricTokenIssueFailed)
		return Token{}, &InputError{Field: "ext", Err: err}
	}
	if err := data.validate(); err != nil {
		b.metrics.Inc(MetricTokenIssueFailed)
		return Token{}, newCredentialError(ReasonSchema, err)
	}

	claims := data.Claims()
	now := b.signer.Now()
	if _, ok := claims["iss"]; !ok && b.auth.Issuer != "" {
		claims["iss"] = b.auth.Issuer
	}
	if _, ok := claims["aud"]; !ok && b.auth.Audience != "" {
		claims["aud"] = b.auth.Audience
	}
	if _, ok := claims["exp"]; !ok && b.auth.AccessTTL > 0 {
		claims["exp"] = now.Add(b.auth.AccessTTL).Unix()
	}
	if _, ok := claims["iat"]; !ok && b.auth.StampIssuedAt {
		claims["iat"] = now.Unix()
	}
	if _, ok := claims["jti"]; !ok && b.auth.GenerateTokenID {
		claims["jti"] = b.newID()
	}

	signed, err := b.signer.Sign(claims)
	if err != nil {
		b.metrics.Inc(MetricTokenIssueFailed)
		b.logger.Error("access token signing failed", zap.String("alg", b.signer.Algorithm()), zap.Error(err))
		return Token{}, &ConfigurationError{Field: "auth", Err: err}
	}

	b.metrics.Inc(MetricTokenIssued)
	return Token{AccessToken: signed, TokenType: TokenTypeBearer}, nil
}

// FetchData verifies accessToken and decodes its claims. Every rejection is a
// *CredentialError; its Reason separates signature/format, expiry and schema
// failures for logs. A key-type mismatch inside the verifier is a
// *ConfigurationError.
func (b *TokenBackend) FetchData(accessToken string) (TokenData, error) {
	start := time.Now()
	defer func() { b.metrics.Observe(MetricFetchLatency, time.Since(start)) }()

	claims, err := b.signer.Parse(accessToken)
	if err != nil {
		if errors.Is(err, jwt.ErrInvalidKeyType) {
			b.metrics.Inc(MetricTokenConfigFailure)
			b.logger.Error("access token verification misconfigured", zap.String("alg", b.signer.Algorithm()), zap.Error(err))
			return TokenData{}, &ConfigurationError{Field: "auth", Err: err}
		}
		reason := ReasonToken
		if errors.Is(err, jwt.ErrTokenExpired) {
			reason = ReasonExpired
		}
		return TokenData{}, b.reject(newCredentialError(reason, err))
	}

	data, err := TokenDataFromClaims(claims)
	if err != nil {
		var ce *CredentialError
		if errors.As(err, &ce) {
			return TokenData{}, b.reject(ce)
		}
		return TokenData{}, err
	}

	b.metrics.Inc(MetricTokenAccepted)
	return data, nil
}

func (b *TokenBackend) reject(err *CredentialError) error {
	switch err.Reason {
	case ReasonExpired:
		b.metrics.Inc(MetricTokenRejectedExpired)
	case ReasonSchema:
		b.metrics.Inc(MetricTokenRejectedSchema)
	default:
		b.metrics.Inc(MetricTokenRejectedToken)
	}
	b.logger.Debug("access token rejected", zap.Stringer("reason", err.Reason), zap.String("cause", err.Cause))
	return err
}

// MetricsSnapshot returns the backend's counters.
func (b *TokenBackend) MetricsSnapshot() MetricsSnapshot {
	return b.metrics.Snapshot()
}

func newTokenID() string { return uuid.NewString() }
