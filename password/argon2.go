package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// SchemeArgon2id is the scheme name and PHC identifier for Argon2id hashes.
const SchemeArgon2id = "argon2id"

const (
	minArgonMemoryKB    uint32 = 8 * 1024
	minArgonTime        uint32 = 1
	minArgonParallelism uint8  = 1
	minArgonSaltLength  uint32 = 16
	minArgonKeyLength   uint32 = 16
)

// Argon2Config holds the Argon2id cost parameters used for new hashes.
type Argon2Config struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Config returns the parameters recommended for interactive logins.
func DefaultArgon2Config() Argon2Config {
	return Argon2Config{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Argon2 hashes passwords with Argon2id and encodes them as PHC strings.
type Argon2 struct {
	config Argon2Config
}

type argonPHC struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
}

// NewArgon2 validates cfg against the parameter floors and returns a hasher.
func NewArgon2(cfg Argon2Config) (*Argon2, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Argon2{config: cfg}, nil
}

// Name returns SchemeArgon2id.
func (a *Argon2) Name() string { return SchemeArgon2id }

// Identify reports whether encoded carries the Argon2id PHC identifier. It does not
// check the rest of the string.
func (a *Argon2) Identify(encoded string) bool {
	return strings.HasPrefix(encoded, "$"+SchemeArgon2id+"$")
}

// Hash derives a key from password with a fresh random salt.
func (a *Argon2) Hash(password string) (string, error) {
	// Raw string bytes are hashed exactly as provided; no Unicode normalization.
	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("argon2id salt: %w", err)
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		a.config.Time,
		a.config.Memory,
		a.config.Parallelism,
		a.config.KeyLength,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		SchemeArgon2id,
		argon2.Version,
		a.config.Memory,
		a.config.Time,
		a.config.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the key with the parameters stored in encoded and compares in
// constant time. A corrupt encoding yields ErrMalformedHash.
func (a *Argon2) Verify(password, encoded string) (bool, error) {
	parsed, err := parseArgonPHC(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(password),
		parsed.salt,
		parsed.time,
		parsed.memory,
		parsed.parallelism,
		uint32(len(parsed.hash)),
	)

	return subtle.ConstantTimeCompare(computed, parsed.hash) == 1, nil
}

// NeedsUpgrade reports whether encoded was produced with weaker parameters than the
// configured ones.
func (a *Argon2) NeedsUpgrade(encoded string) (bool, error) {
	parsed, err := parseArgonPHC(encoded)
	if err != nil {
		return false, err
	}

	switch {
	case a.config.Memory > parsed.memory,
		a.config.Time > parsed.time,
		a.config.Parallelism > parsed.parallelism,
		a.config.KeyLength != uint32(len(parsed.hash)):
		return true, nil
	}
	return false, nil
}

func parseArgonPHC(encoded string) (*argonPHC, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != SchemeArgon2id {
		return nil, malformed("invalid PHC layout")
	}

	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil || !strings.HasPrefix(parts[2], "v=") {
		return nil, malformed("invalid argon2 version")
	}
	if version != argon2.Version {
		return nil, malformed("unsupported argon2 version")
	}

	out := &argonPHC{}
	if err := parseArgonParams(parts[3], out); err != nil {
		return nil, err
	}

	out.salt, err = decodePHCBase64(parts[4])
	if err != nil || len(out.salt) < int(minArgonSaltLength) {
		return nil, malformed("invalid salt")
	}
	out.hash, err = decodePHCBase64(parts[5])
	if err != nil || len(out.hash) == 0 {
		return nil, malformed("invalid digest")
	}

	return out, nil
}

// decodePHCBase64 accepts both the unpadded PHC alphabet and padded standard base64
// so hashes written by older encoders still verify.
func decodePHCBase64(s string) ([]byte, error) {
	if strings.HasSuffix(s, "=") {
		return base64.StdEncoding.DecodeString(s)
	}
	return base64.RawStdEncoding.DecodeString(s)
}

func parseArgonParams(part string, out *argonPHC) error {
	pairs := strings.Split(part, ",")
	if len(pairs) != 3 {
		return malformed("invalid parameter format")
	}

	var memorySet, timeSet, parallelismSet bool
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return malformed("invalid parameter entry")
		}

		switch key {
		case "m":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil || v < uint64(minArgonMemoryKB) {
				return malformed("invalid memory parameter")
			}
			out.memory = uint32(v)
			memorySet = true
		case "t":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil || v < uint64(minArgonTime) {
				return malformed("invalid time parameter")
			}
			out.time = uint32(v)
			timeSet = true
		case "p":
			v, err := strconv.ParseUint(value, 10, 8)
			if err != nil || v < uint64(minArgonParallelism) {
				return malformed("invalid parallelism parameter")
			}
			out.parallelism = uint8(v)
			parallelismSet = true
		default:
			return malformed("unsupported parameter")
		}
	}

	if !memorySet || !timeSet || !parallelismSet {
		return malformed("missing parameters")
	}
	return nil
}

func (c Argon2Config) validate() error {
	switch {
	case c.Memory < minArgonMemoryKB:
		return errors.New("argon2id memory must be >= 8192 KiB")
	case c.Time < minArgonTime:
		return errors.New("argon2id time must be >= 1")
	case c.Parallelism < minArgonParallelism:
		return errors.New("argon2id parallelism must be >= 1")
	case c.SaltLength < minArgonSaltLength:
		return errors.New("argon2id salt length must be >= 16")
	case c.KeyLength < minArgonKeyLength:
		return errors.New("argon2id key length must be >= 16")
	}
	return nil
}

func malformed(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformedHash, reason)
}
