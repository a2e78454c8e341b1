package jwt

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type keyFamily int

const (
	familyHMAC keyFamily = iota
	familyEd25519
	familyRSA
	familyECDSA
)

// supportedMethods maps accepted "alg" identifiers to their signing method and key
// family. "none" is deliberately absent.
var supportedMethods = map[string]struct {
	method jwt.SigningMethod
	family keyFamily
}{
	"HS256": {jwt.SigningMethodHS256, familyHMAC},
	"HS384": {jwt.SigningMethodHS384, familyHMAC},
	"HS512": {jwt.SigningMethodHS512, familyHMAC},
	"EDDSA": {jwt.SigningMethodEdDSA, familyEd25519},
	"RS256": {jwt.SigningMethodRS256, familyRSA},
	"RS384": {jwt.SigningMethodRS384, familyRSA},
	"RS512": {jwt.SigningMethodRS512, familyRSA},
	"ES256": {jwt.SigningMethodES256, familyECDSA},
	"ES384": {jwt.SigningMethodES384, familyECDSA},
	"ES512": {jwt.SigningMethodES512, familyECDSA},
}

// parsePrivateKey decodes an asymmetric signing key for family. Ed25519 keys may be
// raw 64-byte seeds+public or PEM; RSA and ECDSA keys must be PEM.
func parsePrivateKey(family keyFamily, method jwt.SigningMethod, key []byte) (crypto.Signer, error) {
	switch family {
	case familyEd25519:
		return parseEdPrivateKey(key)
	case familyRSA:
		k, err := jwt.ParseRSAPrivateKeyFromPEM(key)
		if err != nil {
			return nil, fmt.Errorf("invalid rsa private key: %w", err)
		}
		return k, nil
	case familyECDSA:
		k, err := jwt.ParseECPrivateKeyFromPEM(key)
		if err != nil {
			return nil, fmt.Errorf("invalid ecdsa private key: %w", err)
		}
		if err := checkCurve(method, &k.PublicKey); err != nil {
			return nil, err
		}
		return k, nil
	default:
		return nil, errors.New("private keys are not used with hmac methods")
	}
}

func parsePublicKey(family keyFamily, method jwt.SigningMethod, key []byte) (crypto.PublicKey, error) {
	switch family {
	case familyEd25519:
		return parseEdPublicKey(key)
	case familyRSA:
		k, err := jwt.ParseRSAPublicKeyFromPEM(key)
		if err != nil {
			return nil, fmt.Errorf("invalid rsa public key: %w", err)
		}
		return k, nil
	case familyECDSA:
		k, err := jwt.ParseECPublicKeyFromPEM(key)
		if err != nil {
			return nil, fmt.Errorf("invalid ecdsa public key: %w", err)
		}
		if err := checkCurve(method, k); err != nil {
			return nil, err
		}
		return k, nil
	default:
		return nil, errors.New("public keys are not used with hmac methods")
	}
}

func checkCurve(method jwt.SigningMethod, pub *ecdsa.PublicKey) error {
	m, ok := method.(*jwt.SigningMethodECDSA)
	if !ok {
		return errors.New("not an ecdsa method")
	}
	if pub.Curve.Params().BitSize != m.CurveBits {
		return fmt.Errorf("ecdsa key curve does not match %s", m.Alg())
	}
	return nil
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}

func rsaKeyBits(pub crypto.PublicKey) int {
	if k, ok := pub.(*rsa.PublicKey); ok {
		return k.N.BitLen()
	}
	return 0
}
