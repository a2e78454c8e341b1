// Package jwt signs and verifies compact JWS tokens over a fixed algorithm and key set.
//
// A [Manager] is built once from [Config]. All key material is parsed by [NewManager],
// so a Manager that exists can always sign (if it holds a private key or secret) and
// verify; key problems surface at construction, never per token.
//
// Parse enforces, in order: three-segment structure, the configured "alg" (anything
// else, including "none", is rejected), the "kid" header when a key set is configured,
// the signature, and exp/nbf with the configured leeway. Signature comparison happens
// inside github.com/golang-jwt/jwt/v5 (HMAC via hmac.Equal, asymmetric via the
// standard verifiers).
//
// This package works with untyped claim maps. Schema decoding of the payload belongs
// to the caller.
package jwt
