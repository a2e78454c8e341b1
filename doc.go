// Package credcore turns passwords into verifiable adaptive hashes and authenticated
// identities into signed, self-contained bearer tokens.
//
// Two capabilities are exposed as interfaces. [PasswordHasher] verifies and creates
// password hashes; [TokenIssuer] creates access tokens and fetches their claims back
// as [TokenData]. [TokenBackend], built by [Builder.Build], implements both: it holds a
// [PasswordBackend] rather than extending it.
//
// # Error taxonomy
//
// Every rejected token yields a [*CredentialError] (errors.Is(err, ErrCredential)).
// Its Reason tells signature/format, expiry and schema failures apart for logs; the
// presenter of the token must only ever learn "unauthorized". Missing or unusable
// keys, algorithms or hash schemes yield a [*ConfigurationError]
// (errors.Is(err, ErrConfiguration)), which indicates a deployment problem and should
// be escalated rather than mapped to 401.
//
// Password verification never returns a CredentialError: a wrong password or corrupt
// hash is simply false.
//
// # Concurrency
//
// Backends are immutable after Build. All operations are CPU-bound, perform no I/O
// apart from optional debug logging, and may be called from any number of goroutines.
//
// # What this package must NOT do
//
//   - Track issued tokens, revoke them, rotate refresh tokens or store sessions.
//   - Rate-limit authentication attempts.
//   - Read configuration from globals inside an operation.
package credcore
