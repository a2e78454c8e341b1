// Package password hashes and verifies passwords with adaptive, salted algorithms.
//
// # Schemes
//
// Two schemes are supported and identified by the prefix of the stored hash:
//
//	bcrypt    $2a$<cost>$<22 char salt><31 char digest>   (also $2b$, $2y$, legacy $2$)
//	argon2id  $argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// A [Context] enables one or more schemes and hashes new passwords with its default
// scheme. Every other enabled scheme is treated as deprecated: [Context.NeedsRehash]
// reports true for such hashes so the caller can replace them after the next successful
// login ([Context.VerifyAndUpdate] does both steps).
//
// # Verify outcomes
//
//   - match                                   → true, nil
//   - wrong password                          → false, nil
//   - enabled scheme, corrupt hash            → false, nil
//   - no scheme identifier (empty, garbage)   → false, nil
//   - $id$ of a scheme the Context can't use  → false, ErrUnsupportedScheme
//
// Only the last case is an error; it signals a deployment mismatch, not a bad login.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Import any other credcore package.
//   - Log plaintext passwords or hash parameters.
package password
