// Package middleware adapts credcore token validation to net/http.
//
// [RequireBearer] reads the Authorization header, calls TokenIssuer.FetchData and
// injects the verified claims into the request context. [RequireScope] additionally
// checks one granted scope.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to the TokenIssuer).
//   - Reveal to the client why a token was rejected.
package middleware
