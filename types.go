package credcore

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// TokenType discriminates issued tokens. It travels as a string tag so new variants
// do not affect tokens already issued.
type TokenType string

const (
	// TokenTypeBearer grants access to whoever presents the token.
	TokenTypeBearer TokenType = "bearer"
)

// Valid reports whether t is a known token type.
func (t TokenType) Valid() bool {
	return t == TokenTypeBearer
}

// Token is the result of issuance.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   TokenType `json:"token_type"`
}

// Scopes is a list of granted scopes, carried on the wire as one space-delimited
// "scope" claim.
type Scopes []string

// TokenData is the claim set carried by an access token.
//
// Zero-valued fields are unset and are omitted from the signed payload. Times are
// second precision on the wire; decoded times are in UTC. Use Claims for a JSON view.
//
// A fetched TokenData equals the Normalize form of the one that was issued. For data
// already in that form the round trip is exact.
type TokenData struct {
	Subject   string                 `mapstructure:"sub"`
	Issuer    string                 `mapstructure:"iss"`
	Audience  []string               `mapstructure:"aud"`
	ExpiresAt time.Time              `mapstructure:"exp"`
	NotBefore time.Time              `mapstructure:"nbf"`
	IssuedAt  time.Time              `mapstructure:"iat"`
	ID        string                 `mapstructure:"jti"`
	Scopes    Scopes                 `mapstructure:"scope"`
	// Extra holds custom claims. Values follow JSON value semantics: numbers come
	// back as float64, arrays as []interface{} and objects as map[string]interface{}.
	Extra map[string]interface{} `mapstructure:"ext"`
}

// Normalize returns d in the shape FetchData produces: times truncated to whole
// seconds in UTC, Extra passed through JSON, scopes split on whitespace and empty
// collections set to nil. d is not modified. The error reports Extra values that
// cannot be encoded as JSON.
func (d TokenData) Normalize() (TokenData, error) {
	out := d
	out.ExpiresAt = normalizeTime(d.ExpiresAt)
	out.NotBefore = normalizeTime(d.NotBefore)
	out.IssuedAt = normalizeTime(d.IssuedAt)

	out.Audience = nil
	if len(d.Audience) > 0 {
		out.Audience = append([]string(nil), d.Audience...)
	}
	out.Scopes = nil
	if fields := strings.Fields(strings.Join(d.Scopes, " ")); len(fields) > 0 {
		out.Scopes = Scopes(fields)
	}

	out.Extra = nil
	if len(d.Extra) > 0 {
		raw, err := json.Marshal(d.Extra)
		if err != nil {
			return TokenData{}, err
		}
		if err := json.Unmarshal(raw, &out.Extra); err != nil {
			return TokenData{}, err
		}
	}
	return out, nil
}

func normalizeTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return t.Truncate(time.Second).UTC()
}

// Claims serializes d into a fresh claim map. Unset fields are absent rather than
// null; the returned map shares no slices or maps with d.
func (d TokenData) Claims() map[string]interface{} {
	claims := make(map[string]interface{}, 9)
	if d.Subject != "" {
		claims["sub"] = d.Subject
	}
	if d.Issuer != "" {
		claims["iss"] = d.Issuer
	}
	switch len(d.Audience) {
	case 0:
	case 1:
		claims["aud"] = d.Audience[0]
	default:
		claims["aud"] = append([]string(nil), d.Audience...)
	}
	if !d.ExpiresAt.IsZero() {
		claims["exp"] = d.ExpiresAt.Unix()
	}
	if !d.NotBefore.IsZero() {
		claims["nbf"] = d.NotBefore.Unix()
	}
	if !d.IssuedAt.IsZero() {
		claims["iat"] = d.IssuedAt.Unix()
	}
	if d.ID != "" {
		claims["jti"] = d.ID
	}
	if len(d.Scopes) > 0 {
		claims["scope"] = strings.Join(d.Scopes, " ")
	}
	if len(d.Extra) > 0 {
		extra := make(map[string]interface{}, len(d.Extra))
		for k, v := range d.Extra {
			extra[k] = v
		}
		claims["ext"] = extra
	}
	return claims
}

// HasScope reports whether scope was granted.
func (d TokenData) HasScope(scope string) bool {
	for _, s := range d.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

func (d TokenData) validate() error {
	if d.Subject == "" {
		return errors.New("missing required claim \"sub\"")
	}
	return nil
}

var errSchema = errors.New("token payload does not match schema")

// TokenDataFromClaims decodes a verified claim map. Unknown claims, a missing "sub"
// and mistyped values are rejected with a *CredentialError of ReasonSchema.
func TokenDataFromClaims(claims map[string]interface{}) (TokenData, error) {
	var out TokenData
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			numericDateHook,
			audienceHook,
			scopesHook,
		),
		ErrorUnused: true,
		Result:      &out,
	})
	if err != nil {
		return TokenData{}, err
	}

	if err := dec.Decode(claims); err != nil {
		return TokenData{}, newCredentialError(ReasonSchema, fmt.Errorf("%w: %v", errSchema, err))
	}
	if err := out.validate(); err != nil {
		return TokenData{}, newCredentialError(ReasonSchema, fmt.Errorf("%w: %v", errSchema, err))
	}
	return out, nil
}

var (
	timeType     = reflect.TypeOf(time.Time{})
	audienceType = reflect.TypeOf([]string(nil))
	scopesType   = reflect.TypeOf(Scopes(nil))
)

// numericDateHook turns JSON numeric dates (seconds since epoch) into UTC times.
// Fractional seconds are truncated.
func numericDateHook(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != timeType {
		return data, nil
	}
	switch v := data.(type) {
	case float64:
		return time.Unix(int64(v), 0).UTC(), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid numeric date %q", v)
		}
		return time.Unix(int64(f), 0).UTC(), nil
	case int64:
		return time.Unix(v, 0).UTC(), nil
	case int:
		return time.Unix(int64(v), 0).UTC(), nil
	}
	return data, nil
}

// audienceHook accepts the single-string form of "aud".
func audienceHook(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if s, ok := data.(string); ok && to == audienceType {
		return []string{s}, nil
	}
	return data, nil
}

func scopesHook(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if s, ok := data.(string); ok && to == scopesType {
		return Scopes(strings.Fields(s)), nil
	}
	return data, nil
}
