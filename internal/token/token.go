// Package token holds the client-side token helpers: payload decoding,
// expiry checks, role normalization, and the durable token stores.
//
// Tokens are decoded without signature verification. The client only uses
// decoded claims for UI-level decisions (provisional identity, refresh
// scheduling); authorization is always re-checked by the server.
package token

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

// DefaultRefreshBuffer is how far ahead of expiry a token is considered
// due for refresh.
const DefaultRefreshBuffer = 5 * time.Minute

// Claims is the subset of the access-token payload the client consumes.
type Claims struct {
	Subject   string `json:"sub"`
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CompanyID int64  `json:"company_id"`
	Exp       int64  `json:"exp"`
}

// ExpiresAt returns the expiry time and whether the token carries one.
func (c *Claims) ExpiresAt() (time.Time, bool) {
	if c.Exp == 0 {
		return time.Time{}, false
	}
	return time.Unix(c.Exp, 0), true
}

// Decode splits a token on ".", base64url-decodes the payload segment and
// parses it. It returns nil on any malformed input and never panics. Both
// the url-safe ("-_") and standard ("+/") base64 alphabets are accepted,
// with or without padding.
func Decode(tok string) *Claims {
	parts := strings.Split(tok, ".")
	if len(parts) < 2 {
		return nil
	}

	seg := strings.TrimRight(parts[1], "=")
	seg = strings.ReplaceAll(seg, "+", "-")
	seg = strings.ReplaceAll(seg, "/", "_")

	raw, err := base64.RawURLEncoding.DecodeString(seg)
	if err != nil {
		return nil
	}

	var claims Claims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil
	}
	return &claims
}

// IsExpired reports whether the token is expired at now. Undecodable tokens
// are treated as expired. A token without an exp claim never expires.
func IsExpired(tok string, now time.Time) bool {
	claims := Decode(tok)
	if claims == nil {
		return true
	}
	exp, ok := claims.ExpiresAt()
	if !ok {
		return false
	}
	return !exp.After(now)
}

// ExpiresSoon reports whether the token expires within buffer of now, under
// the same decode rules as IsExpired.
func ExpiresSoon(tok string, buffer time.Duration, now time.Time) bool {
	claims := Decode(tok)
	if claims == nil {
		return true
	}
	exp, ok := claims.ExpiresAt()
	if !ok {
		return false
	}
	return !now.Add(buffer).Before(exp)
}
