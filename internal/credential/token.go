package credential

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what the client reads out of a stored bearer token.
// The token is parsed without signature verification: only the server
// can verify it, the client just needs the subject and expiry to
// decide whether logging in again is necessary.
type TokenInfo struct {
	UserID    string
	Role      string
	ExpiresAt time.Time
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ParseToken extracts the subject, role and expiry from a bearer
// token.
func ParseToken(token string) (*TokenInfo, error) {
	var claims tokenClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	info := &TokenInfo{
		UserID: claims.Subject,
		Role:   claims.Role,
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

// Expired reports whether the token expires within the grace window.
// A token without an exp claim never reports expired.
func (t *TokenInfo) Expired(grace time.Duration) bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().Add(grace).After(t.ExpiresAt)
}
