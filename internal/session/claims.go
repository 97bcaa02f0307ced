package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/equipx/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields the client reads from the token payload.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Decode parses the payload of token without checking its signature.
func Decode(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, shared.ErrNotAuthenticated
	}

	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidToken, err)
	}
	return &claims, nil
}

// Expired is true when exp is missing or already in the past.
func (c *Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return true
	}
	return c.ExpiresAt.Time.Before(now)
}

// Expiry returns the expiry, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
