package authjwt

import "time"

// Claims is the authenticated caller identity carried by a token.
type Claims struct {
	UserID    int64
	Email     string
	Admin     bool
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Provider signs and validates bearer tokens.
type Provider interface {
	GenerateToken(claims *Claims, ttl time.Duration) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}
