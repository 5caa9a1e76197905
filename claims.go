package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType discriminates access tokens from refresh tokens. The two are
// structurally identical otherwise; only the type claim, the TTL, and the
// transport carrier differ.
type TokenType = string

const (
	// AccessToken is the short-lived credential authorizing requests
	AccessToken TokenType = "access"
	// RefreshToken is the long-lived credential that mints new access tokens
	RefreshToken TokenType = "refresh"
)

// TokenClaims is the signed claim bundle carried by every token. The
// server never stores it; it is reconstructed from the wire by signature
// verification alone.
type TokenClaims struct {
	jwt.RegisteredClaims
	Username    string    `json:"username,omitempty"`
	SessionUUID string    `json:"session_uuid,omitempty"`
	TokenType   TokenType `json:"type,omitempty"`
}

// UserID returns the owning user id carried in the subject claim.
func (c *TokenClaims) UserID() string {
	return c.RegisteredClaims.Subject
}

// Expires returns the expiration time
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// Issued returns the issuance time
func (c *TokenClaims) Issued() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// CheckType fails with ErrWrongTokenType unless the claims carry the
// expected type. Access and refresh tokens must never be interchangeable.
func (c *TokenClaims) CheckType(expected TokenType) error {
	if c.TokenType != expected {
		return ErrWrongTokenType
	}
	return nil
}
