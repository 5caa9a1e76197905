package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Logger interface {
	Debug(message string, args ...any)
	Info(message string, args ...any)
	Warn(message string, args ...any)
	Error(message string, args ...any)
}

// LoggerProvider hands out named loggers so each component can log under
// its own scope (e.g. "auth.sessions", "auth.tokens").
type LoggerProvider interface {
	GetLogger(name string) Logger
}

// ResolveLogger picks the effective logger for a component: a provider
// scope wins, then the explicit fallback, then the package default.
func ResolveLogger(name string, provider LoggerProvider, fallback Logger) (LoggerProvider, Logger) {
	if provider != nil {
		if logger := provider.GetLogger(name); logger != nil {
			return provider, logger
		}
	}

	if fallback != nil {
		return provider, fallback
	}

	return provider, defLogger{}
}

// Identity holds the attributes of an authenticated principal.
type Identity interface {
	ID() string
	Username() string
}

// TokenService encodes and decodes the signed, expiring, typed tokens the
// rest of the package trades in.
type TokenService interface {
	Issue(identity Identity, sessionUUID string, tokenType TokenType, ttl time.Duration) (string, error)
	SignClaims(claims *TokenClaims) (string, error)
	Validate(tokenString string) (*TokenClaims, error)
	ValidateTyped(tokenString string, expected TokenType) (*TokenClaims, error)
}

// Sessions owns the session row lifecycle.
type Sessions interface {
	// CreateOrReuse returns the session for (sub, name, ip), flipping an
	// existing row back to active or inserting a fresh one. Safe under
	// concurrent logins sharing the same key.
	CreateOrReuse(ctx context.Context, candidate *Session) (*Session, error)
	// GetActive returns the session only while its status is active;
	// callers treat nil result and inactive status identically.
	GetActive(ctx context.Context, sessionUUID string) (*Session, error)
	ListForSubject(ctx context.Context, sub uuid.UUID) ([]*Session, error)
	// Revoke flips status to disabled unconditionally. Idempotent.
	Revoke(ctx context.Context, sessionUUID string) error
	// RevokeOwned flips status to disabled only when the target belongs to
	// actingSub; otherwise ErrSessionNotFound.
	RevokeOwned(ctx context.Context, actingSub uuid.UUID, targetUUID string) error
}

// Users owns the user row lifecycle.
type Users interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	Create(ctx context.Context, record *User) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	// FindOrProvisionByExternalID maps a federated identity 1:1 onto a
	// local passwordless account, provisioning it on first login.
	FindOrProvisionByExternalID(ctx context.Context, externalID string) (*User, error)
}

// IdentityClaims are the verified claims extracted from a federated
// provider's id token.
type IdentityClaims struct {
	Subject string
	Email   string
	Issuer  string
}

// IdentityTokenVerifier verifies a third-party id token and returns its
// claims. Implementations fetch and cache the provider signing keys.
type IdentityTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*IdentityClaims, error)
}

// DeviceInfo describes the client instance a login originates from. Name
// and IP participate in the session coalescing key.
type DeviceInfo struct {
	Name string
	IP   string
}

// TokenPair carries the two bearer tokens a login issues.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, input LoginInput) (*TokenPair, error)
	LoginFederated(ctx context.Context, rawIDToken string, device DeviceInfo) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, rawToken string) error
	AbortSession(ctx context.Context, rawToken, targetUUID string) error
	Sessions(ctx context.Context, accessToken string) ([]*Session, error)
}

// LoginInput is the credential + connection metadata bundle for a
// password login.
type LoginInput struct {
	Username string
	Password string
	Device   DeviceInfo
	// CanAbort grants the resulting session the right to revoke sibling
	// sessions of the same subject.
	CanAbort bool
}

// Config holds auth options
type Config interface {
	GetSigningMethod() string
	GetIssuer() string
	GetAudience() []string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetAccessCookieName() string
	GetRefreshCookieName() string
	GetCacheTTL() time.Duration
}

type defLogger struct{}

func (d defLogger) Debug(message string, args ...any) { d.print("DBG", message, args...) }
func (d defLogger) Info(message string, args ...any)  { d.print("INF", message, args...) }
func (d defLogger) Warn(message string, args ...any)  { d.print("WRN", message, args...) }
func (d defLogger) Error(message string, args ...any) { d.print("ERR", message, args...) }

func (d defLogger) print(level, message string, args ...any) {
	if len(args) > 0 {
		fmt.Printf("[%s] AUTH %s %v\n", level, message, args)
		return
	}
	fmt.Printf("[%s] AUTH %s\n", level, message)
}
