package auth_test

import (
	"context"
	"time"

	"github.com/goliatone/go-session-auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// testConfig implements auth.Config with fixed values.
type testConfig struct {
	method     string
	issuer     string
	audience   []string
	accessTTL  time.Duration
	refreshTTL time.Duration
	cacheTTL   time.Duration
}

func newTestConfig() testConfig {
	return testConfig{
		method:     "RS256",
		issuer:     "auth-test",
		audience:   []string{"api"},
		accessTTL:  10 * time.Minute,
		refreshTTL: 720 * time.Hour,
		cacheTTL:   90 * time.Second,
	}
}

func (c testConfig) GetSigningMethod() string          { return c.method }
func (c testConfig) GetIssuer() string                 { return c.issuer }
func (c testConfig) GetAudience() []string             { return c.audience }
func (c testConfig) GetAccessTokenTTL() time.Duration  { return c.accessTTL }
func (c testConfig) GetRefreshTokenTTL() time.Duration { return c.refreshTTL }
func (c testConfig) GetAccessCookieName() string       { return "access_token" }
func (c testConfig) GetRefreshCookieName() string      { return "refresh_token" }
func (c testConfig) GetCacheTTL() time.Duration        { return c.cacheTTL }

// MockUsers implements auth.Users
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockUsers) GetByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockUsers) Create(ctx context.Context, record *auth.User) (*auth.User, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *auth.User) (*auth.User, error) {
	args := m.Called(ctx, tx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockUsers) FindOrProvisionByExternalID(ctx context.Context, externalID string) (*auth.User, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

// MockSessions implements auth.Sessions
type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) CreateOrReuse(ctx context.Context, candidate *auth.Session) (*auth.Session, error) {
	args := m.Called(ctx, candidate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Session), args.Error(1)
}

func (m *MockSessions) GetActive(ctx context.Context, sessionUUID string) (*auth.Session, error) {
	args := m.Called(ctx, sessionUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Session), args.Error(1)
}

func (m *MockSessions) ListForSubject(ctx context.Context, sub uuid.UUID) ([]*auth.Session, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auth.Session), args.Error(1)
}

func (m *MockSessions) Revoke(ctx context.Context, sessionUUID string) error {
	args := m.Called(ctx, sessionUUID)
	return args.Error(0)
}

func (m *MockSessions) RevokeOwned(ctx context.Context, actingSub uuid.UUID, targetUUID string) error {
	args := m.Called(ctx, actingSub, targetUUID)
	return args.Error(0)
}

// MockVerifier implements auth.IdentityTokenVerifier
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, rawIDToken string) (*auth.IdentityClaims, error) {
	args := m.Called(ctx, rawIDToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.IdentityClaims), args.Error(1)
}
