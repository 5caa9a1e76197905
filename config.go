package auth

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
)

// EnvConfig is the environment-backed Config implementation. Zero value
// defaults are usable for everything but the signing keys.
type EnvConfig struct {
	SigningMethod     string        `env:"AUTH_SIGNING_METHOD"     envDefault:"RS256"`
	Issuer            string        `env:"AUTH_ISSUER"`
	Audience          []string      `env:"AUTH_AUDIENCE"           envSeparator:","`
	AccessTokenTTL    time.Duration `env:"AUTH_ACCESS_TOKEN_TTL"   envDefault:"10m"`
	RefreshTokenTTL   time.Duration `env:"AUTH_REFRESH_TOKEN_TTL"  envDefault:"720h"`
	AccessCookieName  string        `env:"AUTH_ACCESS_COOKIE"      envDefault:"access_token"`
	RefreshCookieName string        `env:"AUTH_REFRESH_COOKIE"     envDefault:"refresh_token"`
	CacheTTL          time.Duration `env:"AUTH_CACHE_TTL"          envDefault:"90s"`
	PrivateKeyPath    string        `env:"AUTH_PRIVATE_KEY_PATH"`
	PublicKeyPath     string        `env:"AUTH_PUBLIC_KEY_PATH"`
}

// LoadConfigFromEnv builds an EnvConfig from AUTH_* environment variables.
func LoadConfigFromEnv() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to parse auth environment")
	}
	return cfg, nil
}

// ReadSigningKeys loads the PEM key material referenced by the config.
// The private key is optional; a verify-only deployment configures just
// the public key path.
func (c *EnvConfig) ReadSigningKeys() (private []byte, public []byte, err error) {
	if c.PublicKeyPath == "" {
		return nil, nil, errors.New("AUTH_PUBLIC_KEY_PATH is required", errors.CategoryOperation)
	}

	public, err = os.ReadFile(c.PublicKeyPath)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CategoryOperation, "failed to read public key")
	}

	if c.PrivateKeyPath != "" {
		private, err = os.ReadFile(c.PrivateKeyPath)
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.CategoryOperation, "failed to read private key")
		}
	}

	return private, public, nil
}

func (c *EnvConfig) GetSigningMethod() string { return c.SigningMethod }

func (c *EnvConfig) GetIssuer() string { return c.Issuer }

func (c *EnvConfig) GetAudience() []string { return c.Audience }

func (c *EnvConfig) GetAccessTokenTTL() time.Duration { return c.AccessTokenTTL }

func (c *EnvConfig) GetRefreshTokenTTL() time.Duration { return c.RefreshTokenTTL }

func (c *EnvConfig) GetAccessCookieName() string { return c.AccessCookieName }

func (c *EnvConfig) GetRefreshCookieName() string { return c.RefreshCookieName }

func (c *EnvConfig) GetCacheTTL() time.Duration { return c.CacheTTL }

var _ Config = (*EnvConfig)(nil)
