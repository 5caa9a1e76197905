package auth0

import (
	"fmt"
	"strings"
	"time"
)

// DefaultScopes is the scope set requested when the config does not
// name its own.
func DefaultScopes() []string {
	return []string{"openid", "email", "profile"}
}

// Config holds the Auth0 tenant settings for the code flow and id
// token verification.
type Config struct {
	// Domain is the Auth0 tenant domain (e.g., "example.us.auth0.com").
	Domain string

	// ClientID is the application client id. Id tokens are validated
	// against it as the audience.
	ClientID string

	// ClientSecret is the application client secret, used when
	// exchanging the authorization code.
	ClientSecret string

	// CallbackURL is where the tenant redirects after consent.
	CallbackURL string

	// Scopes requested during login. Defaults to DefaultScopes.
	Scopes []string

	// Issuer overrides the default issuer URL (optional).
	// Default: "https://{Domain}/".
	Issuer string

	// CacheTTL is how long to cache JWKS keys.
	// Default: 5 minutes.
	CacheTTL time.Duration
}

func (c Config) withDefaults() Config {
	if len(c.Scopes) == 0 {
		c.Scopes = DefaultScopes()
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 5 * time.Minute
	}
	return c
}

func (c Config) issuerURL() string {
	if c.Issuer != "" {
		return normalizeIssuer(c.Issuer)
	}

	domain := strings.TrimSpace(c.Domain)
	if domain == "" {
		return ""
	}

	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		return normalizeIssuer(domain)
	}

	return fmt.Sprintf("https://%s/", strings.TrimSuffix(domain, "/"))
}

func normalizeIssuer(issuer string) string {
	issuer = strings.TrimSpace(issuer)
	if issuer == "" {
		return issuer
	}
	if strings.HasSuffix(issuer, "/") {
		return issuer
	}
	return issuer + "/"
}
