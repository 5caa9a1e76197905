package google

import (
	"net/http"
	"time"
)

const (
	defaultAuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultTokenURL = "https://oauth2.googleapis.com/token"
	defaultJWKSURL  = "https://www.googleapis.com/oauth2/v3/certs"
)

// defaultIssuers are the issuer values Google stamps on id tokens.
func defaultIssuers() []string {
	return []string{"https://accounts.google.com", "accounts.google.com"}
}

// DefaultScopes returns the default Google scopes.
func DefaultScopes() []string {
	return []string{"openid", "email", "profile"}
}

// Config holds Google OAuth configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
	Scopes       []string

	AuthURL  string
	TokenURL string
	JWKSURL  string

	// Issuers overrides the accepted iss values, for tests.
	Issuers []string

	HTTPClient *http.Client
}

func (c Config) withDefaults() Config {
	if len(c.Scopes) == 0 {
		c.Scopes = DefaultScopes()
	}
	if c.AuthURL == "" {
		c.AuthURL = defaultAuthURL
	}
	if c.TokenURL == "" {
		c.TokenURL = defaultTokenURL
	}
	if c.JWKSURL == "" {
		c.JWKSURL = defaultJWKSURL
	}
	if len(c.Issuers) == 0 {
		c.Issuers = defaultIssuers()
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return c
}
