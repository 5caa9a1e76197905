package google

import (
	"context"
	"log"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	auth "github.com/goliatone/go-session-auth"
)

// Verifier checks Google id tokens against the provider JWKS. It
// implements auth.IdentityTokenVerifier; signature, expiry, audience,
// and issuer all have to hold before any claims come back.
type Verifier struct {
	config Config
	jwks   *keyfunc.JWKS
	parser *jwt.Parser
}

// NewVerifier fetches the Google signing keys and keeps them refreshed
// in the background.
func NewVerifier(cfg Config) (*Verifier, error) {
	cfg = cfg.withDefaults()

	jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
		Client: cfg.HTTPClient,
		RefreshErrorHandler: func(err error) {
			log.Printf("failed to refresh google JWK set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, err
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithAudience(cfg.ClientID),
		jwt.WithExpirationRequired(),
	)

	return &Verifier{
		config: cfg,
		jwks:   jwks,
		parser: parser,
	}, nil
}

// Close stops the background JWKS refresh.
func (v *Verifier) Close() {
	v.jwks.EndBackground()
}

type idTokenClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
}

// Verify implements auth.IdentityTokenVerifier.
func (v *Verifier) Verify(ctx context.Context, rawIDToken string) (*auth.IdentityClaims, error) {
	if rawIDToken == "" {
		return nil, auth.ErrTokenMissing
	}

	claims := &idTokenClaims{}
	token, err := v.parser.ParseWithClaims(rawIDToken, claims, v.jwks.Keyfunc)
	if err != nil {
		return nil, verificationError(err, "")
	}

	if !token.Valid {
		return nil, verificationError(nil, "token failed validation")
	}

	if !v.issuerAllowed(claims.Issuer) {
		return nil, verificationError(nil, "unexpected issuer: "+claims.Issuer)
	}

	if claims.Subject == "" {
		return nil, verificationError(nil, "token is missing a subject")
	}

	return &auth.IdentityClaims{
		Subject: claims.Subject,
		Email:   claims.Email,
		Issuer:  claims.Issuer,
	}, nil
}

func (v *Verifier) issuerAllowed(issuer string) bool {
	for _, allowed := range v.config.Issuers {
		if issuer == allowed {
			return true
		}
	}
	return false
}

func verificationError(err error, desc string) error {
	clone := auth.ErrInvalidIdentityToken.Clone()
	clone.Source = err

	meta := map[string]any{"provider": "google"}
	if desc != "" {
		meta["cause"] = desc
	} else if err != nil {
		meta["cause"] = err.Error()
	}

	return clone.WithMetadata(meta)
}

var _ auth.IdentityTokenVerifier = (*Verifier)(nil)
