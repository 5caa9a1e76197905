package auth0

import (
	"context"
	"fmt"
	"net/url"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	auth "github.com/goliatone/go-session-auth"
)

// Verifier checks Auth0 id tokens against the tenant JWKS. It
// implements auth.IdentityTokenVerifier.
type Verifier struct {
	config    Config
	validator *validator.Validator
}

// NewVerifier builds a verifier for the tenant named by the config.
// The JWKS is fetched lazily and cached for Config.CacheTTL.
func NewVerifier(cfg Config) (*Verifier, error) {
	cfg = cfg.withDefaults()

	issuer := cfg.issuerURL()
	if issuer == "" {
		return nil, fmt.Errorf("auth0: issuer or domain is required")
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("auth0: client id is required")
	}

	issuerURL, err := url.Parse(issuer)
	if err != nil {
		return nil, fmt.Errorf("auth0: invalid issuer URL: %w", err)
	}
	if issuerURL.Scheme == "" || issuerURL.Host == "" {
		return nil, fmt.Errorf("auth0: invalid issuer URL: %s", issuer)
	}

	provider := jwks.NewCachingProvider(issuerURL, cfg.CacheTTL)

	// The id token audience is the application client id, not an API
	// identifier.
	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{cfg.ClientID},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &idTokenClaims{}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("auth0: failed to create validator: %w", err)
	}

	return &Verifier{
		config:    cfg,
		validator: jwtValidator,
	}, nil
}

type idTokenClaims struct {
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
}

func (c *idTokenClaims) Validate(ctx context.Context) error {
	return nil
}

// Verify implements auth.IdentityTokenVerifier.
func (v *Verifier) Verify(ctx context.Context, rawIDToken string) (*auth.IdentityClaims, error) {
	if rawIDToken == "" {
		return nil, auth.ErrTokenMissing
	}

	token, err := v.validator.ValidateToken(ctx, rawIDToken)
	if err != nil {
		return nil, verificationError(err, "")
	}

	validated, ok := token.(*validator.ValidatedClaims)
	if !ok || validated == nil {
		return nil, verificationError(nil, "token failed validation")
	}

	if validated.RegisteredClaims.Subject == "" {
		return nil, verificationError(nil, "token is missing a subject")
	}

	email := ""
	if custom, ok := validated.CustomClaims.(*idTokenClaims); ok && custom != nil {
		email = custom.Email
	}

	return &auth.IdentityClaims{
		Subject: validated.RegisteredClaims.Subject,
		Email:   email,
		Issuer:  validated.RegisteredClaims.Issuer,
	}, nil
}

func verificationError(err error, desc string) error {
	clone := auth.ErrInvalidIdentityToken.Clone()
	clone.Source = err

	meta := map[string]any{"provider": "auth0"}
	if desc != "" {
		meta["cause"] = desc
	} else if err != nil {
		meta["cause"] = err.Error()
	}

	return clone.WithMetadata(meta)
}

var _ auth.IdentityTokenVerifier = (*Verifier)(nil)
