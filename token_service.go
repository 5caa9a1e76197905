package auth

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenServiceImpl implements the TokenService interface with an
// asymmetric key pair. The signing method is fixed when the service is
// built; tokens signed under any other method are rejected outright.
type TokenServiceImpl struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	method     jwt.SigningMethod
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
}

// NewTokenService creates a new TokenService instance from PEM encoded
// keys. privatePEM may be nil for a verify-only service.
func NewTokenService(privatePEM, publicPEM []byte, cfg Config, logger Logger) (*TokenServiceImpl, error) {
	if logger == nil {
		logger = defLogger{}
	}

	methodName := "RS256"
	if cfg != nil && cfg.GetSigningMethod() != "" {
		methodName = cfg.GetSigningMethod()
	}

	method := jwt.GetSigningMethod(methodName)
	if _, ok := method.(*jwt.SigningMethodRSA); !ok {
		return nil, errors.New(
			fmt.Sprintf("unsupported signing method: %s", methodName),
			errors.CategoryBadInput,
		)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to parse public key")
	}

	ts := &TokenServiceImpl{
		publicKey: publicKey,
		method:    method,
		logger:    logger,
	}

	if cfg != nil {
		ts.issuer = cfg.GetIssuer()
		ts.audience = cfg.GetAudience()
	}

	if len(privatePEM) > 0 {
		privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to parse private key")
		}
		ts.privateKey = privateKey
	}

	return ts, nil
}

// Issue mints a token of the given type bound to a session. Type, iat,
// and exp are injected here; everything else comes from the identity.
func (ts *TokenServiceImpl) Issue(identity Identity, sessionUUID string, tokenType TokenType, ttl time.Duration) (string, error) {
	if identity == nil {
		return "", errors.New("identity must not be nil", errors.CategoryBadInput)
	}
	if ttl <= 0 {
		return "", errors.New("token TTL must be positive", errors.CategoryBadInput)
	}

	now := time.Now()
	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   identity.ID(),
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username:    identity.Username(),
		SessionUUID: sessionUUID,
		TokenType:   tokenType,
	}

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary token claims using the configured private key.
func (ts *TokenServiceImpl) SignClaims(claims *TokenClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}
	if ts.privateKey == nil {
		return "", errors.New("token service has no signing key", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(ts.method, claims)

	signedString, err := token.SignedString(ts.privateKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates a token string, returning structured claims
func (ts *TokenServiceImpl) Validate(tokenString string) (*TokenClaims, error) {
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			ts.logger.Error("token validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.publicKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	if claims, ok := token.Claims.(*TokenClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("token validate could not decode or validate claims")
	return nil, ErrTokenMalformed
}

// ValidateTyped validates the token and enforces its type claim in one
// step. A structurally valid refresh token is still rejected where an
// access token is expected.
func (ts *TokenServiceImpl) ValidateTyped(tokenString string, expected TokenType) (*TokenClaims, error) {
	claims, err := ts.Validate(tokenString)
	if err != nil {
		return nil, err
	}

	if err := claims.CheckType(expected); err != nil {
		return nil, err
	}

	return claims, nil
}
