package auth0_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	auth "github.com/goliatone/go-session-auth"
	"github.com/goliatone/go-session-auth/provider/auth0"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKID      = "tenant-key-1"
	testClientID = "app-client-id"
	testSubject  = "auth0|507f1f77bcf86cd799439011"
)

func assertTextCode(t *testing.T, err error, textCode string) {
	t.Helper()

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr), "expected a rich error, got %v", err)
	assert.Equal(t, textCode, richErr.TextCode)
}

// serveTenant stands in for an Auth0 tenant: OIDC discovery plus JWKS.
func serveTenant(t *testing.T, pub *rsa.PublicKey) *httptest.Server {
	t.Helper()

	n := base64.RawURLEncoding.EncodeToString(pub.N.Bytes())
	e := base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes())

	mux := http.NewServeMux()

	var srv *httptest.Server
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"issuer":%q,"jwks_uri":%q}`, srv.URL+"/", srv.URL+"/.well-known/jwks.json")
	})
	mux.HandleFunc("/.well-known/jwks.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w,
			`{"keys":[{"kty":"RSA","kid":%q,"use":"sig","alg":"RS256","n":%q,"e":%q}]}`,
			testKID, n, e,
		)
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func setupVerifier(t *testing.T) (*auth0.Verifier, *rsa.PrivateKey, string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	srv := serveTenant(t, &key.PublicKey)
	issuer := srv.URL + "/"

	verifier, err := auth0.NewVerifier(auth0.Config{
		ClientID: testClientID,
		Issuer:   issuer,
	})
	require.NoError(t, err)

	return verifier, key, issuer
}

func signIDToken(t *testing.T, key *rsa.PrivateKey, issuer string, overrides jwt.MapClaims) string {
	t.Helper()

	claims := jwt.MapClaims{
		"iss":   issuer,
		"aud":   testClientID,
		"sub":   testSubject,
		"email": "pepe@example.com",
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	for k, v := range overrides {
		claims[k] = v
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKID

	signed, err := token.SignedString(key)
	require.NoError(t, err)

	return signed
}

func TestVerifierAcceptsValidToken(t *testing.T) {
	verifier, key, issuer := setupVerifier(t)

	idToken := signIDToken(t, key, issuer, nil)

	claims, err := verifier.Verify(context.Background(), idToken)
	require.NoError(t, err)

	assert.Equal(t, testSubject, claims.Subject)
	assert.Equal(t, "pepe@example.com", claims.Email)
	assert.Equal(t, issuer, claims.Issuer)
}

func TestVerifierRejectsEmptyToken(t *testing.T) {
	verifier, _, _ := setupVerifier(t)

	_, err := verifier.Verify(context.Background(), "")
	assertTextCode(t, err, auth.TextCodeTokenMissing)
}

func TestVerifierRejectsExpiredToken(t *testing.T) {
	verifier, key, issuer := setupVerifier(t)

	idToken := signIDToken(t, key, issuer, jwt.MapClaims{
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	_, err := verifier.Verify(context.Background(), idToken)
	assertTextCode(t, err, auth.TextCodeInvalidIdentityToken)
}

func TestVerifierRejectsWrongAudience(t *testing.T) {
	verifier, key, issuer := setupVerifier(t)

	idToken := signIDToken(t, key, issuer, jwt.MapClaims{"aud": "someone-else"})

	_, err := verifier.Verify(context.Background(), idToken)
	assertTextCode(t, err, auth.TextCodeInvalidIdentityToken)
}

func TestVerifierRejectsWrongIssuer(t *testing.T) {
	verifier, key, _ := setupVerifier(t)

	idToken := signIDToken(t, key, "https://evil.example.com/", nil)

	_, err := verifier.Verify(context.Background(), idToken)
	assertTextCode(t, err, auth.TextCodeInvalidIdentityToken)
}

func TestVerifierRejectsForeignSignature(t *testing.T) {
	verifier, _, issuer := setupVerifier(t)

	foreign, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	idToken := signIDToken(t, foreign, issuer, nil)

	_, err = verifier.Verify(context.Background(), idToken)
	assertTextCode(t, err, auth.TextCodeInvalidIdentityToken)
}

func TestNewVerifierRequiresTenant(t *testing.T) {
	_, err := auth0.NewVerifier(auth0.Config{ClientID: testClientID})
	assert.Error(t, err)

	_, err = auth0.NewVerifier(auth0.Config{Domain: "example.us.auth0.com"})
	assert.Error(t, err)
}
