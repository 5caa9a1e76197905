// Package auth0 provides Auth0 federated login for go-session-auth.
//
// Provider drives the authorization code flow against the tenant;
// Verifier validates the issued id token against the tenant JWKS via
// go-jwt-middleware. Both plug into the same seams as the google
// provider: auth.WithFederatedProvider and WithIdentityTokenVerifier.
package auth0
