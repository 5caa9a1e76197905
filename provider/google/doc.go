// Package google provides Google OAuth login for go-session-auth.
//
// Provider drives the authorization code redirect and exchanges the
// returned code for an id token; Verifier validates that id token
// against Google's published JWKS. Wire the Provider into the auth
// controller with auth.WithFederatedProvider and the Verifier into the
// authenticator with WithIdentityTokenVerifier.
package google
