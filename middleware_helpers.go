package auth

import (
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-session-auth/middleware/jwtware"
)

// NewSessionChecker returns a jwtware.SessionChecker that rejects tokens
// whose backing session is no longer active. Wire it into the middleware
// when routes need revocation to take effect before the access token
// expires on its own.
func NewSessionChecker(sessions Sessions) jwtware.SessionChecker {
	return func(ctx router.Context, claims *jwtware.SessionClaims) error {
		if claims.SessionUUID == "" {
			return ErrTokenMalformed
		}

		session, err := sessions.GetActive(ctx.Context(), claims.SessionUUID)
		if err != nil {
			return err
		}

		if session == nil {
			return ErrTokenExpired
		}

		return nil
	}
}
