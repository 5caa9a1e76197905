package auth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type Auther struct {
	users    Users
	sessions Sessions
	tokens   TokenService
	verifier IdentityTokenVerifier
	config   Config
	logger   Logger
}

// NewAuthenticator returns a new Authenticator backed by the given
// repositories and token service.
func NewAuthenticator(repos RepositoryManager, tokens TokenService, config Config) *Auther {
	return &Auther{
		users:    repos.Users(),
		sessions: repos.Sessions(),
		tokens:   tokens,
		config:   config,
		logger:   defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// WithIdentityTokenVerifier enables federated logins through the given
// provider verifier.
func (s *Auther) WithIdentityTokenVerifier(verifier IdentityTokenVerifier) *Auther {
	s.verifier = verifier
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokens
}

func (s *Auther) Login(ctx context.Context, input LoginInput) (*TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}

	if user == nil || !user.HasPassword() {
		// Burn a bcrypt comparison so unknown usernames cost the same as
		// wrong passwords.
		ComparePasswordAndHash(input.Password, RandomPasswordHash())
		s.logger.Warn("login rejected", "ip", input.Device.IP, "user", obscureUsername(input.Username))
		return nil, ErrInvalidCredentials
	}

	if err := ComparePasswordAndHash(input.Password, user.PasswordHash); err != nil {
		s.logger.Warn("login rejected", "ip", input.Device.IP, "user", obscureUsername(input.Username))
		return nil, ErrInvalidCredentials
	}

	session, err := s.sessions.CreateOrReuse(ctx, &Session{
		Sub:      user.ID,
		Name:     input.Device.Name,
		IP:       input.Device.IP,
		CanAbort: input.CanAbort,
	})
	if err != nil {
		return nil, err
	}

	pair, err := s.issuePair(user, session)
	if err != nil {
		return nil, err
	}

	s.logger.Info("login succeeded", "ip", input.Device.IP, "user", obscureUsername(user.Username), "session", session.UUID)
	return pair, nil
}

// LoginFederated authenticates through a third-party id token. The
// provider subject maps 1:1 onto a local passwordless account, which is
// provisioned on first login; everything after that is the regular
// session + token pair flow.
func (s *Auther) LoginFederated(ctx context.Context, rawIDToken string, device DeviceInfo) (*TokenPair, error) {
	if s.verifier == nil {
		return nil, errors.New("no identity token verifier configured", errors.CategoryInternal).
			WithCode(errors.CodeInternal)
	}

	claims, err := s.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		s.logger.Warn("federated login rejected", "ip", device.IP, "error", err)
		return nil, err
	}

	user, err := s.users.FindOrProvisionByExternalID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.CreateOrReuse(ctx, &Session{
		Sub:  user.ID,
		Name: device.Name,
		IP:   device.IP,
	})
	if err != nil {
		return nil, err
	}

	pair, err := s.issuePair(user, session)
	if err != nil {
		return nil, err
	}

	s.logger.Info("federated login succeeded", "ip", device.IP, "issuer", claims.Issuer, "session", session.UUID)
	return pair, nil
}

// Refresh mints a fresh access token from a refresh token. A refresh
// token whose session has been revoked or expired is as dead as one past
// its own exp claim.
func (s *Auther) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.ValidateTyped(refreshToken, RefreshToken)
	if err != nil {
		return "", err
	}

	session, err := s.sessions.GetActive(ctx, claims.SessionUUID)
	if err != nil {
		return "", err
	}
	if session == nil {
		s.logger.Warn("refresh rejected, session not active", "session", claims.SessionUUID)
		return "", ErrTokenExpired
	}

	identity := claimsIdentity{claims}
	return s.tokens.Issue(identity, session.UUID, AccessToken, s.config.GetAccessTokenTTL())
}

// Logout revokes the session carried by the token. Revocation is
// idempotent; logging out twice is not an error.
func (s *Auther) Logout(ctx context.Context, rawToken string) error {
	claims, err := s.tokens.Validate(rawToken)
	if err != nil {
		return err
	}

	if err := s.sessions.Revoke(ctx, claims.SessionUUID); err != nil {
		return err
	}

	s.logger.Info("logout", "user", obscureUsername(claims.Username), "session", claims.SessionUUID)
	return nil
}

// AbortSession revokes another session of the same subject. The calling
// session must be active and hold the can_abort grant, and the target
// must belong to the caller.
func (s *Auther) AbortSession(ctx context.Context, rawToken, targetUUID string) error {
	claims, err := s.tokens.ValidateTyped(rawToken, AccessToken)
	if err != nil {
		return err
	}

	caller, err := s.sessions.GetActive(ctx, claims.SessionUUID)
	if err != nil {
		return err
	}
	if caller == nil {
		return ErrTokenExpired
	}

	if !caller.CanAbort {
		s.logger.Warn("abort rejected, session lacks grant", "session", claims.SessionUUID, "target", targetUUID)
		return ErrInsufficientPermission
	}

	sub, err := uuid.Parse(claims.UserID())
	if err != nil {
		return ErrTokenMalformed
	}

	if err := s.sessions.RevokeOwned(ctx, sub, targetUUID); err != nil {
		return err
	}

	s.logger.Info("session aborted", "user", obscureUsername(claims.Username), "session", claims.SessionUUID, "target", targetUUID)
	return nil
}

// Sessions lists every session of the calling subject, active or not,
// oldest first.
func (s *Auther) Sessions(ctx context.Context, accessToken string) ([]*Session, error) {
	claims, err := s.tokens.ValidateTyped(accessToken, AccessToken)
	if err != nil {
		return nil, err
	}

	caller, err := s.sessions.GetActive(ctx, claims.SessionUUID)
	if err != nil {
		return nil, err
	}
	if caller == nil {
		return nil, ErrTokenExpired
	}

	sub, err := uuid.Parse(claims.UserID())
	if err != nil {
		return nil, ErrTokenMalformed
	}

	return s.sessions.ListForSubject(ctx, sub)
}

func (s *Auther) issuePair(user *User, session *Session) (*TokenPair, error) {
	identity := userIdentity{user}

	access, err := s.tokens.Issue(identity, session.UUID, AccessToken, s.config.GetAccessTokenTTL())
	if err != nil {
		return nil, err
	}

	refresh, err := s.tokens.Issue(identity, session.UUID, RefreshToken, s.config.GetRefreshTokenTTL())
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

type userIdentity struct {
	user *User
}

func (u userIdentity) ID() string       { return u.user.ID.String() }
func (u userIdentity) Username() string { return u.user.Username }

type claimsIdentity struct {
	claims *TokenClaims
}

func (c claimsIdentity) ID() string       { return c.claims.UserID() }
func (c claimsIdentity) Username() string { return c.claims.Username }

// obscureUsername truncates a username for log lines; credentials and
// full identifiers stay out of the audit trail.
func obscureUsername(username string) string {
	if len(username) <= 3 {
		return username + "***"
	}
	return username[:3] + "***"
}
