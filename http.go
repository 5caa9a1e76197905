package auth

import (
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-session-auth/middleware/jwtware"
)

type RouteAuthenticator struct {
	auth         Authenticator
	cfg          Config
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		cfg:    cfg,
		auth:   auther,
		Logger: defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler

	return a, nil
}

// ProtectedRoute guards a route with access token verification. Tokens
// are looked up in the Authorization header first, then the access
// cookie.
func (a *RouteAuthenticator) ProtectedRoute(publicKey any, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return jwtware.New(jwtware.Config{
			ErrorHandler: errorHandler,
			SigningKey: jwtware.SigningKey{
				Key:    publicKey,
				JWTAlg: a.cfg.GetSigningMethod(),
			},
			TokenLookup: "header:" + router.HeaderAuthorization + ",cookie:" + a.cfg.GetAccessCookieName(),
		})(hf)
	}
}

// SetAuthCookies stores both tokens of a login in HTTP-only cookies.
// Cookie lifetimes track the token TTLs so an expired token never rides
// back in on a live cookie.
func (a *RouteAuthenticator) SetAuthCookies(ctx router.Context, pair *TokenPair) {
	a.setCookieToken(ctx, a.cfg.GetAccessCookieName(), pair.AccessToken, a.cfg.GetAccessTokenTTL())
	if pair.RefreshToken != "" {
		a.setCookieToken(ctx, a.cfg.GetRefreshCookieName(), pair.RefreshToken, a.cfg.GetRefreshTokenTTL())
	}
}

// SetAccessCookie replaces just the access cookie, after a refresh.
func (a *RouteAuthenticator) SetAccessCookie(ctx router.Context, token string) {
	a.setCookieToken(ctx, a.cfg.GetAccessCookieName(), token, a.cfg.GetAccessTokenTTL())
}

// ClearAuthCookies drops both token cookies.
func (a *RouteAuthenticator) ClearAuthCookies(ctx router.Context) {
	a.cookieDel(ctx, a.cfg.GetAccessCookieName())
	a.cookieDel(ctx, a.cfg.GetRefreshCookieName())
}

// AccessTokenFromRequest extracts the bearer access token: Authorization
// header first, access cookie second. Empty string when neither carries
// one.
func (a *RouteAuthenticator) AccessTokenFromRequest(ctx router.Context) string {
	header := ctx.GetString(router.HeaderAuthorization, "")
	if header != "" {
		scheme := "Bearer "
		if strings.HasPrefix(header, scheme) {
			return strings.TrimSpace(header[len(scheme):])
		}
	}

	return ctx.Cookies(a.cfg.GetAccessCookieName())
}

// RefreshTokenFromRequest extracts the refresh token from its cookie.
func (a *RouteAuthenticator) RefreshTokenFromRequest(ctx router.Context) string {
	return ctx.Cookies(a.cfg.GetRefreshCookieName())
}

func (a *RouteAuthenticator) setCookieToken(c router.Context, name, val string, duration time.Duration) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    val,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"request error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	status := richErr.Code
	if status == 0 {
		status = router.StatusInternalServerError
	}

	return c.JSON(status, map[string]any{
		"error": richErr.Message,
		"code":  richErr.TextCode,
	})
}
