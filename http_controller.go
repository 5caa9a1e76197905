package auth

import (
	"context"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// FederatedProvider drives the OAuth redirect dance with an external
// identity provider and exchanges the returned code for an id token.
type FederatedProvider interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (string, error)
}

// RegisterAuthRoutes mounts the auth API on the given router.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Login, controller.LoginPost).SetName("auth.login")
	app.Post(controller.Routes.Refresh, controller.RefreshPost).SetName("auth.refresh")
	app.Post(controller.Routes.Logout, controller.LogoutPost).SetName("auth.logout")
	app.Post(controller.Routes.Abort, controller.AbortPost).SetName("auth.abort")
	app.Get(controller.Routes.Sessions, controller.SessionsGet).SetName("auth.sessions")
	app.Post(controller.Routes.Register, controller.RegistrationCreate).SetName("auth.register")

	if controller.Federated != nil {
		app.Get(controller.Routes.FederatedLogin, controller.FederatedLoginGet).SetName("auth.federated")
		app.Get(controller.Routes.FederatedCallback, controller.FederatedCallbackGet).SetName("auth.federated.callback")
	}
}

type AuthControllerRoutes struct {
	Login             string
	Refresh           string
	Logout            string
	Abort             string
	Sessions          string
	Register          string
	FederatedLogin    string
	FederatedCallback string
}

type AuthController struct {
	Logger       Logger
	Repo         RepositoryManager
	Routes       *AuthControllerRoutes
	Auther       Authenticator
	HTTP         *RouteAuthenticator
	Federated    FederatedProvider
	ErrorHandler func(router.Context, error) error
}

type AuthControllerOption func(*AuthController) *AuthController

func WithAuthController(auther Authenticator, http *RouteAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		c.HTTP = http
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithRepositoryManager(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithFederatedProvider(provider FederatedProvider) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Federated = provider
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Login:             "/login",
			Refresh:           "/refresh",
			Logout:            "/logout",
			Abort:             "/abort",
			Sessions:          "/sessions",
			Register:          "/register",
			FederatedLogin:    "/auth/google",
			FederatedCallback: "/auth/google/callback",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil || c.HTTP == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = c.HTTP.ErrorHandler
	}

	return c
}

// LoginRequest payload
type LoginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
	CanAbort bool   `form:"can_abort" json:"can_abort"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Username,
			validation.Required,
			validation.Length(1, MaxUsernameLength),
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, bindError(err))
	}

	if err := payload.Validate(); err != nil {
		return a.validationResponse(ctx, err)
	}

	pair, err := a.Auther.Login(ctx.Context(), LoginInput{
		Username: payload.Username,
		Password: payload.Password,
		Device:   DeviceFromRequest(ctx),
		CanAbort: payload.CanAbort,
	})
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	a.HTTP.SetAuthCookies(ctx, pair)

	return ctx.JSON(router.StatusOK, pair)
}

func (a *AuthController) RefreshPost(ctx router.Context) error {
	token := a.HTTP.RefreshTokenFromRequest(ctx)
	if token == "" {
		return a.ErrorHandler(ctx, ErrTokenMissing)
	}

	access, err := a.Auther.Refresh(ctx.Context(), token)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	a.HTTP.SetAccessCookie(ctx, access)

	return ctx.JSON(router.StatusOK, &TokenPair{AccessToken: access})
}

func (a *AuthController) LogoutPost(ctx router.Context) error {
	token := a.HTTP.AccessTokenFromRequest(ctx)
	if token == "" {
		return a.ErrorHandler(ctx, ErrTokenMissing)
	}

	if err := a.Auther.Logout(ctx.Context(), token); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	a.HTTP.ClearAuthCookies(ctx)

	return ctx.JSON(router.StatusOK, map[string]any{"success": true})
}

// AbortRequest names the sibling session to revoke.
type AbortRequest struct {
	SessionUUID string `form:"session_uuid" json:"session_uuid"`
}

// Validate will run validation rules
func (r AbortRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.SessionUUID,
			validation.Required,
			is.UUID,
		),
	)
}

func (a *AuthController) AbortPost(ctx router.Context) error {
	token := a.HTTP.AccessTokenFromRequest(ctx)
	if token == "" {
		return a.ErrorHandler(ctx, ErrTokenMissing)
	}

	payload := new(AbortRequest)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, bindError(err))
	}

	if err := payload.Validate(); err != nil {
		return a.validationResponse(ctx, err)
	}

	if err := a.Auther.AbortSession(ctx.Context(), token, payload.SessionUUID); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{"success": true})
}

func (a *AuthController) SessionsGet(ctx router.Context) error {
	token := a.HTTP.AccessTokenFromRequest(ctx)
	if token == "" {
		return a.ErrorHandler(ctx, ErrTokenMissing)
	}

	sessions, err := a.Auther.Sessions(ctx.Context(), token)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{"sessions": sessions})
}

// RegistrationCreatePayload is the registration payload
type RegistrationCreatePayload struct {
	Username        string `form:"username" json:"username"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, MaxUsernameLength)),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	if a.Repo == nil {
		return a.ErrorHandler(ctx, errors.New("registration not configured", errors.CategoryInternal).
			WithCode(errors.CodeInternal))
	}

	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, bindError(err))
	}

	if err := payload.Validate(); err != nil {
		return a.validationResponse(ctx, err)
	}

	registerUser := RegisterUserHandler{repo: a.Repo}
	if err := registerUser.Execute(ctx.Context(), RegisterUserMessage{
		Username: payload.Username,
		Password: payload.Password,
	}); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	a.Logger.Info("user registered", "ip", ClientIP(ctx), "user", obscureUsername(payload.Username))

	return ctx.JSON(http.StatusCreated, map[string]any{"success": true})
}

const stateCookieName = "oauth_state"

func (a *AuthController) FederatedLoginGet(ctx router.Context) error {
	state := uuid.NewString()

	ctx.Cookie(&router.Cookie{
		Name:     stateCookieName,
		Value:    state,
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})

	return ctx.Redirect(a.Federated.AuthCodeURL(state), http.StatusFound)
}

func (a *AuthController) FederatedCallbackGet(ctx router.Context) error {
	state := ctx.Query("state")
	if state == "" || state != ctx.Cookies(stateCookieName) {
		return a.ErrorHandler(ctx, ErrInvalidIdentityToken)
	}

	code := ctx.Query("code")
	if code == "" {
		return a.ErrorHandler(ctx, ErrInvalidIdentityToken)
	}

	rawIDToken, err := a.Federated.ExchangeCode(ctx.Context(), code)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	pair, err := a.Auther.LoginFederated(ctx.Context(), rawIDToken, DeviceFromRequest(ctx))
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	a.HTTP.SetAuthCookies(ctx, pair)

	return ctx.JSON(router.StatusOK, pair)
}

func (a *AuthController) validationResponse(ctx router.Context, err error) error {
	return ctx.JSON(router.StatusBadRequest, map[string]any{
		"error":      "validation failed",
		"validation": FormatValidationErrorToMap(err),
	})
}

// ClientIP resolves the requesting address, preferring the first entry
// of X-Forwarded-For when a proxy set one.
func ClientIP(ctx router.Context) string {
	if fwd := ctx.GetString("X-Forwarded-For", ""); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}

	return ctx.GetString("X-Real-Ip", "")
}

// DeviceName derives a session label from the User-Agent header. The
// label is part of the session coalescing key, so it only needs to be
// stable per client, not pretty.
func DeviceName(ctx router.Context) string {
	ua := strings.TrimSpace(ctx.GetString("User-Agent", ""))
	if ua == "" {
		return "unknown"
	}

	if len(ua) > 64 {
		ua = ua[:64]
	}

	return ua
}

// DeviceFromRequest bundles the connection metadata a login records.
func DeviceFromRequest(ctx router.Context) DeviceInfo {
	return DeviceInfo{
		Name: DeviceName(ctx),
		IP:   ClientIP(ctx),
	}
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return validation.NewError("validation_match", "values must match")
		}
		return nil
	}
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field -> message map.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			out[field] = ferr.Error()
		}
		return out
	}

	if err != nil {
		out["payload"] = err.Error()
	}

	return out
}

func bindError(err error) error {
	return errors.Wrap(err, errors.CategoryBadInput, "failed to parse request payload").
		WithCode(errors.CodeBadRequest)
}
