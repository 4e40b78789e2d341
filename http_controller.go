package accounts

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Patch(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPController handles the account HTTP routes.
type HTTPController struct {
	Debug  bool
	Logger Logger
	Repo   RepositoryManager
	Auther Authenticator
}

type HTTPControllerOption func(*HTTPController) *HTTPController

func WithControllerLogger(logger Logger) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerDebug(debug bool) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.Debug = debug
		return c
	}
}

func NewHTTPController(auther Authenticator, repo RepositoryManager, opts ...HTTPControllerOption) *HTTPController {
	c := &HTTPController{
		Logger: defLogger{},
		Repo:   repo,
		Auther: auther,
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in accounts controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in accounts controller...")
	}

	return c
}

// RegisterAuthRoutes mounts the public account routes, e.g. under /api/auth.
func (a *HTTPController) RegisterAuthRoutes(group RouteRegistrar) {
	group.Post("/register", a.Register)
	group.Post("/login", a.Login)
	group.Get("/verify/:token", a.VerifyEmail)
}

// RegisterAdminRoutes mounts the admin user-management routes, e.g. under
// /api/admin. The caller supplies the auth middleware chain.
func (a *HTTPController) RegisterAdminRoutes(group RouteRegistrar, mw ...router.MiddlewareFunc) {
	group.Get("/users", a.ListUsers, mw...)
	group.Patch("/users/:id/role", a.UpdateUserRole, mw...)
	group.Delete("/users/:id", a.DeleteUser, mw...)
}

// RegisterRequest payload
type RegisterRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *HTTPController) Register(ctx router.Context) error {
	payload := new(RegisterRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("Register parse payload: %v", err)
		return a.handleError(ctx, ErrMissingFields)
	}

	if err := payload.Validate(); err != nil {
		invalid := errors.New(ErrMissingFields.Message, ErrMissingFields.Category).
			WithTextCode(ErrMissingFields.TextCode).
			WithCode(ErrMissingFields.Code).
			WithMetadata(map[string]any{"validation": err.Error()})
		return a.handleError(ctx, invalid)
	}

	if a.Debug {
		a.Logger.Debug("register payload: %s", print.MaybePrettyJSON(payload))
	}

	user, err := a.Auther.Register(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return a.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"message": "registration successful, check your email to verify your account",
		"user":    user.Public(),
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *HTTPController) Login(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("Login parse payload: %v", err)
		return a.handleError(ctx, ErrInvalidCredentials)
	}

	if err := payload.Validate(); err != nil {
		return a.handleError(ctx, ErrInvalidCredentials)
	}

	token, user, err := a.Auther.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return a.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "login successful",
		"token":   token,
		"user":    user.Public(),
	})
}

func (a *HTTPController) VerifyEmail(ctx router.Context) error {
	token := ctx.Param("token")

	user, err := a.Auther.VerifyEmail(ctx.Context(), token)
	if err != nil {
		return a.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "email verified, you can now log in",
		"user":    user.Public(),
	})
}

func (a *HTTPController) ListUsers(ctx router.Context) error {
	users, err := a.Repo.Users().ListAll(ctx.Context())
	if err != nil {
		return a.handleError(ctx, errors.Wrap(err, ErrStoreUnavailable.Category, ErrStoreUnavailable.Message).
			WithTextCode(ErrStoreUnavailable.TextCode))
	}

	response := make([]PublicUser, 0, len(users))
	for _, user := range users {
		response = append(response, user.Public())
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"users": response,
	})
}

// UpdateRoleRequest payload
type UpdateRoleRequest struct {
	Role string `form:"role" json:"role"`
}

// Validate will run validation rules
func (r UpdateRoleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Role,
			validation.Required,
		),
	)
}

func (a *HTTPController) UpdateUserRole(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return a.handleError(ctx, errors.New("invalid user id", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest))
	}

	payload := new(UpdateRoleRequest)
	if err := ctx.Bind(payload); err != nil {
		return a.handleError(ctx, ErrInvalidRole)
	}

	if err := payload.Validate(); err != nil {
		return a.handleError(ctx, ErrInvalidRole)
	}

	role, ok := ParseRole(payload.Role)
	if !ok {
		invalid := errors.New(ErrInvalidRole.Message, ErrInvalidRole.Category).
			WithTextCode(ErrInvalidRole.TextCode).
			WithCode(ErrInvalidRole.Code).
			WithMetadata(map[string]any{"role": payload.Role})
		return a.handleError(ctx, invalid)
	}

	user, err := a.Repo.Users().UpdateRole(ctx.Context(), id, role)
	if err != nil {
		return a.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "role updated",
		"user":    user.Public(),
	})
}

func (a *HTTPController) DeleteUser(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return a.handleError(ctx, errors.New("invalid user id", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest))
	}

	if err := a.Repo.Users().Remove(ctx.Context(), id); err != nil {
		return a.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "user deleted",
	})
}

func (a *HTTPController) handleError(ctx router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		if repository.IsRecordNotFound(err) {
			richErr = errors.New("resource not found", errors.CategoryNotFound).
				WithCode(errors.CodeNotFound)
		} else {
			a.Logger.Error("unhandled controller error: %v", err)
			richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
				WithCode(errors.CodeInternal)
		}
	}

	return writeErrorJSON(ctx, richErr)
}

// writeErrorJSON renders a rich error as the API error envelope. Internal
// errors are logged upstream and never leak detail to the client.
func writeErrorJSON(ctx router.Context, richErr *errors.Error) error {
	status := richErr.Code
	if status == 0 {
		status = router.StatusInternalServerError
	}

	message := richErr.Message
	textCode := richErr.TextCode
	if status >= router.StatusInternalServerError {
		message = "internal server error"
	}

	payload := map[string]any{
		"error": message,
	}
	if textCode != "" {
		payload["text_code"] = textCode
	}

	return ctx.JSON(status, payload)
}
