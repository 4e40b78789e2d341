package accounts

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/swaptrix/accounts/middleware/jwtware"
)

// RouteAuthenticator builds the middleware chain for bearer-protected
// routes: token validation, account resolution, and the role gate.
type RouteAuthenticator struct {
	repo         RepositoryManager
	cfg          Config
	tokenService TokenService
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther *Auther, repo RepositoryManager, cfg Config) (*RouteAuthenticator, error) {
	if auther == nil {
		return nil, errors.New("authenticator is required", errors.CategoryBadInput)
	}

	a := &RouteAuthenticator{
		repo:         repo,
		cfg:          cfg,
		tokenService: auther.TokenService(),
		Logger:       defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler

	return a, nil
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

// Protected validates the bearer token and stores the claims in the router
// locals under the configured context key.
func (a *RouteAuthenticator) Protected() router.MiddlewareFunc {
	return jwtware.New(jwtware.Config{
		ErrorHandler:   a.authErrorHandler(),
		TokenValidator: validatorAdapter{a.tokenService},
		AuthScheme:     a.cfg.GetAuthScheme(),
		ContextKey:     a.cfg.GetContextKey(),
		TokenLookup:    a.cfg.GetTokenLookup(),
		ContextEnricher: func(c context.Context, claims jwtware.AuthClaims) context.Context {
			if ac, ok := claims.(AuthClaims); ok {
				return WithClaimsContext(c, ac)
			}
			return c
		},
	})
}

// RequireAccount resolves the claims UID to a live account and attaches it
// to the request. A token for a deleted account is treated as unauthenticated.
func (a *RouteAuthenticator) RequireAccount() router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			claims, ok := GetRouterClaims(ctx, a.cfg.GetContextKey())
			if !ok {
				return a.ErrorHandler(ctx, ErrUnauthenticated)
			}

			user, err := a.repo.Users().GetByID(ctx.Context(), claims.UserID())
			if err != nil {
				if repository.IsRecordNotFound(err) {
					return a.ErrorHandler(ctx, ErrUnauthenticated)
				}
				a.Logger.Error("RequireAccount lookup error: %v", err)
				return a.ErrorHandler(ctx, ErrStoreUnavailable)
			}

			ctx.Locals("account", user)
			ctx.SetContext(WithContext(ctx.Context(), user))

			return ctx.Next()
		}
	}
}

// RequireRole gates the route on the resolved account holding at least the
// given role.
func (a *RouteAuthenticator) RequireRole(minRole UserRole) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			user, ok := GetRouterUser(ctx)
			if !ok {
				return a.ErrorHandler(ctx, ErrUnauthenticated)
			}

			if !user.Role.IsAtLeast(minRole) {
				return a.ErrorHandler(ctx, ErrForbidden)
			}

			return ctx.Next()
		}
	}
}

// RequireAdmin is the admin-surface gate.
func (a *RouteAuthenticator) RequireAdmin() router.MiddlewareFunc {
	return a.RequireRole(RoleAdmin)
}

func (a *RouteAuthenticator) authErrorHandler() func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsMalformedError(err) {
			richErr = ErrUnauthenticated
		} else {
			richErr = errors.Wrap(err, errors.CategoryAuth, "invalid authentication token").
				WithCode(errors.CodeUnauthorized).
				WithTextCode(TextCodeUnauthenticated)
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"Middleware error handler error=%s category=%s details=%s",
		richErr.Message,
		richErr.Category,
		print.MaybePrettyJSON(richErr.Metadata),
	)

	return writeErrorJSON(c, richErr)
}

// validatorAdapter bridges the accounts TokenService to the jwtware
// middleware without an import cycle.
type validatorAdapter struct {
	ts TokenService
}

func (v validatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := v.ts.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
