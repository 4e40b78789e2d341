package accounts_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/swaptrix/accounts"
)

type stubAuthenticator struct {
	registerUser *accounts.User
	registerErr  error
	loginToken   string
	loginUser    *accounts.User
	loginErr     error
	verifyUser   *accounts.User
	verifyErr    error

	gotEmail    string
	gotPassword string
	gotToken    string
}

func (s *stubAuthenticator) Register(ctx context.Context, email, password string) (*accounts.User, error) {
	s.gotEmail, s.gotPassword = email, password
	return s.registerUser, s.registerErr
}

func (s *stubAuthenticator) Login(ctx context.Context, email, password string) (string, *accounts.User, error) {
	s.gotEmail, s.gotPassword = email, password
	return s.loginToken, s.loginUser, s.loginErr
}

func (s *stubAuthenticator) VerifyEmail(ctx context.Context, token string) (*accounts.User, error) {
	s.gotToken = token
	return s.verifyUser, s.verifyErr
}

func newControllerFixture(auther accounts.Authenticator) (*accounts.HTTPController, *stubUsers) {
	users := newStubUsers()
	controller := accounts.NewHTTPController(auther, &stubRepo{users: users})
	return controller, users
}

func captureJSON(ctx *router.MockContext, status int) *map[string]any {
	payload := &map[string]any{}
	ctx.On("JSON", status, mock.Anything).Run(func(args mock.Arguments) {
		*payload = args.Get(1).(map[string]any)
	}).Return(nil)
	return payload
}

func TestControllerRegisterCreated(t *testing.T) {
	auther := &stubAuthenticator{
		registerUser: &accounts.User{
			ID:    uuid.New(),
			Email: "person@example.com",
			Role:  accounts.RoleUser,
		},
	}
	controller, _ := newControllerFixture(auther)

	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())
	ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
		payload := args.Get(0).(*accounts.RegisterRequest)
		payload.Email = "person@example.com"
		payload.Password = "password123"
	}).Return(nil)
	payload := captureJSON(ctx, router.StatusCreated)

	err := controller.Register(ctx)
	require.NoError(t, err)

	assert.Equal(t, "person@example.com", auther.gotEmail)
	assert.Equal(t, "password123", auther.gotPassword)
	assert.Contains(t, (*payload)["message"], "verify")

	user, ok := (*payload)["user"].(accounts.PublicUser)
	require.True(t, ok)
	assert.Equal(t, "person@example.com", user.Email)
}

func TestControllerRegisterMissingFields(t *testing.T) {
	controller, _ := newControllerFixture(&stubAuthenticator{})

	ctx := router.NewMockContext()
	ctx.On("Bind", mock.Anything).Return(nil)
	payload := captureJSON(ctx, router.StatusBadRequest)

	err := controller.Register(ctx)
	require.NoError(t, err)
	assert.Equal(t, accounts.TextCodeMissingFields, (*payload)["text_code"])
}

func TestControllerRegisterDuplicate(t *testing.T) {
	controller, _ := newControllerFixture(&stubAuthenticator{
		registerErr: accounts.ErrDuplicateAccount,
	})

	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())
	ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
		payload := args.Get(0).(*accounts.RegisterRequest)
		payload.Email = "person@example.com"
		payload.Password = "password123"
	}).Return(nil)
	payload := captureJSON(ctx, router.StatusBadRequest)

	err := controller.Register(ctx)
	require.NoError(t, err)
	assert.Equal(t, accounts.TextCodeDuplicateAccount, (*payload)["text_code"])
}

func TestControllerLoginReturnsToken(t *testing.T) {
	auther := &stubAuthenticator{
		loginToken: "signed.jwt.token",
		loginUser: &accounts.User{
			ID:            uuid.New(),
			Email:         "person@example.com",
			Role:          accounts.RoleUser,
			EmailVerified: true,
		},
	}
	controller, _ := newControllerFixture(auther)

	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())
	ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
		payload := args.Get(0).(*accounts.LoginRequest)
		payload.Email = "person@example.com"
		payload.Password = "password123"
	}).Return(nil)
	payload := captureJSON(ctx, router.StatusOK)

	err := controller.Login(ctx)
	require.NoError(t, err)
	assert.Equal(t, "signed.jwt.token", (*payload)["token"])

	user, ok := (*payload)["user"].(accounts.PublicUser)
	require.True(t, ok)
	assert.True(t, user.EmailVerified)
}

func TestControllerLoginInvalidCredentials(t *testing.T) {
	controller, _ := newControllerFixture(&stubAuthenticator{
		loginErr: accounts.ErrInvalidCredentials,
	})

	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())
	ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
		payload := args.Get(0).(*accounts.LoginRequest)
		payload.Email = "person@example.com"
		payload.Password = "wrong"
	}).Return(nil)
	payload := captureJSON(ctx, router.StatusBadRequest)

	err := controller.Login(ctx)
	require.NoError(t, err)
	assert.Equal(t, accounts.TextCodeInvalidCredentials, (*payload)["text_code"])
}

func TestControllerVerifyEmail(t *testing.T) {
	auther := &stubAuthenticator{
		verifyUser: &accounts.User{
			ID:            uuid.New(),
			Email:         "person@example.com",
			EmailVerified: true,
		},
	}
	controller, _ := newControllerFixture(auther)

	ctx := router.NewMockContext()
	ctx.ParamsM["token"] = "the-verification-token"
	ctx.On("Context").Return(context.Background())
	payload := captureJSON(ctx, router.StatusOK)

	err := controller.VerifyEmail(ctx)
	require.NoError(t, err)
	assert.Equal(t, "the-verification-token", auther.gotToken)
	assert.Contains(t, (*payload)["message"], "verified")
}

func TestControllerVerifyEmailInvalidLink(t *testing.T) {
	controller, _ := newControllerFixture(&stubAuthenticator{
		verifyErr: accounts.ErrInvalidOrExpiredLink,
	})

	ctx := router.NewMockContext()
	ctx.ParamsM["token"] = "stale-token"
	ctx.On("Context").Return(context.Background())
	payload := captureJSON(ctx, router.StatusBadRequest)

	err := controller.VerifyEmail(ctx)
	require.NoError(t, err)
	assert.Equal(t, accounts.TextCodeInvalidLink, (*payload)["text_code"])
}

func TestControllerListUsers(t *testing.T) {
	controller, users := newControllerFixture(&stubAuthenticator{})
	users.add(&accounts.User{Email: "a@example.com", Role: accounts.RoleUser})
	users.add(&accounts.User{Email: "b@example.com", Role: accounts.RoleAdmin})

	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())
	payload := captureJSON(ctx, router.StatusOK)

	err := controller.ListUsers(ctx)
	require.NoError(t, err)

	listed, ok := (*payload)["users"].([]accounts.PublicUser)
	require.True(t, ok)
	require.Len(t, listed, 2)
	assert.Equal(t, "a@example.com", listed[0].Email)
	assert.Equal(t, "b@example.com", listed[1].Email)
}

func TestControllerUpdateUserRole(t *testing.T) {
	controller, users := newControllerFixture(&stubAuthenticator{})
	user := users.add(&accounts.User{Email: "person@example.com", Role: accounts.RoleUser})

	ctx := router.NewMockContext()
	ctx.ParamsM["id"] = user.ID.String()
	ctx.On("Context").Return(context.Background())
	ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
		payload := args.Get(0).(*accounts.UpdateRoleRequest)
		payload.Role = "admin"
	}).Return(nil)
	payload := captureJSON(ctx, router.StatusOK)

	err := controller.UpdateUserRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, accounts.RoleAdmin, user.Role)
	assert.Equal(t, "role updated", (*payload)["message"])
}

func TestControllerUpdateUserRoleRejectsUnknownRole(t *testing.T) {
	controller, users := newControllerFixture(&stubAuthenticator{})
	user := users.add(&accounts.User{Email: "person@example.com", Role: accounts.RoleUser})

	ctx := router.NewMockContext()
	ctx.ParamsM["id"] = user.ID.String()
	ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
		payload := args.Get(0).(*accounts.UpdateRoleRequest)
		payload.Role = "owner"
	}).Return(nil)
	payload := captureJSON(ctx, router.StatusBadRequest)

	err := controller.UpdateUserRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, accounts.TextCodeInvalidRole, (*payload)["text_code"])
	assert.Equal(t, accounts.RoleUser, user.Role)
}

func TestControllerUpdateUserRoleRejectsBadID(t *testing.T) {
	controller, _ := newControllerFixture(&stubAuthenticator{})

	ctx := router.NewMockContext()
	ctx.ParamsM["id"] = "not-a-uuid"
	payload := captureJSON(ctx, router.StatusBadRequest)

	err := controller.UpdateUserRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, "invalid user id", (*payload)["error"])
}

func TestControllerDeleteUser(t *testing.T) {
	controller, users := newControllerFixture(&stubAuthenticator{})
	user := users.add(&accounts.User{Email: "person@example.com", Role: accounts.RoleUser})

	ctx := router.NewMockContext()
	ctx.ParamsM["id"] = user.ID.String()
	ctx.On("Context").Return(context.Background())
	payload := captureJSON(ctx, router.StatusOK)

	err := controller.DeleteUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user deleted", (*payload)["message"])
	assert.Empty(t, users.all)
}
