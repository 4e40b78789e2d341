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

func newHTTPAuthFixture(t *testing.T) (*accounts.RouteAuthenticator, *stubUsers, accounts.TokenService) {
	t.Helper()

	users := newStubUsers()
	repo := &stubRepo{users: users}
	auther := accounts.NewAuthenticator(repo, testConfig{})

	httpAuth, err := accounts.NewHTTPAuthenticator(auther, repo, testConfig{})
	require.NoError(t, err)

	return httpAuth, users, auther.TokenService()
}

func passthrough(ctx router.Context) error {
	return ctx.Next()
}

func accessClaims(t *testing.T, svc accounts.TokenService, user *accounts.User) accounts.AuthClaims {
	t.Helper()

	token, err := svc.Generate(identityFor(user))
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	return claims
}

type userAsIdentity struct {
	user *accounts.User
}

func (i userAsIdentity) ID() string    { return i.user.ID.String() }
func (i userAsIdentity) Email() string { return i.user.Email }
func (i userAsIdentity) Role() string  { return string(i.user.Role) }

func identityFor(user *accounts.User) accounts.Identity {
	return userAsIdentity{user: user}
}

func TestRequireAccountAttachesUser(t *testing.T) {
	httpAuth, users, svc := newHTTPAuthFixture(t)

	user := users.add(&accounts.User{
		Email:         "person@example.com",
		Role:          accounts.RoleUser,
		EmailVerified: true,
	})

	ctx := router.NewMockContext()
	ctx.LocalsMock["user"] = accessClaims(t, svc, user)
	ctx.On("Context").Return(context.Background())
	ctx.On("Locals", "account", mock.Anything).Return(nil)
	ctx.On("SetContext", mock.Anything).Return()

	handler := httpAuth.RequireAccount()(passthrough)
	err := handler(ctx)
	require.NoError(t, err)
	assert.True(t, ctx.NextCalled)
}

func TestRequireAccountRejectsDeletedAccount(t *testing.T) {
	httpAuth, users, svc := newHTTPAuthFixture(t)

	user := users.add(&accounts.User{
		Email: "person@example.com",
		Role:  accounts.RoleUser,
	})
	claims := accessClaims(t, svc, user)
	require.NoError(t, users.Remove(context.Background(), user.ID))

	ctx := router.NewMockContext()
	ctx.LocalsMock["user"] = claims
	ctx.On("Context").Return(context.Background())
	payload := captureJSON(ctx, router.StatusUnauthorized)

	handler := httpAuth.RequireAccount()(passthrough)
	err := handler(ctx)
	require.NoError(t, err)
	assert.False(t, ctx.NextCalled)
	assert.Equal(t, accounts.TextCodeUnauthenticated, (*payload)["text_code"])
}

func TestRequireAccountWithoutClaims(t *testing.T) {
	httpAuth, _, _ := newHTTPAuthFixture(t)

	ctx := router.NewMockContext()
	payload := captureJSON(ctx, router.StatusUnauthorized)

	handler := httpAuth.RequireAccount()(passthrough)
	err := handler(ctx)
	require.NoError(t, err)
	assert.False(t, ctx.NextCalled)
	assert.Equal(t, accounts.TextCodeUnauthenticated, (*payload)["text_code"])
}

func TestRequireAdminForbidsRegularUser(t *testing.T) {
	httpAuth, _, _ := newHTTPAuthFixture(t)

	regular := &accounts.User{
		ID:    uuid.New(),
		Email: "person@example.com",
		Role:  accounts.RoleUser,
	}

	ctx := router.NewMockContext()
	ctx.LocalsMock["account"] = regular
	payload := captureJSON(ctx, router.StatusForbidden)

	handler := httpAuth.RequireAdmin()(passthrough)
	err := handler(ctx)
	require.NoError(t, err)
	assert.False(t, ctx.NextCalled)
	assert.Equal(t, accounts.TextCodeForbidden, (*payload)["text_code"])
}

func TestRequireAdminAllowsAdmin(t *testing.T) {
	httpAuth, _, _ := newHTTPAuthFixture(t)

	admin := &accounts.User{
		ID:    uuid.New(),
		Email: "admin@example.com",
		Role:  accounts.RoleAdmin,
	}

	ctx := router.NewMockContext()
	ctx.LocalsMock["account"] = admin

	handler := httpAuth.RequireAdmin()(passthrough)
	err := handler(ctx)
	require.NoError(t, err)
	assert.True(t, ctx.NextCalled)
}
