package services

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"erp-service/internal/apperrors"
	"erp-service/internal/auth"
	"erp-service/internal/rbac"
	"erp-service/internal/repository"
)

func newAuthFixture(t *testing.T) (*AuthService, *MockUserRepository) {
	t.Helper()
	users := new(MockUserRepository)
	logger, _ := test.NewNullLogger()
	tokens := auth.NewTokenManager("test-secret", time.Hour, 24*time.Hour)
	return NewAuthService(users, tokens, nil, logger), users
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc, users := newAuthFixture(t)
	user := newUser(rbac.RoleServiceManager, nil)
	hash, err := auth.HashPassword("correct-password")
	require.NoError(t, err)
	user.PasswordHash = hash

	users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
	users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	users.On("TouchLastLogin", mock.Anything, user.ID, mock.Anything).Return(nil).Once()

	res, err := svc.Login(context.Background(), LoginInput{Email: user.Email, Password: "correct-password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotNil(t, res.User.LastLoginAt)

	p, err := svc.Authenticate(context.Background(), res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, p.UserID)
	assert.True(t, p.Can(rbac.PermQuotesApproveService))

	_, err = svc.Authenticate(context.Background(), res.RefreshToken)
	assert.Equal(t, apperrors.KindAuthentication, apperrors.KindOf(err))

	pair, err := svc.Refresh(context.Background(), RefreshInput{RefreshToken: res.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
}

func TestLoginFailures(t *testing.T) {
	svc, users := newAuthFixture(t)
	user := newUser(rbac.RoleEmployee, nil)
	user.PasswordHash, _ = auth.HashPassword("correct-password")

	users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, repository.ErrNotFound)
	users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

	_, err := svc.Login(context.Background(), LoginInput{Email: "ghost@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), LoginInput{Email: user.Email, Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user.IsActive = false
	_, err = svc.Login(context.Background(), LoginInput{Email: user.Email, Password: "correct-password"})
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestResolvePrincipalAppliesOverride(t *testing.T) {
	svc, users := newAuthFixture(t)
	user := newUser(rbac.RoleEmployee, nil)
	user.CustomPermissions = []string{}
	users.On("GetByID", mock.Anything, user.ID).Return(user, nil).Once()

	p, err := svc.ResolvePrincipal(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, p.Permissions)
}
