package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"erp-service/internal/apperrors"
	"erp-service/internal/auth"
	"erp-service/internal/cache"
	"erp-service/internal/models"
	"erp-service/internal/rbac"
	"erp-service/internal/repository"
)

func TestSetPermissionsRejectsUnknownKeysAtomically(t *testing.T) {
	users := new(MockUserRepository)
	logger, _ := test.NewNullLogger()
	svc := NewUserService(users, nil, cache.New(nil, time.Minute), logger)

	_, err := svc.SetPermissions(context.Background(), uuid.New(), SetPermissionsInput{
		Permissions: []string{"quotes.read", "quotes.fly", "invoices.shred"},
	})
	require.Error(t, err)
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.KindValidation, appErr.Kind)
	assert.Equal(t, []string{`unknown permission "invoices.shred"`, `unknown permission "quotes.fly"`}, appErr.Errors)
	users.AssertNotCalled(t, "SetCustomPermissions", mock.Anything, mock.Anything, mock.Anything)
}

func TestSetAndResetPermissions(t *testing.T) {
	users := new(MockUserRepository)
	logger, _ := test.NewNullLogger()
	svc := NewUserService(users, nil, cache.New(nil, time.Minute), logger)
	user := newUser(rbac.RoleEmployee, nil)

	users.On("SetCustomPermissions", mock.Anything, user.ID, []string{"invoices.read", "quotes.read"}).Run(func(mock.Arguments) {
		user.CustomPermissions = pq.StringArray{"invoices.read", "quotes.read"}
	}).Return(nil).Once()
	users.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	perms, err := svc.SetPermissions(context.Background(), user.ID, SetPermissionsInput{Permissions: []string{"quotes.read", "invoices.read", "quotes.read"}})
	require.NoError(t, err)
	assert.True(t, perms.Custom)
	assert.Equal(t, []rbac.PermissionKey{rbac.PermInvoicesRead, rbac.PermQuotesRead}, perms.Permissions.Keys())

	users.On("SetCustomPermissions", mock.Anything, user.ID, []string(nil)).Run(func(mock.Arguments) {
		user.CustomPermissions = nil
	}).Return(nil).Once()

	perms, err = svc.ResetPermissions(context.Background(), user.ID)
	require.NoError(t, err)
	assert.False(t, perms.Custom)
	assert.Equal(t, rbac.DefaultPermissions(rbac.RoleEmployee).Keys(), perms.Permissions.Keys())
	users.AssertExpectations(t)
}

func TestSetPermissionsUnknownUser(t *testing.T) {
	users := new(MockUserRepository)
	logger, _ := test.NewNullLogger()
	svc := NewUserService(users, nil, nil, logger)
	id := uuid.New()
	users.On("SetCustomPermissions", mock.Anything, id, []string{}).Return(repository.ErrNotFound).Once()

	_, err := svc.SetPermissions(context.Background(), id, SetPermissionsInput{Permissions: []string{}})
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestCreateUserValidation(t *testing.T) {
	users := new(MockUserRepository)
	logger, _ := test.NewNullLogger()
	svc := NewUserService(users, nil, nil, logger)

	_, err := svc.Create(context.Background(), CreateUserInput{
		Email: "sm@example.com", Password: "short", FirstName: "S", LastName: "M", Role: "SERVICE_MANAGER",
	})
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Len(t, appErr.Errors, 2)
}

func TestCreateUserHashesPasswordAndMapsDuplicate(t *testing.T) {
	users := new(MockUserRepository)
	logger, _ := test.NewNullLogger()
	svc := NewUserService(users, nil, nil, logger)

	var stored *models.User
	users.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*models.User)
	}).Return(nil).Once()

	user, err := svc.Create(context.Background(), CreateUserInput{
		Email: "Emp@Example.com", Password: "s3cret-pass", FirstName: "E", LastName: "Mp", Role: "EMPLOYEE",
	})
	require.NoError(t, err)
	assert.Equal(t, "emp@example.com", user.Email)
	assert.Equal(t, rbac.RoleEmployee, user.Role)
	assert.True(t, auth.CheckPassword(stored.PasswordHash, "s3cret-pass"))

	users.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicate).Once()
	_, err = svc.Create(context.Background(), CreateUserInput{
		Email: "emp@example.com", Password: "s3cret-pass", FirstName: "E", LastName: "Mp", Role: "EMPLOYEE",
	})
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestCatalogAdminHoldsEverything(t *testing.T) {
	logger, _ := test.NewNullLogger()
	svc := NewUserService(nil, nil, nil, logger)
	catalog := svc.Catalog()
	assert.Len(t, catalog.Roles[rbac.RoleAdmin], len(catalog.Permissions))
}
