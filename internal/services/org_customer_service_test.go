package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"erp-service/internal/apperrors"
	"erp-service/internal/models"
	"erp-service/internal/rbac"
	"erp-service/internal/repository"
)

// MockServiceRepository is a mock implementation of ServiceRepositoryInterface
type MockServiceRepository struct {
	mock.Mock
}

var _ repository.ServiceRepositoryInterface = (*MockServiceRepository)(nil)

func (m *MockServiceRepository) Create(ctx context.Context, service *models.Service) error {
	return m.Called(ctx, service).Error(0)
}

func (m *MockServiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}

func (m *MockServiceRepository) List(ctx context.Context, activeOnly bool) ([]models.Service, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Service), args.Error(1)
}

func (m *MockServiceRepository) Update(ctx context.Context, service *models.Service) error {
	return m.Called(ctx, service).Error(0)
}

func TestOrgServiceCreate(t *testing.T) {
	repo := new(MockServiceRepository)
	svc := NewOrgService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, ServiceInput{Name: "   "})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	repo.On("Create", ctx, mock.MatchedBy(func(s *models.Service) bool {
		return s.Name == "Sales" && s.IsActive
	})).Return(nil).Once()
	created, err := svc.Create(ctx, ServiceInput{Name: " Sales "})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	repo.On("Create", ctx, mock.Anything).Return(repository.ErrDuplicate).Once()
	_, err = svc.Create(ctx, ServiceInput{Name: "Sales"})
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	repo.AssertExpectations(t)
}

func TestOrgServiceUpdateAndList(t *testing.T) {
	repo := new(MockServiceRepository)
	svc := NewOrgService(repo)
	ctx := context.Background()
	id := uuid.New()

	repo.On("GetByID", ctx, id).Return(&models.Service{ID: id, Name: "Sales", IsActive: true}, nil)
	repo.On("Update", ctx, mock.Anything).Return(nil)
	inactive := false
	updated, err := svc.Update(ctx, id, ServiceInput{Description: "Field sales", IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "Sales", updated.Name)
	assert.Equal(t, "Field sales", updated.Description)
	assert.False(t, updated.IsActive)

	missing := uuid.New()
	repo.On("GetByID", ctx, missing).Return(nil, repository.ErrNotFound)
	_, err = svc.Update(ctx, missing, ServiceInput{Name: "X"})
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	repo.On("List", ctx, true).Return(nil, nil)
	items, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestCustomerServiceCreateNumbersAndScopes(t *testing.T) {
	logger, _ := test.NewNullLogger()
	customers := new(MockCustomerRepository)
	sequences := new(MockSequenceRepository)
	svc := NewCustomerService(customers, sequences, logger)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	serviceID := uuid.New()
	p := rbac.Principal{UserID: uuid.New(), Role: rbac.RoleEmployee, ServiceID: &serviceID}

	sequences.On("Next", ctx, models.SequenceCustomer, 2025).Return(7, nil).Once()
	customers.On("Create", ctx, mock.Anything).Return(nil).Once()

	created, err := svc.Create(ctx, p, CustomerInput{Name: " Acme ", Email: " billing@acme.test "})
	require.NoError(t, err)
	assert.Equal(t, "CLI-2025-007", created.Number)
	assert.Equal(t, "Acme", created.Name)
	assert.Equal(t, "billing@acme.test", created.Email)
	assert.Equal(t, &serviceID, created.ServiceID)
	assert.Equal(t, p.UserID, created.CreatedBy)

	_, err = svc.Create(ctx, p, CustomerInput{})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	customers.AssertExpectations(t)
	sequences.AssertExpectations(t)
}

func TestCustomerOfAnotherServiceIsHidden(t *testing.T) {
	logger, _ := test.NewNullLogger()
	customers := new(MockCustomerRepository)
	svc := NewCustomerService(customers, nil, logger)
	ctx := context.Background()

	own, other := uuid.New(), uuid.New()
	id := uuid.New()
	customers.On("GetByID", ctx, id).Return(&models.Customer{ID: id, ServiceID: &other}, nil)

	_, err := svc.Get(ctx, rbac.Principal{UserID: uuid.New(), Role: rbac.RoleEmployee, ServiceID: &own}, id)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	got, err := svc.Get(ctx, rbac.Principal{UserID: uuid.New(), Role: rbac.RoleGeneralDirector}, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
}

func TestCustomerListFiltersByServiceForScopedRoles(t *testing.T) {
	logger, _ := test.NewNullLogger()
	customers := new(MockCustomerRepository)
	svc := NewCustomerService(customers, nil, logger)
	ctx := context.Background()
	serviceID := uuid.New()

	customers.On("List", ctx, mock.MatchedBy(func(f repository.CustomerFilter) bool {
		return f.ServiceID != nil && *f.ServiceID == serviceID && f.Search == "acme"
	})).Return([]models.Customer{{Name: "Acme"}}, int64(1), nil).Once()
	customers.On("List", ctx, mock.MatchedBy(func(f repository.CustomerFilter) bool {
		return f.ServiceID == nil
	})).Return([]models.Customer{}, int64(0), nil).Once()

	res, err := svc.List(ctx, rbac.Principal{Role: rbac.RoleServiceManager, ServiceID: &serviceID}, " acme ", repository.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)
	assert.Equal(t, repository.DefaultLimit, res.Limit)

	_, err = svc.List(ctx, rbac.Principal{Role: rbac.RoleAdmin}, "", repository.Page{})
	require.NoError(t, err)

	customers.AssertExpectations(t)
}

func TestCustomerListForPrincipalWithoutServiceMatchesGet(t *testing.T) {
	logger, _ := test.NewNullLogger()
	customers := new(MockCustomerRepository)
	svc := NewCustomerService(customers, nil, logger)
	ctx := context.Background()

	other := uuid.New()
	scoped := &models.Customer{ID: uuid.New(), Name: "Scoped", ServiceID: &other}
	shared := &models.Customer{ID: uuid.New(), Name: "Shared"}
	accountant := rbac.Principal{UserID: uuid.New(), Role: rbac.RoleAccountant}

	customers.On("List", ctx, mock.MatchedBy(func(f repository.CustomerFilter) bool {
		return f.SharedOnly && f.ServiceID == nil
	})).Return([]models.Customer{*shared}, int64(1), nil).Once()
	customers.On("GetByID", ctx, scoped.ID).Return(scoped, nil)
	customers.On("GetByID", ctx, shared.ID).Return(shared, nil)

	res, err := svc.List(ctx, accountant, "", repository.Page{})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)

	// Everything listed is readable, and what is not listed is not.
	_, err = svc.Get(ctx, accountant, res.Items[0].ID)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, accountant, scoped.ID)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	customers.AssertExpectations(t)
}
