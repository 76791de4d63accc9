package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"erp-service/internal/models"
	"erp-service/internal/repository"
)

type MockAuditRepository struct {
	mock.Mock
}

var _ repository.AuditRepositoryInterface = (*MockAuditRepository)(nil)

func (m *MockAuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepository) List(ctx context.Context, filter repository.AuditFilter) ([]models.AuditLog, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.AuditLog), args.Get(1).(int64), args.Error(2)
}

func TestRecordWritesEntry(t *testing.T) {
	repo := new(MockAuditRepository)
	logger, _ := test.NewNullLogger()
	recorder := NewRecorder(repo, logger)

	quoteID := uuid.New()
	userID := uuid.New()
	repo.On("Create", mock.Anything, mock.MatchedBy(func(l *models.AuditLog) bool {
		return l.UserID == userID &&
			l.Action == models.AuditActionApproveDG &&
			l.Resource == models.ResourceQuote &&
			*l.ResourceID == quoteID &&
			string(l.Details) == `{"number":"DEV-2025-001"}`
	})).Return(nil).Once()

	recorder.Record(context.Background(), Entry{
		UserID:     userID,
		Action:     models.AuditActionApproveDG,
		Resource:   models.ResourceQuote,
		ResourceID: &quoteID,
		Details:    map[string]interface{}{"number": "DEV-2025-001"},
	})
	recorder.Wait()

	repo.AssertExpectations(t)
}

func TestRecordSurvivesCancelledRequestContext(t *testing.T) {
	repo := new(MockAuditRepository)
	logger, _ := test.NewNullLogger()
	recorder := NewRecorder(repo, logger)

	var writeCtxErr error
	repo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		writeCtxErr = args.Get(0).(context.Context).Err()
	}).Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	recorder.Record(ctx, Entry{UserID: uuid.New(), Action: models.AuditActionCreate, Resource: models.ResourceCustomer})
	recorder.Wait()

	assert.NoError(t, writeCtxErr)
}

func TestRecordLogsAndDropsFailures(t *testing.T) {
	repo := new(MockAuditRepository)
	logger, hook := test.NewNullLogger()
	recorder := NewRecorder(repo, logger)

	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

	recorder.Record(context.Background(), Entry{UserID: uuid.New(), Action: models.AuditActionReject, Resource: models.ResourceQuote})
	recorder.Wait()

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "Failed to write audit log", entry.Message)
}

func TestNilRecorderIsNoop(t *testing.T) {
	var recorder *Recorder
	assert.NotPanics(t, func() {
		recorder.Record(context.Background(), Entry{})
		recorder.Wait()
	})
}
