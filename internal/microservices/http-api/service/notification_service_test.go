package service

import (
	"context"
	"testing"
	"time"

	"lendinghub/internal/microservices/http-api/models"
	"lendinghub/internal/microservices/http-api/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockNotificationRepository) ListByUser(ctx context.Context, userID int64, unread *bool, skip, limit int) ([]models.Notification, error) {
	args := m.Called(ctx, userID, unread, skip, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkAsRead(ctx context.Context, userID, id int64) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *MockNotificationRepository) MarkAllAsRead(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) ListScanCandidates(ctx context.Context, now time.Time, window time.Duration) ([]models.Loan, error) {
	args := m.Called(ctx, now, window)
	return args.Get(0).([]models.Loan), args.Error(1)
}

func (m *MockLoanRepository) ListOverdue(ctx context.Context, now time.Time, search string, skip, limit int) ([]models.Loan, error) {
	args := m.Called(ctx, now, search, skip, limit)
	return args.Get(0).([]models.Loan), args.Error(1)
}

func (m *MockLoanRepository) MarkOverdueNotified(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockLoanRepository) MarkReminderSent(ctx context.Context, id int64, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func TestNotificationService_ListClampsPage(t *testing.T) {
	tests := []struct {
		name              string
		skip, limit       int
		wantSkip, wantLim int
	}{
		{"in range", 10, 20, 10, 20},
		{"limit too large", 0, 500, 0, 100},
		{"limit zero", 0, 0, 0, 1},
		{"negative skip", -5, 10, 0, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockNotificationRepository)
			repo.On("ListByUser", mock.Anything, int64(1), (*bool)(nil), tt.wantSkip, tt.wantLim).
				Return([]models.Notification{{ID: 3}}, nil)

			svc := NewNotificationService(repo, new(MockLoanRepository))
			got, err := svc.List(context.Background(), 1, nil, tt.skip, tt.limit)

			require.NoError(t, err)
			assert.Len(t, got, 1)
			repo.AssertExpectations(t)
		})
	}
}

func TestNotificationService_MarkAsReadNotOwned(t *testing.T) {
	repo := new(MockNotificationRepository)
	repo.On("MarkAsRead", mock.Anything, int64(1), int64(99)).Return(repository.ErrNotFound)

	svc := NewNotificationService(repo, new(MockLoanRepository))
	err := svc.MarkAsRead(context.Background(), 1, 99)

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestNotificationService_ListOverdueLoans(t *testing.T) {
	loans := new(MockLoanRepository)
	loans.On("ListOverdue", mock.Anything, mock.AnythingOfType("time.Time"), "dune", 0, 100).
		Return([]models.Loan{{ID: 4}}, nil)

	svc := NewNotificationService(new(MockNotificationRepository), loans)
	got, err := svc.ListOverdueLoans(context.Background(), "dune", 0, 1000)

	require.NoError(t, err)
	assert.Equal(t, int64(4), got[0].ID)
	loans.AssertExpectations(t)
}
