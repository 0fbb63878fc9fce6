package service

import (
	"context"
	"time"

	"lendinghub/internal/microservices/http-api/models"
	"lendinghub/internal/microservices/http-api/repository"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

type NotificationService interface {
	List(ctx context.Context, userID int64, unread *bool, skip, limit int) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, userID, notificationID int64) error
	MarkAllAsRead(ctx context.Context, userID int64) error
	ListOverdueLoans(ctx context.Context, search string, skip, limit int) ([]models.Loan, error)
}

type notificationService struct {
	notifications repository.NotificationRepository
	loans         repository.LoanRepository
	now           func() time.Time
}

func NewNotificationService(notifications repository.NotificationRepository, loans repository.LoanRepository) NotificationService {
	return &notificationService{
		notifications: notifications,
		loans:         loans,
		now:           time.Now,
	}
}

func (s *notificationService) List(ctx context.Context, userID int64, unread *bool, skip, limit int) ([]models.Notification, error) {
	skip, limit = clampPage(skip, limit)
	return s.notifications.ListByUser(ctx, userID, unread, skip, limit)
}

// MarkAsRead returns repository.ErrNotFound when the notification does not
// belong to userID.
func (s *notificationService) MarkAsRead(ctx context.Context, userID, notificationID int64) error {
	return s.notifications.MarkAsRead(ctx, userID, notificationID)
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID int64) error {
	return s.notifications.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) ListOverdueLoans(ctx context.Context, search string, skip, limit int) ([]models.Loan, error) {
	skip, limit = clampPage(skip, limit)
	return s.loans.ListOverdue(ctx, s.now(), search, skip, limit)
}

func clampPage(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	switch {
	case limit <= 0:
		limit = 1
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	}
	return skip, limit
}
