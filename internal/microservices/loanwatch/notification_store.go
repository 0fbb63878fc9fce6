package loanwatch

import (
	"context"
	"fmt"
	"time"

	"lendinghub/internal/microservices/http-api/models"
	"lendinghub/internal/microservices/http-api/repository"
)

// createNotification persists one notification row inside tx.
func createNotification(ctx context.Context, tx repository.Store, userID *int64, typ models.NotificationType, message string, at time.Time) (*models.Notification, error) {
	n := &models.Notification{
		UserID:    userID,
		Message:   message,
		Type:      typ,
		CreatedAt: at,
	}
	if err := tx.Notifications().Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create %s notification: %w", typ, err)
	}
	return n, nil
}

// notifyStaff creates one System notification per librarian. With no
// librarian on record a single broadcast row (nil target) is kept instead.
func notifyStaff(ctx context.Context, tx repository.Store, message string, at time.Time) ([]*models.Notification, error) {
	staff, err := tx.Users().ListByRole(ctx, models.RoleLibrarian)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}

	if len(staff) == 0 {
		n, err := createNotification(ctx, tx, nil, models.NotificationSystem, message, at)
		if err != nil {
			return nil, err
		}
		return []*models.Notification{n}, nil
	}

	created := make([]*models.Notification, 0, len(staff))
	for i := range staff {
		id := staff[i].ID
		n, err := createNotification(ctx, tx, &id, models.NotificationSystem, message, at)
		if err != nil {
			return nil, err
		}
		created = append(created, n)
	}
	return created, nil
}
