package repository

import (
	"context"
	"fmt"
	"time"

	"lendinghub/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type LoanRepository interface {
	// ListScanCandidates returns active loans that are either past due and not
	// yet overdue-notified, or inside the reminder window with no reminder sent.
	ListScanCandidates(ctx context.Context, now time.Time, window time.Duration) ([]models.Loan, error)
	ListOverdue(ctx context.Context, now time.Time, search string, skip, limit int) ([]models.Loan, error)
	// MarkOverdueNotified and MarkReminderSent are conditional writes: they only
	// succeed while the flag is still unset and return ErrAlreadyFlagged otherwise.
	MarkOverdueNotified(ctx context.Context, loanID int64) error
	MarkReminderSent(ctx context.Context, loanID int64, at time.Time) error
}

type loanRepository struct {
	db *gorm.DB
}

func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) ListScanCandidates(ctx context.Context, now time.Time, window time.Duration) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Book").
		Where("returned_at IS NULL").
		Where("((due_at < ? AND overdue_notified = ?) OR (due_at > ? AND due_at <= ? AND reminder_sent_at IS NULL))",
			now, false, now, now.Add(window)).
		Order("due_at ASC").
		Find(&loans).Error
	if err != nil {
		return nil, fmt.Errorf("list scan candidates: %w", err)
	}
	return loans, nil
}

func (r *loanRepository) ListOverdue(ctx context.Context, now time.Time, search string, skip, limit int) ([]models.Loan, error) {
	var loans []models.Loan
	q := r.db.WithContext(ctx).
		Preload("User").
		Preload("Book").
		Where("borrow_records.returned_at IS NULL AND borrow_records.due_at < ?", now)

	if search != "" {
		pattern := "%" + search + "%"
		q = q.Joins("JOIN users ON users.id = borrow_records.user_id").
			Joins("JOIN books ON books.id = borrow_records.book_id").
			Where("(users.name ILIKE ? OR users.email ILIKE ? OR books.title ILIKE ?)", pattern, pattern, pattern)
	}

	if err := q.Order("borrow_records.due_at ASC").
		Offset(skip).
		Limit(limit).
		Find(&loans).Error; err != nil {
		return nil, fmt.Errorf("list overdue loans: %w", err)
	}
	return loans, nil
}

func (r *loanRepository) MarkOverdueNotified(ctx context.Context, loanID int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("id = ? AND overdue_notified = ? AND returned_at IS NULL", loanID, false).
		Update("overdue_notified", true)
	if result.Error != nil {
		return fmt.Errorf("mark loan %d overdue: %w", loanID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyFlagged
	}
	return nil
}

func (r *loanRepository) MarkReminderSent(ctx context.Context, loanID int64, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("id = ? AND reminder_sent_at IS NULL AND returned_at IS NULL", loanID).
		Update("reminder_sent_at", at)
	if result.Error != nil {
		return fmt.Errorf("mark loan %d reminded: %w", loanID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyFlagged
	}
	return nil
}
