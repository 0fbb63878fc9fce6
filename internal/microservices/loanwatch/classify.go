// Package loanwatch scans active loans for due and overdue transitions,
// persists the resulting notifications and fans them out to each user's
// delivery channels.
package loanwatch

import (
	"errors"
	"fmt"
	"time"

	"lendinghub/internal/microservices/http-api/models"
)

// Condition is the transition a loan qualifies for during one pass.
type Condition int

const (
	ConditionNone Condition = iota
	ConditionReminder
	ConditionOverdue
)

func (c Condition) String() string {
	switch c {
	case ConditionReminder:
		return "reminder"
	case ConditionOverdue:
		return "overdue"
	default:
		return "none"
	}
}

var ErrInvalidLoan = errors.New("invalid loan record")

// Classify decides which branch, if any, a loan belongs to at now.
// A loan due exactly at now is neither overdue nor inside the window.
func Classify(loan *models.Loan, now time.Time, window time.Duration) Condition {
	if !loan.Active() {
		return ConditionNone
	}
	switch {
	case loan.DueAt.Before(now) && !loan.OverdueNotified:
		return ConditionOverdue
	case loan.DueAt.After(now) && loan.DueAt.Sub(now) <= window && loan.ReminderSentAt == nil:
		return ConditionReminder
	}
	return ConditionNone
}

// validateLoan rejects records the scan cannot build a notification for.
func validateLoan(loan *models.Loan) error {
	switch {
	case loan.DueAt.IsZero():
		return fmt.Errorf("%w: loan %d has no due date", ErrInvalidLoan, loan.ID)
	case loan.User == nil:
		return fmt.Errorf("%w: loan %d has no borrower", ErrInvalidLoan, loan.ID)
	case loan.Book == nil:
		return fmt.Errorf("%w: loan %d has no book", ErrInvalidLoan, loan.ID)
	}
	return nil
}

const dueDateLayout = "2006-01-02"

func reminderMessage(loan *models.Loan) string {
	return fmt.Sprintf("Reminder: The book '%s' is due on %s.", loan.Book.Title, loan.DueAt.Format(dueDateLayout))
}

func overdueMessage(loan *models.Loan) string {
	return fmt.Sprintf("Overdue: The book '%s' was due on %s.", loan.Book.Title, loan.DueAt.Format(dueDateLayout))
}

func staffMessage(loan *models.Loan) string {
	return fmt.Sprintf("User '%s' has an overdue book '%s'.", loan.User.Name, loan.Book.Title)
}

// Subject is the email subject line used for a notification type.
func Subject(t models.NotificationType) string {
	switch t {
	case models.NotificationReminder:
		return "Book due soon"
	case models.NotificationOverdue:
		return "Book overdue"
	default:
		return "Library notice"
	}
}
