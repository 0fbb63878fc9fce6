package loanwatch

import (
	"testing"
	"time"

	"lendinghub/internal/microservices/http-api/models"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	window := 24 * time.Hour
	sent := now.Add(-time.Hour)
	returned := now.Add(-time.Minute)

	tests := []struct {
		name string
		loan models.Loan
		want Condition
	}{
		{"past due", models.Loan{DueAt: now.Add(-time.Hour)}, ConditionOverdue},
		{"past due already notified", models.Loan{DueAt: now.Add(-time.Hour), OverdueNotified: true}, ConditionNone},
		{"inside window", models.Loan{DueAt: now.Add(2 * time.Hour)}, ConditionReminder},
		{"window edge", models.Loan{DueAt: now.Add(window)}, ConditionReminder},
		{"outside window", models.Loan{DueAt: now.Add(48 * time.Hour)}, ConditionNone},
		{"reminder already sent", models.Loan{DueAt: now.Add(time.Hour), ReminderSentAt: &sent}, ConditionNone},
		{"due exactly now", models.Loan{DueAt: now}, ConditionNone},
		{"overdue after reminder", models.Loan{DueAt: now.Add(-time.Hour), ReminderSentAt: &sent}, ConditionOverdue},
		{"returned", models.Loan{DueAt: now.Add(-time.Hour), ReturnedAt: &returned}, ConditionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(&tt.loan, now, window))
		})
	}
}

func TestValidateLoan(t *testing.T) {
	user := &models.User{ID: 1}
	book := &models.Book{ID: 1}

	assert.NoError(t, validateLoan(&models.Loan{DueAt: time.Now(), User: user, Book: book}))
	assert.ErrorIs(t, validateLoan(&models.Loan{User: user, Book: book}), ErrInvalidLoan)
	assert.ErrorIs(t, validateLoan(&models.Loan{DueAt: time.Now(), Book: book}), ErrInvalidLoan)
	assert.ErrorIs(t, validateLoan(&models.Loan{DueAt: time.Now(), User: user}), ErrInvalidLoan)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "Book due soon", Subject(models.NotificationReminder))
	assert.Equal(t, "Book overdue", Subject(models.NotificationOverdue))
	assert.Equal(t, "Library notice", Subject(models.NotificationSystem))
}
