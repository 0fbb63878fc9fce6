package models

import "time"

// Loan is a borrow record. It is active while ReturnedAt is nil.
// ReminderSentAt and OverdueNotified are write-once flags owned by the due/overdue scan.
type Loan struct {
	ID              int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          int64      `gorm:"not null;index" json:"user_id"`
	BookID          int64      `gorm:"not null;index" json:"book_id"`
	BorrowedAt      time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"borrowed_at"`
	DueAt           time.Time  `gorm:"not null;index" json:"due_at"`
	ReturnedAt      *time.Time `json:"returned_at,omitempty"`
	ReminderSentAt  *time.Time `json:"reminder_sent_at,omitempty"`
	OverdueNotified bool       `gorm:"not null;default:false" json:"overdue_notified"`

	// Associations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

func (Loan) TableName() string {
	return "borrow_records"
}

func (l *Loan) Active() bool {
	return l.ReturnedAt == nil
}
