package models

import "time"

type NotificationType string

const (
	NotificationReminder NotificationType = "Reminder"
	NotificationOverdue  NotificationType = "Overdue"
	NotificationSystem   NotificationType = "System"
)

// Notification is an immutable fact once created. A nil UserID marks a
// broadcast row meant for staff out-of-band; such rows are never pushed.
type Notification struct {
	ID        int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *int64           `gorm:"index" json:"user_id,omitempty"`
	Message   string           `gorm:"not null" json:"message"`
	Type      NotificationType `gorm:"type:varchar(20);not null;default:'Reminder'" json:"type"`
	IsRead    bool             `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time        `gorm:"not null" json:"created_at"`

	// Associations
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}
