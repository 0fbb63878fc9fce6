package models

import "time"

type Role string

const (
	RoleLibrarian Role = "Librarian"
	RoleAuthor    Role = "Author"
	RoleMember    Role = "Member"
)

type User struct {
	ID                     int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name                   string     `gorm:"size:60;not null" json:"name"`
	Email                  string     `gorm:"uniqueIndex;not null" json:"email"`
	Password               string     `gorm:"not null" json:"-"` // Not show in JSON
	Role                   Role       `gorm:"type:varchar(20);not null;default:'Member'" json:"role"`
	NotificationPreference ChannelSet `gorm:"type:varchar(64);not null;default:'realtime'" json:"notification_preference"`
	CreatedAt              time.Time  `json:"created_at"`
}

func (User) TableName() string {
	return "users"
}
