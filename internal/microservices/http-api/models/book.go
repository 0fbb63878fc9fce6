package models

import "time"

type BookStatus string

const (
	BookAvailable BookStatus = "Available"
	BookBorrowed  BookStatus = "Borrowed"
	BookOverdue   BookStatus = "Overdue"
)

type Book struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ISBN      *string    `gorm:"size:13;uniqueIndex" json:"isbn,omitempty"`
	Title     string     `gorm:"size:200;not null" json:"title"`
	Status    BookStatus `gorm:"type:varchar(20);not null;default:'Available'" json:"status"`
	AuthorID  int64      `gorm:"not null;index" json:"author_id"`
	CreatedAt time.Time  `json:"created_at"`
}

func (Book) TableName() string {
	return "books"
}
