package repository

import (
	"context"
	"fmt"

	"lendinghub/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type BookRepository interface {
	SetStatus(ctx context.Context, bookID int64, status models.BookStatus) error
}

type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) SetStatus(ctx context.Context, bookID int64, status models.BookStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", bookID).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("set book %d status: %w", bookID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
