package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyFlagged is returned by a conditional flag write whose precondition
	// no longer holds, i.e. a concurrent pass already claimed the loan.
	ErrAlreadyFlagged = errors.New("loan flag already set")
)

// Store is the unit of work the notification subsystem runs against.
// Transaction hands fn a Store bound to a single database transaction;
// returning an error from fn rolls every write back.
type Store interface {
	Loans() LoanRepository
	Books() BookRepository
	Users() UserRepository
	Notifications() NotificationRepository
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// Repository aggregates the GORM repositories over one *gorm.DB handle.
type Repository struct {
	db            *gorm.DB
	loans         LoanRepository
	books         BookRepository
	users         UserRepository
	notifications NotificationRepository
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:            db,
		loans:         NewLoanRepository(db),
		books:         NewBookRepository(db),
		users:         NewUserRepository(db),
		notifications: NewNotificationRepository(db),
	}
}

func (r *Repository) Loans() LoanRepository                 { return r.loans }
func (r *Repository) Books() BookRepository                 { return r.books }
func (r *Repository) Users() UserRepository                 { return r.users }
func (r *Repository) Notifications() NotificationRepository { return r.notifications }

func (r *Repository) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

// IsTransient reports whether err is a Postgres failure that a later retry
// is expected to clear (serialization failure, deadlock).
func IsTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return true
		}
	}
	return false
}
