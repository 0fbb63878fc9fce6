package loanwatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lendinghub/internal/metrics"
	"lendinghub/internal/microservices/http-api/models"
	"lendinghub/internal/microservices/http-api/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Deliverer fans one persisted notification out to its target's channels.
type Deliverer interface {
	Dispatch(ctx context.Context, n *models.Notification) DeliveryReport
}

type ScannerConfig struct {
	ReminderWindow      time.Duration
	DispatchConcurrency int
}

// Scanner runs one idempotent due/overdue pass over the active loans.
//
// Every qualifying loan is handled in its own transaction that starts with a
// conditional flag write, so two passes racing on the same loan produce
// exactly one set of notifications. Dispatch starts only after every
// transaction of the pass has committed.
type Scanner struct {
	store       repository.Store
	deliverer   Deliverer
	window      time.Duration
	concurrency int
	now         func() time.Time
	logger      *zap.Logger
}

func NewScanner(store repository.Store, deliverer Deliverer, cfg ScannerConfig, logger *zap.Logger) *Scanner {
	concurrency := cfg.DispatchConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Scanner{
		store:       store,
		deliverer:   deliverer,
		window:      cfg.ReminderWindow,
		concurrency: concurrency,
		now:         time.Now,
		logger:      logger.With(zap.String("component", "loan_scanner")),
	}
}

// Run executes one pass. A data-store failure aborts the remaining loans but
// notifications already committed in this pass are still dispatched.
func (s *Scanner) Run(ctx context.Context, trigger Trigger) PassResult {
	start := time.Now()
	now := s.now()
	result := PassResult{Trigger: trigger, StartedAt: now}

	loans, err := s.store.Loans().ListScanCandidates(ctx, now, s.window)
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}
	result.Candidates = len(loans)

	var pending []*models.Notification
	for i := range loans {
		loan := &loans[i]

		if err := validateLoan(loan); err != nil {
			result.Skipped++
			s.logger.Warn("skipping loan", zap.Int64("loan_id", loan.ID), zap.Error(err))
			continue
		}

		cond := Classify(loan, now, s.window)
		if cond == ConditionNone {
			continue
		}

		created, err := s.process(ctx, loan, cond, now)
		if errors.Is(err, repository.ErrAlreadyFlagged) {
			result.Conflicts++
			s.logger.Debug("loan already handled by another pass",
				zap.Int64("loan_id", loan.ID),
				zap.Stringer("condition", cond),
			)
			continue
		}
		if err != nil {
			result.Err = fmt.Errorf("process loan %d: %w", loan.ID, err)
			break
		}

		if cond == ConditionOverdue {
			result.Overdues++
		} else {
			result.Reminders++
		}
		pending = append(pending, created...)
	}

	for _, n := range pending {
		metrics.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()
	}
	result.Notifications = len(pending)

	s.dispatch(ctx, pending)

	result.Duration = time.Since(start)
	return result
}

// process applies one loan's state changes and returns the notifications
// it created. Nothing is returned unless the transaction committed.
func (s *Scanner) process(ctx context.Context, loan *models.Loan, cond Condition, now time.Time) ([]*models.Notification, error) {
	var created []*models.Notification

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		created = nil
		borrower := loan.UserID

		switch cond {
		case ConditionOverdue:
			if err := tx.Loans().MarkOverdueNotified(ctx, loan.ID); err != nil {
				return err
			}
			if err := tx.Books().SetStatus(ctx, loan.BookID, models.BookOverdue); err != nil {
				return fmt.Errorf("set book %d overdue: %w", loan.BookID, err)
			}
			n, err := createNotification(ctx, tx, &borrower, models.NotificationOverdue, overdueMessage(loan), now)
			if err != nil {
				return err
			}
			staff, err := notifyStaff(ctx, tx, staffMessage(loan), now)
			if err != nil {
				return err
			}
			created = append(append(created, n), staff...)

		case ConditionReminder:
			if err := tx.Loans().MarkReminderSent(ctx, loan.ID, now); err != nil {
				return err
			}
			n, err := createNotification(ctx, tx, &borrower, models.NotificationReminder, reminderMessage(loan), now)
			if err != nil {
				return err
			}
			created = append(created, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// dispatch delivers every targeted notification concurrently and waits for
// all of them. Individual delivery failures never cancel the others.
func (s *Scanner) dispatch(ctx context.Context, pending []*models.Notification) {
	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for _, n := range pending {
		if n.UserID == nil {
			continue
		}
		n := n
		g.Go(func() error {
			s.deliverer.Dispatch(ctx, n)
			return nil
		})
	}
	_ = g.Wait()
}
