package loanwatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"lendinghub/internal/mailer"
	"lendinghub/internal/metrics"
	"lendinghub/internal/microservices/http-api/models"
	"lendinghub/internal/microservices/http-api/repository"
	"lendinghub/internal/microservices/websocket"

	"go.uber.org/zap"
)

// Pusher is the real-time side of delivery; websocket.Registry implements it.
type Pusher interface {
	Deliver(userID int64, payload []byte) int
}

// Outcome of one channel for one notification.
type Outcome string

const (
	OutcomeNotSelected Outcome = "not_selected"
	OutcomeDelivered   Outcome = "delivered"
	OutcomeOffline     Outcome = "offline" // no live connection, push dropped
	OutcomeFailed      Outcome = "failed"
	OutcomeDisabled    Outcome = "disabled" // email transport not configured
)

type DeliveryReport struct {
	NotificationID int64
	UserID         int64
	Realtime       Outcome
	Email          Outcome
}

type Dispatcher struct {
	users        repository.UserRepository
	pusher       Pusher
	sender       mailer.Sender
	emailTimeout time.Duration
	logger       *zap.Logger
}

func NewDispatcher(users repository.UserRepository, pusher Pusher, sender mailer.Sender, emailTimeout time.Duration, logger *zap.Logger) *Dispatcher {
	if sender == nil {
		sender = mailer.Disabled{}
	}
	if emailTimeout <= 0 {
		emailTimeout = 20 * time.Second
	}
	return &Dispatcher{
		users:        users,
		pusher:       pusher,
		sender:       sender,
		emailTimeout: emailTimeout,
		logger:       logger.With(zap.String("component", "dispatcher")),
	}
}

// Dispatch delivers n on every channel in the target's current preference.
// Channels run independently; failures are logged and reported, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, n *models.Notification) DeliveryReport {
	report := DeliveryReport{
		NotificationID: n.ID,
		Realtime:       OutcomeNotSelected,
		Email:          OutcomeNotSelected,
	}
	if n.UserID == nil {
		return report
	}
	report.UserID = *n.UserID

	// preference is read fresh for every notification
	user, err := d.users.FindByID(ctx, *n.UserID)
	if err != nil {
		d.logger.Warn("cannot load notification target",
			zap.Int64("notification_id", n.ID),
			zap.Int64("user_id", *n.UserID),
			zap.Error(err),
		)
		report.Realtime, report.Email = OutcomeFailed, OutcomeFailed
		return report
	}

	prefs := user.NotificationPreference
	var wg sync.WaitGroup

	if prefs.Has(models.ChannelRealtime) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report.Realtime = d.push(user, n)
		}()
	}
	if prefs.Has(models.ChannelEmail) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report.Email = d.email(ctx, user, n)
		}()
	}
	wg.Wait()

	metrics.Deliveries.WithLabelValues(string(models.ChannelRealtime), string(report.Realtime)).Inc()
	metrics.Deliveries.WithLabelValues(string(models.ChannelEmail), string(report.Email)).Inc()
	return report
}

func (d *Dispatcher) push(user *models.User, n *models.Notification) Outcome {
	payload, err := websocket.NewNotificationMessage(n).ToJSON()
	if err != nil {
		d.logger.Error("encode push payload", zap.Int64("notification_id", n.ID), zap.Error(err))
		return OutcomeFailed
	}
	if d.pusher.Deliver(user.ID, payload) == 0 {
		return OutcomeOffline
	}
	return OutcomeDelivered
}

func (d *Dispatcher) email(ctx context.Context, user *models.User, n *models.Notification) Outcome {
	ctx, cancel := context.WithTimeout(ctx, d.emailTimeout)
	defer cancel()

	err := d.sender.Send(ctx, user.Email, Subject(n.Type), n.Message)
	switch {
	case err == nil:
		return OutcomeDelivered
	case errors.Is(err, mailer.ErrNotConfigured):
		d.logger.Debug("email channel not configured", zap.Int64("notification_id", n.ID))
		return OutcomeDisabled
	default:
		d.logger.Warn("email delivery failed",
			zap.Int64("notification_id", n.ID),
			zap.Int64("user_id", user.ID),
			zap.Error(err),
		)
		return OutcomeFailed
	}
}
