package loanwatch

import (
	"context"

	"lendinghub/internal/metrics"
	"lendinghub/internal/microservices/http-api/repository"

	"go.uber.org/zap"
)

// Observer receives the result of every pass, scheduled or manual.
type Observer interface {
	Observe(ctx context.Context, result PassResult)
}

// PassObserver logs, records metrics and appends to history.
type PassObserver struct {
	history History
	logger  *zap.Logger
}

func NewPassObserver(history History, logger *zap.Logger) *PassObserver {
	return &PassObserver{history: history, logger: logger.With(zap.String("component", "scan_observer"))}
}

func (o *PassObserver) Observe(ctx context.Context, r PassResult) {
	metrics.ScanPasses.WithLabelValues(string(r.Trigger), r.Outcome()).Inc()
	metrics.ScanDuration.WithLabelValues(string(r.Trigger)).Observe(r.Duration.Seconds())

	fields := []zap.Field{
		zap.String("trigger", string(r.Trigger)),
		zap.Duration("duration", r.Duration),
		zap.Int("candidates", r.Candidates),
		zap.Int("reminders", r.Reminders),
		zap.Int("overdues", r.Overdues),
		zap.Int("skipped", r.Skipped),
		zap.Int("conflicts", r.Conflicts),
		zap.Int("notifications", r.Notifications),
	}
	if r.Err != nil {
		// transient failures (serialization, deadlock) clear on the next tick
		o.logger.Error("scan pass failed", append(fields,
			zap.Bool("transient", repository.IsTransient(r.Err)),
			zap.Error(r.Err),
		)...)
	} else {
		o.logger.Info("scan pass completed", fields...)
	}

	if o.history == nil {
		return
	}
	if err := o.history.Append(ctx, r.Entry()); err != nil {
		o.logger.Warn("failed to record scan history", zap.Error(err))
	}
}
