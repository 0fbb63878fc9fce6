package mailer

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttled caps the outbound send rate of the wrapped sender.
type Throttled struct {
	next    Sender
	limiter *rate.Limiter
}

func NewThrottled(next Sender, perSecond int) *Throttled {
	return &Throttled{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), perSecond),
	}
}

func (t *Throttled) Send(ctx context.Context, to, subject, body string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return &SendError{Kind: ErrTimeout, Err: err}
	}
	return t.next.Send(ctx, to, subject, body)
}
