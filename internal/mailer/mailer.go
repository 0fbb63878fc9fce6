// Package mailer delivers notification emails through a pluggable provider.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/mail"
	"strings"
	"time"

	"lendinghub/internal/config"
)

var (
	ErrNotConfigured = errors.New("email delivery not configured")
	ErrTimeout       = errors.New("email delivery timed out")
	ErrConnection    = errors.New("email server unreachable")
	ErrInvalidHeader = errors.New("invalid email header value")
)

// SendError wraps a provider failure with its classified Kind
// (ErrTimeout or ErrConnection) so callers can errors.Is on it.
type SendError struct {
	Kind error
	Err  error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *SendError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Sender sends one plain-text message. Implementations must honor ctx.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Disabled is the sender used when no provider is configured.
type Disabled struct{}

func (Disabled) Send(context.Context, string, string, string) error {
	return ErrNotConfigured
}

// classify maps a transport error onto ErrTimeout or ErrConnection.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &SendError{Kind: ErrTimeout, Err: err}
	}
	return &SendError{Kind: ErrConnection, Err: err}
}

// checkHeaders rejects recipients and subjects that would break out of
// their header line.
func checkHeaders(to, subject string) error {
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return fmt.Errorf("%w: line break in recipient or subject", ErrInvalidHeader)
	}
	if _, err := mail.ParseAddress(to); err != nil {
		return fmt.Errorf("%w: recipient %q: %v", ErrInvalidHeader, to, err)
	}
	return nil
}

// New builds the sender selected by cfg.EmailProvider. An incomplete
// configuration yields Disabled rather than an error; email is optional.
func New(ctx context.Context, cfg *config.Config) (Sender, error) {
	if !cfg.EmailConfigured() {
		return Disabled{}, nil
	}

	var sender Sender
	switch cfg.EmailProvider {
	case config.EmailProviderSMTP:
		sender = NewSMTPSender(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.EmailFrom,
			Timeout:  cfg.EmailTimeout,
		})
	case config.EmailProviderSES:
		ses, err := NewSESSender(ctx, cfg.AWSRegion, cfg.EmailFrom)
		if err != nil {
			return nil, fmt.Errorf("init ses sender: %w", err)
		}
		sender = ses
	default:
		return Disabled{}, nil
	}

	if cfg.EmailRatePerSec > 0 {
		sender = NewThrottled(sender, cfg.EmailRatePerSec)
	}
	return sender, nil
}

func defaultTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return 20 * time.Second
	}
	return d
}
