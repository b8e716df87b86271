package email

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gopkg.in/gomail.v2"
)

const defaultTimeout = 30 * time.Second

// Message is one outbound HTML email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	IsCopy   bool
}

type Sender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Retries  int

	// Timeout bounds one delivery attempt from dial to QUIT.
	Timeout time.Duration

	// dial is replaced in tests.
	dial func(m *gomail.Message) error
}

// Send delivers the message once. The attempt stops at the earlier of
// Timeout and ctx's deadline, or when ctx is canceled.
func (s *Sender) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	if msg.IsCopy {
		m.SetHeader("X-Review-Copy", "true")
	}
	m.SetBody("text/html", msg.HTMLBody)

	if s.dial != nil {
		return s.dial(m)
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sc, err := s.dialSMTP(ctx)
	if err != nil {
		return fmt.Errorf("smtp dial error: %w", err)
	}
	defer sc.Close()

	if err := gomail.Send(sc, m); err != nil {
		return fmt.Errorf("smtp send error: %w", err)
	}

	return nil
}

// SendWithRetry retries email sending with exponential backoff
func (s *Sender) SendWithRetry(
	ctx context.Context,
	msg Message,
	retries int,
) error {

	if retries < 1 {
		retries = 1
	}

	operation := func() error {
		return s.Send(ctx, msg)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = time.Duration(retries) * time.Second

	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}

// Deliver sends an HTML email, retrying transient SMTP failures.
func (s *Sender) Deliver(ctx context.Context, to, subject, htmlBody string, isCopy bool) error {
	return s.SendWithRetry(ctx, Message{
		To:       to,
		Subject:  subject,
		HTMLBody: htmlBody,
		IsCopy:   isCopy,
	}, s.Retries)
}
