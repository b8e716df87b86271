package email

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"time"
)

// smtpConn is a gomail.SendCloser over one SMTP session whose socket carries
// a deadline. Canceling the dial context moves the deadline to now, which
// unblocks any pending read or write.
type smtpConn struct {
	client *smtp.Client
	conn   net.Conn
	stop   func() bool
}

func (s *Sender) dialSMTP(ctx context.Context) (*smtpConn, error) {
	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now())
	})

	tlsConfig := &tls.Config{ServerName: s.Host}
	if s.Port == 465 {
		conn = tls.Client(conn, tlsConfig)
	}

	client, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		stop()
		conn.Close()
		return nil, ctxErr(ctx, err)
	}

	sc := &smtpConn{client: client, conn: conn, stop: stop}

	if ok, _ := client.Extension("STARTTLS"); ok && s.Port != 465 {
		if err := client.StartTLS(tlsConfig); err != nil {
			sc.abort()
			return nil, ctxErr(ctx, err)
		}
	}

	if s.User != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(smtp.PlainAuth("", s.User, s.Password, s.Host)); err != nil {
				sc.abort()
				return nil, ctxErr(ctx, err)
			}
		}
	}

	return sc, nil
}

func (c *smtpConn) Send(from string, to []string, msg io.WriterTo) error {
	if err := c.client.Mail(from); err != nil {
		return err
	}
	for _, addr := range to {
		if err := c.client.Rcpt(addr); err != nil {
			return err
		}
	}

	w, err := c.client.Data()
	if err != nil {
		return err
	}
	if _, err := msg.WriteTo(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (c *smtpConn) Close() error {
	defer c.stop()
	err := c.client.Quit()
	c.conn.Close()
	return err
}

func (c *smtpConn) abort() {
	c.stop()
	c.conn.Close()
}

// ctxErr prefers the context's error so callers can tell a timeout from a
// protocol failure.
func ctxErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Join(ctxErr, err)
	}
	return err
}
