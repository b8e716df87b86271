package email

import (
	"bufio"
	"context"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

func listen(t *testing.T) (net.Listener, string, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)
	return ln, host, port
}

// fakeSMTP accepts one session at a time and records the DATA of each message.
type fakeSMTP struct {
	mu   sync.Mutex
	data []string
	rcpt []string
}

func (f *fakeSMTP) serve(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go f.session(conn)
	}
}

func (f *fakeSMTP) session(conn net.Conn) {
	defer conn.Close()
	tp := textproto.NewConn(conn)
	tp.PrintfLine("220 fake ESMTP")

	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		cmd := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			tp.PrintfLine("250 fake")
		case strings.HasPrefix(cmd, "MAIL FROM"):
			tp.PrintfLine("250 ok")
		case strings.HasPrefix(cmd, "RCPT TO"):
			f.mu.Lock()
			f.rcpt = append(f.rcpt, line)
			f.mu.Unlock()
			tp.PrintfLine("250 ok")
		case cmd == "DATA":
			tp.PrintfLine("354 go ahead")
			body, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			f.mu.Lock()
			f.data = append(f.data, string(body))
			f.mu.Unlock()
			tp.PrintfLine("250 queued")
		case cmd == "QUIT":
			tp.PrintfLine("221 bye")
			return
		default:
			tp.PrintfLine("502 not implemented")
		}
	}
}

func TestSendOverSMTP(t *testing.T) {
	ln, host, port := listen(t)
	srv := &fakeSMTP{}
	go srv.serve(ln)

	s := &Sender{Host: host, Port: port, From: "shop@example.com", Retries: 1, Timeout: 5 * time.Second}
	if err := s.Deliver(context.Background(), "buyer@example.com", "Please review", "<p>hi</p>", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()
	if len(srv.data) != 1 {
		t.Fatalf("expected one message, got %d", len(srv.data))
	}
	if !strings.Contains(srv.rcpt[0], "buyer@example.com") {
		t.Fatalf("unexpected recipient %q", srv.rcpt[0])
	}
	if !strings.Contains(srv.data[0], "Subject: Please review") {
		t.Fatalf("expected subject header in message:\n%s", srv.data[0])
	}
}

// silentListener accepts connections and never writes a greeting.
func silentListener(t *testing.T) (string, int) {
	ln, host, port := listen(t)

	var mu sync.Mutex
	var conns []net.Conn
	t.Cleanup(func() {
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			c.Close()
		}
	})

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
			go bufio.NewReader(conn).ReadString('\n')
		}
	}()
	return host, port
}

func deliverWithin(t *testing.T, limit time.Duration, deliver func() error) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- deliver() }()

	select {
	case err := <-done:
		return err
	case <-time.After(limit):
		t.Fatalf("delivery still blocked after %v", limit)
		return nil
	}
}

func TestDeliverHonorsContextDeadlineOnStalledServer(t *testing.T) {
	host, port := silentListener(t)
	s := &Sender{Host: host, Port: port, From: "shop@example.com", Retries: 1, Timeout: time.Minute}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	err := deliverWithin(t, 3*time.Second, func() error {
		return s.Deliver(ctx, "buyer@example.com", "s", "b", false)
	})
	if err == nil {
		t.Fatal("expected error from stalled server")
	}
}

func TestSendTimesOutOnStalledServer(t *testing.T) {
	host, port := silentListener(t)
	s := &Sender{Host: host, Port: port, From: "shop@example.com", Timeout: 200 * time.Millisecond}

	err := deliverWithin(t, 3*time.Second, func() error {
		return s.Send(context.Background(), Message{To: "buyer@example.com", Subject: "s", HTMLBody: "b"})
	})
	if err == nil {
		t.Fatal("expected timeout error")
	}
}
