package transport

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// DialPolicy controls how a connection attempt to a successor is retried.
// The zero value makes a single attempt and fails fast.
type DialPolicy struct {
	// Attempts is the number of connection attempts; values below 1 mean 1.
	Attempts int
	// Backoff is the wait before the second attempt. It doubles after every
	// failed attempt up to MaxBackoff.
	Backoff time.Duration
	// MaxBackoff caps the wait between attempts; zero means no cap.
	MaxBackoff time.Duration
	// Timeout bounds a single attempt; zero means no bound.
	Timeout time.Duration
}

// TCP is a Transport over TCP sockets.
type TCP struct {
	policy DialPolicy
}

func NewTCP(policy DialPolicy) *TCP {
	return &TCP{policy: policy}
}

// Listen binds a TCP listener on addr.
func (t *TCP) Listen(ctx context.Context, addr string) (Listener, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.WithMessagef(ErrListen, "%s: %v", addr, err)
	}
	return &tcpListener{ln: ln}, nil
}

// Dial connects to addr, retrying per the dial policy. A refused connection
// (no listener yet) is retried like any other failure.
func (t *TCP) Dial(ctx context.Context, addr string) (net.Conn, error) {
	attempts := t.policy.Attempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := t.policy.Backoff
	d := net.Dialer{Timeout: t.policy.Timeout}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if err := sleep(ctx, backoff); err != nil {
				return nil, errors.WithMessagef(ErrDial, "%s: %v", addr, err)
			}
			backoff *= 2
			if t.policy.MaxBackoff > 0 && backoff > t.policy.MaxBackoff {
				backoff = t.policy.MaxBackoff
			}
		}

		conn, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, errors.WithMessagef(ErrDial, "%s after %d attempt(s): %v", addr, attempts, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type tcpListener struct {
	ln   net.Listener
	once sync.Once
	err  error
}

// Accept waits for one connection. Cancelling ctx closes the listener.
func (l *tcpListener) Accept(ctx context.Context) (net.Conn, error) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			l.Close()
		case <-done:
		}
	}()

	conn, err := l.ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, errors.WithMessagef(ErrAccept, "%s: %v", l.ln.Addr(), err)
	}
	return conn, nil
}

func (l *tcpListener) Addr() net.Addr {
	return l.ln.Addr()
}

func (l *tcpListener) Close() error {
	l.once.Do(func() {
		l.err = l.ln.Close()
	})
	return l.err
}
