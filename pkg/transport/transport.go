// Package transport provides the point-to-point byte streams between ring nodes:
// bind a listener, accept exactly one connection, dial a successor.
package transport

import (
	"context"
	"net"

	"github.com/pkg/errors"
)

var (
	ErrListen = errors.New("transport: failed to listen")
	ErrAccept = errors.New("transport: failed to accept")
	ErrDial   = errors.New("transport: failed to connect")
)

// Transport opens listeners and outbound connections.
type Transport interface {
	// Listen binds addr. The listener is ready to accept when Listen returns.
	Listen(ctx context.Context, addr string) (Listener, error)
	// Dial connects to addr according to the transport's dial policy.
	Dial(ctx context.Context, addr string) (net.Conn, error)
}

// Listener accepts inbound connections on a bound address.
type Listener interface {
	// Accept blocks until a connection arrives or ctx is done.
	Accept(ctx context.Context) (net.Conn, error)
	// Addr returns the bound address.
	Addr() net.Addr
	// Close releases the address. It is safe to call more than once.
	Close() error
}
