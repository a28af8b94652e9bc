package transport

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func freeAddr(t *testing.T) string {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestTCPExchange(t *testing.T) {
	ctx := context.Background()
	tr := NewTCP(DialPolicy{})

	ln, err := tr.Listen(ctx, "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	var errGroup errgroup.Group
	errGroup.Go(func() error {
		conn, err := tr.Dial(ctx, ln.Addr().String())
		if err != nil {
			return err
		}
		defer conn.Close()
		_, err = conn.Write([]byte("hello"))
		return err
	})

	conn, err := ln.Accept(ctx)
	require.NoError(t, err)
	defer conn.Close()

	data, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	require.NoError(t, errGroup.Wait())
}

func TestTCPDialFailsFastWithoutListener(t *testing.T) {
	tr := NewTCP(DialPolicy{})

	start := time.Now()
	_, err := tr.Dial(context.Background(), freeAddr(t))
	assert.ErrorIs(t, err, ErrDial)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestTCPDialRetriesUntilListenerAppears(t *testing.T) {
	ctx := context.Background()
	addr := freeAddr(t)
	tr := NewTCP(DialPolicy{Attempts: 50, Backoff: 10 * time.Millisecond, MaxBackoff: 50 * time.Millisecond})

	var errGroup errgroup.Group
	errGroup.Go(func() error {
		conn, err := tr.Dial(ctx, addr)
		if err != nil {
			return err
		}
		return conn.Close()
	})

	time.Sleep(50 * time.Millisecond)
	ln, err := tr.Listen(ctx, addr)
	require.NoError(t, err)
	defer ln.Close()

	conn, err := ln.Accept(ctx)
	require.NoError(t, err)
	conn.Close()
	require.NoError(t, errGroup.Wait())
}

func TestTCPDialCancelled(t *testing.T) {
	tr := NewTCP(DialPolicy{Attempts: 1000, Backoff: time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := tr.Dial(ctx, freeAddr(t))
	assert.ErrorIs(t, err, ErrDial)
}

func TestTCPAcceptCancelled(t *testing.T) {
	tr := NewTCP(DialPolicy{})
	ln, err := tr.Listen(context.Background(), "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = ln.Accept(ctx)
	assert.ErrorIs(t, err, ErrAccept)

	// closing twice is harmless
	assert.Equal(t, ln.Close(), ln.Close())
}

func TestTCPListenAddressInUse(t *testing.T) {
	tr := NewTCP(DialPolicy{})
	ln, err := tr.Listen(context.Background(), "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	_, err = tr.Listen(context.Background(), ln.Addr().String())
	assert.ErrorIs(t, err, ErrListen)
}
