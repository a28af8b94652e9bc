// Package test holds helpers shared by the ring tests: loopback addresses,
// ring configurations and a man-in-the-middle hop that rewrites a message
// between two nodes.
package test

import (
	"context"
	"math/big"
	"net"

	"github.com/pkg/errors"

	"github.com/mr-shifu/mpc-ring/lib/wire"
	"github.com/mr-shifu/mpc-ring/pkg/ring/config"
	"github.com/mr-shifu/mpc-ring/pkg/transport"
)

// Rule describes a hook applied to a message in transit.
type Rule interface {
	// ModifyMessage modifies msg before it is forwarded.
	ModifyMessage(msg *wire.Message)
}

// RuleFunc adapts a function to a Rule.
type RuleFunc func(msg *wire.Message)

func (f RuleFunc) ModifyMessage(msg *wire.Message) {
	f(msg)
}

// FreeAddrs returns n distinct loopback addresses that were free a moment ago.
func FreeAddrs(n int) ([]string, error) {
	listeners := make([]net.Listener, 0, n)
	defer func() {
		for _, l := range listeners {
			l.Close()
		}
	}()

	addrs := make([]string, 0, n)
	for i := 0; i < n; i++ {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return nil, err
		}
		listeners = append(listeners, l)
		addrs = append(addrs, l.Addr().String())
	}
	return addrs, nil
}

// Ints converts vals to big integers.
func Ints(vals ...int64) []*big.Int {
	out := make([]*big.Int, len(vals))
	for i, v := range vals {
		out[i] = big.NewInt(v)
	}
	return out
}

// RingConfigs connects addrs into a ring: node i listens on addrs[i] and sends
// to addrs[i+1], the last one wrapping around. Node 0 is the master.
func RingConfigs(addrs []string, adds, muls []*big.Int, keyBits int) []*config.NodeConfig {
	n := len(addrs)
	cfgs := make([]*config.NodeConfig, n)
	for i := range addrs {
		role := config.Relay
		if i == 0 {
			role = config.Master
		}
		cfgs[i] = config.NewNodeConfig(role, addrs[i], addrs[(i+1)%n], adds[i], muls[i]).
			WithKeyBits(keyBits)
	}
	return cfgs
}

// Intercept accepts one message on ln, applies rule and forwards the result to
// addr. A nil rule forwards the message unchanged.
func Intercept(ctx context.Context, ln transport.Listener, tr transport.Transport, codec *wire.Codec, addr string, rule Rule) error {
	defer ln.Close()

	in, err := ln.Accept(ctx)
	if err != nil {
		return err
	}
	msg, err := codec.Decode(in)
	in.Close()
	if err != nil {
		return errors.WithMessage(err, "test.Intercept: failed to read message")
	}

	if rule != nil {
		rule.ModifyMessage(msg)
	}

	out, err := tr.Dial(ctx, addr)
	if err != nil {
		return err
	}
	defer out.Close()
	return codec.Encode(out, msg)
}

// Send dials addr and writes raw bytes, for feeding malformed input to a node.
func Send(ctx context.Context, tr transport.Transport, addr string, raw []byte) error {
	conn, err := tr.Dial(ctx, addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.Write(raw)
	return err
}
