// Command ringnode runs one node of a homomorphic ring.
//
// Start every relay first, then the master:
//
//	ringnode -bind 127.0.0.1:7001 -next 127.0.0.1:7000 -add 5 -mul 2
//	ringnode -master -bind 127.0.0.1:7000 -next 127.0.0.1:7001 -add 3 -mul 4
//
// The master prints "The result is 34". With -dial-attempts above 1 the start
// order no longer matters.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mr-shifu/mpc-ring/pkg/ring/config"
	"github.com/mr-shifu/mpc-ring/pkg/transport"
	"github.com/mr-shifu/mpc-ring/protocols/ring"
)

// bigFlag parses an arbitrary-precision decimal flag.
type bigFlag struct {
	v *big.Int
}

func (f *bigFlag) String() string {
	if f.v == nil {
		return ""
	}
	return f.v.String()
}

func (f *bigFlag) Set(s string) error {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return fmt.Errorf("invalid integer %q", s)
	}
	f.v = v
	return nil
}

func main() {
	var (
		add, mul bigFlag

		master       = flag.Bool("master", false, "Start the ring and decrypt its result")
		bind         = flag.String("bind", "", "Listen address for the predecessor, host:port")
		next         = flag.String("next", "", "Successor address, host:port")
		keyBits      = flag.Int("key-bits", 0, "Paillier modulus size (master only, default 2048)")
		dialAttempts = flag.Int("dial-attempts", 1, "Connection attempts to the successor")
		dialBackoff  = flag.Duration("dial-backoff", 100*time.Millisecond, "Delay before the second attempt, doubled afterwards")
		dialTimeout  = flag.Duration("dial-timeout", 0, "Timeout of each connection attempt")
		logLevel     = flag.String("log-level", "info", "Log level: debug, info, warn or error")
	)
	flag.Var(&add, "add", "Additive term")
	flag.Var(&mul, "mul", "Multiplicative term")
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q\n", *logLevel)
		os.Exit(2)
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	role := config.Relay
	if *master {
		role = config.Master
	}
	cfg := config.NewNodeConfig(role, *bind, *next, add.v, mul.v).
		WithKeyBits(*keyBits).
		WithDialPolicy(transport.DialPolicy{
			Attempts: *dialAttempts,
			Backoff:  *dialBackoff,
			Timeout:  *dialTimeout,
		})

	node, err := ring.New(cfg, ring.WithLogger(log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}
	defer node.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := node.Run(ctx)
	if err != nil {
		log.Error("node failed", "err", err)
		node.Close()
		os.Exit(1)
	}
	if res.Plaintext != nil {
		fmt.Printf("The result is %s\n", res.Plaintext)
	}
}
