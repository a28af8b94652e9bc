// Command ringsim runs a whole ring inside one process.
//
// # Manifest
//
// Nodes are listed in ring order. The master must appear exactly once.
//
//	key_bits: 1024
//	dial:
//	  attempts: 1
//	nodes:
//	  - name: alice
//	    role: master
//	    listen: 127.0.0.1:7000
//	    add: 2
//	    mul: 3
//	  - name: bob
//	    listen: 127.0.0.1:7001
//	    add: 4
//	    mul: 1
//	  - name: carol
//	    listen: 127.0.0.1:7002
//	    add: 0
//	    mul: 5
//
// # Usage
//
//	go run ./cmd/ringsim --manifest=ring.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mr-shifu/mpc-ring/pkg/common/cryptosuite/homomorphic"
	"github.com/mr-shifu/mpc-ring/pkg/cryptosuite/sw/paillier"
	"github.com/mr-shifu/mpc-ring/pkg/ring/config"
	"github.com/mr-shifu/mpc-ring/protocols/ring"
)

// keyScheme hands out the public half of the key it generated so
// that the expected value can be reduced the same way.
type keyScheme struct {
	homomorphic.Scheme
	keys chan homomorphic.EncryptionKey
}

func (s *keyScheme) GenerateKey() (homomorphic.DecryptionKey, error) {
	dk, err := s.Scheme.GenerateKey()
	if err != nil {
		return nil, err
	}
	s.keys <- dk.EncryptionKey()
	return dk, nil
}

func main() {
	var (
		manifestPath = flag.String("manifest", "ring.yaml", "Path to YAML ring manifest")
		logLevel     = flag.String("log-level", "info", "Log level: debug, info, warn or error")
	)
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q\n", *logLevel)
		os.Exit(2)
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	manifest, err := config.LoadManifest(*manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
		os.Exit(1)
	}
	cfgs, err := manifest.NodeConfigs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	// The accumulator visits nodes along their successor links, which may
	// differ from the manifest order when next is set.
	order, err := config.RingOrder(cfgs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	scheme := &keyScheme{
		Scheme: paillier.NewPaillierScheme(&paillier.Config{Bits: manifest.KeyBits}),
		keys:   make(chan homomorphic.EncryptionKey, 1),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting ring", "nodes", len(cfgs), "key_bits", manifest.KeyBits)
	res, err := ring.RunLocal(ctx, cfgs, ring.WithLogger(log), ring.WithScheme(scheme))
	if err != nil {
		log.Error("ring failed", "err", err)
		os.Exit(1)
	}

	terms := make([]ring.Term, len(order))
	for i, cfg := range order {
		terms[i] = ring.Term{Add: cfg.Add(), Mul: cfg.Mul()}
	}
	ek := <-scheme.keys
	expected := ring.Expected(terms, ek.PlaintextModulus())

	fmt.Printf("The result is %s\n", res.Plaintext)
	fmt.Printf("Expected %s (key %s)\n", expected, res.KeyFingerprint)
	if expected.Cmp(res.Plaintext) != 0 {
		os.Exit(1)
	}
}
