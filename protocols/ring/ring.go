// Package ring runs one node of a homomorphic ring computation.
//
// The master encrypts a0⋅m0 under a fresh key and sends it to its successor.
// Every relay folds its own pair into the accumulator without decrypting,
// c ← (c ⊕ Enc(a)) ⊙ m, and forwards it. When the accumulator comes back
// around, the master decrypts p = (…((a0⋅m0 + a1)⋅m1 + a2)⋅m2 …) mod N.
//
// Each node handles exactly one inbound and one outbound connection per run.
package ring

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"net"
	"sync"

	"github.com/pkg/errors"

	"github.com/mr-shifu/mpc-ring/lib/wire"
	"github.com/mr-shifu/mpc-ring/pkg/common/cryptosuite/homomorphic"
	"github.com/mr-shifu/mpc-ring/pkg/cryptosuite/sw/paillier"
	"github.com/mr-shifu/mpc-ring/pkg/ring/config"
	"github.com/mr-shifu/mpc-ring/pkg/ring/state"
	"github.com/mr-shifu/mpc-ring/pkg/transport"
)

var (
	ErrRoleMismatch      = errors.New("ring: config role does not match node type")
	ErrUnknownRole       = errors.New("ring: unknown node role")
	ErrInvalidCiphertext = errors.New("ring: received ciphertext is not valid for its key")
	ErrKeyMismatch       = errors.New("ring: received key is not the master's key")
	ErrNoDecryptionKey   = errors.New("ring: no decryption key held")
	ErrAlreadyRun        = errors.New("ring: node already ran")
)

// Node is one participant of the ring: a *Master or a *Relay.
type Node interface {
	// Role returns the node's role.
	Role() config.Role
	// Bind binds the node's listen address so that its predecessor can connect.
	// Run binds on its own when Bind was not called.
	Bind(ctx context.Context) (net.Addr, error)
	// Run executes the node's single protocol run.
	Run(ctx context.Context) (*Result, error)
	// Close releases the listener if Run did not already.
	Close() error
}

// Result describes a completed run.
type Result struct {
	RunID string
	Role  config.Role
	// KeyFingerprint identifies the key the accumulator was encrypted under.
	KeyFingerprint string
	// Plaintext is the decrypted accumulator. It is set on the master only.
	Plaintext *big.Int
}

type options struct {
	logger           *slog.Logger
	scheme           homomorphic.Scheme
	transport        transport.Transport
	states           *state.StateManager
	maxPayloadLength uint64
}

type Option func(*options)

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithScheme overrides the homomorphic scheme. The default is Paillier with the
// config's key size.
func WithScheme(scheme homomorphic.Scheme) Option {
	return func(o *options) {
		o.scheme = scheme
	}
}

// WithTransport overrides the TCP transport built from the config's dial policy.
func WithTransport(t transport.Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

// WithStateManager records the node's phases in mgr.
func WithStateManager(mgr *state.StateManager) Option {
	return func(o *options) {
		o.states = mgr
	}
}

// WithMaxPayloadLength bounds the ciphertext text the node accepts.
func WithMaxPayloadLength(n uint64) Option {
	return func(o *options) {
		o.maxPayloadLength = n
	}
}

// New returns the node variant matching cfg's role.
func New(cfg *config.NodeConfig, opts ...Option) (Node, error) {
	switch cfg.Role() {
	case config.Master:
		return NewMaster(cfg, opts...)
	case config.Relay:
		return NewRelay(cfg, opts...)
	default:
		return nil, errors.WithMessagef(ErrUnknownRole, "role %d", int(cfg.Role()))
	}
}

// node holds what both variants share: addresses, transport, codec and bookkeeping.
type node struct {
	cfg       *config.NodeConfig
	scheme    homomorphic.Scheme
	codec     *wire.Codec
	transport transport.Transport
	states    *state.StateManager
	log       *slog.Logger

	mu       sync.Mutex
	ln       transport.Listener
	started  bool
	finished bool
}

func newNode(cfg *config.NodeConfig, opts []Option) (*node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.scheme == nil {
		o.scheme = paillier.NewPaillierScheme(&paillier.Config{Bits: cfg.KeyBits()})
	}
	if o.transport == nil {
		o.transport = transport.NewTCP(cfg.DialPolicy())
	}
	if o.states == nil {
		o.states = state.NewStateManager(state.NewInMemoryStateStore())
	}

	return &node{
		cfg:       cfg,
		scheme:    o.scheme,
		codec:     wire.NewCodec(o.scheme, o.maxPayloadLength),
		transport: o.transport,
		states:    o.states,
		log:       o.logger.With("role", cfg.Role().String(), "listen", cfg.Listen()),
	}, nil
}

func (n *node) Role() config.Role {
	return n.cfg.Role()
}

func (n *node) Bind(ctx context.Context) (net.Addr, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ln != nil {
		return n.ln.Addr(), nil
	}
	if n.finished {
		return nil, ErrAlreadyRun
	}
	ln, err := n.transport.Listen(ctx, n.cfg.Listen())
	if err != nil {
		return nil, err
	}
	n.ln = ln
	n.log.Debug("listening", "addr", ln.Addr().String())
	return ln.Addr(), nil
}

func (n *node) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ln == nil {
		return nil
	}
	err := n.ln.Close()
	n.ln = nil
	return err
}

// start marks the node as used; a node runs once.
func (n *node) start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.started {
		return ErrAlreadyRun
	}
	n.started = true
	return nil
}

// finish releases the listener and forbids binding again.
func (n *node) finish() {
	n.mu.Lock()
	n.finished = true
	n.mu.Unlock()
	n.Close()
}

// send dials the successor and writes msg. The connection is closed on return.
func (n *node) send(ctx context.Context, msg *wire.Message) error {
	conn, err := n.transport.Dial(ctx, n.cfg.Successor())
	if err != nil {
		return err
	}
	defer conn.Close()

	n.log.Debug("connected to successor", "successor", n.cfg.Successor())
	if err := n.codec.Encode(conn, msg); err != nil {
		return errors.WithMessage(err, "ring: failed to send accumulator")
	}
	return nil
}

// receive accepts exactly one connection and reads one message from it.
// The listener and the connection are both closed on return.
func (n *node) receive(ctx context.Context) (*wire.Message, error) {
	if _, err := n.Bind(ctx); err != nil {
		return nil, err
	}
	n.mu.Lock()
	ln := n.ln
	n.mu.Unlock()
	defer n.Close()

	conn, err := ln.Accept(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	n.log.Debug("connection accepted", "remote", conn.RemoteAddr().String())
	msg, err := n.codec.Decode(conn)
	if err != nil {
		return nil, errors.WithMessage(err, "ring: failed to receive accumulator")
	}
	return msg, nil
}

// fail records err as the reason the run aborted and returns it.
func (n *node) fail(runID string, log *slog.Logger, err error) error {
	if aerr := n.states.Abort(runID, err); aerr != nil {
		log.Warn("failed to record abort", "err", aerr)
	}
	log.Error("run failed", "err", err)
	return err
}
