package ring

import (
	"context"
	"math/big"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mr-shifu/mpc-ring/lib/wire"
	"github.com/mr-shifu/mpc-ring/pkg/common/cryptosuite/homomorphic"
	"github.com/mr-shifu/mpc-ring/pkg/ring/config"
	"github.com/mr-shifu/mpc-ring/pkg/ring/state"
)

// Master starts the ring and is the only node able to decrypt its result.
type Master struct {
	*node

	// dk exists only between key generation and the end of Run.
	dk homomorphic.DecryptionKey
}

func NewMaster(cfg *config.NodeConfig, opts ...Option) (*Master, error) {
	if cfg.Role() != config.Master {
		return nil, ErrRoleMismatch
	}
	n, err := newNode(cfg, opts)
	if err != nil {
		return nil, err
	}
	return &Master{node: n}, nil
}

// Run sends Enc(a⋅m) to the successor, waits for the accumulator to come back
// and decrypts it.
//
// The listener is bound before sending so that the last relay finds it ready;
// nothing is accepted until the send has completed.
func (m *Master) Run(ctx context.Context) (*Result, error) {
	if err := m.start(); err != nil {
		return nil, err
	}
	defer m.finish()
	defer func() { m.dk = nil }()

	runID := uuid.NewString()
	log := m.log.With("run", runID)
	if err := m.states.NewState(runID, config.Master); err != nil {
		return nil, err
	}

	if _, err := m.Bind(ctx); err != nil {
		return nil, m.fail(runID, log, err)
	}

	// Sending
	if err := m.states.Transition(runID, state.Sending); err != nil {
		return nil, m.fail(runID, log, err)
	}
	dk, err := m.scheme.GenerateKey()
	if err != nil {
		return nil, m.fail(runID, log, errors.WithMessage(err, "ring: failed to generate key"))
	}
	m.dk = dk
	ek := dk.EncryptionKey()
	log = log.With("key", ek.Fingerprint())

	p0 := new(big.Int).Mul(m.cfg.Add(), m.cfg.Mul())
	c0, err := ek.Encrypt(p0)
	if err != nil {
		return nil, m.fail(runID, log, errors.WithMessage(err, "ring: failed to encrypt initial accumulator"))
	}
	if err := m.send(ctx, &wire.Message{Key: ek, Ciphertext: c0}); err != nil {
		return nil, m.fail(runID, log, err)
	}
	log.Info("initial accumulator sent", "successor", m.cfg.Successor())

	// Listening
	if err := m.states.Transition(runID, state.Listening); err != nil {
		return nil, m.fail(runID, log, err)
	}
	msg, err := m.receive(ctx)
	if err != nil {
		return nil, m.fail(runID, log, err)
	}
	log.Info("final accumulator received")

	// Deciding
	if err := m.states.Transition(runID, state.Deciding); err != nil {
		return nil, m.fail(runID, log, err)
	}
	plaintext, err := m.decide(msg)
	if err != nil {
		return nil, m.fail(runID, log, err)
	}

	if err := m.states.Transition(runID, state.Done); err != nil {
		return nil, m.fail(runID, log, err)
	}
	log.Info("ring completed")

	return &Result{
		RunID:          runID,
		Role:           config.Master,
		KeyFingerprint: ek.Fingerprint(),
		Plaintext:      plaintext,
	}, nil
}

// decide checks that msg came back under the master's own key and decrypts it.
func (m *Master) decide(msg *wire.Message) (*big.Int, error) {
	if m.dk == nil {
		return nil, ErrNoDecryptionKey
	}
	ek := m.dk.EncryptionKey()
	if !ek.Equal(msg.Key) {
		return nil, errors.WithMessagef(ErrKeyMismatch, "got %s, want %s", msg.Key.Fingerprint(), ek.Fingerprint())
	}
	if !ek.ValidateCiphertext(msg.Ciphertext) {
		return nil, ErrInvalidCiphertext
	}
	plaintext, err := m.dk.Decrypt(msg.Ciphertext)
	if err != nil {
		return nil, errors.WithMessage(err, "ring: failed to decrypt")
	}
	return plaintext, nil
}
