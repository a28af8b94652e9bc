package ring

import (
	"context"

	"github.com/google/uuid"

	"github.com/mr-shifu/mpc-ring/lib/wire"
	"github.com/mr-shifu/mpc-ring/pkg/ring/config"
	"github.com/mr-shifu/mpc-ring/pkg/ring/state"
)

// Relay folds its pair into the accumulator and passes it on. It never holds
// a decryption key and never sees a plaintext other than its own pair.
type Relay struct {
	*node
}

func NewRelay(cfg *config.NodeConfig, opts ...Option) (*Relay, error) {
	if cfg.Role() != config.Relay {
		return nil, ErrRoleMismatch
	}
	n, err := newNode(cfg, opts)
	if err != nil {
		return nil, err
	}
	return &Relay{node: n}, nil
}

// Run accepts one accumulator, folds (a, m) into it and forwards it under the
// key it arrived with.
func (r *Relay) Run(ctx context.Context) (*Result, error) {
	if err := r.start(); err != nil {
		return nil, err
	}
	defer r.finish()

	runID := uuid.NewString()
	log := r.log.With("run", runID)
	if err := r.states.NewState(runID, config.Relay); err != nil {
		return nil, err
	}

	// Listening
	if err := r.states.Transition(runID, state.Listening); err != nil {
		return nil, r.fail(runID, log, err)
	}
	msg, err := r.receive(ctx)
	if err != nil {
		return nil, r.fail(runID, log, err)
	}
	key := msg.Key
	log = log.With("key", key.Fingerprint())
	log.Info("accumulator received")

	if !key.ValidateCiphertext(msg.Ciphertext) {
		return nil, r.fail(runID, log, ErrInvalidCiphertext)
	}
	out, err := Fold(key, msg.Ciphertext, r.cfg.Add(), r.cfg.Mul())
	if err != nil {
		return nil, r.fail(runID, log, err)
	}

	if err := r.send(ctx, &wire.Message{Key: key, Ciphertext: out}); err != nil {
		return nil, r.fail(runID, log, err)
	}
	log.Info("accumulator forwarded", "successor", r.cfg.Successor())

	if err := r.states.Transition(runID, state.Done); err != nil {
		return nil, r.fail(runID, log, err)
	}

	return &Result{
		RunID:          runID,
		Role:           config.Relay,
		KeyFingerprint: key.Fingerprint(),
	}, nil
}
