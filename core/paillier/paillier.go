// Package paillier implements the Paillier cryptosystem with generator g = N+1.
//
// Ciphertexts live in ℤ*ₙ² and plaintexts in ℤₙ. The scheme is additively
// homomorphic: c₁⋅c₂ encrypts m₁+m₂ and cᵏ encrypts k⋅m, both modulo N.
package paillier

import (
	cryptorand "crypto/rand"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/pkg/errors"

	"github.com/mr-shifu/mpc-ring/core/math/sample"
)

const (
	// MinModulusBits is the smallest modulus KeyGen accepts.
	MinModulusBits = 128
	// DefaultModulusBits is the modulus size used when none is configured.
	DefaultModulusBits = 2048
)

var (
	ErrInvalidCiphertext = errors.New("paillier: invalid ciphertext")
	ErrInvalidModulus    = errors.New("paillier: invalid modulus")
	ErrModulusTooSmall   = errors.New("paillier: modulus size below minimum")
)

var oneNat = new(saferith.Nat).SetUint64(1)

// KeyGen generates a fresh key pair whose modulus N = p⋅q has exactly bits bits.
func KeyGen(rand io.Reader, bits int) (*PublicKey, *SecretKey, error) {
	if bits < MinModulusBits {
		return nil, nil, ErrModulusTooSmall
	}
	if rand == nil {
		rand = cryptorand.Reader
	}

	for {
		p, err := sample.Prime(rand, bits/2)
		if err != nil {
			return nil, nil, errors.WithMessage(err, "paillier.KeyGen: failed to sample p")
		}
		q, err := sample.Prime(rand, bits-bits/2)
		if err != nil {
			return nil, nil, errors.WithMessage(err, "paillier.KeyGen: failed to sample q")
		}
		// p = q would make N a square and φ(N) not coprime to N
		if p.Eq(q) == 1 {
			continue
		}

		sk, err := NewSecretKeyFromPrimes(p, q)
		if errors.Is(err, ErrInvalidModulus) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		return sk.PublicKey, sk, nil
	}
}
