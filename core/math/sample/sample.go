package sample

import (
	cryptorand "crypto/rand"
	"io"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/pkg/errors"
)

const maxIterations = 255

var ErrMaxIterations = errors.New("sample: failed to generate after 255 iterations")

// UnitModN returns a u ∈ ℤₙˣ sampled uniformly.
func UnitModN(rand io.Reader, n *saferith.Modulus) (*saferith.Nat, error) {
	if rand == nil {
		rand = cryptorand.Reader
	}
	nBig := n.Big()
	for i := 0; i < maxIterations; i++ {
		r, err := cryptorand.Int(rand, nBig)
		if err != nil {
			return nil, errors.WithMessage(err, "sample.UnitModN: failed to read randomness")
		}
		u := new(saferith.Nat).SetBig(r, n.BitLen())
		if u.IsUnit(n) == 1 {
			return u, nil
		}
	}
	return nil, ErrMaxIterations
}

// Prime returns a random prime of exactly bits bits.
func Prime(rand io.Reader, bits int) (*saferith.Nat, error) {
	if rand == nil {
		rand = cryptorand.Reader
	}
	p, err := cryptorand.Prime(rand, bits)
	if err != nil {
		return nil, errors.WithMessage(err, "sample.Prime: failed to generate prime")
	}
	return new(saferith.Nat).SetBig(p, bits), nil
}

// Int returns a uniform integer in [0, bound).
func Int(rand io.Reader, bound *big.Int) (*big.Int, error) {
	if rand == nil {
		rand = cryptorand.Reader
	}
	return cryptorand.Int(rand, bound)
}
