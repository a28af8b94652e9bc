package ring

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/mr-shifu/mpc-ring/pkg/common/cryptosuite/homomorphic"
)

// Fold combines a relay's pair into the accumulator:
//
//	c_out = (c_in ⊕ Enc(add)) ⊙ mul
//
// Addition always precedes multiplication. The output is freshly randomized,
// so it reveals nothing even when mul ≡ 0 (mod N).
func Fold(key homomorphic.EncryptionKey, c *big.Int, add, mul *big.Int) (*big.Int, error) {
	mid, err := key.AddPlain(c, add)
	if err != nil {
		return nil, errors.WithMessage(err, "ring.Fold: failed to add")
	}
	out, err := key.MulPlain(mid, mul)
	if err != nil {
		return nil, errors.WithMessage(err, "ring.Fold: failed to multiply")
	}
	return out, nil
}

// Term is one node's scalar pair.
type Term struct {
	Add *big.Int
	Mul *big.Int
}

// Expected evaluates the ring recurrence in the clear, terms[0] being the master:
//
//	p₀ = a₀⋅m₀,  pₖ = (pₖ₋₁ + aₖ)⋅mₖ
//
// The result is reduced mod modulus unless modulus is nil.
func Expected(terms []Term, modulus *big.Int) *big.Int {
	if len(terms) == 0 {
		return new(big.Int)
	}
	p := new(big.Int).Mul(terms[0].Add, terms[0].Mul)
	for _, t := range terms[1:] {
		p.Add(p, t.Add)
		p.Mul(p, t.Mul)
	}
	if modulus != nil {
		p.Mod(p, modulus)
	}
	return p
}
