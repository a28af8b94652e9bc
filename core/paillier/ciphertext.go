package paillier

import (
	"math/big"

	"github.com/cronokirby/saferith"
)

// Ciphertext is an element of ℤ*ₙ². It does not remember which key produced it.
type Ciphertext struct {
	c *saferith.Nat
}

// CiphertextFromBig wraps a raw integer as a ciphertext. It is not validated;
// use PublicKey.ValidateCiphertexts before operating on untrusted input.
// A nil c yields a ciphertext that never validates.
func CiphertextFromBig(c *big.Int) *Ciphertext {
	if c == nil {
		return &Ciphertext{}
	}
	return &Ciphertext{c: new(saferith.Nat).SetBig(c, c.BitLen())}
}

// Add sets ct to the encryption of m₁ + m₂, where ct and other encrypt m₁ and m₂.
//
// ct ← ct ⋅ other (mod N²)
func (ct *Ciphertext) Add(pk *PublicKey, other *Ciphertext) *Ciphertext {
	ct.c.ModMul(ct.c, other.c, pk.nSquared.Modulus)
	return ct
}

// Mul sets ct to the encryption of k⋅m, where ct encrypts m.
// k is reduced into ℤₙ first.
//
// ct ← ctᵏ (mod N²)
func (ct *Ciphertext) Mul(pk *PublicKey, k *big.Int) *Ciphertext {
	ct.c = pk.nSquared.Exp(ct.c, pk.reduce(k))
	return ct
}

// Randomize multiplies ct by ρᴺ, leaving its plaintext unchanged while making
// it unlinkable to the ciphertext it was derived from. nonce must be in ℤₙˣ.
//
// ct ← ct ⋅ ρᴺ (mod N²)
func (ct *Ciphertext) Randomize(pk *PublicKey, nonce *saferith.Nat) *Ciphertext {
	rhoN := pk.nSquared.Exp(nonce, pk.nNat)
	ct.c.ModMul(ct.c, rhoN, pk.nSquared.Modulus)
	return ct
}

// Clone returns a deep copy of ct.
func (ct *Ciphertext) Clone() *Ciphertext {
	return &Ciphertext{c: new(saferith.Nat).SetNat(ct.c)}
}

// Equal reports whether both ciphertexts hold the same integer.
func (ct *Ciphertext) Equal(other *Ciphertext) bool {
	return ct.c.Eq(other.c) == 1
}

// Nat returns the underlying integer.
func (ct *Ciphertext) Nat() *saferith.Nat {
	return ct.c
}

// Big returns the underlying integer as a big.Int.
func (ct *Ciphertext) Big() *big.Int {
	return ct.c.Big()
}
