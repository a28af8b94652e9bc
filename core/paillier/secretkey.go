package paillier

import (
	"math/big"

	"github.com/cronokirby/saferith"

	"github.com/mr-shifu/mpc-ring/core/math/arith"
)

// SecretKey is a Paillier decryption key. It has no serialized form.
type SecretKey struct {
	*PublicKey
	// p, q such that N = p⋅q
	p, q *saferith.Nat
	// phi = φ = (p-1)(q-1)
	phi *saferith.Nat
	// phiInv = φ⁻¹ mod N
	phiInv *saferith.Nat
	// nSquared = N² with known factorization p², q²
	nSquared *arith.Modulus
}

// NewSecretKeyFromPrimes builds a key pair from two distinct primes.
// It returns ErrInvalidModulus when gcd(N, φ(N)) ≠ 1.
func NewSecretKeyFromPrimes(p, q *saferith.Nat) (*SecretKey, error) {
	n := arith.ModulusFromFactors(p, q)

	pMinus1 := new(saferith.Nat).Sub(p, oneNat, -1)
	qMinus1 := new(saferith.Nat).Sub(q, oneNat, -1)
	phi := new(saferith.Nat).Mul(pMinus1, qMinus1, -1)

	var gcd big.Int
	if gcd.GCD(nil, nil, phi.Big(), n.Big()).Cmp(big.NewInt(1)) != 0 {
		return nil, ErrInvalidModulus
	}
	phiInv := new(saferith.Nat).ModInverse(phi, n.Modulus)

	pSquared := new(saferith.Nat).Mul(p, p, -1)
	qSquared := new(saferith.Nat).Mul(q, q, -1)

	pk := NewPublicKey(n.Modulus)
	return &SecretKey{
		PublicKey: pk,
		p:         p,
		q:         q,
		phi:       phi,
		phiInv:    phiInv,
		nSquared:  arith.ModulusFromFactors(pSquared, qSquared),
	}, nil
}

// Dec returns the plaintext m ∈ [0, N) encrypted by ct.
//
// m = [(ct^φ mod N²) - 1]/N ⋅ φ⁻¹ (mod N)
func (sk *SecretKey) Dec(ct *Ciphertext) (*big.Int, error) {
	if !sk.PublicKey.ValidateCiphertexts(ct) {
		return nil, ErrInvalidCiphertext
	}
	n := sk.PublicKey.n.Modulus

	// r = ct^φ (mod N²)
	result := sk.nSquared.Exp(ct.c, sk.phi)
	// r = ct^φ - 1
	result.Sub(result, oneNat, -1)
	// r = [(ct^φ - 1)/N]
	result.Div(result, n, -1)
	// r = [(ct^φ - 1)/N] ⋅ φ⁻¹ (mod N)
	result.ModMul(result, sk.phiInv, n)

	return result.Big(), nil
}
