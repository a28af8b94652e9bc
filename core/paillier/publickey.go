package paillier

import (
	"io"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"

	"github.com/mr-shifu/mpc-ring/core/math/arith"
	"github.com/mr-shifu/mpc-ring/core/math/sample"
)

// keyDecMode rejects unknown fields so that a foreign structure is not
// silently accepted as a key.
var keyDecMode = mustDecMode(cbor.DecOptions{
	ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
})

func mustDecMode(opts cbor.DecOptions) cbor.DecMode {
	mode, err := opts.DecMode()
	if err != nil {
		panic(err)
	}
	return mode
}

// PublicKey is a Paillier encryption key.
type PublicKey struct {
	// n = p⋅q
	n *arith.Modulus
	// nSquared = n²
	nSquared *arith.Modulus

	// cached big.Int and Nat forms of n and n²
	nBig        *big.Int
	nSquaredBig *big.Int
	nNat        *saferith.Nat
}

type rawPublicKey struct {
	N []byte
}

// NewPublicKey returns a public key for the modulus n. n is not copied.
func NewPublicKey(n *saferith.Modulus) *PublicKey {
	nBig := n.Big()
	nSquaredBig := new(big.Int).Mul(nBig, nBig)
	return &PublicKey{
		n:           arith.ModulusFromN(n),
		nSquared:    arith.ModulusFromBig(nSquaredBig),
		nBig:        nBig,
		nSquaredBig: nSquaredBig,
		nNat:        n.Nat(),
	}
}

// N returns the plaintext modulus.
func (pk *PublicKey) N() *saferith.Modulus {
	return pk.n.Modulus
}

// NBig returns a copy of the plaintext modulus as a big.Int.
func (pk *PublicKey) NBig() *big.Int {
	return new(big.Int).Set(pk.nBig)
}

// Modulus returns the wrapped plaintext modulus.
func (pk *PublicKey) Modulus() *arith.Modulus {
	return pk.n
}

// Equal reports whether both keys share the same modulus.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	if pk == nil || other == nil {
		return pk == other
	}
	return pk.nBig.Cmp(other.nBig) == 0
}

// Enc returns the encryption of m under a freshly sampled nonce, together with the nonce.
// m is reduced into ℤₙ first, so negative values wrap around.
func (pk *PublicKey) Enc(m *big.Int) (*Ciphertext, *saferith.Nat, error) {
	nonce, err := sample.UnitModN(nil, pk.n.Modulus)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "paillier.Enc: failed to sample nonce")
	}
	return pk.EncWithNonce(m, nonce), nonce, nil
}

// EncWithNonce returns the encryption of m under the given nonce ρ ∈ ℤₙˣ.
//
// ct = (1+N)ᵐ ⋅ ρᴺ = (1 + m⋅N) ⋅ ρᴺ (mod N²)
func (pk *PublicKey) EncWithNonce(m *big.Int, nonce *saferith.Nat) *Ciphertext {
	mNat := pk.reduce(m)

	// c = 1 + m⋅N (mod N²)
	c := new(saferith.Nat).ModMul(mNat, pk.nNat, pk.nSquared.Modulus)
	c.ModAdd(c, oneNat, pk.nSquared.Modulus)

	// ρᴺ (mod N²)
	rhoN := pk.nSquared.Exp(nonce, pk.nNat)
	c.ModMul(c, rhoN, pk.nSquared.Modulus)

	return &Ciphertext{c: c}
}

// ValidateCiphertexts checks that every ciphertext lies in ℤ*ₙ².
func (pk *PublicKey) ValidateCiphertexts(cts ...*Ciphertext) bool {
	var gcd big.Int
	for _, ct := range cts {
		if ct == nil || ct.c == nil {
			return false
		}
		c := ct.c.Big()
		if c.Sign() <= 0 || c.Cmp(pk.nSquaredBig) >= 0 {
			return false
		}
		if gcd.GCD(nil, nil, c, pk.nBig).Cmp(big.NewInt(1)) != 0 {
			return false
		}
	}
	return true
}

// reduce maps an arbitrary integer into [0, N).
func (pk *PublicKey) reduce(m *big.Int) *saferith.Nat {
	r := new(big.Int).Mod(m, pk.nBig)
	return new(saferith.Nat).SetBig(r, pk.nBig.BitLen())
}

// MarshalBinary returns the CBOR encoding of the key. The encoding is self-delimiting.
func (pk *PublicKey) MarshalBinary() ([]byte, error) {
	return cbor.Marshal(rawPublicKey{N: pk.nBig.Bytes()})
}

// UnmarshalBinary decodes a key produced by MarshalBinary.
func (pk *PublicKey) UnmarshalBinary(data []byte) error {
	var raw rawPublicKey
	if err := keyDecMode.Unmarshal(data, &raw); err != nil {
		return err
	}
	return pk.fromRaw(raw)
}

// WriteTo writes the CBOR encoding of the key to w.
func (pk *PublicKey) WriteTo(w io.Writer) (int64, error) {
	data, err := pk.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// ReadPublicKey decodes exactly one CBOR encoded key from r.
// Bytes following the key may be buffered and lost, so r should end with the key.
func ReadPublicKey(r io.Reader) (*PublicKey, error) {
	var raw rawPublicKey
	if err := keyDecMode.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}
	pk := new(PublicKey)
	if err := pk.fromRaw(raw); err != nil {
		return nil, err
	}
	return pk, nil
}

func (pk *PublicKey) fromRaw(raw rawPublicKey) error {
	n := new(big.Int).SetBytes(raw.N)
	if n.BitLen() < MinModulusBits || n.Bit(0) == 0 {
		return ErrInvalidModulus
	}
	nNat := new(saferith.Nat).SetBig(n, n.BitLen())
	*pk = *NewPublicKey(saferith.ModulusFromNat(nNat))
	return nil
}
