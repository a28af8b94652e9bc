package paillier

import (
	"io"
	"math/big"

	"github.com/pkg/errors"

	"github.com/mr-shifu/mpc-ring/core/math/sample"
	pailliercore "github.com/mr-shifu/mpc-ring/core/paillier"
	"github.com/mr-shifu/mpc-ring/pkg/common/cryptosuite/homomorphic"
	"github.com/mr-shifu/mpc-ring/pkg/hash"
)

const fingerprintDomain = "paillier/N"

var (
	ErrInvalidCiphertext = errors.New("paillier: ciphertext outside of key's ciphertext space")
	ErrNotPrivate        = errors.New("paillier: key has no secret part")
)

// PaillierKey holds a Paillier public key and, on the key's owner only, the secret key.
type PaillierKey struct {
	secretKey *pailliercore.SecretKey
	publicKey *pailliercore.PublicKey
}

// Private returns true if the key contains secret key.
func (k PaillierKey) Private() bool {
	return k.secretKey != nil
}

// EncryptionKey returns the public part of the key.
func (k PaillierKey) EncryptionKey() homomorphic.EncryptionKey {
	return PaillierKey{nil, k.publicKey}
}

// Decrypt returns the plaintext of c in [0, N).
func (k PaillierKey) Decrypt(c *big.Int) (*big.Int, error) {
	if !k.Private() {
		return nil, ErrNotPrivate
	}
	m, err := k.secretKey.Dec(pailliercore.CiphertextFromBig(c))
	if err != nil {
		return nil, ErrInvalidCiphertext
	}
	return m, nil
}

// Encrypt returns a fresh encryption of m.
func (k PaillierKey) Encrypt(m *big.Int) (*big.Int, error) {
	ct, _, err := k.publicKey.Enc(m)
	if err != nil {
		return nil, errors.WithMessage(err, "paillier.Encrypt")
	}
	return ct.Big(), nil
}

// Add returns c1 ⊕ c2.
func (k PaillierKey) Add(c1, c2 *big.Int) (*big.Int, error) {
	ct1, ct2 := pailliercore.CiphertextFromBig(c1), pailliercore.CiphertextFromBig(c2)
	if !k.publicKey.ValidateCiphertexts(ct1, ct2) {
		return nil, ErrInvalidCiphertext
	}
	return ct1.Add(k.publicKey, ct2).Big(), nil
}

// AddPlain returns c ⊕ Enc(m).
func (k PaillierKey) AddPlain(c *big.Int, m *big.Int) (*big.Int, error) {
	ct := pailliercore.CiphertextFromBig(c)
	if !k.publicKey.ValidateCiphertexts(ct) {
		return nil, ErrInvalidCiphertext
	}
	mt, _, err := k.publicKey.Enc(m)
	if err != nil {
		return nil, errors.WithMessage(err, "paillier.AddPlain")
	}
	return ct.Add(k.publicKey, mt).Big(), nil
}

// MulPlain returns m ⊙ c under fresh randomness, so that a product with 0 is
// not the fixed ciphertext 1.
func (k PaillierKey) MulPlain(c *big.Int, m *big.Int) (*big.Int, error) {
	ct := pailliercore.CiphertextFromBig(c)
	if !k.publicKey.ValidateCiphertexts(ct) {
		return nil, ErrInvalidCiphertext
	}
	nonce, err := sample.UnitModN(nil, k.publicKey.N())
	if err != nil {
		return nil, errors.WithMessage(err, "paillier.MulPlain")
	}
	return ct.Mul(k.publicKey, m).Randomize(k.publicKey, nonce).Big(), nil
}

// PlaintextModulus returns N.
func (k PaillierKey) PlaintextModulus() *big.Int {
	return k.publicKey.NBig()
}

// ValidateCiphertext reports whether c ∈ ℤ*ₙ².
func (k PaillierKey) ValidateCiphertext(c *big.Int) bool {
	return k.publicKey.ValidateCiphertexts(pailliercore.CiphertextFromBig(c))
}

// Fingerprint returns a short blake3 identifier derived from N.
func (k PaillierKey) Fingerprint() string {
	return hash.Fingerprint(fingerprintDomain, k.publicKey.NBig().Bytes())
}

// Equal reports whether other is a Paillier key with the same modulus.
func (k PaillierKey) Equal(other homomorphic.EncryptionKey) bool {
	o, ok := other.(PaillierKey)
	if !ok {
		return false
	}
	return k.publicKey.Equal(o.publicKey)
}

// MarshalTo writes the CBOR encoding of the public key to w.
// The secret part is never written.
func (k PaillierKey) MarshalTo(w io.Writer) error {
	_, err := k.publicKey.WriteTo(w)
	return err
}

// fromReader decodes a public only Paillier key from r.
func fromReader(r io.Reader) (PaillierKey, error) {
	pk, err := pailliercore.ReadPublicKey(r)
	if err != nil {
		return PaillierKey{}, err
	}
	return PaillierKey{publicKey: pk}, nil
}
