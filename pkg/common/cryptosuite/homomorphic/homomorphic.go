package homomorphic

import (
	"io"
	"math/big"
)

// EncryptionKey is the shareable half of a key pair. Ciphertexts are plain
// non-negative integers; the caller tracks which key they belong to.
type EncryptionKey interface {
	// Encrypt returns a randomized encryption of m.
	Encrypt(m *big.Int) (*big.Int, error)

	// Add returns a ciphertext decrypting to the sum of both plaintexts.
	Add(c1, c2 *big.Int) (*big.Int, error)

	// AddPlain returns a ciphertext decrypting to the plaintext of c plus m.
	AddPlain(c *big.Int, m *big.Int) (*big.Int, error)

	// MulPlain returns a ciphertext decrypting to the plaintext of c times k.
	MulPlain(c *big.Int, k *big.Int) (*big.Int, error)

	// PlaintextModulus returns the modulus of the plaintext space.
	PlaintextModulus() *big.Int

	// ValidateCiphertext reports whether c belongs to the ciphertext space.
	ValidateCiphertext(c *big.Int) bool

	// Fingerprint returns a short identifier of the key.
	Fingerprint() string

	// Equal reports whether both keys are the same public key.
	Equal(other EncryptionKey) bool

	// MarshalTo writes the self-delimiting encoding of the key to w.
	MarshalTo(w io.Writer) error
}

// DecryptionKey is the private half of a key pair. It has no serialized form.
type DecryptionKey interface {
	// EncryptionKey returns the matching public key.
	EncryptionKey() EncryptionKey

	// Decrypt returns the plaintext of c.
	Decrypt(c *big.Int) (*big.Int, error)
}

// Scheme creates keys and decodes encryption keys from a byte stream.
type Scheme interface {
	// Name identifies the scheme.
	Name() string

	// GenerateKey returns a fresh key pair.
	GenerateKey() (DecryptionKey, error)

	// ReadEncryptionKey decodes exactly one encryption key from r, relying on the
	// key's own structure to find its end.
	ReadEncryptionKey(r io.Reader) (EncryptionKey, error)
}
