package paillier

import (
	cryptorand "crypto/rand"
	"io"

	"github.com/pkg/errors"

	pailliercore "github.com/mr-shifu/mpc-ring/core/paillier"
	"github.com/mr-shifu/mpc-ring/pkg/common/cryptosuite/homomorphic"
)

const SchemeName = "paillier"

type Config struct {
	// Bits is the modulus size of generated keys.
	Bits int
	// Rand is the randomness source for key generation. Defaults to crypto/rand.
	Rand io.Reader
}

type PaillierScheme struct {
	cfg Config
}

// NewPaillierScheme returns a scheme generating keys per cfg. A nil cfg or zero
// fields fall back to DefaultModulusBits and crypto/rand.
func NewPaillierScheme(cfg *Config) *PaillierScheme {
	c := Config{Bits: pailliercore.DefaultModulusBits, Rand: cryptorand.Reader}
	if cfg != nil {
		if cfg.Bits != 0 {
			c.Bits = cfg.Bits
		}
		if cfg.Rand != nil {
			c.Rand = cfg.Rand
		}
	}
	return &PaillierScheme{cfg: c}
}

func (s *PaillierScheme) Name() string {
	return SchemeName
}

// GenerateKey generates a new Paillier key pair.
func (s *PaillierScheme) GenerateKey() (homomorphic.DecryptionKey, error) {
	pk, sk, err := pailliercore.KeyGen(s.cfg.Rand, s.cfg.Bits)
	if err != nil {
		return nil, errors.WithMessage(err, "paillier.GenerateKey")
	}
	return PaillierKey{sk, pk}, nil
}

// ReadEncryptionKey decodes one public key from r.
func (s *PaillierScheme) ReadEncryptionKey(r io.Reader) (homomorphic.EncryptionKey, error) {
	k, err := fromReader(r)
	if err != nil {
		return nil, err
	}
	return k, nil
}
