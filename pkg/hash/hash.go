package hash

import (
	"encoding/binary"
	"encoding/hex"
	"io"

	"github.com/zeebo/blake3"
)

// DigestLengthBytes is the size of a Sum output.
const DigestLengthBytes = 32

// FingerprintLength is the number of digest bytes kept in a Fingerprint.
const FingerprintLength = 8

// Hash is a domain separated blake3 hasher.
//
// Each written piece is framed as (<domain_size><domain><data_size><data>) so that
// adjacent inputs cannot be confused with one another.
type Hash struct {
	h *blake3.Hasher
}

// New creates a Hash initialized with "RING-BLAKE".
func New() *Hash {
	hash := &Hash{h: blake3.New()}
	_, _ = hash.h.WriteString("RING-BLAKE")
	return hash
}

// WriteWithDomain writes data under the given domain.
func (hash *Hash) WriteWithDomain(domain string, data []byte) {
	var sizeBuf [8]byte

	_, _ = hash.h.WriteString("(")
	binary.BigEndian.PutUint64(sizeBuf[:], uint64(len(domain)))
	_, _ = hash.h.Write(sizeBuf[:])
	_, _ = hash.h.WriteString(domain)
	binary.BigEndian.PutUint64(sizeBuf[:], uint64(len(data)))
	_, _ = hash.h.Write(sizeBuf[:])
	_, _ = hash.h.Write(data)
	_, _ = hash.h.WriteString(")")
}

// Digest returns a reader for the current output of the function.
func (hash *Hash) Digest() io.Reader {
	return hash.h.Digest()
}

// Sum returns DigestLengthBytes of output from the current state.
func (hash *Hash) Sum() []byte {
	return hash.h.Sum(nil)
}

// Fingerprint returns a short hex identifier of data under domain, suitable for logs.
func Fingerprint(domain string, data []byte) string {
	h := New()
	h.WriteWithDomain(domain, data)
	return hex.EncodeToString(h.Sum()[:FingerprintLength])
}
