// Package wire frames one {public key, ciphertext} pair per connection.
//
// Layout:
//
//	[0..8)   u64 little-endian: N = length in bytes of the hex text
//	[8..8+N) lowercase hex digits, no prefix: the ciphertext integer
//	[8+N..)  self-delimiting encoding of the public key
//
// There is no version or type field and no trailer: the key decoder finds
// the end of the message on its own.
package wire

import (
	"bufio"
	"encoding/binary"
	"io"
	"math/big"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/mr-shifu/mpc-ring/pkg/common/cryptosuite/homomorphic"
)

const (
	// LengthPrefixSize is the size of the ciphertext length prefix.
	LengthPrefixSize = 8
	// DefaultMaxPayloadLength bounds the hex text a decoder accepts.
	DefaultMaxPayloadLength = 1 << 20
)

// Message is the only object that crosses the transport boundary.
type Message struct {
	Key        homomorphic.EncryptionKey
	Ciphertext *big.Int
}

// Codec encodes and decodes messages whose keys belong to one scheme.
type Codec struct {
	keys             homomorphic.Scheme
	maxPayloadLength uint64
}

// NewCodec returns a codec decoding keys with scheme. A zero maxPayloadLength
// selects DefaultMaxPayloadLength.
func NewCodec(scheme homomorphic.Scheme, maxPayloadLength uint64) *Codec {
	if maxPayloadLength == 0 {
		maxPayloadLength = DefaultMaxPayloadLength
	}
	return &Codec{
		keys:             scheme,
		maxPayloadLength: maxPayloadLength,
	}
}

// Encode writes msg to w and flushes it.
func (c *Codec) Encode(w io.Writer, msg *Message) error {
	if msg == nil || msg.Key == nil || msg.Ciphertext == nil {
		return ErrEmptyMessage
	}
	if msg.Ciphertext.Sign() < 0 {
		return ErrNegativeCiphertext
	}

	text := msg.Ciphertext.Text(16)

	bw := bufio.NewWriter(w)

	var prefix [LengthPrefixSize]byte
	binary.LittleEndian.PutUint64(prefix[:], uint64(len(text)))
	if _, err := bw.Write(prefix[:]); err != nil {
		return errors.WithMessage(err, "wire.Encode: failed to write length prefix")
	}
	if _, err := bw.WriteString(text); err != nil {
		return errors.WithMessage(err, "wire.Encode: failed to write ciphertext")
	}
	if err := msg.Key.MarshalTo(bw); err != nil {
		return errors.WithMessage(err, "wire.Encode: failed to write key")
	}
	if err := bw.Flush(); err != nil {
		return errors.WithMessage(err, "wire.Encode: failed to flush")
	}
	return nil
}

// Decode reads exactly one message from r. r must end where the key ends,
// since the key decoder may read ahead.
func (c *Codec) Decode(r io.Reader) (*Message, error) {
	var prefix [LengthPrefixSize]byte
	if n, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, errors.WithMessagef(ErrShortLength, "read %d of %d bytes", n, LengthPrefixSize)
	}
	length := binary.LittleEndian.Uint64(prefix[:])
	if length > c.maxPayloadLength {
		return nil, errors.WithMessagef(ErrPayloadTooLarge, "length %d exceeds %d", length, c.maxPayloadLength)
	}

	payload := make([]byte, length)
	if n, err := io.ReadFull(r, payload); err != nil {
		return nil, errors.WithMessagef(ErrShortPayload, "read %d of %d bytes", n, length)
	}

	ct, err := parseHex(payload)
	if err != nil {
		return nil, err
	}

	key, err := c.keys.ReadEncryptionKey(r)
	if err != nil {
		return nil, malformedKey(err)
	}

	return &Message{Key: key, Ciphertext: ct}, nil
}

// parseHex accepts a non-empty string of hex digits. Signs, prefixes and
// separators are rejected.
func parseHex(payload []byte) (*big.Int, error) {
	if !utf8.Valid(payload) {
		return nil, ErrInvalidUTF8
	}
	if len(payload) == 0 {
		return nil, errors.WithMessage(ErrInvalidHex, "empty ciphertext")
	}
	for i, b := range payload {
		if !isHexDigit(b) {
			return nil, errors.WithMessagef(ErrInvalidHex, "invalid digit %q at offset %d", b, i)
		}
	}
	ct, ok := new(big.Int).SetString(string(payload), 16)
	if !ok {
		return nil, ErrInvalidHex
	}
	return ct, nil
}

func isHexDigit(b byte) bool {
	return ('0' <= b && b <= '9') || ('a' <= b && b <= 'f') || ('A' <= b && b <= 'F')
}
