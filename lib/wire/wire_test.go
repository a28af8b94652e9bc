package wire

import (
	"bytes"
	"encoding/binary"
	"math/big"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pailliercore "github.com/mr-shifu/mpc-ring/core/paillier"
	"github.com/mr-shifu/mpc-ring/pkg/common/cryptosuite/homomorphic"
	"github.com/mr-shifu/mpc-ring/pkg/cryptosuite/sw/paillier"
)

func newTestCodec(t *testing.T) (*Codec, homomorphic.EncryptionKey) {
	scheme := paillier.NewPaillierScheme(&paillier.Config{Bits: 256})
	dk, err := scheme.GenerateKey()
	require.NoError(t, err)
	return NewCodec(scheme, 0), dk.EncryptionKey()
}

func encode(t *testing.T, codec *Codec, msg *Message) []byte {
	var buf bytes.Buffer
	require.NoError(t, codec.Encode(&buf, msg))
	return buf.Bytes()
}

// frame builds a message by hand: prefix announcing length, payload, then key.
func frame(t *testing.T, length uint64, payload []byte, key homomorphic.EncryptionKey) []byte {
	var buf bytes.Buffer
	var prefix [LengthPrefixSize]byte
	binary.LittleEndian.PutUint64(prefix[:], length)
	buf.Write(prefix[:])
	buf.Write(payload)
	if key != nil {
		require.NoError(t, key.MarshalTo(&buf))
	}
	return buf.Bytes()
}

func TestCodecRoundTrip(t *testing.T) {
	codec, key := newTestCodec(t)

	ct, err := key.Encrypt(big.NewInt(12))
	require.NoError(t, err)

	data := encode(t, codec, &Message{Key: key, Ciphertext: ct})

	msg, err := codec.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 0, ct.Cmp(msg.Ciphertext))
	assert.True(t, key.Equal(msg.Key))
}

func TestCodecLayout(t *testing.T) {
	codec, key := newTestCodec(t)

	ct := big.NewInt(0xABCDEF)
	data := encode(t, codec, &Message{Key: key, Ciphertext: ct})

	require.Greater(t, len(data), LengthPrefixSize+6)
	assert.Equal(t, uint64(6), binary.LittleEndian.Uint64(data[:LengthPrefixSize]))
	assert.Equal(t, "abcdef", string(data[LengthPrefixSize:LengthPrefixSize+6]))

	var keyBuf bytes.Buffer
	require.NoError(t, key.MarshalTo(&keyBuf))
	assert.Equal(t, keyBuf.Bytes(), data[LengthPrefixSize+6:])

	// zero encodes as a single digit
	data = encode(t, codec, &Message{Key: key, Ciphertext: big.NewInt(0)})
	assert.Equal(t, uint64(1), binary.LittleEndian.Uint64(data[:LengthPrefixSize]))
	assert.Equal(t, byte('0'), data[LengthPrefixSize])
}

func TestCodecAcceptsUppercaseHex(t *testing.T) {
	codec, key := newTestCodec(t)

	msg, err := codec.Decode(bytes.NewReader(frame(t, 4, []byte("BEEF"), key)))
	require.NoError(t, err)
	assert.Equal(t, int64(0xbeef), msg.Ciphertext.Int64())
}

func TestCodecTruncatedLengthPrefix(t *testing.T) {
	codec, _ := newTestCodec(t)

	for _, data := range [][]byte{nil, {1, 0, 0}, {1, 0, 0, 0, 0, 0, 0}} {
		_, err := codec.Decode(bytes.NewReader(data))
		assert.ErrorIs(t, err, ErrShortLength)
	}
}

func TestCodecTruncatedPayload(t *testing.T) {
	codec, key := newTestCodec(t)

	ct, err := key.Encrypt(big.NewInt(7))
	require.NoError(t, err)
	data := encode(t, codec, &Message{Key: key, Ciphertext: ct})

	// cut inside the hex text
	_, err = codec.Decode(bytes.NewReader(data[:LengthPrefixSize+3]))
	assert.ErrorIs(t, err, ErrShortPayload)

	// length prefix larger than everything that follows
	_, err = codec.Decode(bytes.NewReader(frame(t, 1000, []byte("abc"), nil)))
	assert.ErrorIs(t, err, ErrShortPayload)
}

func TestCodecPayloadTooLarge(t *testing.T) {
	codec, _ := newTestCodec(t)

	_, err := codec.Decode(bytes.NewReader(frame(t, DefaultMaxPayloadLength+1, nil, nil)))
	assert.ErrorIs(t, err, ErrPayloadTooLarge)

	_, err = codec.Decode(bytes.NewReader(frame(t, ^uint64(0), nil, nil)))
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestCodecInvalidHex(t *testing.T) {
	codec, key := newTestCodec(t)

	for _, payload := range []string{"", "xyz", "-1", "+1", "0x1f", "12 34", "1_0"} {
		_, err := codec.Decode(bytes.NewReader(frame(t, uint64(len(payload)), []byte(payload), key)))
		assert.ErrorIs(t, err, ErrInvalidHex, "payload %q", payload)
	}
}

func TestCodecInvalidUTF8(t *testing.T) {
	codec, key := newTestCodec(t)

	payload := []byte{0xff, 0xfe, 'a'}
	_, err := codec.Decode(bytes.NewReader(frame(t, uint64(len(payload)), payload, key)))
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestCodecTruncatedKey(t *testing.T) {
	codec, key := newTestCodec(t)

	ct, err := key.Encrypt(big.NewInt(7))
	require.NoError(t, err)
	data := encode(t, codec, &Message{Key: key, Ciphertext: ct})
	hexLen := int(binary.LittleEndian.Uint64(data[:LengthPrefixSize]))
	keyStart := LengthPrefixSize + hexLen

	// no key at all
	_, err = codec.Decode(bytes.NewReader(data[:keyStart]))
	assert.ErrorIs(t, err, ErrMalformedKey)

	// key cut short
	_, err = codec.Decode(bytes.NewReader(data[:len(data)-1]))
	assert.ErrorIs(t, err, ErrMalformedKey)

	// garbage instead of a key
	garbage := append(append([]byte{}, data[:keyStart]...), []byte(strings.Repeat("z", 16))...)
	_, err = codec.Decode(bytes.NewReader(garbage))
	assert.ErrorIs(t, err, ErrMalformedKey)
}

func TestCodecKeyErrorKeepsCause(t *testing.T) {
	codec, _ := newTestCodec(t)

	// well-formed CBOR carrying a modulus too small to be a key
	rawKey, err := cbor.Marshal(struct{ N []byte }{N: big.NewInt(15).Bytes()})
	require.NoError(t, err)
	data := append(frame(t, 1, []byte("7"), nil), rawKey...)

	_, err = codec.Decode(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrMalformedKey)
	assert.ErrorIs(t, err, pailliercore.ErrInvalidModulus)
	assert.Contains(t, err.Error(), pailliercore.ErrInvalidModulus.Error())
}

func TestCodecEncodeRejects(t *testing.T) {
	codec, key := newTestCodec(t)

	var buf bytes.Buffer
	assert.ErrorIs(t, codec.Encode(&buf, nil), ErrEmptyMessage)
	assert.ErrorIs(t, codec.Encode(&buf, &Message{Key: key}), ErrEmptyMessage)
	assert.ErrorIs(t, codec.Encode(&buf, &Message{Ciphertext: big.NewInt(1)}), ErrEmptyMessage)
	assert.ErrorIs(t, codec.Encode(&buf, &Message{Key: key, Ciphertext: big.NewInt(-1)}), ErrNegativeCiphertext)
	assert.Zero(t, buf.Len())
}
