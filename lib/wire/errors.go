package wire

import "github.com/pkg/errors"

var (
	ErrEmptyMessage       = errors.New("wire: message has no key or ciphertext")
	ErrNegativeCiphertext = errors.New("wire: ciphertext is negative")

	ErrShortLength     = errors.New("wire: truncated length prefix")
	ErrShortPayload    = errors.New("wire: truncated ciphertext payload")
	ErrPayloadTooLarge = errors.New("wire: length prefix exceeds limit")
	ErrInvalidUTF8     = errors.New("wire: ciphertext payload is not valid UTF-8")
	ErrInvalidHex      = errors.New("wire: ciphertext payload is not hexadecimal")
	ErrMalformedKey    = errors.New("wire: malformed key encoding")
)

// keyError reports a key decoding failure. It matches ErrMalformedKey and
// unwraps to the decoder's cause.
type keyError struct {
	cause error
}

func malformedKey(cause error) error {
	return &keyError{cause: cause}
}

func (e *keyError) Error() string {
	return ErrMalformedKey.Error() + ": " + e.cause.Error()
}

func (e *keyError) Is(target error) bool {
	return target == ErrMalformedKey
}

func (e *keyError) Unwrap() error {
	return e.cause
}
