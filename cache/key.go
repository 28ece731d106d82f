package cache

import (
	"crypto/sha256"

	"github.com/mr-tron/base58"

	"github.com/wippyai/wasm-bench/errors"
)

// Key identifies a stored artifact: the base58 (Bitcoin alphabet) encoding
// of the SHA-256 digest of its serialized bytes.
type Key string

// KeyOf derives the key of serialized artifact bytes.
func KeyOf(data []byte) Key {
	sum := sha256.Sum256(data)
	return Key(base58.Encode(sum[:]))
}

// ParseKey validates an externally supplied key.
func ParseKey(s string) (Key, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return "", errors.New(errors.PhaseCache, errors.KindInvalidInput).
			Key(s).
			Detail("key is not base58").
			Cause(err).
			Build()
	}
	if len(raw) != sha256.Size {
		return "", errors.New(errors.PhaseCache, errors.KindInvalidInput).
			Key(s).
			Detail("key decodes to %d bytes, want %d", len(raw), sha256.Size).
			Build()
	}
	return Key(s), nil
}

func (k Key) String() string {
	return string(k)
}
