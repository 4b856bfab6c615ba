// Package fingerprint computes the content hash media is deduplicated on
package fingerprint

import (
	"encoding/hex"
	"errors"

	"github.com/zeebo/blake3"
)

// Size is the digest length in bytes
const Size = 32

// Hash is a content digest
type Hash [Size]byte

// Hex returns the lowercase hex encoding
func (h Hash) Hex() string { return hex.EncodeToString(h[:]) }

func (h Hash) String() string { return h.Hex() }

// IsZero reports whether h is unset
func (h Hash) IsZero() bool { return h == Hash{} }

// Bytes returns a copy of the digest for storage
func (h Hash) Bytes() []byte { return append([]byte(nil), h[:]...) }

// FromBytes rebuilds a Hash read back from storage
func FromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != Size {
		return h, errors.New("fingerprint: wrong digest length")
	}
	copy(h[:], b)
	return h, nil
}

// ParseHex decodes a hex digest
func ParseHex(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, err
	}
	return FromBytes(b)
}

// Hasher maps content to a Hash
// exact hashing is the default, a perceptual hasher can satisfy the same contract
type Hasher interface {
	Sum(data []byte) Hash
}

// Exact is a BLAKE3-256 content hasher
type Exact struct{}

// Sum hashes data
func (Exact) Sum(data []byte) Hash { return Sum(data) }

// Sum is BLAKE3-256 over data
func Sum(data []byte) Hash { return blake3.Sum256(data) }
