// Package pseudonym replaces user ids with stable keyed hashes so exported
// and archived views can be joined per user without exposing the raw id.
package pseudonym

import (
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Prefix marks a pseudonymized id.
const Prefix = "u_"

// idBytes is the number of hash bytes kept in a pseudonym.
const idBytes = 12

var (
	// ErrEmptyKey is returned when no key is configured.
	ErrEmptyKey = errors.New("pseudonym: key cannot be empty")

	// ErrKeyTooLong is returned for keys longer than blake2b.Size.
	ErrKeyTooLong = fmt.Errorf("pseudonym: key longer than %d bytes", blake2b.Size)
)

// Pseudonymizer maps raw ids to keyed BLAKE2b digests.
// It is safe for concurrent use.
type Pseudonymizer struct {
	key []byte
}

// New creates a Pseudonymizer for key.
func New(key []byte) (*Pseudonymizer, error) {
	switch {
	case len(key) == 0:
		return nil, ErrEmptyKey
	case len(key) > blake2b.Size:
		return nil, ErrKeyTooLong
	}

	k := make([]byte, len(key))
	copy(k, key)
	return &Pseudonymizer{key: k}, nil
}

// ID returns the pseudonym for id. The empty id maps to itself.
func (p *Pseudonymizer) ID(id string) string {
	if id == "" {
		return ""
	}

	// New256 only fails for keys over 64 bytes, which New rejects.
	h, _ := blake2b.New256(p.key)
	h.Write([]byte(id))
	return Prefix + hex.EncodeToString(h.Sum(nil)[:idBytes])
}
