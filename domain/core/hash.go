package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// FamilyHash identifies a correction family by the ordered question keys it covers.
type FamilyHash Hash

// String returns the string representation
func (h FamilyHash) String() string { return Hash(h).String() }

// ComputeFamilyHash derives a deterministic fingerprint from the ordered
// question keys of a correction family. Order matters: the family's positional
// join is part of its identity.
func ComputeFamilyHash(keys []QuestionKey) FamilyHash {
	var data strings.Builder
	for _, k := range keys {
		data.WriteString(k.String())
		data.WriteByte('\n')
	}
	return FamilyHash(NewHash([]byte(data.String())))
}
