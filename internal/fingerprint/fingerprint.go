// Package fingerprint derives order-independent identifiers for integer lists.
//
// Two lists holding the same values with the same multiplicities share a fingerprint
// regardless of order. The canonical form is the sorted list rendered as a JSON array
// with ", " separators ("[1, 2, 3]", "[]" for an empty list), hashed with SHA-256.
// That rendering matches rows written by earlier deployments of the service, so
// existing tables stay addressable.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"
)

// Size is the length of a fingerprint in hex characters.
const Size = sha256.Size * 2

// Fingerprint is a lowercase hex SHA-256 digest of a canonical integer list.
type Fingerprint string

func (f Fingerprint) String() string {
	return string(f)
}

// Of returns the fingerprint of numbers. The input slice is not modified.
func Of(numbers []int64) Fingerprint {
	sum := sha256.Sum256(Canonical(numbers))
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// Canonical returns the byte encoding hashed by Of.
func Canonical(numbers []int64) []byte {
	sorted := slices.Clone(numbers)
	slices.Sort(sorted)

	// "[" + digits + ", " separators + "]"; 20 bytes covers any int64.
	buf := make([]byte, 0, 2+len(sorted)*22)
	buf = append(buf, '[')
	for i, n := range sorted {
		if i > 0 {
			buf = append(buf, ',', ' ')
		}
		buf = strconv.AppendInt(buf, n, 10)
	}
	return append(buf, ']')
}

// Parse validates s as a fingerprint and returns it.
func Parse(s string) (Fingerprint, bool) {
	if !Valid(s) {
		return "", false
	}
	return Fingerprint(s), true
}

// Valid reports whether s has the shape of a fingerprint: Size lowercase hex characters.
func Valid(s string) bool {
	if len(s) != Size {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
