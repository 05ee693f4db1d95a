// Package hashing provides the deterministic content hash used for caching,
// deduplication and test oracles, and the random short ids used when record
// names have to be anonymised.
package hashing

import (
	"crypto/md5" //nolint:gosec // G501: identity hash, not a security boundary
	"encoding/hex"
	"math/big"
	"math/rand/v2"
	"strings"
)

// Alphabet is the symbol set random ids are drawn from.
const Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ContentHash returns the 32 character hex md5 digest of text.
func ContentHash(text string) string {
	sum := md5.Sum([]byte(text)) //nolint:gosec // G401: see import note
	return hex.EncodeToString(sum[:])
}

// ContentHashParts hashes the parts joined by a unit separator so that
// ("ab", "c") and ("a", "bc") do not collide.
func ContentHashParts(parts ...string) string {
	return ContentHash(strings.Join(parts, "\x1f"))
}

// RandomID draws length symbols uniformly from Alphabet.
// A nil r uses the process-wide source.
func RandomID(r *rand.Rand, length int) string {
	b := make([]byte, length)
	for i := range b {
		if r != nil {
			b[i] = Alphabet[r.IntN(len(Alphabet))]
		} else {
			b[i] = Alphabet[rand.IntN(len(Alphabet))]
		}
	}
	return string(b)
}

// IDSpace returns the number of distinct ids of the given length.
func IDSpace(length int) *big.Int {
	if length <= 0 {
		return big.NewInt(0)
	}
	return new(big.Int).Exp(big.NewInt(int64(len(Alphabet))), big.NewInt(int64(length)), nil)
}

// HasCapacity reports whether ids of length can cover n records with at least
// a factor of two headroom, which keeps rejection sampling in UniqueIDs cheap.
func HasCapacity(length, n int) bool {
	need := big.NewInt(int64(n) * 2)
	return IDSpace(length).Cmp(need) > 0
}

// UniqueIDs returns n distinct random ids of the given length. Callers must
// check HasCapacity first; uniqueness only holds within one call.
func UniqueIDs(r *rand.Rand, n, length int) []string {
	seen := make(map[string]struct{}, n)
	ids := make([]string, 0, n)
	for len(ids) < n {
		id := RandomID(r, length)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
