// Package hashing provides the deterministic "randomness" source for the
// mapping engine.
//
// Every draw is a pure function of its string key, computed from a SHA-256
// digest. No stateful RNG is used anywhere: the same key yields the same
// value across runs, processes, and platforms. This is the contract the
// whole sonification pipeline's reproducibility claim rests on.
package hashing

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"
)

// shuffleModulus is the key space for shuffle sort keys, large enough that
// collisions between realistic species ids are negligible.
const shuffleModulus = 1_000_000_000_000_000_000

// StableInt returns an integer in [0, mod) derived from the SHA-256 digest of
// key. The first 8 digest bytes are read as a big-endian unsigned integer and
// reduced modulo mod.
func StableInt(key string, mod int) (int, error) {
	if mod <= 0 {
		return 0, fmt.Errorf("%w: modulus %d", ErrInvalidModulus, mod)
	}
	sum := sha256.Sum256([]byte(key))
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(mod)), nil
}

// MustStableInt is StableInt for call sites with a compile-time-constant
// positive modulus, where a modulus error is a programming bug.
func MustStableInt(key string, mod int) int {
	v, err := StableInt(key, mod)
	if err != nil {
		panic(err)
	}
	return v
}

// StableFloat01 returns a float in [0, 1) derived from the SHA-256 digest of
// key. Used for micro-offsets where an integer grid would sound mechanical.
func StableFloat01(key string) float64 {
	sum := sha256.Sum256([]byte(key))
	v := binary.BigEndian.Uint64(sum[:8])
	return float64(v) / float64(1<<63) / 2
}

// Shuffle returns a deterministic permutation of items. Rather than a
// stateful shuffle algorithm, items are sorted on the stable hash of their
// key joined with the discriminator, so the same inputs always produce the
// same order and a different discriminator reorders the whole sequence, not
// just a neighborhood. The input slice is not modified.
func Shuffle[T any](items []T, keyFn func(T) string, discriminator string) []T {
	type keyed struct {
		item T
		key  string
		sort int
	}
	out := make([]keyed, len(items))
	for i, it := range items {
		k := keyFn(it)
		out[i] = keyed{
			item: it,
			key:  k,
			sort: MustStableInt(k+":"+discriminator, shuffleModulus),
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].sort != out[j].sort {
			return out[i].sort < out[j].sort
		}
		return out[i].key < out[j].key
	})
	result := make([]T, len(items))
	for i, k := range out {
		result[i] = k.item
	}
	return result
}

// ContentHash returns the first 16 hex characters of the SHA-256 digest of
// data. Used to stamp serialized artifacts for reproducibility checks.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:16]
}
