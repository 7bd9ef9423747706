// Package crypt derives keyed pseudorandom permutations.
package crypt

import (
	"encoding/binary"
	"math"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20"
)

// A Permutation is a uniformly random ordering of [0, n) determined by a
// key. The same key always yields the same ordering.
type Permutation struct {
	perm []int
}

// NewPermutation returns the permutation of [0, n) selected by key.
func NewPermutation(n int, key []byte) *Permutation {
	s := newStream(key)
	perm := make([]int, n)
	// Inside-out Fisher-Yates.
	for i := range perm {
		j := s.intn(i + 1)
		perm[i] = perm[j]
		perm[j] = i
	}
	return &Permutation{perm: perm}
}

// Len returns the number of elements permuted.
func (p *Permutation) Len() int { return len(p.perm) }

// At returns the i'th element of the permutation.
func (p *Permutation) At(i int) int { return p.perm[i] }

// stream is a ChaCha20 keystream keyed by a BLAKE2b hash of the user key.
type stream struct {
	c   *chacha20.Cipher
	buf [8]byte
}

func newStream(key []byte) *stream {
	k := blake2b.Sum256(key)
	nonce := make([]byte, chacha20.NonceSize)
	c, err := chacha20.NewUnauthenticatedCipher(k[:], nonce)
	if err != nil {
		panic(err) // key and nonce sizes are fixed
	}
	return &stream{c: c}
}

func (s *stream) uint64() uint64 {
	s.buf = [8]byte{}
	s.c.XORKeyStream(s.buf[:], s.buf[:])
	return binary.LittleEndian.Uint64(s.buf[:])
}

// intn returns a uniform value in [0, n), rejecting the values that would
// bias the modulus.
func (s *stream) intn(n int) int {
	limit := uint64(math.MaxUint64) - (uint64(math.MaxUint64)%uint64(n)+1)%uint64(n)
	v := s.uint64()
	for v > limit {
		v = s.uint64()
	}
	return int(v % uint64(n))
}
