package crypt

import "testing"

func TestPermutationIsPermutation(t *testing.T) {
	for _, n := range []int{0, 1, 2, 17, 1000} {
		p := NewPermutation(n, []byte("foo"))
		if p.Len() != n {
			t.Fatalf("expected length %d, got %d", n, p.Len())
		}
		seen := make([]bool, n)
		for i := 0; i < n; i++ {
			v := p.At(i)
			if v < 0 || v >= n || seen[v] {
				t.Fatalf("n=%d: invalid or repeated element %d", n, v)
			}
			seen[v] = true
		}
	}
}

func TestPermutationKeyed(t *testing.T) {
	const n = 500
	a := NewPermutation(n, []byte("foo"))
	b := NewPermutation(n, []byte("foo"))
	c := NewPermutation(n, []byte("bar"))
	same, differ := true, false
	for i := 0; i < n; i++ {
		if a.At(i) != b.At(i) {
			same = false
		}
		if a.At(i) != c.At(i) {
			differ = true
		}
	}
	if !same {
		t.Fatal("same key produced different permutations")
	}
	if !differ {
		t.Fatal("different keys produced the same permutation")
	}
}

func TestPermutationNotIdentity(t *testing.T) {
	p := NewPermutation(100, nil)
	fixed := 0
	for i := 0; i < p.Len(); i++ {
		if p.At(i) == i {
			fixed++
		}
	}
	// A random permutation has one fixed point on average.
	if fixed > 10 {
		t.Fatalf("permutation has %d fixed points", fixed)
	}
}
