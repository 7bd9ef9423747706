package stegosaurus

import "github.com/lukechampine/stegosaurus/crypt"

// A Permuter walks the usable coefficients of an Accessor in a keyed
// pseudorandom order. Each coefficient is visited at most once until Reset,
// even across walks and key changes, so that several keyed walks over one
// image never overlap.
type Permuter struct {
	acc     *Accessor
	usables []int
	perm    *crypt.Permutation
	locked  []uint64
}

// NewPermuter returns a Permuter over acc's usable coefficients.
func NewPermuter(acc *Accessor, key []byte) *Permuter {
	usables := acc.UsableCoefficients()
	return &Permuter{
		acc:     acc,
		usables: usables,
		perm:    crypt.NewPermutation(len(usables), key),
		locked:  make([]uint64, (len(usables)+63)/64),
	}
}

// SetKey switches to the permutation selected by key. Visited coefficients
// stay visited.
func (p *Permuter) SetKey(key []byte) {
	p.perm = crypt.NewPermutation(len(p.usables), key)
}

// Reset makes every coefficient visitable again.
func (p *Permuter) Reset() {
	for i := range p.locked {
		p.locked[i] = 0
	}
}

// Walk calls fn with the flat index and value of each unvisited usable
// coefficient, in permutation order from the start, until fn returns false.
func (p *Permuter) Walk(fn func(index int, value int16) bool) {
	for i := 0; i < p.perm.Len(); i++ {
		u := p.perm.At(i)
		word, bit := u/64, uint64(1)<<(u%64)
		if p.locked[word]&bit != 0 {
			continue
		}
		p.locked[word] |= bit
		index := p.usables[u]
		if !fn(index, p.acc.Coefficient(index)) {
			return
		}
	}
}
