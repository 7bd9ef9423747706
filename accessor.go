package stegosaurus

// An Accessor presents the coefficients of several components as one flat
// sequence. Coefficients are ordered by component, then by block in
// row-major order, then by position within the block.
//
// Indices outside [0, Len()) are programming errors and panic with an
// IndexError.
type Accessor struct {
	components []*Component
	length     int

	usables      []int
	usablesReady bool
}

// NewAccessor returns an Accessor over the given components, which must
// outlive it.
func NewAccessor(components ...*Component) *Accessor {
	a := &Accessor{components: components}
	for _, c := range components {
		a.length += c.TotalCoefficients()
	}
	return a
}

// Len returns the total number of coefficients.
func (a *Accessor) Len() int { return a.length }

// Components returns the components in flat order.
func (a *Accessor) Components() []*Component { return a.components }

// findComponent returns the component holding flat index i and the index
// local to that component.
func (a *Accessor) findComponent(i int) (*Component, int) {
	if i < 0 || i >= a.length {
		panic(IndexError{Index: i, Length: a.length})
	}
	for _, c := range a.components {
		n := c.TotalCoefficients()
		if i < n {
			return c, i
		}
		i -= n
	}
	panic("unreachable")
}

func (a *Accessor) coefficient(i int) *int16 {
	c, local := a.findComponent(i)
	coefs, err := c.Coefficients()
	if err != nil {
		panic(err)
	}
	rowSize := c.widthInBlocks * BlockSize
	row, inRow := local/rowSize, local%rowSize
	return &coefs[row][inRow/BlockSize][inRow%BlockSize]
}

// Coefficient returns the coefficient at flat index i.
func (a *Accessor) Coefficient(i int) int16 { return *a.coefficient(i) }

// SetCoefficient sets the coefficient at flat index i.
func (a *Accessor) SetCoefficient(i int, v int16) { *a.coefficient(i) = v }

// IsDC reports whether flat index i addresses a DC coefficient.
func (a *Accessor) IsDC(i int) bool {
	_, local := a.findComponent(i)
	return local%BlockSize == 0
}

// UsableCoefficients returns, in ascending order, the flat indices of every
// non-zero AC coefficient. The list is computed on first use; later edits
// to the coefficients do not update it. The returned slice must not be
// modified.
func (a *Accessor) UsableCoefficients() []int {
	if !a.usablesReady {
		a.usables = a.findUsables()
		a.usablesReady = true
	}
	return a.usables
}

// UsableCoefficientCount returns len(a.UsableCoefficients()).
func (a *Accessor) UsableCoefficientCount() int {
	return len(a.UsableCoefficients())
}

func (a *Accessor) findUsables() []int {
	usables := []int{}
	base := 0
	for _, c := range a.components {
		coefs, err := c.Coefficients()
		if err != nil {
			panic(err)
		}
		for by := 0; by < c.heightInBlocks; by++ {
			row := coefs[by][:c.widthInBlocks]
			for bx := range row {
				b := &row[bx]
				for k := 1; k < BlockSize; k++ {
					if b[k] != 0 {
						usables = append(usables, base+(by*c.widthInBlocks+bx)*BlockSize+k)
					}
				}
			}
		}
		base += c.TotalCoefficients()
	}
	return usables
}

// CannibalizeUsables adopts other's usable-coefficient list instead of
// computing one. Both accessors must view coefficient-identical images.
func (a *Accessor) CannibalizeUsables(other *Accessor) {
	a.usables = append([]int(nil), other.UsableCoefficients()...)
	a.usablesReady = true
}
