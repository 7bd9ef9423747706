package stegosaurus

import (
	"testing"

	"github.com/lukechampine/stegosaurus/internal/codec"
)

// testAccessor returns an Accessor over a 2x1-block and a 1x1-block
// component.
func testAccessor() (*Accessor, ArrayProvider) {
	p := ArrayProvider{codec.NewBlockArray(1, 2), codec.NewBlockArray(1, 1)}
	return NewAccessor(
		NewComponent(2, 1, 16, 8, 0, p),
		NewComponent(1, 1, 8, 8, 1, p),
	), p
}

func TestAccessorIndexing(t *testing.T) {
	acc, p := testAccessor()
	if acc.Len() != 3*BlockSize {
		t.Fatal("expected length 192, got", acc.Len())
	}
	acc.SetCoefficient(70, 5)
	if p[0][0][1][6] != 5 {
		t.Fatal("flat index 70 should address block 1, coefficient 6")
	}
	acc.SetCoefficient(130, -3)
	if p[1][0][0][2] != -3 {
		t.Fatal("flat index 130 should address the second component")
	}
	if acc.Coefficient(70) != 5 || acc.Coefficient(130) != -3 {
		t.Fatal("Coefficient disagrees with SetCoefficient")
	}
	for i, dc := range map[int]bool{0: true, 1: false, 64: true, 127: false, 128: true, 129: false} {
		if acc.IsDC(i) != dc {
			t.Fatalf("IsDC(%d) should be %v", i, dc)
		}
	}
}

func TestAccessorPanics(t *testing.T) {
	acc, _ := testAccessor()
	for _, i := range []int{-1, acc.Len()} {
		func() {
			defer func() {
				ie, ok := recover().(IndexError)
				if !ok || ie.Index != i || ie.Length != acc.Len() {
					t.Fatalf("index %d: expected IndexError, got %v", i, ie)
				}
			}()
			acc.Coefficient(i)
		}()
	}
}

func TestUsableCoefficients(t *testing.T) {
	acc, _ := testAccessor()
	for _, i := range []int{0, 130, 5, 64, 70} {
		acc.SetCoefficient(i, 1)
	}
	usables := acc.UsableCoefficients()
	exp := []int{5, 70, 130}
	if len(usables) != len(exp) {
		t.Fatal("expected", exp, "got", usables)
	}
	for i := range exp {
		if usables[i] != exp[i] {
			t.Fatal("expected", exp, "got", usables)
		}
	}
	// The list is not recomputed after edits.
	acc.SetCoefficient(6, 1)
	if acc.UsableCoefficientCount() != 3 {
		t.Fatal("usable list changed after an edit")
	}

	other, _ := testAccessor()
	other.CannibalizeUsables(acc)
	if other.UsableCoefficientCount() != 3 || other.UsableCoefficients()[2] != 130 {
		t.Fatal("CannibalizeUsables did not adopt the list")
	}
}

func TestArrayProviderTooSmall(t *testing.T) {
	p := ArrayProvider{codec.NewBlockArray(1, 1)}
	c := NewComponent(2, 2, 16, 16, 0, p)
	if _, err := c.Coefficients(); err == nil {
		t.Fatal("expected error for undersized array")
	}
	c = NewComponent(1, 1, 8, 8, 1, p)
	if _, err := c.Coefficients(); err == nil {
		t.Fatal("expected error for missing component")
	}
}

func TestAccessorEveryIndex(t *testing.T) {
	img := openTestImage(t, 45, 37, nil)
	defer img.Close()
	acc, err := img.Accessor()
	if err != nil {
		t.Fatal(err)
	}

	usable := make(map[int]bool)
	prev := -1
	for _, i := range acc.UsableCoefficients() {
		if i <= prev {
			t.Fatal("usable coefficients not strictly ascending at", i)
		}
		usable[i] = true
		prev = i
	}

	i := 0
	for _, c := range acc.Components() {
		coefs, err := c.Coefficients()
		if err != nil {
			t.Fatal(err)
		}
		for by := 0; by < c.HeightInBlocks(); by++ {
			for bx := 0; bx < c.WidthInBlocks(); bx++ {
				for k := 0; k < BlockSize; k++ {
					v := coefs[by][bx][k]
					if acc.Coefficient(i) != v {
						t.Fatalf("index %d does not address block (%d, %d) of component %d", i, bx, by, c.Index())
					}
					if acc.IsDC(i) != (k == 0) {
						t.Fatalf("IsDC(%d) should be %v", i, k == 0)
					}
					if usable[i] != (k != 0 && v != 0) {
						t.Fatalf("index %d: usable is %v for value %d at position %d", i, usable[i], v, k)
					}
					acc.SetCoefficient(i, v+1)
					if coefs[by][bx][k] != v+1 || acc.Coefficient(i) != v+1 {
						t.Fatal("SetCoefficient did not round-trip at index", i)
					}
					acc.SetCoefficient(i, v)
					i++
				}
			}
		}
	}
	if i != acc.Len() {
		t.Fatalf("visited %d coefficients, expected %d", i, acc.Len())
	}
}
