package stegosaurus

import "testing"

func walkAll(p *Permuter) []int {
	var visited []int
	p.Walk(func(index int, _ int16) bool {
		visited = append(visited, index)
		return true
	})
	return visited
}

func TestPermuter(t *testing.T) {
	img := openTestImage(t, 32, 32, nil)
	defer img.Close()
	acc, err := img.Accessor()
	if err != nil {
		t.Fatal(err)
	}
	usable := make(map[int]bool)
	for _, i := range acc.UsableCoefficients() {
		usable[i] = true
	}

	p := NewPermuter(acc, []byte("foo"))
	first := walkAll(p)
	if len(first) != len(usable) {
		t.Fatalf("expected %d coefficients, visited %d", len(usable), len(first))
	}
	seen := make(map[int]bool)
	for _, i := range first {
		if !usable[i] || seen[i] {
			t.Fatal("visited unusable or repeated coefficient", i)
		}
		if acc.Coefficient(i) == 0 {
			t.Fatal("visited a zero coefficient")
		}
		seen[i] = true
	}
	if len(walkAll(p)) != 0 {
		t.Fatal("second walk should visit nothing")
	}

	p.Reset()
	second := walkAll(p)
	for i := range first {
		if first[i] != second[i] {
			t.Fatal("walk order changed after Reset")
		}
	}
}

func TestPermuterSetKey(t *testing.T) {
	img := openTestImage(t, 32, 32, nil)
	defer img.Close()
	acc, err := img.Accessor()
	if err != nil {
		t.Fatal(err)
	}
	n := acc.UsableCoefficientCount()

	p := NewPermuter(acc, []byte("foo"))
	seen := make(map[int]bool)
	p.Walk(func(index int, _ int16) bool {
		seen[index] = true
		return len(seen) < n/2
	})
	p.SetKey([]byte("bar"))
	rest := walkAll(p)
	for _, i := range rest {
		if seen[i] {
			t.Fatal("coefficient visited under both keys:", i)
		}
		seen[i] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d coefficients in total, got %d", n, len(seen))
	}
}
