package blockiness

import (
	"errors"
	"math/rand"
	"testing"
)

func randomRows(rng *rand.Rand, n, stride int) [][]byte {
	rows := make([][]byte, n)
	for i := range rows {
		rows[i] = make([]byte, stride)
		rng.Read(rows[i])
	}
	return rows
}

// reference computes the blockiness of a whole image one row at a time.
func reference(components, width int, rows [][]byte) int {
	total := 0
	var prev []byte
	for i, row := range rows {
		total += Row(components, width, row, i, prev)
		prev = row
	}
	return total
}

func TestSingleRow(t *testing.T) {
	row := make([]byte, 64)
	for i := range row {
		row[i] = byte(i * i % 251)
	}
	want := 0
	for k := 1; k < 8; k++ {
		want += abs(int(row[8*k-1]) - int(row[8*k]))
	}
	if got := Row(1, 64, row, 0, nil); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
	if got := Rows(1, 64, [][]byte{row}, nil); got != want {
		t.Fatalf("generic: expected %d, got %d", want, got)
	}
	if got := rows1(1, 64, [][]byte{row}, nil); got != want {
		t.Fatalf("rows1: expected %d, got %d", want, got)
	}
}

func TestRowContinuity(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	rows := randomRows(rng, 2, 64)
	prev, row := rows[0], rows[1]
	for i := 1; i < 8; i++ {
		if Row(1, 64, row, i, prev) != Row(1, 64, row, i, nil) {
			t.Fatalf("row %d picked up vertical terms", i)
		}
	}
	vertical := 0
	for k := range row {
		vertical += abs(int(row[k]) - int(prev[k]))
	}
	if got, want := Row(1, 64, row, 8, prev), Row(1, 64, row, 8, nil)+vertical; got != want {
		t.Fatalf("expected %d at block boundary, got %d", want, got)
	}
}

func TestThreeComponentIndices(t *testing.T) {
	// 16 pixels of 3 components: the only vertical block edge is between
	// pixels 7 and 8, i.e. samples 21..23 and 24..26.
	row := make([]byte, 48)
	row[21], row[22], row[23] = 10, 20, 30
	row[24], row[25], row[26] = 15, 5, 31
	want := 5 + 15 + 1
	if got := Row(3, 16, row, 3, nil); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
	if got := horizontal(3, 48, row); got != want {
		t.Fatalf("generic: expected %d, got %d", want, got)
	}
}

func TestVariantsAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for components := 1; components <= 4; components++ {
		for _, width := range []int{1, 7, 8, 13, 64, 77} {
			stride := width * components
			rows := randomRows(rng, 9, stride)
			prev, group := rows[0], rows[1:]

			fast, unchecked := ForComponents(components)
			for _, p := range [][]byte{nil, prev} {
				want := Rows(components, stride, group, p)
				if got := fast(components, stride, group, p); got != want {
					t.Fatalf("%d components, width %d: fast path gave %d, want %d", components, width, got, want)
				}
				for n := 1; n < 8; n++ {
					if fast(components, stride, group[:n], p) != Rows(components, stride, group[:n], p) {
						t.Fatalf("%d components, width %d: fast path disagrees on %d rows", components, width, n)
					}
				}
			}
			want := Rows(components, stride, group, prev)
			if got := unchecked(components, stride, group, prev); got != want {
				t.Fatalf("%d components, width %d: unchecked path gave %d, want %d", components, width, got, want)
			}
			if got := rowsUnchecked(components, stride, group, prev); got != want {
				t.Fatalf("%d components, width %d: generic unchecked path gave %d, want %d", components, width, got, want)
			}

			// Rows over a block-aligned group equals Row over each of its rows.
			sum := Row(components, width, group[0], 8, prev)
			for i, row := range group[1:] {
				sum += Row(components, width, row, 9+i, group[i])
			}
			if sum != want {
				t.Fatalf("%d components, width %d: per-row sum %d, want %d", components, width, sum, want)
			}
		}
	}
}

func TestAccumulatorBatches(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for _, components := range []int{1, 3, 4} {
		const width, height = 45, 37
		stride := width * components
		rows := randomRows(rng, height, stride)
		want := reference(components, width, rows)
		for _, batch := range []int{1, 3, 8, 16, height} {
			acc := NewAccumulator(components, stride)
			for i := 0; i < height; i += batch {
				acc.Add(rows[i:min(i+batch, height)])
			}
			if acc.Total() != want {
				t.Fatalf("%d components, batch %d: got %d, want %d", components, batch, acc.Total(), want)
			}
			if acc.RowsAdded() != height {
				t.Fatal("expected all rows to be counted, got", acc.RowsAdded())
			}
		}
	}
}

type sliceReader struct {
	rows  [][]byte
	limit int
}

func (r *sliceReader) ReadScanlines(dst [][]byte) (int, error) {
	n := 0
	for _, d := range dst {
		if len(r.rows) == 0 || r.limit == 0 {
			break
		}
		copy(d, r.rows[0])
		r.rows = r.rows[1:]
		r.limit--
		n++
	}
	return n, nil
}

func TestMeasure(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	rows := randomRows(rng, 29, 3*30)
	want := reference(3, 30, rows)

	var s Scratch
	got, err := Measure(&sliceReader{rows: rows, limit: -1}, len(rows), 3, 3*30, &s)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}

	_, err = Measure(&sliceReader{rows: rows, limit: 10}, len(rows), 3, 3*30, &s)
	if !errors.Is(err, ErrShortRead) {
		t.Fatal("expected ErrShortRead, got", err)
	}
}

func BenchmarkAccumulator(b *testing.B) {
	rng := rand.New(rand.NewSource(5))
	const width, height = 640, 64
	for _, components := range []int{1, 3} {
		stride := width * components
		rows := randomRows(rng, height, stride)
		b.Run(map[int]string{1: "gray", 3: "color"}[components], func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				acc := NewAccumulator(components, stride)
				acc.Add(rows)
			}
		})
	}
}
