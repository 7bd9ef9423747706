package blockiness

import (
	"errors"
	"fmt"
)

// ErrShortRead is returned by Measure when the reader stops delivering rows
// before the image height is reached.
var ErrShortRead = errors.New("blockiness: reader delivered too few rows")

// An Accumulator totals the blockiness of an image fed to it in batches of
// consecutive rows. Batches may have any size; full eight-row groups that
// start on a block boundary take the unchecked path.
type Accumulator struct {
	components int
	stride     int
	rows       RowsFunc
	unchecked  RowsFunc

	next  int    // Index of the next row to be added.
	prev  []byte // Copy of the last row added.
	total int
}

// NewAccumulator returns an Accumulator for rows of stride samples with the
// given number of interleaved components.
func NewAccumulator(components, stride int) *Accumulator {
	rows, unchecked := ForComponents(components)
	return &Accumulator{
		components: components,
		stride:     stride,
		rows:       rows,
		unchecked:  unchecked,
		prev:       make([]byte, stride),
	}
}

// Add accumulates the next rows of the image.
func (a *Accumulator) Add(rows [][]byte) {
	for len(rows) > 0 {
		var prev []byte
		if a.next > 0 {
			prev = a.prev
		}
		var n int
		switch {
		case a.next%8 != 0:
			// Rows inside a block carry no vertical edge.
			n = min(8-a.next%8, len(rows))
			for _, row := range rows[:n] {
				a.total += Row(a.components, a.stride/a.components, row, a.next, nil)
				a.next++
			}
		case len(rows) >= 8 && prev != nil:
			n = 8
			a.total += a.unchecked(a.components, a.stride, rows[:8], prev)
			a.next += 8
		default:
			n = min(8, len(rows))
			a.total += a.rows(a.components, a.stride, rows[:n], prev)
			a.next += n
		}
		copy(a.prev, rows[n-1])
		rows = rows[n:]
	}
}

// Total returns the blockiness accumulated so far.
func (a *Accumulator) Total() int { return a.total }

// RowsAdded returns the number of rows accumulated so far.
func (a *Accumulator) RowsAdded() int { return a.next }

// A RowReader delivers consecutive decoded sample rows.
type RowReader interface {
	ReadScanlines(rows [][]byte) (int, error)
}

// Scratch holds the row buffers used while measuring an image. A Scratch
// may be reused across measurements of any size.
type Scratch struct {
	rows [][]byte
}

// Rows returns n row buffers of at least stride bytes each.
func (s *Scratch) Rows(n, stride int) [][]byte {
	if len(s.rows) < n {
		s.rows = append(s.rows, make([][]byte, n-len(s.rows))...)
	}
	for i := range s.rows[:n] {
		if cap(s.rows[i]) < stride {
			s.rows[i] = make([]byte, stride)
		}
		s.rows[i] = s.rows[i][:stride]
	}
	return s.rows[:n]
}

// Measure reads height rows from r, eight at a time, and returns their
// blockiness. s may be nil.
func Measure(r RowReader, height, components, stride int, s *Scratch) (int, error) {
	if s == nil {
		s = new(Scratch)
	}
	buf := s.Rows(8, stride)
	acc := NewAccumulator(components, stride)
	for acc.RowsAdded() < height {
		want := min(8, height-acc.RowsAdded())
		n, err := r.ReadScanlines(buf[:want])
		if err != nil {
			return acc.Total(), fmt.Errorf("reading row %d: %w", acc.RowsAdded(), err)
		}
		if n == 0 {
			return acc.Total(), ErrShortRead
		}
		acc.Add(buf[:n])
	}
	return acc.Total(), nil
}
