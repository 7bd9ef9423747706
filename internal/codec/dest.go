package codec

import "slices"

// A Destination is an in-memory sink for encoded JPEG data. It grows by
// doubling and refuses to grow past its limit.
type Destination struct {
	buf   []byte
	limit int
}

// NewDestination returns an empty Destination with room for sizeHint bytes.
// A limit of zero or less means unbounded.
func NewDestination(sizeHint, limit int) *Destination {
	if sizeHint < 0 {
		sizeHint = 0
	}
	if limit > 0 && sizeHint > limit {
		sizeHint = limit
	}
	return &Destination{buf: make([]byte, 0, sizeHint), limit: limit}
}

func (d *Destination) grow(n int) error {
	need := len(d.buf) + n
	if need <= cap(d.buf) {
		return nil
	}
	if d.limit > 0 && need > d.limit {
		return &AllocationError{Requested: need, Limit: d.limit}
	}
	newCap := 2 * cap(d.buf)
	if newCap < need {
		newCap = need
	}
	if d.limit > 0 && newCap > d.limit {
		newCap = d.limit
	}
	buf := make([]byte, len(d.buf), newCap)
	copy(buf, d.buf)
	d.buf = buf
	return nil
}

// Write implements io.Writer.
func (d *Destination) Write(p []byte) (int, error) {
	if err := d.grow(len(p)); err != nil {
		return 0, err
	}
	d.buf = append(d.buf, p...)
	return len(p), nil
}

// WriteByte implements io.ByteWriter.
func (d *Destination) WriteByte(c byte) error {
	if err := d.grow(1); err != nil {
		return err
	}
	d.buf = append(d.buf, c)
	return nil
}

// Len returns the number of bytes written.
func (d *Destination) Len() int { return len(d.buf) }

// Bytes returns the written data, trimmed to its length.
func (d *Destination) Bytes() []byte { return slices.Clip(d.buf) }

// Reset discards the written data but keeps the allocation.
func (d *Destination) Reset() { d.buf = d.buf[:0] }
