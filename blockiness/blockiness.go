// Package blockiness measures the discontinuities at 8x8 block boundaries
// of decoded JPEG sample rows.
//
// Rows are interleaved: a row of width w with c components holds w*c
// samples, pixel-major. The blockiness of an image is the sum, over every
// component, of |p(x,y) - p(x-1,y)| for each x > 0 with x%8 == 0, plus
// |p(x,y) - p(x,y-1)| for each y > 0 with y%8 == 0.
package blockiness

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Row returns the blockiness contributed by a single row. rowIndex is the
// row's position in the image; when it is a positive multiple of 8 and prev
// is non-nil, the vertical differences against prev are included.
func Row(components, width int, row []byte, rowIndex int, prev []byte) int {
	stride := width * components
	if rowIndex > 0 && rowIndex%8 == 0 && prev != nil {
		return firstRow(components, stride, row, prev)
	}
	switch components {
	case 1:
		return horizontal1(stride, row)
	case 3:
		return horizontal3(stride, row)
	}
	return horizontal(components, stride, row)
}

// firstRow handles the first row of a block, where every sample borders the
// row above it.
func firstRow(components, stride int, row, prev []byte) int {
	row, prev = row[:stride], prev[:stride]
	result := 0
	for i, v := range row {
		result += abs(int(v) - int(prev[i]))
		if x := i / components; x > 0 && x%8 == 0 {
			result += abs(int(v) - int(row[i-components]))
		}
	}
	return result
}

// horizontal sums the differences across the vertical block edges of a row,
// visiting only the first column of each block.
func horizontal(components, stride int, row []byte) int {
	row = row[:stride]
	blockWidth := 8 * components
	result := 0
	for block := blockWidth; block < stride; block += blockWidth {
		for c := 0; c < components; c++ {
			i := block + c
			result += abs(int(row[i]) - int(row[i-components]))
		}
	}
	return result
}

func horizontal1(stride int, row []byte) int {
	row = row[:stride]
	result := 0
	for i := 8; i < stride; i += 8 {
		result += abs(int(row[i]) - int(row[i-1]))
	}
	return result
}

func horizontal3(stride int, row []byte) int {
	row = row[:stride]
	var t0, t1, t2 int
	for i := 24; i < stride; i += 24 {
		t0 += abs(int(row[i]) - int(row[i-3]))
		t1 += abs(int(row[i+1]) - int(row[i-2]))
		t2 += abs(int(row[i+2]) - int(row[i-1]))
	}
	return t0 + t1 + t2
}

// Rows returns the blockiness of a group of rows whose first row starts a
// block. If prev, the last row of the preceding group, is non-nil, the first
// row also contributes its vertical differences; the remaining rows
// contribute horizontal differences only.
func Rows(components, stride int, rows [][]byte, prev []byte) int {
	if len(rows) == 0 {
		return 0
	}
	result := 0
	if prev != nil {
		result += firstRow(components, stride, rows[0], prev)
	} else {
		result += horizontal(components, stride, rows[0])
	}
	for _, row := range rows[1:] {
		result += horizontal(components, stride, row)
	}
	return result
}

// rows1 is Rows for single-component images.
func rows1(components, stride int, rows [][]byte, prev []byte) int {
	if len(rows) == 0 {
		return 0
	}
	result := 0
	if prev != nil {
		result += firstRow(1, stride, rows[0], prev)
	} else {
		result += horizontal1(stride, rows[0])
	}
	for _, row := range rows[1:] {
		result += horizontal1(stride, row)
	}
	return result
}

// rows3 is Rows for three-component images.
func rows3(components, stride int, rows [][]byte, prev []byte) int {
	if len(rows) == 0 {
		return 0
	}
	result := 0
	if prev != nil {
		result += firstRow(3, stride, rows[0], prev)
	} else {
		result += horizontal3(stride, rows[0])
	}
	for _, row := range rows[1:] {
		result += horizontal3(stride, row)
	}
	return result
}
