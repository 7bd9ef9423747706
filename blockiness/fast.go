package blockiness

// The unchecked variants below require exactly eight rows of at least stride
// samples and a non-nil previous row. Every slice is resliced to stride up
// front so the inner loops run without bounds checks.

// rowsUnchecked is the eight-row form of Rows.
func rowsUnchecked(components, stride int, rows [][]byte, prev []byte) int {
	result := firstRow(components, stride, rows[0], prev)
	r1, r2, r3, r4 := rows[1][:stride], rows[2][:stride], rows[3][:stride], rows[4][:stride]
	r5, r6, r7 := rows[5][:stride], rows[6][:stride], rows[7][:stride]
	blockWidth := 8 * components
	for block := blockWidth; block < stride; block += blockWidth {
		for c := 0; c < components; c++ {
			i := block + c
			p := i - components
			result += abs(int(r1[i]) - int(r1[p]))
			result += abs(int(r2[i]) - int(r2[p]))
			result += abs(int(r3[i]) - int(r3[p]))
			result += abs(int(r4[i]) - int(r4[p]))
			result += abs(int(r5[i]) - int(r5[p]))
			result += abs(int(r6[i]) - int(r6[p]))
			result += abs(int(r7[i]) - int(r7[p]))
		}
	}
	return result
}

// rows1Unchecked is the eight-row form of rows1.
func rows1Unchecked(components, stride int, rows [][]byte, prev []byte) int {
	result := firstRow(1, stride, rows[0], prev)
	r1, r2, r3, r4 := rows[1][:stride], rows[2][:stride], rows[3][:stride], rows[4][:stride]
	r5, r6, r7 := rows[5][:stride], rows[6][:stride], rows[7][:stride]
	var t1, t2, t3, t4, t5, t6, t7 int
	for i := 8; i < stride; i += 8 {
		p := i - 1
		t1 += abs(int(r1[i]) - int(r1[p]))
		t2 += abs(int(r2[i]) - int(r2[p]))
		t3 += abs(int(r3[i]) - int(r3[p]))
		t4 += abs(int(r4[i]) - int(r4[p]))
		t5 += abs(int(r5[i]) - int(r5[p]))
		t6 += abs(int(r6[i]) - int(r6[p]))
		t7 += abs(int(r7[i]) - int(r7[p]))
	}
	return result + t1 + t2 + t3 + t4 + t5 + t6 + t7
}

// rows3Unchecked is the eight-row form of rows3.
func rows3Unchecked(components, stride int, rows [][]byte, prev []byte) int {
	result := firstRow(3, stride, rows[0], prev)
	var t0, t1, t2 int
	for _, row := range rows[1:8] {
		row = row[:stride]
		for i := 24; i < stride; i += 24 {
			t0 += abs(int(row[i]) - int(row[i-3]))
			t1 += abs(int(row[i+1]) - int(row[i-2]))
			t2 += abs(int(row[i+2]) - int(row[i-1]))
		}
	}
	return result + t0 + t1 + t2
}

// A RowsFunc computes the blockiness of a group of rows, as Rows does.
type RowsFunc func(components, stride int, rows [][]byte, prev []byte) int

// ForComponents returns the fastest general and eight-row implementations
// for images with the given number of components. The eight-row function
// may only be called with exactly eight rows and a non-nil prev.
func ForComponents(components int) (rows, unchecked RowsFunc) {
	switch components {
	case 1:
		return rows1, rows1Unchecked
	case 3:
		return rows3, rows3Unchecked
	}
	return Rows, rowsUnchecked
}
