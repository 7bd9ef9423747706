// Copyright 2012 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codec

// Specified in section B.2.3.
func (d *Decoder) processSOS(n int) error {
	if d.nComp == 0 {
		return FormatError("missing SOF marker")
	}
	if n < 6 || 4+2*d.nComp < n || n%2 != 0 {
		return FormatError("SOS has wrong length")
	}
	if err := d.readFull(d.tmp[:n]); err != nil {
		return err
	}
	nComp := int(d.tmp[0])
	if n != 4+2*nComp {
		return FormatError("SOS length inconsistent with number of components")
	}
	var scan [maxComponents]struct {
		compIndex uint8
		td        uint8 // DC table selector.
		ta        uint8 // AC table selector.
	}
	totalHV := 0
	for i := 0; i < nComp; i++ {
		cs := d.tmp[1+2*i] // Component selector.
		compIndex := -1
		for j, comp := range d.comp[:d.nComp] {
			if cs == comp.c {
				compIndex = j
			}
		}
		if compIndex < 0 {
			return FormatError("unknown component selector")
		}
		scan[i].compIndex = uint8(compIndex)
		// Section B.2.3 states that "the value of Cs_j shall be different from
		// the values of Cs_1 through Cs_(j-1)". Since we have previously
		// verified that a frame's component identifiers (C_i values in section
		// B.2.2) are unique, it suffices to check that the implicit indexes
		// into d.comp are unique.
		for j := 0; j < i; j++ {
			if scan[i].compIndex == scan[j].compIndex {
				return FormatError("repeated component selector")
			}
		}
		totalHV += d.comp[compIndex].h * d.comp[compIndex].v

		// The baseline t <= 1 restriction is specified in table B.3.
		scan[i].td = d.tmp[2+2*i] >> 4
		if t := scan[i].td; t > maxTh || (d.baseline && t > 1) {
			return FormatError("bad Td value")
		}
		scan[i].ta = d.tmp[2+2*i] & 0x0f
		if t := scan[i].ta; t > maxTh || (d.baseline && t > 1) {
			return FormatError("bad Ta value")
		}
	}
	// Section B.2.3 states that if there is more than one component then the
	// total H*V values in a scan must be <= 10.
	if d.nComp > 1 && totalHV > 10 {
		return FormatError("total sampling factors too large")
	}
	// Sequential scans always cover the whole spectrum at full precision.
	zigStart, zigEnd, ah, al := d.tmp[1+2*nComp], d.tmp[2+2*nComp], d.tmp[3+2*nComp]>>4, d.tmp[3+2*nComp]&0x0f
	if zigStart != 0 || zigEnd != blockSize-1 || ah != 0 || al != 0 {
		return FormatError("bad spectral selection bounds")
	}

	// mxx and myy are the number of MCUs (Minimum Coded Units) in the image.
	// A scan with a single component is not interleaved: its MCU is one
	// block, and it covers only the blocks that hold image data.
	mxx, myy := d.mcus()
	if nComp == 1 {
		info := d.info(int(scan[0].compIndex))
		mxx, myy = info.WidthInBlocks, info.HeightInBlocks
	}

	d.bits = bits{}
	mcu, expectedRST := 0, uint8(rst0Marker)
	var dc [maxComponents]int32
	for my := 0; my < myy; my++ {
		for mx := 0; mx < mxx; mx++ {
			for i := 0; i < nComp; i++ {
				compIndex := scan[i].compIndex
				hi := d.comp[compIndex].h
				vi := d.comp[compIndex].v
				if nComp == 1 {
					hi, vi = 1, 1
				}
				for j := 0; j < hi*vi; j++ {
					bx := hi*mx + j%hi
					by := vi*my + j/hi
					b := &d.coefs[compIndex][by][bx]

					// Decode the DC coefficient, as specified in section F.2.2.1.
					value, err := d.decodeHuffman(&d.huff[dcTable][scan[i].td])
					if err != nil {
						return err
					}
					if value > 16 {
						return UnsupportedError("excessive DC component")
					}
					dcDelta := d.receiveExtend(value)
					dc[compIndex] += dcDelta
					b[0] = int16(dc[compIndex])

					// Decode the AC coefficients, as specified in section F.2.2.2.
					huff := &d.huff[acTable][scan[i].ta]
					for zig := 1; zig < blockSize; zig++ {
						value, err := d.decodeHuffman(huff)
						if err != nil {
							return err
						}
						val0 := value >> 4
						val1 := value & 0x0f
						if val1 != 0 {
							// An overlong run lands on the last coefficient,
							// so that damaged or truncated scans still decode.
							zig += int(val0)
							if zig >= blockSize {
								zig = blockSize - 1
							}
							b[unzig[zig]] = int16(d.receiveExtend(val1))
						} else {
							if val0 != 0x0f {
								break
							}
							zig += 0x0f
						}
					}
				} // for j
			} // for i
			mcu++
			if d.ri > 0 && mcu%d.ri == 0 && mcu < mxx*myy {
				// A more sophisticated decoder could use RST[0-7] markers to resynchronize from corrupt input,
				// but this one assumes well-formed input, and hence the restart marker follows immediately.
				if err := d.readFull(d.tmp[:2]); err != nil {
					return err
				}
				if d.tmp[0] != 0xff || d.tmp[1] != expectedRST {
					return FormatError("bad RST marker")
				}
				expectedRST++
				if expectedRST == rst7Marker+1 {
					expectedRST = rst0Marker
				}
				// Reset the Huffman decoder.
				d.bits = bits{}
				// Reset the DC components, as per section F.2.1.3.1.
				dc = [maxComponents]int32{}
			}
		} // for mx
	} // for my

	return nil
}
