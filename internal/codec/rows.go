package codec

import "image/color"

// StartDecompress prepares the decoder to deliver full-resolution sample
// rows through ReadScanlines. It may follow ReadHeader directly, or
// ReadCoefficients, in which case the rows reflect any edits made to the
// returned block arrays.
func (d *Decoder) StartDecompress() error {
	switch d.state {
	case decoderHeader:
		if err := d.decodeScans(); err != nil {
			return err
		}
	case decoderCoefficients:
	default:
		return &StateError{"StartDecompress", d.state}
	}
	d.outComps = d.nComp
	d.reconstruct()
	d.scanline = 0
	d.state = decoderScanning
	return nil
}

// OutputColorSpace returns the color space of the rows delivered by
// ReadScanlines.
func (d *Decoder) OutputColorSpace() ColorSpace { return d.ColorSpace().output() }

// reconstruct dequantizes and inverse-transforms every block into one
// sample plane per component.
func (d *Decoder) reconstruct() {
	d.planes = make([][]byte, d.nComp)
	d.strides = make([]int, d.nComp)
	for i := 0; i < d.nComp; i++ {
		blocks := d.coefs[i]
		rows, cols := len(blocks), 0
		if rows > 0 {
			cols = len(blocks[0])
		}
		stride := 8 * cols
		plane := make([]byte, stride*8*rows)
		qt := &d.quant[d.comp[i].tq]
		var b block
		for by, row := range blocks {
			for bx := range row {
				coef := &row[bx]
				for k := range b {
					b[k] = int32(coef[k]) * int32(qt[k])
				}
				idct(&b)
				dst := plane[8*by*stride+8*bx:]
				for y := 0; y < 8; y++ {
					y8 := y * 8
					yStride := y * stride
					for x := 0; x < 8; x++ {
						c := b[y8+x]
						if c < -128 {
							c = 0
						} else if c > 127 {
							c = 255
						} else {
							c += 128
						}
						dst[yStride+x] = uint8(c)
					}
				}
			}
		}
		d.planes[i] = plane
		d.strides[i] = stride
	}
}

// ReadScanlines fills rows with the next decoded sample rows, each holding
// OutputWidth pixels of OutputComponents interleaved samples. It returns the
// number of rows written, which is less than len(rows) only at the end of
// the image.
func (d *Decoder) ReadScanlines(rows [][]byte) (int, error) {
	if d.state != decoderScanning {
		return 0, &StateError{"ReadScanlines", d.state}
	}
	hmax, vmax := d.maxSampling()
	coded := d.ColorSpace()
	var samples [maxComponents]byte
	n := 0
	for _, dst := range rows {
		if d.scanline >= d.height {
			break
		}
		if len(dst) < d.width*d.outComps {
			return n, FormatError("scanline buffer too small")
		}
		y := d.scanline
		for x := 0; x < d.width; x++ {
			for i := 0; i < d.nComp; i++ {
				c := d.comp[i]
				sx := x * c.h / hmax
				sy := y * c.v / vmax
				samples[i] = d.planes[i][sy*d.strides[i]+sx]
			}
			p := dst[x*d.outComps : (x+1)*d.outComps]
			switch coded {
			case YCbCr:
				p[0], p[1], p[2] = color.YCbCrToRGB(samples[0], samples[1], samples[2])
			case YCCK:
				r, g, b := color.YCbCrToRGB(samples[0], samples[1], samples[2])
				p[0], p[1], p[2], p[3] = 255-r, 255-g, 255-b, samples[3]
			default:
				copy(p, samples[:d.nComp])
			}
		}
		d.scanline++
		n++
	}
	return n, nil
}
