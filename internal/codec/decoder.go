// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codec

// Decoder states.
const (
	decoderIdle = iota
	decoderHeader
	decoderCoefficients
	decoderScanning
)

// A Decoder reads a JPEG image held in memory. The zero value is not usable;
// create one with NewDecoder.
type Decoder struct {
	src []byte
	pos int

	state int
	frame
	tmp [2 * blockSize]byte

	huff     [maxTc + 1][maxTh + 1]huffman
	quant    [maxTq + 1][blockSize]uint16 // Natural order.
	bits     bits
	ri       int // Restart Interval.
	baseline bool
	sofSeen  bool
	eoi      bool

	jfif                bool
	adobe               bool
	adobeTransformValid bool
	adobeTransform      uint8

	coefs []BlockArray

	// Row output state, valid while scanning.
	planes   [][]byte
	strides  []int
	scanline int
	outComps int
}

// NewDecoder returns an idle Decoder with no source.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// SetSource binds buf as the compressed input. The slice is read in place
// and must not be modified while bound.
func (d *Decoder) SetSource(buf []byte) error {
	if d.state != decoderIdle {
		return &StateError{"SetSource", d.state}
	}
	d.src = buf
	d.pos = 0
	return nil
}

// Abort discards any pass in progress and returns the decoder to idle. The
// source stays bound.
func (d *Decoder) Abort() {
	d.state = decoderIdle
	d.coefs = nil
	d.planes = nil
	d.strides = nil
	d.pos = 0
}

func (d *Decoder) readFull(p []byte) error {
	if len(d.src)-d.pos < len(p) {
		d.pos = len(d.src)
		return FormatError("unexpected end of data")
	}
	d.pos += copy(p, d.src[d.pos:])
	return nil
}

func (d *Decoder) readByte() (byte, error) {
	if d.pos >= len(d.src) {
		return 0, FormatError("unexpected end of data")
	}
	x := d.src[d.pos]
	d.pos++
	return x, nil
}

func (d *Decoder) ignore(n int) error {
	if len(d.src)-d.pos < n {
		d.pos = len(d.src)
		return FormatError("unexpected end of data")
	}
	d.pos += n
	return nil
}

// nextMarker returns the next marker, skipping fill bytes and any stray
// entropy-coded data. Running off the end of the buffer yields EOI.
func (d *Decoder) nextMarker() byte {
	for {
		for d.pos < len(d.src) && d.src[d.pos] != 0xff {
			d.pos++
		}
		for d.pos < len(d.src) && d.src[d.pos] == 0xff {
			d.pos++
		}
		if d.pos >= len(d.src) {
			return eoiMarker
		}
		m := d.src[d.pos]
		d.pos++
		if m != 0x00 {
			return m
		}
	}
}

// ReadHeader parses the markers at the start of the source, up to the first
// Start Of Scan. It leaves the decoder ready for ReadCoefficients or
// StartDecompress.
func (d *Decoder) ReadHeader() error {
	if d.state != decoderIdle {
		return &StateError{"ReadHeader", d.state}
	}
	d.resetHeader()
	if err := d.readFull(d.tmp[:2]); err != nil {
		return err
	}
	if d.tmp[0] != 0xff || d.tmp[1] != soiMarker {
		return FormatError("missing SOI marker")
	}
	for {
		start := d.pos
		marker := d.nextMarker()
		if marker == sosMarker {
			if !d.sofSeen {
				return FormatError("missing SOF marker")
			}
			// Leave the SOS marker to be read by the scan decoder.
			d.pos = start
			break
		}
		if marker == eoiMarker {
			return FormatError("missing SOS marker")
		}
		if err := d.processMarker(marker); err != nil {
			return err
		}
	}
	d.state = decoderHeader
	return nil
}

func (d *Decoder) resetHeader() {
	d.pos = 0
	d.frame = frame{}
	d.huff = [maxTc + 1][maxTh + 1]huffman{}
	d.quant = [maxTq + 1][blockSize]uint16{}
	d.bits = bits{}
	d.ri = 0
	d.baseline = false
	d.sofSeen = false
	d.eoi = false
	d.jfif = false
	d.adobe = false
	d.adobeTransformValid = false
	d.adobeTransform = 0
	d.coefs = nil
	d.planes = nil
	d.scanline = 0
}

// processMarker handles every table or miscellaneous marker segment.
func (d *Decoder) processMarker(marker byte) error {
	if rst0Marker <= marker && marker <= rst7Marker {
		// Figures B.2 and B.16 of the specification suggest that restart markers
		// should only occur between Entropy Coded Segments and not after the
		// final ECS. However, some encoders may generate incorrect JPEGs with a
		// final RST marker. These RST markers do not have a length and can be
		// ignored.
		return nil
	}
	if err := d.readFull(d.tmp[:2]); err != nil {
		return err
	}
	n := int(d.tmp[0])<<8 + int(d.tmp[1]) - 2
	if n < 0 {
		return FormatError("short segment length")
	}
	switch marker {
	case sof0Marker, sof1Marker:
		d.baseline = marker == sof0Marker
		return d.processSOF(n)
	case sof2Marker:
		return UnsupportedError("progressive mode")
	case sof3Marker:
		return UnsupportedError("lossless mode")
	case dacMarker:
		return UnsupportedError("arithmetic coding")
	case dhtMarker:
		return d.processDHT(n)
	case dqtMarker:
		return d.processDQT(n)
	case driMarker:
		return d.processDRI(n)
	case app0Marker:
		return d.processApp0Marker(n)
	case app14Marker:
		return d.processApp14Marker(n)
	}
	if app0Marker <= marker && marker <= app15Marker || marker == comMarker {
		return d.ignore(n)
	}
	if marker > sof0Marker && marker <= 0xcf {
		return UnsupportedError("SOF marker")
	}
	if marker < 0xc0 {
		return FormatError("unknown marker")
	}
	return d.ignore(n)
}

// Specified in section B.2.2.
func (d *Decoder) processSOF(n int) error {
	if d.sofSeen {
		return FormatError("multiple SOF markers")
	}
	switch n {
	case 6 + 3*1, 6 + 3*3, 6 + 3*4:
	default:
		return UnsupportedError("number of components")
	}
	if err := d.readFull(d.tmp[:n]); err != nil {
		return err
	}
	// We only support 8-bit precision.
	if d.tmp[0] != 8 {
		return UnsupportedError("precision")
	}
	d.height = int(d.tmp[1])<<8 + int(d.tmp[2])
	d.width = int(d.tmp[3])<<8 + int(d.tmp[4])
	if d.width == 0 || d.height == 0 {
		return UnsupportedError("zero image dimension")
	}
	d.nComp = int(d.tmp[5])
	if d.nComp*3+6 != n {
		return FormatError("SOF has wrong length")
	}
	for i := 0; i < d.nComp; i++ {
		d.comp[i].c = d.tmp[6+3*i]
		// Section B.2.2 states that "the value of C_i shall be different from
		// the values of C_1 through C_(i-1)".
		for j := 0; j < i; j++ {
			if d.comp[i].c == d.comp[j].c {
				return FormatError("repeated component identifier")
			}
		}
		d.comp[i].tq = d.tmp[8+3*i]
		if d.comp[i].tq > maxTq {
			return FormatError("bad Tq value")
		}
		hv := d.tmp[7+3*i]
		h, v := int(hv>>4), int(hv&0x0f)
		if h < 1 || 4 < h || v < 1 || 4 < v {
			return FormatError("luma/chroma subsampling ratio")
		}
		if h == 3 || v == 3 {
			return UnsupportedError("luma/chroma subsampling ratio")
		}
		if d.nComp == 1 {
			// A single component is always coded one block at a time,
			// whatever its declared sampling factors.
			h, v = 1, 1
		}
		d.comp[i].h = h
		d.comp[i].v = v
	}
	d.sofSeen = true
	return nil
}

// Specified in section B.2.4.1.
func (d *Decoder) processDQT(n int) error {
loop:
	for n > 0 {
		n--
		x, err := d.readByte()
		if err != nil {
			return err
		}
		tq := x & 0x0f
		if tq > maxTq {
			return FormatError("bad Tq value")
		}
		switch x >> 4 {
		default:
			return FormatError("bad Pq value")
		case 0:
			if n < blockSize {
				break loop
			}
			n -= blockSize
			if err := d.readFull(d.tmp[:blockSize]); err != nil {
				return err
			}
			for zig := range d.quant[tq] {
				d.quant[tq][unzig[zig]] = uint16(d.tmp[zig])
			}
		case 1:
			if n < 2*blockSize {
				break loop
			}
			n -= 2 * blockSize
			if err := d.readFull(d.tmp[:2*blockSize]); err != nil {
				return err
			}
			for zig := range d.quant[tq] {
				d.quant[tq][unzig[zig]] = uint16(d.tmp[2*zig])<<8 | uint16(d.tmp[2*zig+1])
			}
		}
	}
	if n != 0 {
		return FormatError("DQT has wrong length")
	}
	return nil
}

// Specified in section B.2.4.4.
func (d *Decoder) processDRI(n int) error {
	if n != 2 {
		return FormatError("DRI has wrong length")
	}
	if err := d.readFull(d.tmp[:2]); err != nil {
		return err
	}
	d.ri = int(d.tmp[0])<<8 + int(d.tmp[1])
	return nil
}

func (d *Decoder) processApp0Marker(n int) error {
	if n < 5 {
		return d.ignore(n)
	}
	if err := d.readFull(d.tmp[:5]); err != nil {
		return err
	}
	n -= 5
	d.jfif = d.tmp[0] == 'J' && d.tmp[1] == 'F' && d.tmp[2] == 'I' && d.tmp[3] == 'F' && d.tmp[4] == '\x00'
	if n > 0 {
		return d.ignore(n)
	}
	return nil
}

func (d *Decoder) processApp14Marker(n int) error {
	if n < 12 {
		return d.ignore(n)
	}
	if err := d.readFull(d.tmp[:12]); err != nil {
		return err
	}
	n -= 12
	if d.tmp[0] == 'A' && d.tmp[1] == 'd' && d.tmp[2] == 'o' && d.tmp[3] == 'b' && d.tmp[4] == 'e' {
		d.adobe = true
		d.adobeTransformValid = true
		d.adobeTransform = d.tmp[11]
	}
	if n > 0 {
		return d.ignore(n)
	}
	return nil
}

// Width returns the image width in pixels.
func (d *Decoder) Width() int { return d.width }

// Height returns the image height in pixels.
func (d *Decoder) Height() int { return d.height }

// NumComponents returns the number of components in the frame.
func (d *Decoder) NumComponents() int { return d.nComp }

// Component returns the geometry of component i.
func (d *Decoder) Component(i int) ComponentInfo { return d.info(i) }

// Quant returns quantization table tq in natural order.
func (d *Decoder) Quant(tq int) [blockSize]uint16 { return d.quant[tq] }

// ColorSpace returns the color space the components are coded in.
func (d *Decoder) ColorSpace() ColorSpace {
	switch d.nComp {
	case 1:
		return Grayscale
	case 3:
		if d.adobeTransformValid && d.adobeTransform == adobeTransformUnknown {
			return RGB
		}
		if !d.jfif && !d.adobe && d.comp[0].c == 'R' && d.comp[1].c == 'G' && d.comp[2].c == 'B' {
			return RGB
		}
		return YCbCr
	case 4:
		if d.adobeTransformValid && d.adobeTransform == adobeTransformYCbCrK {
			return YCCK
		}
		return CMYK
	}
	return UnknownColorSpace
}

// OutputComponents returns the number of samples per pixel in decoded rows.
func (d *Decoder) OutputComponents() int { return d.nComp }

// OutputWidth returns the number of pixels in a decoded row.
func (d *Decoder) OutputWidth() int { return d.width }

// OutputHeight returns the number of decoded rows.
func (d *Decoder) OutputHeight() int { return d.height }

// OutputScanline returns the index of the next row ReadScanlines will
// deliver.
func (d *Decoder) OutputScanline() int { return d.scanline }

// ReadCoefficients entropy-decodes every scan and returns one block array
// per component. The arrays belong to the decoder; they may be modified in
// place and stay valid until the next FinishDecompress or Abort.
func (d *Decoder) ReadCoefficients() ([]BlockArray, error) {
	if d.state != decoderHeader {
		return nil, &StateError{"ReadCoefficients", d.state}
	}
	if err := d.decodeScans(); err != nil {
		return nil, err
	}
	d.state = decoderCoefficients
	return d.coefs, nil
}

// decodeScans reads every remaining marker segment through EOI.
func (d *Decoder) decodeScans() error {
	d.coefs = d.allocBlocks()
	for !d.eoi {
		marker := d.nextMarker()
		switch marker {
		case eoiMarker:
			d.eoi = true
		case sosMarker:
			if err := d.readFull(d.tmp[:2]); err != nil {
				return err
			}
			n := int(d.tmp[0])<<8 + int(d.tmp[1]) - 2
			if n < 0 {
				return FormatError("short segment length")
			}
			if err := d.processSOS(n); err != nil {
				return err
			}
		case sof0Marker, sof1Marker:
			return FormatError("multiple SOF markers")
		default:
			if err := d.processMarker(marker); err != nil {
				return err
			}
		}
	}
	return nil
}

// FinishDecompress completes the current pass and returns the decoder to
// idle. After StartDecompress every row must have been read.
func (d *Decoder) FinishDecompress() error {
	switch d.state {
	case decoderCoefficients:
	case decoderScanning:
		if d.scanline < d.height {
			return FormatError("application transferred too few scanlines")
		}
	default:
		return &StateError{"FinishDecompress", d.state}
	}
	d.Abort()
	return nil
}
