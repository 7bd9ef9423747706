package codec

import (
	"errors"
	"image/color"
)

// Encoder states.
const (
	encoderIdle = iota
	encoderCoefficients
	encoderScanning
)

var (
	// ErrNoDestination is returned when compression starts before a
	// Destination was set.
	ErrNoDestination = errors.New("codec: no destination")
	// ErrNoParameters is returned when compression starts before the frame
	// parameters were copied from a decoder.
	ErrNoParameters = errors.New("codec: no frame parameters")
)

// An Encoder writes a baseline JPEG stream into a Destination, either from
// block arrays of quantized coefficients or from full-resolution sample
// rows. Frame geometry, quantization tables and color space come from
// CopyCriticalParameters.
type Encoder struct {
	frame
	state     int
	hasParams bool

	dst      *Destination
	colors   ColorSpace // Coded color space.
	inColors ColorSpace // Color space of rows given to WriteScanlines.
	quant    [maxTq + 1][blockSize]uint16

	coefs   []BlockArray
	rows    []byte
	nextRow int

	err         error
	buf         [16]byte
	bits, nBits uint32
}

// NewEncoder returns an idle Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// SetDestination binds the sink for the next image.
func (e *Encoder) SetDestination(dst *Destination) error {
	if e.state != encoderIdle {
		return &StateError{"SetDestination", e.state}
	}
	e.dst = dst
	return nil
}

// CopyCriticalParameters copies the frame geometry, component sampling,
// quantization tables and color space from a decoder whose header has been
// read. Sample rows are expected in the decoder's output color space.
func (e *Encoder) CopyCriticalParameters(d *Decoder) error {
	if e.state != encoderIdle {
		return &StateError{"CopyCriticalParameters", e.state}
	}
	if d.state == decoderIdle || !d.sofSeen {
		return &StateError{"CopyCriticalParameters", d.state}
	}
	e.frame = d.frame
	e.quant = d.quant
	e.colors = d.ColorSpace()
	e.inColors = e.colors.output()
	e.hasParams = true
	return nil
}

// SetImageSize overrides the frame dimensions copied from the decoder.
func (e *Encoder) SetImageSize(width, height int) error {
	if e.state != encoderIdle {
		return &StateError{"SetImageSize", e.state}
	}
	if width <= 0 || height <= 0 || width > 0xffff || height > 0xffff {
		return UnsupportedError("image dimension")
	}
	e.width, e.height = width, height
	return nil
}

// InputComponents returns the number of samples per pixel expected by
// WriteScanlines.
func (e *Encoder) InputComponents() int { return e.nComp }

// Abort discards any image in progress and returns the encoder to idle.
func (e *Encoder) Abort() {
	e.state = encoderIdle
	e.coefs = nil
	e.rows = nil
	e.nextRow = 0
	e.err = nil
	e.bits, e.nBits = 0, 0
}

func (e *Encoder) ready(op string) error {
	if e.state != encoderIdle {
		return &StateError{op, e.state}
	}
	if !e.hasParams {
		return ErrNoParameters
	}
	if e.dst == nil {
		return ErrNoDestination
	}
	return nil
}

// interleaved reports whether all components fit in one scan.
func (e *Encoder) interleaved() bool {
	if e.nComp == 1 {
		return false
	}
	total := 0
	for _, c := range e.comp[:e.nComp] {
		total += c.h * c.v
	}
	return total <= 10
}

// WriteCoefficients queues block arrays to be written by FinishCompress.
// Each array must cover the component's blocks as the decoder lays them out.
func (e *Encoder) WriteCoefficients(coefs []BlockArray) error {
	if err := e.ready("WriteCoefficients"); err != nil {
		return err
	}
	if len(coefs) != e.nComp {
		return FormatError("wrong number of coefficient arrays")
	}
	mxx, myy := e.mcus()
	for i, ba := range coefs {
		rows, cols := myy*e.comp[i].v, mxx*e.comp[i].h
		if !e.interleaved() {
			info := e.info(i)
			rows, cols = info.HeightInBlocks, info.WidthInBlocks
		}
		if len(ba) < rows {
			return FormatError("coefficient array too short")
		}
		for _, row := range ba[:rows] {
			if len(row) < cols {
				return FormatError("coefficient array too narrow")
			}
		}
	}
	e.coefs = coefs
	e.state = encoderCoefficients
	return nil
}

// StartCompress begins an image written from sample rows.
func (e *Encoder) StartCompress() error {
	if err := e.ready("StartCompress"); err != nil {
		return err
	}
	e.rows = make([]byte, e.width*e.nComp*e.height)
	e.nextRow = 0
	e.state = encoderScanning
	return nil
}

// WriteScanlines accepts the next sample rows, each holding the image width
// of InputComponents interleaved samples. Rows past the image height are
// ignored. It returns the number of rows accepted.
func (e *Encoder) WriteScanlines(rows [][]byte) (int, error) {
	if e.state != encoderScanning {
		return 0, &StateError{"WriteScanlines", e.state}
	}
	rowLen := e.width * e.nComp
	n := 0
	for _, row := range rows {
		if e.nextRow >= e.height {
			break
		}
		if len(row) < rowLen {
			return n, FormatError("scanline too short")
		}
		copy(e.rows[e.nextRow*rowLen:], row[:rowLen])
		e.nextRow++
		n++
	}
	return n, nil
}

// NextScanline returns the index of the next row WriteScanlines expects.
func (e *Encoder) NextScanline() int { return e.nextRow }

// FinishCompress writes the complete image to the destination and returns
// the encoder to idle.
func (e *Encoder) FinishCompress() error {
	switch e.state {
	case encoderCoefficients:
	case encoderScanning:
		if e.nextRow < e.height {
			return FormatError("application transferred too few scanlines")
		}
		e.coefs = e.quantizeRows()
	default:
		return &StateError{"FinishCompress", e.state}
	}
	e.err = nil
	e.bits, e.nBits = 0, 0
	e.writeImage()
	err := e.err
	e.Abort()
	return err
}

func (e *Encoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *Encoder) usesTable(tq uint8) bool {
	for _, c := range e.comp[:e.nComp] {
		if c.tq == tq {
			return true
		}
	}
	return false
}

func (e *Encoder) wideQuant(tq uint8) bool {
	for _, q := range e.quant[tq] {
		if q > 0xff {
			return true
		}
	}
	return false
}

func (e *Encoder) writeImage() {
	e.buf[0] = 0xff
	e.buf[1] = soiMarker
	e.write(e.buf[:2])
	switch e.colors {
	case Grayscale, YCbCr:
		e.writeJFIF()
	case YCCK:
		e.writeAdobe(adobeTransformYCbCrK)
	default:
		e.writeAdobe(adobeTransformUnknown)
	}
	e.writeDQT()
	marker := uint8(sof0Marker)
	for tq := range e.quant {
		if e.usesTable(uint8(tq)) && e.wideQuant(uint8(tq)) {
			marker = sof1Marker
		}
	}
	e.writeSOF(marker)
	e.writeDHT()
	if e.interleaved() {
		e.writeInterleavedScan()
	} else {
		for i := 0; i < e.nComp; i++ {
			e.writeComponentScan(i)
		}
	}
	e.buf[0] = 0xff
	e.buf[1] = eoiMarker
	e.write(e.buf[:2])
}

func (e *Encoder) writeInterleavedScan() {
	comps := make([]int, e.nComp)
	for i := range comps {
		comps[i] = i
	}
	e.writeSOSHeader(comps)
	var prevDC [maxComponents]int32
	mxx, myy := e.mcus()
	for my := 0; my < myy; my++ {
		for mx := 0; mx < mxx; mx++ {
			for i, c := range e.comp[:e.nComp] {
				for j := 0; j < c.h*c.v; j++ {
					bx := c.h*mx + j%c.h
					by := c.v*my + j/c.h
					prevDC[i] = e.writeBlock(&e.coefs[i][by][bx], i, prevDC[i])
				}
			}
			if e.err != nil {
				return
			}
		}
	}
	e.padScan()
}

func (e *Encoder) writeComponentScan(i int) {
	e.writeSOSHeader([]int{i})
	info := e.info(i)
	var prevDC int32
	for by := 0; by < info.HeightInBlocks; by++ {
		for bx := 0; bx < info.WidthInBlocks; bx++ {
			prevDC = e.writeBlock(&e.coefs[i][by][bx], i, prevDC)
		}
		if e.err != nil {
			return
		}
	}
	e.padScan()
}

// quantizeRows converts the buffered sample rows to the coded color space,
// downsamples each component, and returns its quantized DCT blocks.
func (e *Encoder) quantizeRows() []BlockArray {
	planes := e.convertRows()
	coefs := e.allocBlocks()
	hmax, vmax := e.maxSampling()
	var b block
	for i, c := range e.comp[:e.nComp] {
		sx, sy := hmax/c.h, vmax/c.v
		qt := &e.quant[c.tq]
		plane := planes[i]
		for by, row := range coefs[i] {
			for bx := range row {
				for y := 0; y < 8; y++ {
					for x := 0; x < 8; x++ {
						b[8*y+x] = e.downsample(plane, 8*bx+x, 8*by+y, sx, sy)
					}
				}
				fdct(&b)
				quantize(&row[bx], &b, qt)
			}
		}
	}
	return coefs
}

// downsample averages the sx by sy box of plane at component position
// (px, py), clamping reads to the image edge.
func (e *Encoder) downsample(plane []byte, px, py, sx, sy int) int32 {
	var sum int32
	for y := py * sy; y < (py+1)*sy; y++ {
		yy := min(y, e.height-1)
		for x := px * sx; x < (px+1)*sx; x++ {
			xx := min(x, e.width-1)
			sum += int32(plane[yy*e.width+xx])
		}
	}
	n := int32(sx * sy)
	return (sum + n/2) / n
}

// quantize divides the scaled transform output by the quantization table.
func quantize(dst *Block, b *block, qt *[blockSize]uint16) {
	for k := range b {
		q := int32(qt[k])
		if q == 0 {
			q = 1
		}
		v := div(b[k], 8*q)
		lim := int32(1023)
		if k == 0 {
			lim = 2047
		}
		if v > lim {
			v = lim
		} else if v < -lim {
			v = -lim
		}
		dst[k] = int16(v)
	}
}

// convertRows splits the buffered rows into one full-resolution plane per
// coded component.
func (e *Encoder) convertRows() [][]byte {
	n := e.width * e.height
	planes := make([][]byte, e.nComp)
	for i := range planes {
		planes[i] = make([]byte, n)
	}
	for p := 0; p < n; p++ {
		s := e.rows[p*e.nComp : (p+1)*e.nComp]
		switch {
		case e.inColors == RGB && e.colors == YCbCr:
			planes[0][p], planes[1][p], planes[2][p] = color.RGBToYCbCr(s[0], s[1], s[2])
		case e.inColors == CMYK && e.colors == YCCK:
			planes[0][p], planes[1][p], planes[2][p] = color.RGBToYCbCr(255-s[0], 255-s[1], 255-s[2])
			planes[3][p] = s[3]
		default:
			for i := range planes {
				planes[i][p] = s[i]
			}
		}
	}
	return planes
}
