// Package stegosaurus exposes the quantized DCT coefficients of baseline
// JPEG images for steganography and steganalysis. An Image owns its
// compressed bytes and a decoder/encoder pair; it can flatten all of its
// coefficients behind an Accessor, re-encode edited coefficients, crop, and
// score itself with the reciprocal ratio-of-blockiness.
//
// An Image is not safe for concurrent use.
package stegosaurus

import (
	"github.com/lukechampine/stegosaurus/blockiness"
	"github.com/lukechampine/stegosaurus/internal/codec"
)

// Options tunes an Image. A nil *Options means the defaults.
type Options struct {
	// BatchRows is the number of rows read per batch while cropping.
	BatchRows int
	// MaxOutputSize caps the size of any encoded output, in bytes. Zero
	// means unbounded.
	MaxOutputSize int
}

// DefaultBatchRows is the crop batch size used when Options.BatchRows is
// not positive.
const DefaultBatchRows = 16

// An Image is a JPEG image whose coefficients can be read, edited and
// re-encoded.
type Image struct {
	data []byte
	opts Options

	dec   *codec.Decoder
	enc   *codec.Encoder
	nComp int

	components []*Component
	coefs      []BlockArray      // Per-component views, trimmed to the image.
	arrays     []codec.BlockArray // Decoder-owned arrays for this epoch.
	accessor   *Accessor
	scratch    blockiness.Scratch

	coefsRequested bool
	headersValid   bool
	closed         bool
}

// New parses the headers of the JPEG image in data. The Image takes
// ownership of data, which must not be modified afterwards.
func New(data []byte, o *Options) (*Image, error) {
	img := &Image{
		data: data,
		dec:  codec.NewDecoder(),
		enc:  codec.NewEncoder(),
	}
	if o != nil {
		img.opts = *o
	}
	if img.opts.BatchRows <= 0 {
		img.opts.BatchRows = DefaultBatchRows
	}
	if err := img.dec.SetSource(data); err != nil {
		return nil, codecError("set source", err)
	}
	if err := img.dec.ReadHeader(); err != nil {
		img.dec.Abort()
		return nil, codecError("read header", err)
	}
	img.headersValid = true
	img.nComp = img.dec.NumComponents()
	img.components = make([]*Component, img.nComp)
	img.coefs = make([]BlockArray, img.nComp)
	return img, nil
}

// Close releases the codec state and every cached coefficient. It is safe to
// call more than once and after any failure.
func (img *Image) Close() error {
	if img.closed {
		return nil
	}
	img.dec.Abort()
	img.enc.Abort()
	img.data = nil
	img.components = nil
	img.coefs = nil
	img.arrays = nil
	img.accessor = nil
	img.coefsRequested = false
	img.headersValid = false
	img.closed = true
	return nil
}

// Data returns the compressed bytes the Image was created from.
func (img *Image) Data() []byte { return img.data }

// ComponentCount returns the number of color components.
func (img *Image) ComponentCount() int { return img.nComp }

// Width returns the image width in pixels.
func (img *Image) Width() int { return img.dec.Width() }

// Height returns the image height in pixels.
func (img *Image) Height() int { return img.dec.Height() }

func (img *Image) checkComponent(i int) {
	if i < 0 || i >= img.nComp {
		panic(IndexError{Index: i, Length: img.nComp})
	}
}

// endEpoch drops every realized coefficient. Components stay valid but
// refetch on their next access.
func (img *Image) endEpoch() {
	for i := range img.coefs {
		img.coefs[i] = nil
	}
	for _, c := range img.components {
		if c != nil {
			c.invalidate()
		}
	}
	img.arrays = nil
	img.coefsRequested = false
}

// abort cancels both codec passes and leaves the Image recoverable by
// reset.
func (img *Image) abort() {
	img.dec.Abort()
	img.enc.Abort()
	img.endEpoch()
	img.headersValid = false
}

func (img *Image) fail(op string, err error) error {
	img.abort()
	return codecError(op, err)
}

// reset finishes any coefficient pass and re-parses the headers if they
// are stale. The decoder is left ready for a new pass.
func (img *Image) reset() error {
	if img.coefsRequested {
		img.endEpoch()
		img.headersValid = false
		if err := img.dec.FinishDecompress(); err != nil {
			return img.fail("finish decompress", err)
		}
	}
	if !img.headersValid {
		if err := img.dec.ReadHeader(); err != nil {
			return img.fail("read header", err)
		}
		img.headersValid = true
	}
	return nil
}

// readCoefficients requests the coefficients from the decoder once per
// epoch.
func (img *Image) readCoefficients() error {
	if img.coefsRequested {
		return nil
	}
	if err := img.reset(); err != nil {
		return err
	}
	arrays, err := img.dec.ReadCoefficients()
	if err != nil {
		return img.fail("read coefficients", err)
	}
	img.arrays = arrays
	img.coefsRequested = true
	return nil
}

// Coefficients returns the block array of component i, trimmed to the
// blocks that cover the image. Edits made through it are written by
// WriteNew.
func (img *Image) Coefficients(i int) (BlockArray, error) {
	if img.closed {
		return nil, ErrClosed
	}
	img.checkComponent(i)
	if img.coefs[i] != nil {
		return img.coefs[i], nil
	}
	if err := img.readCoefficients(); err != nil {
		return nil, err
	}
	info := img.dec.Component(i)
	full := img.arrays[i]
	ba := make(BlockArray, info.HeightInBlocks)
	for r := range ba {
		ba[r] = full[r][:info.WidthInBlocks]
	}
	img.coefs[i] = ba
	return ba, nil
}

// ComponentCoefficients implements CoefficientProvider.
func (img *Image) ComponentCoefficients(c *Component) (BlockArray, error) {
	return img.Coefficients(c.Index())
}

// Component returns the view of component i, creating it on first use.
func (img *Image) Component(i int) (*Component, error) {
	if img.closed {
		return nil, ErrClosed
	}
	img.checkComponent(i)
	if !img.headersValid {
		if err := img.reset(); err != nil {
			return nil, err
		}
	}
	if img.components[i] == nil {
		info := img.dec.Component(i)
		img.components[i] = NewComponent(info.WidthInBlocks, info.HeightInBlocks,
			info.DownsampledWidth, info.DownsampledHeight, i, img)
	}
	return img.components[i], nil
}

// Accessor returns the Image's single Accessor, realizing every component
// and its coefficients first.
func (img *Image) Accessor() (*Accessor, error) {
	if img.closed {
		return nil, ErrClosed
	}
	if img.accessor != nil {
		return img.accessor, nil
	}
	comps := make([]*Component, img.nComp)
	for i := range comps {
		c, err := img.Component(i)
		if err != nil {
			return nil, err
		}
		comps[i] = c
	}
	for _, c := range comps {
		if _, err := c.Coefficients(); err != nil {
			return nil, err
		}
	}
	img.accessor = NewAccessor(comps...)
	return img.accessor, nil
}

func (img *Image) newDestination() *codec.Destination {
	return codec.NewDestination(len(img.data), img.opts.MaxOutputSize)
}

// WriteNew encodes the current, possibly edited, coefficients as a new
// Image. If this Image's usable coefficients were already computed, the new
// Image's Accessor adopts them.
func (img *Image) WriteNew() (*Image, error) {
	if img.closed {
		return nil, ErrClosed
	}
	if err := img.readCoefficients(); err != nil {
		return nil, err
	}
	dst := img.newDestination()
	if err := img.enc.SetDestination(dst); err != nil {
		return nil, img.fail("set destination", err)
	}
	if err := img.enc.CopyCriticalParameters(img.dec); err != nil {
		return nil, img.fail("copy critical parameters", err)
	}
	if err := img.enc.WriteCoefficients(img.arrays); err != nil {
		return nil, img.fail("write coefficients", err)
	}
	if err := img.enc.FinishCompress(); err != nil {
		return nil, img.fail("finish compress", err)
	}
	if err := img.dec.FinishDecompress(); err != nil {
		return nil, img.fail("finish decompress", err)
	}
	img.endEpoch()
	img.headersValid = false

	out, err := New(dst.Bytes(), &img.opts)
	if err != nil {
		return nil, err
	}
	if img.accessor != nil && img.accessor.usablesReady {
		acc, err := out.Accessor()
		if err != nil {
			out.Close()
			return nil, err
		}
		acc.CannibalizeUsables(img.accessor)
	}
	return out, nil
}

// Crop returns a new Image holding this one without its first x columns
// and first y rows.
func (img *Image) Crop(x, y int) (*Image, error) {
	if img.closed {
		return nil, ErrClosed
	}
	if err := img.reset(); err != nil {
		return nil, err
	}
	if x < 0 || y < 0 || x >= img.dec.Width() || y >= img.dec.Height() {
		return nil, ErrCropOffset
	}
	dst := img.newDestination()
	if err := img.crop(dst, x, y, nil); err != nil {
		return nil, err
	}
	return New(dst.Bytes(), &img.opts)
}

// Blockiness returns the blockiness of the decoded image.
func (img *Image) Blockiness() (int, error) {
	if img.closed {
		return 0, ErrClosed
	}
	if err := img.reset(); err != nil {
		return 0, err
	}
	return img.measure()
}

// measure decodes the bound source and returns its blockiness. The headers
// must have been read.
func (img *Image) measure() (int, error) {
	dec := img.dec
	if err := dec.StartDecompress(); err != nil {
		return 0, img.fail("start decompress", err)
	}
	img.headersValid = false
	comps := dec.OutputComponents()
	total, err := blockiness.Measure(dec, dec.OutputHeight(), comps, dec.OutputWidth()*comps, &img.scratch)
	if err != nil {
		return 0, img.fail("read scanlines", err)
	}
	if err := dec.FinishDecompress(); err != nil {
		return 0, img.fail("finish decompress", err)
	}
	return total, nil
}
