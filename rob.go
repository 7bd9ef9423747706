package stegosaurus

import "github.com/lukechampine/stegosaurus/blockiness"

// robOffset is the crop applied to the top and left of an image to estimate
// its cover.
const robOffset = 4

// ReciprocalROB returns the reciprocal ratio of blockiness: the blockiness
// of the image re-encoded after cropping robOffset pixels from the top and
// left, divided by the blockiness of the image itself. Natural images score
// close to 1; embedding in the coefficients tends to lower the score. An
// image with no blockiness scores 1.
func (img *Image) ReciprocalROB() (float64, error) {
	if img.closed {
		return 0, ErrClosed
	}
	if err := img.reset(); err != nil {
		return 0, err
	}
	dec := img.dec
	if dec.Width() <= robOffset || dec.Height() <= robOffset {
		return 0, ErrCropOffset
	}

	comps := dec.OutputComponents()
	acc := blockiness.NewAccumulator(comps, dec.OutputWidth()*comps)
	dst := img.newDestination()
	if err := img.crop(dst, robOffset, robOffset, acc); err != nil {
		return 0, err
	}
	original := acc.Total()

	cropped, err := img.measureOther(dst.Bytes())
	if err != nil {
		return 0, err
	}
	if original == 0 {
		return 1, nil
	}
	return float64(cropped) / float64(original), nil
}

// measureOther temporarily rebinds the decoder to data and returns its
// blockiness. The original bytes are bound again before it returns.
func (img *Image) measureOther(data []byte) (int, error) {
	defer func() {
		img.dec.Abort()
		// SetSource only fails outside the idle state.
		_ = img.dec.SetSource(img.data)
		img.headersValid = false
	}()
	if err := img.dec.SetSource(data); err != nil {
		return 0, img.fail("set source", err)
	}
	if err := img.dec.ReadHeader(); err != nil {
		return 0, img.fail("read header", err)
	}
	return img.measure()
}
