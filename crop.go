package stegosaurus

import (
	"github.com/lukechampine/stegosaurus/blockiness"
	"github.com/lukechampine/stegosaurus/internal/codec"
)

// crop runs a synchronized decode and encode pass that writes the image,
// less its first x columns and y rows, into dst. If acc is non-nil every
// decoded row is also added to it. The headers must have been read; they
// are stale afterwards.
func (img *Image) crop(dst *codec.Destination, x, y int, acc *blockiness.Accumulator) error {
	dec, enc := img.dec, img.enc
	if err := enc.SetDestination(dst); err != nil {
		return img.fail("set destination", err)
	}
	if err := enc.CopyCriticalParameters(dec); err != nil {
		return img.fail("copy critical parameters", err)
	}
	if err := enc.SetImageSize(dec.Width()-x, dec.Height()-y); err != nil {
		return img.fail("set image size", err)
	}
	if err := enc.StartCompress(); err != nil {
		return img.fail("start compress", err)
	}
	if err := dec.StartDecompress(); err != nil {
		return img.fail("start decompress", err)
	}
	img.headersValid = false

	comps := dec.OutputComponents()
	stride := dec.OutputWidth() * comps
	height := dec.OutputHeight()
	rows := img.scratch.Rows(img.opts.BatchRows, stride)
	sub := make([][]byte, len(rows))
	for dec.OutputScanline() < height {
		start := dec.OutputScanline()
		n, err := dec.ReadScanlines(rows[:min(len(rows), height-start)])
		if err != nil {
			return img.fail("read scanlines", err)
		}
		if n == 0 {
			img.abort()
			return ErrCropRead
		}
		if acc != nil {
			acc.Add(rows[:n])
		}
		// Rows above y are read and discarded.
		skip := max(0, y-start)
		if skip >= n {
			continue
		}
		want := n - skip
		for i := range sub[:want] {
			sub[i] = rows[skip+i][x*comps:]
		}
		written, err := enc.WriteScanlines(sub[:want])
		if err != nil {
			return img.fail("write scanlines", err)
		}
		if written != want {
			img.abort()
			return ErrCropWrite
		}
	}

	if err := dec.FinishDecompress(); err != nil {
		return img.fail("finish decompress", err)
	}
	if err := enc.FinishCompress(); err != nil {
		return img.fail("finish compress", err)
	}
	return nil
}
