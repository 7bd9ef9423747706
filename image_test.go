package stegosaurus

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/lukechampine/stegosaurus/blockiness"
	"github.com/lukechampine/stegosaurus/internal/codec"
)

func makeTestImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8((x * 17) ^ (y * 31)),
				G: uint8((x * 43) + (y * 13)),
				B: uint8((x * 7) ^ (y * 11)),
				A: 255,
			})
		}
	}
	return img
}

func encodeJPEG(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func openTestImage(t testing.TB, w, h int, o *Options) *Image {
	t.Helper()
	img, err := New(encodeJPEG(t, makeTestImage(w, h)), o)
	if err != nil {
		t.Fatal(err)
	}
	return img
}

func TestNotJPEG(t *testing.T) {
	_, err := New([]byte("definitely not a jpeg"), nil)
	var fe codec.FormatError
	if !errors.As(err, &fe) {
		t.Fatal("expected FormatError, got", err)
	}
	var ce *CodecError
	if !errors.As(err, &ce) || ce.Op != "read header" {
		t.Fatal("expected CodecError, got", err)
	}
}

func TestProgressiveUnsupported(t *testing.T) {
	data := encodeJPEG(t, makeTestImage(16, 16))
	sof := bytes.Index(data, []byte{0xff, 0xc0})
	if sof < 0 {
		t.Fatal("no SOF0 marker")
	}
	data[sof+1] = 0xc2
	_, err := New(data, nil)
	var ue codec.UnsupportedError
	if !errors.As(err, &ue) {
		t.Fatal("expected UnsupportedError, got", err)
	}
}

func TestGeometry(t *testing.T) {
	img := openTestImage(t, 37, 29, nil)
	defer img.Close()
	if img.ComponentCount() != 3 || img.Width() != 37 || img.Height() != 29 {
		t.Fatalf("unexpected geometry: %d components, %dx%d", img.ComponentCount(), img.Width(), img.Height())
	}
	luma, err := img.Component(0)
	if err != nil {
		t.Fatal(err)
	}
	if luma.WidthInBlocks() != 5 || luma.HeightInBlocks() != 4 {
		t.Fatalf("expected 5x4 luma blocks, got %dx%d", luma.WidthInBlocks(), luma.HeightInBlocks())
	}
	if luma.DownsampledWidth() != 37 || luma.DownsampledHeight() != 29 {
		t.Fatal("luma should not be downsampled")
	}
	chroma, err := img.Component(1)
	if err != nil {
		t.Fatal(err)
	}
	if chroma.DownsampledWidth() != 19 || chroma.DownsampledHeight() != 15 {
		t.Fatalf("expected 19x15 chroma samples, got %dx%d", chroma.DownsampledWidth(), chroma.DownsampledHeight())
	}
	if chroma.WidthInBlocks() != 3 || chroma.HeightInBlocks() != 2 {
		t.Fatalf("expected 3x2 chroma blocks, got %dx%d", chroma.WidthInBlocks(), chroma.HeightInBlocks())
	}
	coefs, err := img.Coefficients(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(coefs) != 2 || len(coefs[0]) != 3 {
		t.Fatal("coefficient view not trimmed to the component")
	}
	acc, err := img.Accessor()
	if err != nil {
		t.Fatal(err)
	}
	if acc.Len() != (5*4+2*3*2)*BlockSize {
		t.Fatal("unexpected coefficient count", acc.Len())
	}
}

func TestComponentIndexPanics(t *testing.T) {
	img := openTestImage(t, 16, 16, nil)
	defer img.Close()
	defer func() {
		ie, ok := recover().(IndexError)
		if !ok || ie.Index != 3 || ie.Length != 3 {
			t.Fatal("expected IndexError, got", ie)
		}
	}()
	img.Coefficients(3)
}

func TestWriteNewZeroes(t *testing.T) {
	img := openTestImage(t, 40, 24, nil)
	defer img.Close()
	acc, err := img.Accessor()
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < acc.Len(); i++ {
		acc.SetCoefficient(i, 0)
	}
	out, err := img.WriteNew()
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()
	if _, err := jpeg.Decode(bytes.NewReader(out.Data())); err != nil {
		t.Fatal("image/jpeg rejected the output:", err)
	}
	outAcc, err := out.Accessor()
	if err != nil {
		t.Fatal(err)
	}
	if outAcc.Len() != acc.Len() {
		t.Fatal("coefficient count changed")
	}
	for i := 0; i < outAcc.Len(); i++ {
		if outAcc.Coefficient(i) != 0 {
			t.Fatalf("coefficient %d is %d, expected 0", i, outAcc.Coefficient(i))
		}
	}
	if outAcc.UsableCoefficientCount() != 0 {
		t.Fatal("expected no usable coefficients")
	}
}

func TestWriteNewPreservesEdits(t *testing.T) {
	img := openTestImage(t, 48, 32, nil)
	defer img.Close()
	acc, err := img.Accessor()
	if err != nil {
		t.Fatal(err)
	}
	usables := acc.UsableCoefficients()
	if len(usables) == 0 {
		t.Fatal("no usable coefficients")
	}
	// Flip the low bit of every tenth usable coefficient.
	want := make([]int16, acc.Len())
	for i := range want {
		want[i] = acc.Coefficient(i)
	}
	for j := 0; j < len(usables); j += 10 {
		i := usables[j]
		v := want[i] ^ 1
		if v == 0 {
			v = 2
		}
		want[i] = v
		acc.SetCoefficient(i, v)
	}

	out, err := img.WriteNew()
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()
	outAcc, err := out.Accessor()
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range want {
		if outAcc.Coefficient(i) != v {
			t.Fatalf("coefficient %d: expected %d, got %d", i, v, outAcc.Coefficient(i))
		}
	}
	// The usable list was computed before editing, so it carries over
	// unchanged.
	got := outAcc.UsableCoefficients()
	if len(got) != len(usables) {
		t.Fatal("usable coefficients were not adopted")
	}
	for i := range got {
		if got[i] != usables[i] {
			t.Fatal("usable coefficients were not adopted")
		}
	}
}

func TestCrop(t *testing.T) {
	img := openTestImage(t, 64, 48, nil)
	defer img.Close()
	out, err := img.Crop(8, 16)
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()
	if out.Width() != 56 || out.Height() != 32 {
		t.Fatalf("expected 56x32, got %dx%d", out.Width(), out.Height())
	}
	if out.ComponentCount() != img.ComponentCount() {
		t.Fatal("component count changed")
	}
	std, err := jpeg.Decode(bytes.NewReader(out.Data()))
	if err != nil {
		t.Fatal("image/jpeg rejected the output:", err)
	}
	if b := std.Bounds(); b.Dx() != 56 || b.Dy() != 32 {
		t.Fatal("image/jpeg disagrees about the cropped size")
	}

	for _, off := range [][2]int{{-1, 0}, {0, -1}, {64, 0}, {0, 48}} {
		if _, err := img.Crop(off[0], off[1]); err != ErrCropOffset {
			t.Fatalf("Crop(%d, %d): expected ErrCropOffset, got %v", off[0], off[1], err)
		}
	}
}

func TestCropAfterCoefficients(t *testing.T) {
	img := openTestImage(t, 32, 32, nil)
	defer img.Close()
	if _, err := img.Accessor(); err != nil {
		t.Fatal(err)
	}
	out, err := img.Crop(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	out.Close()
	// The accessor refetches after the crop pass.
	acc, err := img.Accessor()
	if err != nil {
		t.Fatal(err)
	}
	_ = acc.Coefficient(0)
}

// decodedBlockiness measures img by decoding it directly.
func decodedBlockiness(t *testing.T, data []byte) int {
	t.Helper()
	d := codec.NewDecoder()
	if err := d.SetSource(data); err != nil {
		t.Fatal(err)
	}
	if err := d.ReadHeader(); err != nil {
		t.Fatal(err)
	}
	if err := d.StartDecompress(); err != nil {
		t.Fatal(err)
	}
	comps := d.OutputComponents()
	stride := d.OutputWidth() * comps
	acc := blockiness.NewAccumulator(comps, stride)
	row := [][]byte{make([]byte, stride)}
	for d.OutputScanline() < d.OutputHeight() {
		if _, err := d.ReadScanlines(row); err != nil {
			t.Fatal(err)
		}
		acc.Add(row)
	}
	return acc.Total()
}

func TestBlockiness(t *testing.T) {
	img := openTestImage(t, 45, 37, nil)
	defer img.Close()
	b, err := img.Blockiness()
	if err != nil {
		t.Fatal(err)
	}
	if b <= 0 {
		t.Fatal("expected positive blockiness, got", b)
	}
	if exp := decodedBlockiness(t, img.Data()); b != exp {
		t.Fatalf("expected %d, got %d", exp, b)
	}
	// Interleaving other passes must not change the result.
	if _, err := img.Coefficients(0); err != nil {
		t.Fatal(err)
	}
	if b2, err := img.Blockiness(); err != nil || b2 != b {
		t.Fatal("blockiness changed between calls:", b, b2, err)
	}
}

func TestClosed(t *testing.T) {
	img := openTestImage(t, 16, 16, nil)
	if err := img.Close(); err != nil {
		t.Fatal(err)
	}
	if err := img.Close(); err != nil {
		t.Fatal("second Close failed:", err)
	}
	if _, err := img.Coefficients(0); err != ErrClosed {
		t.Fatal("expected ErrClosed, got", err)
	}
	if _, err := img.Component(0); err != ErrClosed {
		t.Fatal("expected ErrClosed, got", err)
	}
	if _, err := img.Accessor(); err != ErrClosed {
		t.Fatal("expected ErrClosed, got", err)
	}
	if _, err := img.WriteNew(); err != ErrClosed {
		t.Fatal("expected ErrClosed, got", err)
	}
	if _, err := img.Crop(1, 1); err != ErrClosed {
		t.Fatal("expected ErrClosed, got", err)
	}
	if _, err := img.Blockiness(); err != ErrClosed {
		t.Fatal("expected ErrClosed, got", err)
	}
	if _, err := img.ReciprocalROB(); err != ErrClosed {
		t.Fatal("expected ErrClosed, got", err)
	}
}

func TestMaxOutputSize(t *testing.T) {
	img := openTestImage(t, 64, 64, &Options{MaxOutputSize: 200})
	defer img.Close()
	_, err := img.WriteNew()
	var ae *codec.AllocationError
	if !errors.As(err, &ae) || ae.Limit != 200 {
		t.Fatal("expected AllocationError, got", err)
	}
	_, err = img.Crop(4, 4)
	if !errors.As(err, &ae) {
		t.Fatal("expected AllocationError, got", err)
	}
	// The Image stays usable after a failed pass.
	if _, err := img.Blockiness(); err != nil {
		t.Fatal(err)
	}
	if _, err := img.Accessor(); err != nil {
		t.Fatal(err)
	}
}
