package stegosaurus

import (
	"image"
	"testing"
)

func TestReciprocalROB(t *testing.T) {
	img := openTestImage(t, 67, 53, nil)
	defer img.Close()
	r, err := img.ReciprocalROB()
	if err != nil {
		t.Fatal(err)
	}
	if r <= 0 {
		t.Fatal("expected positive ratio, got", r)
	}

	// Same ratio when cropping and measuring by hand.
	orig, err := img.Blockiness()
	if err != nil {
		t.Fatal(err)
	}
	cropped, err := img.Crop(robOffset, robOffset)
	if err != nil {
		t.Fatal(err)
	}
	defer cropped.Close()
	cb, err := cropped.Blockiness()
	if err != nil {
		t.Fatal(err)
	}
	if exp := float64(cb) / float64(orig); r != exp {
		t.Fatalf("expected %v, got %v", exp, r)
	}

	// And the same ratio again, with the original bytes still bound.
	if r2, err := img.ReciprocalROB(); err != nil || r2 != r {
		t.Fatal("ratio changed between calls:", r, r2, err)
	}
	if b, err := img.Blockiness(); err != nil || b != orig {
		t.Fatal("decoder was not rebound to the original image:", b, orig, err)
	}
}

func TestReciprocalROBSmallBatches(t *testing.T) {
	img := openTestImage(t, 40, 40, nil)
	defer img.Close()
	r1, err := img.ReciprocalROB()
	if err != nil {
		t.Fatal(err)
	}
	small := openTestImage(t, 40, 40, &Options{BatchRows: 3})
	defer small.Close()
	r2, err := small.ReciprocalROB()
	if err != nil {
		t.Fatal(err)
	}
	if r1 != r2 {
		t.Fatalf("batch size changed the ratio: %v vs %v", r1, r2)
	}
}

func TestReciprocalROBFlat(t *testing.T) {
	flat := image.NewGray(image.Rect(0, 0, 32, 32))
	for i := range flat.Pix {
		flat.Pix[i] = 77
	}
	img, err := New(encodeJPEG(t, flat), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer img.Close()
	r, err := img.ReciprocalROB()
	if err != nil {
		t.Fatal(err)
	}
	if r != 1 {
		t.Fatal("expected 1 for an image without blockiness, got", r)
	}
}

func TestReciprocalROBTooSmall(t *testing.T) {
	for _, dims := range [][2]int{{4, 32}, {32, 4}} {
		img := openTestImage(t, dims[0], dims[1], nil)
		if _, err := img.ReciprocalROB(); err != ErrCropOffset {
			t.Fatalf("%dx%d: expected ErrCropOffset, got %v", dims[0], dims[1], err)
		}
		img.Close()
	}
}

func makeSmoothImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i+0] = uint8(x * 4)
			img.Pix[i+1] = uint8(y * 4)
			img.Pix[i+2] = uint8((x + y) * 2)
			img.Pix[i+3] = 255
		}
	}
	return img
}

// Embedding in every usable coefficient must not raise the score.
func TestReciprocalROBEmbeddingLowersScore(t *testing.T) {
	for _, src := range []image.Image{makeTestImage(64, 64), makeSmoothImage(64, 64)} {
		img, err := New(encodeJPEG(t, src), nil)
		if err != nil {
			t.Fatal(err)
		}
		clean, err := img.ReciprocalROB()
		if err != nil {
			t.Fatal(err)
		}
		acc, err := img.Accessor()
		if err != nil {
			t.Fatal(err)
		}
		for _, i := range acc.UsableCoefficients() {
			v := acc.Coefficient(i) ^ 1
			if v == 0 {
				v = 2
			}
			acc.SetCoefficient(i, v)
		}
		stego, err := img.WriteNew()
		if err != nil {
			t.Fatal(err)
		}
		dirty, err := stego.ReciprocalROB()
		if err != nil {
			t.Fatal(err)
		}
		if dirty > clean {
			t.Fatalf("embedding raised the score: clean %v, stego %v", clean, dirty)
		}
		stego.Close()
		img.Close()
	}
}
