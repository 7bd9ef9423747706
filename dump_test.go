package stegosaurus

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestDumpRoundTrip(t *testing.T) {
	img := openTestImage(t, 37, 29, nil)
	defer img.Close()
	acc, err := img.Accessor()
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := DumpCoefficients(&buf, acc); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadCoefficients(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != acc.Len() || len(loaded.Components()) != len(acc.Components()) {
		t.Fatal("dump changed the coefficient layout")
	}
	for i, c := range acc.Components() {
		l := loaded.Components()[i]
		if l.WidthInBlocks() != c.WidthInBlocks() || l.HeightInBlocks() != c.HeightInBlocks() ||
			l.DownsampledWidth() != c.DownsampledWidth() || l.DownsampledHeight() != c.DownsampledHeight() {
			t.Fatal("dump changed the geometry of component", i)
		}
	}
	for i := 0; i < acc.Len(); i++ {
		if loaded.Coefficient(i) != acc.Coefficient(i) {
			t.Fatalf("coefficient %d: expected %d, got %d", i, acc.Coefficient(i), loaded.Coefficient(i))
		}
	}
}

func TestLoadBadDump(t *testing.T) {
	enc, _ := zstd.NewWriter(nil)
	bad := enc.EncodeAll([]byte("JFIF and some other bytes"), nil)
	enc.Close()
	if _, err := LoadCoefficients(bytes.NewReader(bad)); err != ErrBadDump {
		t.Fatal("expected ErrBadDump, got", err)
	}

	// Degenerate and oversized geometry is rejected before anything is
	// allocated.
	for _, dims := range [][2]uint32{{0, 1 << 24}, {1 << 24, 0}, {1, 1 << 28}, {1 << 28, 1}, {1 << 12, 1 << 12}} {
		hdr := append([]byte(dumpMagic), dumpVersion, 1)
		hdr = binary.LittleEndian.AppendUint32(hdr, dims[0])
		hdr = binary.LittleEndian.AppendUint32(hdr, dims[1])
		hdr = binary.LittleEndian.AppendUint32(hdr, 8)
		hdr = binary.LittleEndian.AppendUint32(hdr, 8)
		enc, _ := zstd.NewWriter(nil)
		dump := enc.EncodeAll(hdr, nil)
		enc.Close()
		if _, err := LoadCoefficients(bytes.NewReader(dump)); err != ErrBadDump {
			t.Fatalf("%dx%d blocks: expected ErrBadDump, got %v", dims[0], dims[1], err)
		}
	}

	img := openTestImage(t, 16, 16, nil)
	defer img.Close()
	acc, err := img.Accessor()
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := DumpCoefficients(&buf, acc); err != nil {
		t.Fatal(err)
	}
	// Drop the tail of the compressed stream.
	if _, err := LoadCoefficients(bytes.NewReader(buf.Bytes()[:buf.Len()/2])); err == nil {
		t.Fatal("expected error for truncated dump")
	}
}
