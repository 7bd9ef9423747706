package stegosaurus

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/lukechampine/stegosaurus/internal/codec"
)

// Coefficient dumps are zstd streams holding
//
//	"SCOF" | version | component count
//	per component: widthInBlocks, heightInBlocks, downsampledWidth,
//	               downsampledHeight (uint32, little-endian)
//	every coefficient in flat order (int16, little-endian)
const (
	dumpMagic   = "SCOF"
	dumpVersion = 1

	// maxDumpCoefficients bounds the allocation made for a loaded dump.
	maxDumpCoefficients = 1 << 28
)

// ErrBadDump is returned when a coefficient dump is malformed.
var ErrBadDump = errors.New("stegosaurus: malformed coefficient dump")

// DumpCoefficients writes every coefficient of acc to w as a compressed
// dump.
func DumpCoefficients(w io.Writer, acc *Accessor) error {
	enc, err := zstd.NewWriter(w,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		zstd.WithLowerEncoderMem(true),
	)
	if err != nil {
		return err
	}
	hdr := append([]byte(dumpMagic), dumpVersion, byte(len(acc.components)))
	for _, c := range acc.components {
		hdr = binary.LittleEndian.AppendUint32(hdr, uint32(c.widthInBlocks))
		hdr = binary.LittleEndian.AppendUint32(hdr, uint32(c.heightInBlocks))
		hdr = binary.LittleEndian.AppendUint32(hdr, uint32(c.downsampledWidth))
		hdr = binary.LittleEndian.AppendUint32(hdr, uint32(c.downsampledHeight))
	}
	if _, err := enc.Write(hdr); err != nil {
		enc.Close()
		return err
	}
	var row []byte
	for _, c := range acc.components {
		coefs, err := c.Coefficients()
		if err != nil {
			enc.Close()
			return err
		}
		for _, blocks := range coefs[:c.heightInBlocks] {
			row = row[:0]
			for _, b := range blocks[:c.widthInBlocks] {
				for _, v := range b {
					row = binary.LittleEndian.AppendUint16(row, uint16(v))
				}
			}
			if _, err := enc.Write(row); err != nil {
				enc.Close()
				return err
			}
		}
	}
	return enc.Close()
}

// LoadCoefficients reads a dump written by DumpCoefficients and returns an
// Accessor over array-backed copies of its components.
func LoadCoefficients(r io.Reader) (*Accessor, error) {
	dec, err := zstd.NewReader(r,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
	)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var hdr [len(dumpMagic) + 2]byte
	if _, err := io.ReadFull(dec, hdr[:]); err != nil {
		return nil, fmt.Errorf("reading dump header: %w", err)
	}
	if string(hdr[:len(dumpMagic)]) != dumpMagic {
		return nil, ErrBadDump
	}
	if v := hdr[len(dumpMagic)]; v != dumpVersion {
		return nil, fmt.Errorf("stegosaurus: unsupported dump version %d", v)
	}
	n := int(hdr[len(dumpMagic)+1])
	if n < 1 || n > 4 {
		return nil, ErrBadDump
	}

	geom := make([]byte, 16*n)
	if _, err := io.ReadFull(dec, geom); err != nil {
		return nil, fmt.Errorf("reading dump header: %w", err)
	}
	provider := make(ArrayProvider, n)
	components := make([]*Component, n)
	total := 0
	for i := range components {
		g := geom[16*i:]
		wb := int(binary.LittleEndian.Uint32(g[0:]))
		hb := int(binary.LittleEndian.Uint32(g[4:]))
		dw := int(binary.LittleEndian.Uint32(g[8:]))
		dh := int(binary.LittleEndian.Uint32(g[12:]))
		if wb == 0 || hb == 0 || wb > maxDumpCoefficients/BlockSize || hb > maxDumpCoefficients/BlockSize {
			return nil, ErrBadDump
		}
		total += wb * hb * BlockSize
		if total > maxDumpCoefficients {
			return nil, ErrBadDump
		}
		components[i] = NewComponent(wb, hb, dw, dh, i, provider)
		provider[i] = codec.NewBlockArray(hb, wb)
	}

	for i, c := range components {
		row := make([]byte, 2*BlockSize*c.widthInBlocks)
		for _, blocks := range provider[i] {
			if _, err := io.ReadFull(dec, row); err != nil {
				return nil, fmt.Errorf("reading component %d: %w", i, err)
			}
			for bx := range blocks {
				for k := range blocks[bx] {
					blocks[bx][k] = int16(binary.LittleEndian.Uint16(row[2*(bx*BlockSize+k):]))
				}
			}
		}
	}
	return NewAccessor(components...), nil
}
