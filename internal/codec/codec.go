// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package codec is a baseline JPEG codec that keeps the quantized DCT
// coefficients of an image addressable. A Decoder parses headers, exposes
// per-component block arrays and decodes interleaved sample rows; an Encoder
// writes either block arrays or sample rows back out as a new JPEG stream.
//
// Both halves are small state machines. Calling an operation out of sequence
// is reported as a *StateError rather than corrupting internal state.
package codec

import "fmt"

const blockSize = 64 // A DCT block is 8x8.

// Block holds the quantized coefficients of one 8x8 block in natural
// (row-major) order. Index 0 is the DC coefficient.
type Block [blockSize]int16

// BlockArray holds the blocks of one component, indexed [row][col].
type BlockArray [][]Block

// NewBlockArray allocates a zeroed rows by cols array backed by one slice.
func NewBlockArray(rows, cols int) BlockArray {
	backing := make([]Block, rows*cols)
	ba := make(BlockArray, rows)
	for i := range ba {
		ba[i] = backing[i*cols : (i+1)*cols : (i+1)*cols]
	}
	return ba
}

const (
	sof0Marker = 0xc0 // Start Of Frame (Baseline Sequential).
	sof1Marker = 0xc1 // Start Of Frame (Extended Sequential).
	sof2Marker = 0xc2 // Start Of Frame (Progressive).
	sof3Marker = 0xc3 // Start Of Frame (Lossless).
	dhtMarker  = 0xc4 // Define Huffman Table.
	dacMarker  = 0xcc // Define Arithmetic Coding conditioning.
	rst0Marker = 0xd0 // ReSTart (0).
	rst7Marker = 0xd7 // ReSTart (7).
	soiMarker  = 0xd8 // Start Of Image.
	eoiMarker  = 0xd9 // End Of Image.
	sosMarker  = 0xda // Start Of Scan.
	dqtMarker  = 0xdb // Define Quantization Table.
	driMarker  = 0xdd // Define Restart Interval.
	comMarker  = 0xfe // COMment.
	// "APPlication specific" markers aren't part of the JPEG spec per se,
	// but in practice, their use is described at
	// https://www.sno.phy.queensu.ca/~phil/exiftool/TagNames/JPEG.html
	app0Marker  = 0xe0
	app14Marker = 0xee
	app15Marker = 0xef
)

const (
	dcTable = 0
	acTable = 1
	maxTc   = 1
	maxTh   = 3
	maxTq   = 3

	maxComponents = 4
)

// See https://www.sno.phy.queensu.ca/~phil/exiftool/TagNames/JPEG.html#Adobe
const (
	adobeTransformUnknown = 0
	adobeTransformYCbCr   = 1
	adobeTransformYCbCrK  = 2
)

// unzig maps from the zig-zag ordering to the natural ordering. For example,
// unzig[3] is the column and row of the fourth element in zig-zag order. The
// value is 16, which means first column (16%8 == 0) and third row (16/8 == 2).
var unzig = [blockSize]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

// ColorSpace identifies how the components of an image are to be
// interpreted.
type ColorSpace int

// Supported color spaces.
const (
	UnknownColorSpace ColorSpace = iota
	Grayscale
	YCbCr
	RGB
	CMYK
	YCCK
)

func (cs ColorSpace) String() string {
	switch cs {
	case Grayscale:
		return "grayscale"
	case YCbCr:
		return "YCbCr"
	case RGB:
		return "RGB"
	case CMYK:
		return "CMYK"
	case YCCK:
		return "YCCK"
	}
	return "unknown"
}

// output returns the color space that decoded rows are delivered in.
func (cs ColorSpace) output() ColorSpace {
	switch cs {
	case YCbCr, RGB:
		return RGB
	case CMYK, YCCK:
		return CMYK
	}
	return cs
}

// ComponentInfo describes the geometry of one component.
type ComponentInfo struct {
	ID    uint8 // Component identifier.
	Index int   // 0-based position in the frame header.
	H, V  int   // Sampling factors.
	Tq    uint8 // Quantization table destination selector.

	WidthInBlocks, HeightInBlocks       int
	DownsampledWidth, DownsampledHeight int
}

// component is the codec-internal view of a ComponentInfo.
type component struct {
	h  int   // Horizontal sampling factor.
	v  int   // Vertical sampling factor.
	c  uint8 // Component identifier.
	tq uint8 // Quantization table destination selector.
}

// frame holds the geometry shared by the decoder and encoder.
type frame struct {
	width, height int
	nComp         int
	comp          [maxComponents]component
}

func (f *frame) maxSampling() (hmax, vmax int) {
	hmax, vmax = 1, 1
	for _, c := range f.comp[:f.nComp] {
		if c.h > hmax {
			hmax = c.h
		}
		if c.v > vmax {
			vmax = c.v
		}
	}
	return hmax, vmax
}

// mcus returns the number of MCUs across and down an interleaved scan.
func (f *frame) mcus() (mxx, myy int) {
	hmax, vmax := f.maxSampling()
	mxx = (f.width + 8*hmax - 1) / (8 * hmax)
	myy = (f.height + 8*vmax - 1) / (8 * vmax)
	return mxx, myy
}

func (f *frame) info(i int) ComponentInfo {
	c := f.comp[i]
	hmax, vmax := f.maxSampling()
	dw := (f.width*c.h + hmax - 1) / hmax
	dh := (f.height*c.v + vmax - 1) / vmax
	return ComponentInfo{
		ID:                c.c,
		Index:             i,
		H:                 c.h,
		V:                 c.v,
		Tq:                c.tq,
		WidthInBlocks:     (dw + 7) / 8,
		HeightInBlocks:    (dh + 7) / 8,
		DownsampledWidth:  dw,
		DownsampledHeight: dh,
	}
}

// allocBlocks allocates MCU-padded block arrays for every component.
func (f *frame) allocBlocks() []BlockArray {
	mxx, myy := f.mcus()
	arrays := make([]BlockArray, f.nComp)
	for i, c := range f.comp[:f.nComp] {
		rows, cols := myy*c.v, mxx*c.h
		if f.nComp == 1 {
			info := f.info(0)
			rows, cols = info.HeightInBlocks, info.WidthInBlocks
		}
		arrays[i] = NewBlockArray(rows, cols)
	}
	return arrays
}

// A FormatError reports that the input is not a valid JPEG.
type FormatError string

func (e FormatError) Error() string { return "invalid JPEG format: " + string(e) }

// An UnsupportedError reports that the input uses a valid but unimplemented
// JPEG feature.
type UnsupportedError string

func (e UnsupportedError) Error() string { return "unsupported JPEG feature: " + string(e) }

// A StateError reports a call made while the codec was in a state that does
// not permit it.
type StateError struct {
	Op    string
	State int
}

func (e *StateError) Error() string {
	return fmt.Sprintf("improper call to %s in state %d", e.Op, e.State)
}

// An AllocationError reports that a Destination could not grow to hold the
// encoded image.
type AllocationError struct {
	Requested int
	Limit     int
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("output buffer of %d bytes exceeds limit of %d bytes", e.Requested, e.Limit)
}
