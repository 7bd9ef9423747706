package stegosaurus

import (
	"errors"
	"fmt"
)

var (
	// ErrCropOffset is returned when a crop offset falls outside the image.
	ErrCropOffset = errors.New("stegosaurus: crop offset outside image")
	// ErrCropRead is returned when the decoder stops delivering rows
	// mid-crop.
	ErrCropRead = errors.New("stegosaurus: no rows read while cropping")
	// ErrCropWrite is returned when the encoder accepts fewer rows than it
	// was given mid-crop.
	ErrCropWrite = errors.New("stegosaurus: short row write while cropping")
	// ErrClosed is returned by operations on a closed Image.
	ErrClosed = errors.New("stegosaurus: image is closed")
)

// A CodecError reports a failure of the underlying JPEG codec. Err is the
// codec's own error, which may be a FormatError, an UnsupportedError, a
// *StateError or an *AllocationError from the codec package.
type CodecError struct {
	Op  string
	Msg string
	Err error
}

func (e *CodecError) Error() string {
	return "stegosaurus: " + e.Op + ": " + e.Msg
}

func (e *CodecError) Unwrap() error { return e.Err }

func codecError(op string, err error) *CodecError {
	return &CodecError{Op: op, Msg: err.Error(), Err: err}
}

// An IndexError is the panic value for a coefficient or component index
// outside [0, Length).
type IndexError struct {
	Index  int
	Length int
}

func (e IndexError) Error() string {
	return fmt.Sprintf("stegosaurus: index %d out of range [0, %d)", e.Index, e.Length)
}
