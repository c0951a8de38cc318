package vmd

import (
	"errors"
	"io"
)

// Errors returned by the container codecs. Callers check them with errors.Is.
var (
	// ErrMissingInput is returned when an input path does not exist.
	ErrMissingInput = errors.New("vmd: input file does not exist")

	// ErrMalformedInput is returned when header or table-of-contents fields
	// imply reads beyond the available data, or a declared length cannot
	// be satisfied.
	ErrMalformedInput = errors.New("vmd: malformed input")
)

// malformed maps short-read errors onto ErrMalformedInput. Other I/O errors
// pass through unchanged.
func malformed(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrMalformedInput
	}
	return err
}
