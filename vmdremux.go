// Package vmdremux merges two Sierra VMD container files: an original
// holding timing, audio chunks and the table of contents, and an
// intermediate file holding re-encoded video payloads and palettes. The
// result is a container structurally identical to the original whose video
// content comes from the intermediate source.
//
// Example usage:
//
//	err := vmdremux.Merge("movie.vmd", "movie.ivf", "final.vmd", vmdremux.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
package vmdremux

import (
	"github.com/bitstreamlab/vmdremux/internal/merge"
	"github.com/bitstreamlab/vmdremux/internal/vmd"
)

// Options tunes a single merge run.
type Options = merge.Options

// Errors returned by Merge, checkable with errors.Is.
var (
	// ErrMissingInput indicates an input path does not exist.
	ErrMissingInput = vmd.ErrMissingInput

	// ErrMalformedInput indicates a header or table-of-contents field
	// implies reads beyond the available data.
	ErrMalformedInput = vmd.ErrMalformedInput
)

// Merge merges the original container at origPath with the intermediate
// frame stream at interPath and writes the result to outPath. Any error
// aborts the run; the output file is only valid after a nil return.
func Merge(origPath, interPath, outPath string, opts Options) error {
	return merge.MergeFiles(origPath, interPath, outPath, opts)
}
