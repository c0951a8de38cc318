package merge

import (
	"errors"
	"fmt"
	"os"

	"github.com/bitstreamlab/vmdremux/internal/vmd"
)

// MergeFiles opens the three container files and runs Merge. Handles are
// closed on every exit path. On failure the output file is left behind in
// whatever partial state the run reached; it is only valid after a nil
// return.
func MergeFiles(origPath, interPath, outPath string, opts Options) error {
	orig, err := openInput(origPath)
	if err != nil {
		return err
	}
	defer orig.Close()

	inter, err := openInput(interPath)
	if err != nil {
		return err
	}
	defer inter.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer out.Close()

	if err := Merge(orig, inter, out, opts); err != nil {
		return err
	}
	return out.Sync()
}

// openInput opens a file for reading, mapping absence onto ErrMissingInput
// so callers can report it before anything else goes wrong.
func openInput(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("can't find %s: %w", path, vmd.ErrMissingInput)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
