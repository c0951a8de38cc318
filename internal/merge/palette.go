package merge

import (
	"fmt"
	"io"

	"github.com/bitstreamlab/vmdremux/internal/vmd"
)

// paletteChunkSize is what a spliced palette adds to a frame's stored
// length: a 2-byte marker plus the palette itself.
const paletteChunkSize = 2 + vmd.PaletteSize

// paletteMarker precedes every palette chunk spliced into the stream
// mid-file. The initial palette inside the header carries no marker.
var paletteMarker = [2]byte{0x00, 0xFF}

// PaletteSplicer tracks the palette slot most recently reserved in the
// output and the palette bytes that will eventually fill it. A slot's final
// content is only known once a later frame (or the end of the stream)
// supplies the next palette, so slots are patched retroactively with a
// seek-write-seek-back that leaves the forward write position untouched.
type PaletteSplicer struct {
	pending vmd.Palette
	slot    int64
}

// NewPaletteSplicer seeds the splicer with the stream's first palette and
// the fixed slot it occupies, which sits inside the already-written header.
func NewPaletteSplicer(initial vmd.Palette, slot int64) *PaletteSplicer {
	return &PaletteSplicer{pending: initial, slot: slot}
}

// Stage records pal as the palette that will fill the currently reserved
// slot when the next splice or Finalize flushes it.
func (p *PaletteSplicer) Stage(pal vmd.Palette) {
	p.pending = pal
}

// Splice flushes the pending palette into its reserved slot, then reserves
// a new slot at the current forward position: the 2-byte marker followed by
// a palette-sized placeholder. Only the marker and placeholder advance the
// stream. Returns the byte count the caller must add to the frame's
// recorded length.
func (p *PaletteSplicer) Splice(out io.WriteSeeker) (uint32, error) {
	if err := p.flush(out); err != nil {
		return 0, err
	}
	if _, err := out.Write(paletteMarker[:]); err != nil {
		return 0, fmt.Errorf("write palette marker: %w", err)
	}
	slot, err := out.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("locate palette slot: %w", err)
	}
	p.slot = slot
	// The placeholder bytes are the palette just flushed; the real content
	// arrives with a later Stage and is patched in by the next flush.
	if _, err := out.Write(p.pending[:]); err != nil {
		return 0, fmt.Errorf("write palette placeholder: %w", err)
	}
	return paletteChunkSize, nil
}

// Finalize flushes the pending palette into its reserved slot. It must run
// once after the last frame: no later splice exists to flush the final
// palette.
func (p *PaletteSplicer) Finalize(out io.WriteSeeker) error {
	return p.flush(out)
}

// flush writes the pending palette into the reserved slot and restores the
// forward write position.
func (p *PaletteSplicer) flush(out io.WriteSeeker) error {
	cur, err := out.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("locate write position: %w", err)
	}
	if _, err := out.Seek(p.slot, io.SeekStart); err != nil {
		return fmt.Errorf("seek palette slot: %w", err)
	}
	if _, err := out.Write(p.pending[:]); err != nil {
		return fmt.Errorf("flush palette: %w", err)
	}
	if _, err := out.Seek(cur, io.SeekStart); err != nil {
		return fmt.Errorf("restore write position: %w", err)
	}
	return nil
}
