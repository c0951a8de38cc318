package vmd

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// preambleOffset is where the intermediate muxer places the frame count and
// the initial palette, right after its signature string.
const preambleOffset = 0x18

// Palette is one 256-entry, 3-channel color table. It is moved around as an
// opaque blob and never interpreted.
type Palette [PaletteSize]byte

// IntermediateReader consumes an intermediate frame stream: a frame count
// and initial palette at a fixed offset, then for every video frame a
// palette, a dirty rectangle, a payload size, and the payload itself, all
// strictly sequential.
type IntermediateReader struct {
	r          *bufio.Reader
	frameCount uint32
	initial    Palette
}

// NewIntermediateReader positions rs at the preamble and reads the frame
// count and the initial palette. Subsequent reads are sequential.
func NewIntermediateReader(rs io.ReadSeeker) (*IntermediateReader, error) {
	if _, err := rs.Seek(preambleOffset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek intermediate preamble: %w", err)
	}
	ir := &IntermediateReader{r: bufio.NewReaderSize(rs, 64*1024)}

	var buf [4 + PaletteSize]byte
	if _, err := io.ReadFull(ir.r, buf[:]); err != nil {
		return nil, fmt.Errorf("read intermediate preamble: %w", malformed(err))
	}
	ir.frameCount = binary.LittleEndian.Uint32(buf[:4])
	copy(ir.initial[:], buf[4:])
	return ir, nil
}

// FrameCount returns the number of video frames the stream declares.
func (ir *IntermediateReader) FrameCount() uint32 {
	return ir.frameCount
}

// InitialPalette returns the palette embedded in the preamble.
func (ir *IntermediateReader) InitialPalette() Palette {
	return ir.initial
}

// ReadPalette reads the next per-frame palette.
func (ir *IntermediateReader) ReadPalette() (Palette, error) {
	var p Palette
	if _, err := io.ReadFull(ir.r, p[:]); err != nil {
		return Palette{}, fmt.Errorf("read frame palette: %w", malformed(err))
	}
	return p, nil
}

// ReadFrameHeader reads the next frame's dirty rectangle and payload size.
func (ir *IntermediateReader) ReadFrameHeader() (Rect, uint32, error) {
	var buf [12]byte
	if _, err := io.ReadFull(ir.r, buf[:]); err != nil {
		return Rect{}, 0, fmt.Errorf("read frame header: %w", malformed(err))
	}
	rect := Rect{
		Left:   binary.LittleEndian.Uint16(buf[0:2]),
		Top:    binary.LittleEndian.Uint16(buf[2:4]),
		Right:  binary.LittleEndian.Uint16(buf[4:6]),
		Bottom: binary.LittleEndian.Uint16(buf[6:8]),
	}
	size := binary.LittleEndian.Uint32(buf[8:12])
	return rect, size, nil
}

// CopyPayload streams exactly size payload bytes to w.
func (ir *IntermediateReader) CopyPayload(w io.Writer, size uint32) error {
	if _, err := io.CopyN(w, ir.r, int64(size)); err != nil {
		return fmt.Errorf("copy frame payload: %w", malformed(err))
	}
	return nil
}
