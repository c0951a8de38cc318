// Package vmd reads and writes the on-disk structures of Sierra VMD
// containers: the fixed header, the block and frame tables, and the
// intermediate frame stream used to carry replacement video.
//
// All integers are little-endian. Payloads (video, audio, palettes) are
// treated as opaque bytes and never decoded.
package vmd

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Fixed sizes of the container's on-disk structures.
const (
	HeaderSize      = 0x330
	PaletteSize     = 768
	BlockRecordSize = 6
	FrameRecordSize = 16

	// HeaderPaletteOffset is where the initial palette lives inside the header.
	HeaderPaletteOffset = 28
)

// FrameTypeVideo marks frames whose payload is replaced during a merge.
// Every other type is passed through untouched.
const FrameTypeVideo = 2

// tocOffsetFieldPos is the byte position of the table-of-contents offset
// field inside the header.
const tocOffsetFieldPos = 812

// Header is the fixed 816-byte region at the start of a VMD container.
// The raw bytes are kept so the header can be copied verbatim into an
// output file; the parsed fields are the ones the merge and the inspector
// need.
type Header struct {
	raw [HeaderSize]byte

	BlockCount     uint16
	FramesPerBlock uint16
	TocOffset      uint32

	Width  uint16
	Height uint16

	SampleRate       uint16
	AudioFrameLength uint16
	SoundBuffers     uint16
}

// ReadHeader reads the fixed header from the start of a container stream.
// A short read is reported as ErrMalformedInput.
func ReadHeader(r io.Reader) (Header, error) {
	var h Header
	if _, err := io.ReadFull(r, h.raw[:]); err != nil {
		return Header{}, fmt.Errorf("read header: %w", malformed(err))
	}
	h.BlockCount = binary.LittleEndian.Uint16(h.raw[6:8])
	h.Width = binary.LittleEndian.Uint16(h.raw[12:14])
	h.Height = binary.LittleEndian.Uint16(h.raw[14:16])
	h.FramesPerBlock = binary.LittleEndian.Uint16(h.raw[18:20])
	h.SampleRate = binary.LittleEndian.Uint16(h.raw[804:806])
	h.AudioFrameLength = binary.LittleEndian.Uint16(h.raw[806:808])
	h.SoundBuffers = binary.LittleEndian.Uint16(h.raw[808:810])
	h.TocOffset = binary.LittleEndian.Uint32(h.raw[tocOffsetFieldPos : tocOffsetFieldPos+4])
	return h, nil
}

// WriteTo writes the header's raw bytes unchanged.
func (h *Header) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(h.raw[:])
	return int64(n), err
}

// FrameCount returns the total number of frame records declared by the header.
func (h *Header) FrameCount() int {
	return int(h.BlockCount) * int(h.FramesPerBlock)
}

// PatchTocOffset overwrites the table-of-contents offset field in a header
// already written to ws. The stream position is left just past the field.
// The real offset is only known after the last frame payload has been
// emitted, so this runs after the forward pass.
func PatchTocOffset(ws io.WriteSeeker, offset uint32) error {
	if _, err := ws.Seek(tocOffsetFieldPos, io.SeekStart); err != nil {
		return fmt.Errorf("seek toc offset field: %w", err)
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], offset)
	if _, err := ws.Write(buf[:]); err != nil {
		return fmt.Errorf("patch toc offset: %w", err)
	}
	return nil
}
