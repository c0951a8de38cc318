package vmd

import (
	"encoding/binary"
	"fmt"
	"io"
)

// BlockRecord is one entry of the block table. A block groups FramesPerBlock
// consecutive frames; Offset is the absolute position of the block's first
// frame payload. The two reserved bytes are carried verbatim.
type BlockRecord struct {
	Reserved [2]byte
	Offset   uint32
}

// Rect is the dirty rectangle of a video frame.
type Rect struct {
	Left   uint16
	Top    uint16
	Right  uint16
	Bottom uint16
}

// FrameRecord is one entry of the frame table. Length is the byte length of
// the frame's payload as stored in the file. NewPalette is non-zero when a
// video frame introduces a replacement palette. Reserved bytes are carried
// verbatim.
type FrameRecord struct {
	Type       uint8
	Reserved0  byte
	Length     uint32
	Rect       Rect
	Reserved1  byte
	NewPalette uint8
}

// IsVideo reports whether the frame carries video and is subject to
// replacement during a merge.
func (f *FrameRecord) IsVideo() bool {
	return f.Type == FrameTypeVideo
}

// ReadTables reads the block table and the frame table from the position the
// header declares, then restores the stream position to just past the header
// so payload reading can resume sequentially. Counts that imply a read past
// end-of-file surface as ErrMalformedInput.
func ReadTables(rs io.ReadSeeker, h Header) ([]BlockRecord, []FrameRecord, error) {
	if _, err := rs.Seek(int64(h.TocOffset), io.SeekStart); err != nil {
		return nil, nil, fmt.Errorf("seek toc: %w", err)
	}

	blockBuf := make([]byte, int(h.BlockCount)*BlockRecordSize)
	if _, err := io.ReadFull(rs, blockBuf); err != nil {
		return nil, nil, fmt.Errorf("read block table: %w", malformed(err))
	}
	frameBuf := make([]byte, h.FrameCount()*FrameRecordSize)
	if _, err := io.ReadFull(rs, frameBuf); err != nil {
		return nil, nil, fmt.Errorf("read frame table: %w", malformed(err))
	}

	blocks := make([]BlockRecord, h.BlockCount)
	for i := range blocks {
		rec := blockBuf[i*BlockRecordSize:]
		copy(blocks[i].Reserved[:], rec[0:2])
		blocks[i].Offset = binary.LittleEndian.Uint32(rec[2:6])
	}

	frames := make([]FrameRecord, h.FrameCount())
	for i := range frames {
		rec := frameBuf[i*FrameRecordSize:]
		frames[i] = FrameRecord{
			Type:      rec[0],
			Reserved0: rec[1],
			Length:    binary.LittleEndian.Uint32(rec[2:6]),
			Rect: Rect{
				Left:   binary.LittleEndian.Uint16(rec[6:8]),
				Top:    binary.LittleEndian.Uint16(rec[8:10]),
				Right:  binary.LittleEndian.Uint16(rec[10:12]),
				Bottom: binary.LittleEndian.Uint16(rec[12:14]),
			},
			Reserved1:  rec[14],
			NewPalette: rec[15],
		}
	}

	if _, err := rs.Seek(HeaderSize, io.SeekStart); err != nil {
		return nil, nil, fmt.Errorf("seek past header: %w", err)
	}
	return blocks, frames, nil
}

// WriteTables serializes both tables at the stream's current position, in
// the same order and encoding ReadTables expects.
func WriteTables(w io.Writer, blocks []BlockRecord, frames []FrameRecord) error {
	buf := make([]byte, 0, len(blocks)*BlockRecordSize+len(frames)*FrameRecordSize)
	for i := range blocks {
		buf = append(buf, blocks[i].Reserved[:]...)
		buf = binary.LittleEndian.AppendUint32(buf, blocks[i].Offset)
	}
	for i := range frames {
		f := &frames[i]
		buf = append(buf, f.Type, f.Reserved0)
		buf = binary.LittleEndian.AppendUint32(buf, f.Length)
		buf = binary.LittleEndian.AppendUint16(buf, f.Rect.Left)
		buf = binary.LittleEndian.AppendUint16(buf, f.Rect.Top)
		buf = binary.LittleEndian.AppendUint16(buf, f.Rect.Right)
		buf = binary.LittleEndian.AppendUint16(buf, f.Rect.Bottom)
		buf = append(buf, f.Reserved1, f.NewPalette)
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write tables: %w", err)
	}
	return nil
}
