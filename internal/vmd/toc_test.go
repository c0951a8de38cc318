package vmd

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

// encodeTables hand-encodes both tables so read and write are checked
// against an independent layout, not against each other.
func encodeTables(blocks []BlockRecord, frames []FrameRecord) []byte {
	var buf bytes.Buffer
	for _, b := range blocks {
		buf.Write(b.Reserved[:])
		binary.Write(&buf, binary.LittleEndian, b.Offset)
	}
	for _, f := range frames {
		buf.WriteByte(f.Type)
		buf.WriteByte(f.Reserved0)
		binary.Write(&buf, binary.LittleEndian, f.Length)
		binary.Write(&buf, binary.LittleEndian, f.Rect.Left)
		binary.Write(&buf, binary.LittleEndian, f.Rect.Top)
		binary.Write(&buf, binary.LittleEndian, f.Rect.Right)
		binary.Write(&buf, binary.LittleEndian, f.Rect.Bottom)
		buf.WriteByte(f.Reserved1)
		buf.WriteByte(f.NewPalette)
	}
	return buf.Bytes()
}

func TestReadTables(t *testing.T) {
	blocks := []BlockRecord{
		{Reserved: [2]byte{0xAA, 0xBB}, Offset: 816},
		{Reserved: [2]byte{0xCC, 0xDD}, Offset: 900},
	}
	frames := []FrameRecord{
		{Type: 1, Reserved0: 7, Length: 10, Reserved1: 9},
		{Type: FrameTypeVideo, Length: 64, Rect: Rect{1, 2, 3, 4}, NewPalette: 1},
		{Type: 1, Length: 20},
		{Type: FrameTypeVideo, Length: 32, Rect: Rect{0, 0, 280, 218}},
	}

	payloadEnd := uint32(HeaderSize + 126)
	container := testHeaderBytes(2, 2, payloadEnd)
	container = append(container, make([]byte, 126)...)
	container = append(container, encodeTables(blocks, frames)...)

	rs := bytes.NewReader(container)
	h, err := ReadHeader(rs)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	gotBlocks, gotFrames, err := ReadTables(rs, h)
	if err != nil {
		t.Fatalf("ReadTables returned error: %v", err)
	}

	if len(gotBlocks) != len(blocks) {
		t.Fatalf("got %d blocks, want %d", len(gotBlocks), len(blocks))
	}
	for i := range blocks {
		if gotBlocks[i] != blocks[i] {
			t.Errorf("block %d = %+v, want %+v", i, gotBlocks[i], blocks[i])
		}
	}
	if len(gotFrames) != len(frames) {
		t.Fatalf("got %d frames, want %d", len(gotFrames), len(frames))
	}
	for i := range frames {
		if gotFrames[i] != frames[i] {
			t.Errorf("frame %d = %+v, want %+v", i, gotFrames[i], frames[i])
		}
	}

	// The stream must be positioned just past the header so payload reads
	// can resume sequentially.
	pos, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		t.Fatalf("seek: %v", err)
	}
	if pos != HeaderSize {
		t.Errorf("stream position after ReadTables = %d, want %d", pos, HeaderSize)
	}
}

func TestReadTablesTruncated(t *testing.T) {
	// Header declares two blocks but the file ends inside the block table.
	container := testHeaderBytes(2, 2, HeaderSize)
	container = append(container, make([]byte, BlockRecordSize)...)

	rs := bytes.NewReader(container)
	h, err := ReadHeader(rs)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if _, _, err := ReadTables(rs, h); !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("ReadTables error = %v, want ErrMalformedInput", err)
	}
}

func TestWriteTables(t *testing.T) {
	blocks := []BlockRecord{{Reserved: [2]byte{1, 2}, Offset: 1234}}
	frames := []FrameRecord{
		{Type: FrameTypeVideo, Reserved0: 3, Length: 770, Rect: Rect{5, 6, 7, 8}, Reserved1: 4, NewPalette: 2},
	}

	var out bytes.Buffer
	if err := WriteTables(&out, blocks, frames); err != nil {
		t.Fatalf("WriteTables returned error: %v", err)
	}
	want := encodeTables(blocks, frames)
	if !bytes.Equal(out.Bytes(), want) {
		t.Errorf("WriteTables output = % x, want % x", out.Bytes(), want)
	}
}
