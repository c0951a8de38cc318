package vmd

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func fillPalette(b byte) Palette {
	var p Palette
	for i := range p {
		p[i] = b
	}
	return p
}

// buildIntermediate assembles an intermediate stream: signature filler up to
// the preamble, frame count, initial palette, then per-frame data.
func buildIntermediate(frameCount uint32, initial Palette, frames []byte) []byte {
	buf := make([]byte, preambleOffset)
	copy(buf, "VMD Intermediate Frames")
	buf = binary.LittleEndian.AppendUint32(buf, frameCount)
	buf = append(buf, initial[:]...)
	return append(buf, frames...)
}

func TestIntermediateReader(t *testing.T) {
	pal := fillPalette(0x11)
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}

	var frame []byte
	framePal := fillPalette(0x22)
	frame = append(frame, framePal[:]...)
	for _, v := range []uint16{10, 20, 30, 40} {
		frame = binary.LittleEndian.AppendUint16(frame, v)
	}
	frame = binary.LittleEndian.AppendUint32(frame, uint32(len(payload)))
	frame = append(frame, payload...)

	ir, err := NewIntermediateReader(bytes.NewReader(buildIntermediate(1, pal, frame)))
	if err != nil {
		t.Fatalf("NewIntermediateReader returned error: %v", err)
	}
	if ir.FrameCount() != 1 {
		t.Errorf("FrameCount() = %d, want 1", ir.FrameCount())
	}
	if ir.InitialPalette() != pal {
		t.Error("InitialPalette() does not match the preamble palette")
	}

	got, err := ir.ReadPalette()
	if err != nil {
		t.Fatalf("ReadPalette returned error: %v", err)
	}
	if got != fillPalette(0x22) {
		t.Error("ReadPalette returned wrong palette")
	}

	rect, size, err := ir.ReadFrameHeader()
	if err != nil {
		t.Fatalf("ReadFrameHeader returned error: %v", err)
	}
	if rect != (Rect{10, 20, 30, 40}) {
		t.Errorf("rect = %+v, want {10 20 30 40}", rect)
	}
	if size != uint32(len(payload)) {
		t.Errorf("payload size = %d, want %d", size, len(payload))
	}

	var out bytes.Buffer
	if err := ir.CopyPayload(&out, size); err != nil {
		t.Fatalf("CopyPayload returned error: %v", err)
	}
	if !bytes.Equal(out.Bytes(), payload) {
		t.Errorf("payload = % x, want % x", out.Bytes(), payload)
	}
}

func TestIntermediateReaderTruncated(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"inside preamble", buildIntermediate(1, fillPalette(0), nil)[:preambleOffset+100]},
		{"missing frame palette", buildIntermediate(1, fillPalette(0), make([]byte, 10))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ir, err := NewIntermediateReader(bytes.NewReader(tt.data))
			if err == nil {
				_, err = ir.ReadPalette()
			}
			if !errors.Is(err, ErrMalformedInput) {
				t.Fatalf("error = %v, want ErrMalformedInput", err)
			}
		})
	}
}
