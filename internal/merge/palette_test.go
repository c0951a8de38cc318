package merge

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/bitstreamlab/vmdremux/internal/vmd"
)

func pal(b byte) vmd.Palette {
	var p vmd.Palette
	for i := range p {
		p[i] = b
	}
	return p
}

func newOutFile(t *testing.T) *os.File {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), "out.bin"))
	if err != nil {
		t.Fatalf("create out file: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func tellPos(t *testing.T, f *os.File) int64 {
	t.Helper()
	pos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		t.Fatalf("seek: %v", err)
	}
	return pos
}

// TestSpliceSequence pins the exact stage/flush ordering: the palette that
// fills a reserved slot is always the one staged before the splice that
// flushed it, and the final stage is flushed only by Finalize.
func TestSpliceSequence(t *testing.T) {
	palA, palB, palC := pal(0xAA), pal(0xBB), pal(0xCC)

	f := newOutFile(t)
	// Reserve the initial slot at offset 0, then move to the forward
	// position the way the merger leaves the stream after the header.
	if _, err := f.Write(make([]byte, vmd.PaletteSize)); err != nil {
		t.Fatalf("write initial slot: %v", err)
	}

	s := NewPaletteSplicer(palA, 0)

	before := tellPos(t, f)
	n, err := s.Splice(f)
	if err != nil {
		t.Fatalf("first Splice returned error: %v", err)
	}
	if n != 770 {
		t.Errorf("Splice returned %d, want 770", n)
	}
	if got := tellPos(t, f); got != before+770 {
		t.Errorf("position after Splice = %d, want %d", got, before+770)
	}

	s.Stage(palB)
	if _, err := s.Splice(f); err != nil {
		t.Fatalf("second Splice returned error: %v", err)
	}

	s.Stage(palC)
	before = tellPos(t, f)
	if err := s.Finalize(f); err != nil {
		t.Fatalf("Finalize returned error: %v", err)
	}
	if got := tellPos(t, f); got != before {
		t.Errorf("position after Finalize = %d, want %d", got, before)
	}

	data, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatalf("read back: %v", err)
	}

	const ps = vmd.PaletteSize
	checks := []struct {
		name string
		got  []byte
		want []byte
	}{
		{"initial slot", data[0:ps], palA[:]},
		{"first marker", data[ps : ps+2], paletteMarker[:]},
		{"first spliced slot", data[ps+2 : 2*ps+2], palB[:]},
		{"second marker", data[2*ps+2 : 2*ps+4], paletteMarker[:]},
		{"second spliced slot", data[2*ps+4 : 3*ps+4], palC[:]},
	}
	for _, c := range checks {
		if !bytes.Equal(c.got, c.want) {
			t.Errorf("%s: got % x..., want % x...", c.name, c.got[:4], c.want[:4])
		}
	}
	if len(data) != 3*ps+4 {
		t.Errorf("output length = %d, want %d", len(data), 3*ps+4)
	}
}

func TestFinalizeWithoutSplice(t *testing.T) {
	palA := pal(0x42)

	f := newOutFile(t)
	if _, err := f.Write(make([]byte, vmd.PaletteSize)); err != nil {
		t.Fatalf("write initial slot: %v", err)
	}

	s := NewPaletteSplicer(palA, 0)
	if err := s.Finalize(f); err != nil {
		t.Fatalf("Finalize returned error: %v", err)
	}

	data, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(data, palA[:]) {
		t.Error("initial slot was not filled with the seeded palette")
	}
}
