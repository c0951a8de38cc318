// Package merge implements the VMD container merge: it walks the original
// container's table of contents in order, copies every non-video frame
// byte-for-byte, substitutes every video frame's payload and palette from
// the intermediate stream, and rewrites the header and tables to describe
// the new layout.
package merge

import (
	"errors"
	"fmt"
	"io"

	"github.com/bitstreamlab/vmdremux/internal/vmd"
	"github.com/bitstreamlab/vmdremux/pkg/log"
)

// Options tunes a single merge run.
type Options struct {
	// Meta logs every frame record as it is processed.
	Meta bool

	// Logger receives progress and diagnostics. Defaults to a no-op logger.
	Logger log.Logger
}

// merger holds the state of one run: the three streams, the in-memory
// tables being mutated, and the palette splicer.
type merger struct {
	orig   io.ReadSeeker
	inter  *vmd.IntermediateReader
	out    io.WriteSeeker
	header vmd.Header
	blocks []vmd.BlockRecord
	frames []vmd.FrameRecord
	pal    *PaletteSplicer
	logger log.Logger
	meta   bool
}

// Merge reads the original container from orig and the intermediate frame
// stream from inter, and writes the merged container to out. The inputs are
// consumed in a single pass; out sees sequential forward writes plus bounded
// backward patches of palette slots, the header's toc field, and the tables.
func Merge(orig, inter io.ReadSeeker, out io.WriteSeeker, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	m := &merger{orig: orig, out: out, logger: logger, meta: opts.Meta}

	var err error
	if m.header, err = vmd.ReadHeader(orig); err != nil {
		return err
	}
	if m.blocks, m.frames, err = vmd.ReadTables(orig, m.header); err != nil {
		return err
	}
	if m.inter, err = vmd.NewIntermediateReader(inter); err != nil {
		return err
	}

	logger.Info("merging container",
		log.Int("blocks", int(m.header.BlockCount)),
		log.Int("frames_per_block", int(m.header.FramesPerBlock)),
		log.Uint64("intermediate_frames", uint64(m.inter.FrameCount())))

	if n := m.videoFrameCount(); uint32(n) != m.inter.FrameCount() {
		// Compatibility of the two inputs is the caller's problem; flag it
		// and carry on.
		logger.Warn("video frame count mismatch",
			log.Int("original", n),
			log.Uint64("intermediate", uint64(m.inter.FrameCount())))
	}

	if err := m.writeHeader(); err != nil {
		return err
	}
	if err := m.mergeFrames(); err != nil {
		return err
	}
	return m.finalize()
}

// videoFrameCount counts the frame records subject to replacement.
func (m *merger) videoFrameCount() int {
	n := 0
	for i := range m.frames {
		if m.frames[i].IsVideo() {
			n++
		}
	}
	return n
}

// writeHeader copies the original header verbatim, then overwrites its
// embedded palette with the intermediate stream's initial palette and seeds
// the splicer with that slot.
func (m *merger) writeHeader() error {
	if _, err := m.header.WriteTo(m.out); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := m.out.Seek(vmd.HeaderPaletteOffset, io.SeekStart); err != nil {
		return fmt.Errorf("seek header palette: %w", err)
	}
	initial := m.inter.InitialPalette()
	if _, err := m.out.Write(initial[:]); err != nil {
		return fmt.Errorf("write initial palette: %w", err)
	}
	if _, err := m.out.Seek(vmd.HeaderSize, io.SeekStart); err != nil {
		return fmt.Errorf("seek past header: %w", err)
	}
	m.pal = NewPaletteSplicer(initial, vmd.HeaderPaletteOffset)
	return nil
}

// mergeFrames walks blocks and frames in table order, rewriting block
// offsets and frame records in place as payloads land in the output.
func (m *merger) mergeFrames() error {
	idx := 0
	for b := range m.blocks {
		pos, err := m.tell()
		if err != nil {
			return err
		}
		m.blocks[b].Offset = uint32(pos)

		for x := 0; x < int(m.header.FramesPerBlock); x++ {
			if err := m.mergeFrame(idx); err != nil {
				return fmt.Errorf("block %d frame %d: %w", b, x, err)
			}
			idx++
		}
	}
	return m.pal.Finalize(m.out)
}

// mergeFrame processes one frame record: pass-through frames are copied
// from the original, video frames are substituted from the intermediate
// stream.
func (m *merger) mergeFrame(idx int) error {
	f := &m.frames[idx]

	if !f.IsVideo() {
		if _, err := io.CopyN(m.out, m.orig, int64(f.Length)); err != nil {
			return fmt.Errorf("copy frame: %w", shortRead(err))
		}
		if m.meta {
			m.logger.Debug("frame copied",
				log.Int("index", idx),
				log.Int("type", int(f.Type)),
				log.Uint64("length", uint64(f.Length)))
		}
		return nil
	}

	// The original's video payload is discarded entirely.
	if _, err := m.orig.Seek(int64(f.Length), io.SeekCurrent); err != nil {
		return fmt.Errorf("skip original video: %w", err)
	}

	var extra uint32
	if f.NewPalette != 0 {
		var err error
		if extra, err = m.pal.Splice(m.out); err != nil {
			return err
		}
	}

	// Stage this frame's palette only after a flagged splice has flushed
	// the previous one: the palette that fills a reserved slot is always
	// the one staged before the flag that triggered the splice.
	pal, err := m.inter.ReadPalette()
	if err != nil {
		return err
	}
	m.pal.Stage(pal)

	rect, size, err := m.inter.ReadFrameHeader()
	if err != nil {
		return err
	}
	f.Rect = rect
	if err := m.inter.CopyPayload(m.out, size); err != nil {
		return err
	}
	f.Length = size + extra

	if m.meta {
		m.logger.Debug("frame substituted",
			log.Int("index", idx),
			log.Uint64("payload", uint64(size)),
			log.Uint64("length", uint64(f.Length)),
			log.Bool("new_palette", f.NewPalette != 0))
	}
	return nil
}

// finalize patches the header's toc offset with the position just past the
// last payload and serializes the mutated tables there.
func (m *merger) finalize() error {
	tocOffset, err := m.tell()
	if err != nil {
		return err
	}
	if err := vmd.PatchTocOffset(m.out, uint32(tocOffset)); err != nil {
		return err
	}
	if _, err := m.out.Seek(tocOffset, io.SeekStart); err != nil {
		return fmt.Errorf("seek toc: %w", err)
	}
	if err := vmd.WriteTables(m.out, m.blocks, m.frames); err != nil {
		return err
	}
	m.logger.Info("merge complete", log.Int64("toc_offset", tocOffset))
	return nil
}

// tell returns the output's current write position.
func (m *merger) tell() (int64, error) {
	pos, err := m.out.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("locate write position: %w", err)
	}
	return pos, nil
}

// shortRead maps a premature end of the original file onto the malformed
// input error: the table declared more payload than the file holds.
func shortRead(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return vmd.ErrMalformedInput
	}
	return err
}
