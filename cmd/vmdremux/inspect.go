package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bitstreamlab/vmdremux/internal/vmd"
)

func newInspectCommand() *cobra.Command {
	var showFrames bool

	cmd := &cobra.Command{
		Use:   "inspect <file.vmd>",
		Short: "Print header and table-of-contents details of a VMD container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspect(cmd.OutOrStdout(), args[0], showFrames)
		},
	}
	cmd.Flags().BoolVar(&showFrames, "frames", false, "also list every frame record")
	return cmd
}

func inspect(w io.Writer, path string, showFrames bool) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("can't find %s: %w", path, vmd.ErrMissingInput)
		}
		return err
	}
	defer f.Close()

	h, err := vmd.ReadHeader(f)
	if err != nil {
		return err
	}
	blocks, frames, err := vmd.ReadTables(f, h)
	if err != nil {
		return err
	}

	video, palettes := 0, 0
	for i := range frames {
		if frames[i].IsVideo() {
			video++
			if frames[i].NewPalette != 0 {
				palettes++
			}
		}
	}

	fmt.Fprintf(w, "%s\n", path)
	fmt.Fprintf(w, "  video:      %dx%d\n", h.Width, h.Height)
	fmt.Fprintf(w, "  blocks:     %d (%d frames per block)\n", h.BlockCount, h.FramesPerBlock)
	fmt.Fprintf(w, "  frames:     %d total, %d video, %d palette changes\n", h.FrameCount(), video, palettes)
	fmt.Fprintf(w, "  audio:      %d Hz, frame length %d, %d buffers\n", h.SampleRate, h.AudioFrameLength, h.SoundBuffers)
	fmt.Fprintf(w, "  toc offset: %d\n", h.TocOffset)

	if !showFrames {
		return nil
	}

	idx := 0
	for b := range blocks {
		fmt.Fprintf(w, "  block %d at offset %d\n", b, blocks[b].Offset)
		for x := 0; x < int(h.FramesPerBlock); x++ {
			fr := &frames[idx]
			fmt.Fprintf(w, "    frame %d: type=%d length=%d rect=(%d,%d,%d,%d) palette=%d\n",
				idx, fr.Type, fr.Length,
				fr.Rect.Left, fr.Rect.Top, fr.Rect.Right, fr.Rect.Bottom,
				fr.NewPalette)
			idx++
		}
	}
	return nil
}
