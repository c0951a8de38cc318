package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bitstreamlab/vmdremux/internal/cliconfig"
	"github.com/bitstreamlab/vmdremux/internal/merge"
	"github.com/bitstreamlab/vmdremux/internal/watch"
	logAdapter "github.com/bitstreamlab/vmdremux/pkg/log"
)

const helpDescription = `
Merge re-encoded video frames back into a Sierra VMD container.

vmdremux copies every audio and marker chunk byte-for-byte from the
original container, substitutes each video frame's payload and palette
from the intermediate file, and rebuilds the header and table of
contents for the new layout. The original's video bytes are discarded.
`

var exampleUsage = strings.TrimSpace(`
  vmdremux original.vmd intermediate.vmd final.vmd
  vmdremux --watch --meta original.vmd intermediate.vmd final.vmd
  vmdremux inspect final.vmd --frames
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "vmdremux <original.vmd> <intermediate.vmd> <final.vmd>",
		Short:   "Merge re-encoded video frames back into a Sierra VMD container",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Args:    cobra.ExactArgs(3),
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.OriginalPath = args[0]
			cfg.IntermediatePath = args[1]
			cfg.OutputPath = args[2]

			// Load config file first (default $HOME/.vmdremux/config.toml),
			// then env, then flag overrides.
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cliconfig.ApplyLogLevel(cfg.LogLevel); err != nil {
				return fmt.Errorf("log level: %w", err)
			}
			log = cliconfig.Logger()

			logger := logAdapter.NewZerologAdapterWithLogger(log)
			opts := merge.Options{Meta: cfg.Meta, Logger: logger}

			runOnce := func() error {
				return merge.MergeFiles(cfg.OriginalPath, cfg.IntermediatePath, cfg.OutputPath, opts)
			}

			if err := runOnce(); err != nil {
				return err
			}
			if !cfg.Watch {
				return nil
			}

			// Watch mode: re-merge whenever the intermediate file changes,
			// until interrupted.
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				log.Info().Msg("received signal, stopping...")
				cancel()
			}()

			w := watch.New(cfg.IntermediatePath, cfg.WatchDebounce, logger, runOnce)
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.vmdremux/config.toml)")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	root.Flags().BoolVar(&cfg.Meta, "meta", cfg.Meta, "log frame metadata while merging (debug)")
	root.Flags().BoolVar(&cfg.Watch, "watch", cfg.Watch, "re-run the merge when the intermediate file changes")
	root.Flags().DurationVar(&cfg.WatchDebounce, "watch-debounce", cfg.WatchDebounce, "delay after a change before re-merging")

	root.AddCommand(newInspectCommand())

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("vmdremux")
		os.Exit(1)
	}
}
