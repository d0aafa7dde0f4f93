// Package cli wires the relive-compress command line: flags, configuration
// layering, signal handling and the mapping of errors to exit codes.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kyleseven/ReLive-Compress/internal/check"
	"github.com/kyleseven/ReLive-Compress/internal/config"
	"github.com/kyleseven/ReLive-Compress/internal/display"
	"github.com/kyleseven/ReLive-Compress/internal/ffmpeg"
	"github.com/kyleseven/ReLive-Compress/internal/logging"
	"github.com/kyleseven/ReLive-Compress/internal/pipeline"
	"github.com/kyleseven/ReLive-Compress/internal/prompt"
	"github.com/kyleseven/ReLive-Compress/internal/timestamp"
	"github.com/kyleseven/ReLive-Compress/internal/watermark"
)

// app carries the state of one command invocation.
type app struct {
	version string
	v       *viper.Viper
	in      *os.File
	out     io.Writer

	configFile string
	verbose    bool
	noColor    bool
}

// flagKeys maps flag names to the config keys they override.
var flagKeys = map[string]string{
	"dir":             "dir",
	"yes":             "assume_yes",
	"dry-run":         "dry_run",
	"reset-watermark": "reset_watermark",
	"check":           "check",
	"log":             "log.file",
	"color":           "log.color",
	"no-pause":        "no_pause",
}

// NewRootCommand builds the root command. Run with no flags it compresses
// the captures of the working directory.
func NewRootCommand(version string) *cobra.Command {
	a := &app{version: version, v: viper.New(), in: os.Stdin, out: os.Stdout}
	return a.command()
}

func (a *app) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relive-compress",
		Short: "Re-encode new game captures in place, keeping their timestamps",
		Long: `relive-compress re-encodes the video captures of a directory that are newer
than the last run, replacing each original with a smaller file and restoring
its creation, modification and access times.

The boundary between runs is a watermark stored next to the captures
(.last_compress by default). Files at or before it are never touched again.`,
		Version:       a.version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context())
		},
	}
	cmd.SetVersionTemplate("relive-compress {{.Version}}\n")

	f := cmd.Flags()
	f.StringP("dir", "d", "", "capture directory (default: working directory)")
	f.StringVarP(&a.configFile, "config", "c", "", "config file (default: ./relive-compress.yaml, then $HOME/.config/relive-compress/)")
	f.BoolP("yes", "y", false, "skip the first-run confirmation")
	f.Bool("dry-run", false, "list the captures that would be compressed and exit")
	f.Bool("reset-watermark", false, "forget the stored watermark before the run")
	f.Bool("check", false, "check platform, engine, encoder and watermark, then exit")
	f.String("log", "", "append log lines to this file")
	f.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	f.String("color", string(config.ColorAuto), "color output: auto, always or never")
	f.BoolVar(&a.noColor, "no-color", false, "disable color output (same as --color=never)")
	f.Bool("no-pause", false, "do not wait for enter before exiting")

	for name, key := range flagKeys {
		if err := a.v.BindPFlag(key, f.Lookup(name)); err != nil {
			panic(err)
		}
	}
	return cmd
}

// loadConfig layers defaults, config file, environment and flags, then
// validates the result.
func (a *app) loadConfig() (config.Config, error) {
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return cfg, err
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	if a.noColor {
		cfg.Log.Color = config.ColorNever
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (a *app) run(parent context.Context) error {
	// Before the logger exists errors go back to Execute, which prints them.
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	base, err := logging.NewLogger(&cfg)
	if err != nil {
		return err
	}
	defer base.Close()

	runID := uuid.NewString()
	log := base.With("run", runID)

	display.PrintBanner(a.out, a.version)
	if cfg.ConfigFile != "" {
		log.Debug("Config: %s", cfg.ConfigFile)
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Received interrupt, stopping the current capture…")
			cancel()
		case <-ctx.Done():
		}
	}()

	fs := afero.NewOsFs()

	if cfg.CheckOnly {
		store, err := watermark.Open(ctx, &cfg, fs)
		if err != nil {
			log.Error("Watermark: %v", err)
			store = nil
		} else {
			defer store.Close()
		}
		if !check.RunCheck(ctx, &cfg, store, log) {
			return loggedError{errCheckFailed}
		}
		return nil
	}

	prompter := prompt.New(prompt.Options{
		AssumeYes: cfg.AssumeYes,
		NoPause:   cfg.NoPause,
		In:        a.in,
		Out:       a.out,
	})

	err = a.compress(ctx, &cfg, fs, prompter, log, runID)
	if err != nil {
		reportError(log, &cfg, err)
		err = loggedError{err}
	}

	if perr := prompter.Pause(ctx, "Press enter to exit..."); perr != nil && !errors.Is(perr, context.Canceled) {
		log.Debug("Pause: %v", perr)
	}
	return err
}

// compress runs the pre-flight checks and the batch.
func (a *app) compress(ctx context.Context, cfg *config.Config, fs afero.Fs, p prompt.Prompter, log *logging.Logger, runID string) error {
	if err := check.CheckDeps(cfg); err != nil {
		return err
	}

	resolver, err := timestamp.New(cfg.Timestamp)
	if err != nil {
		return err
	}

	store, err := watermark.Open(ctx, cfg, fs)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.DryRun {
		log.Warn("DRY RUN: no files will be written")
	}
	log.Debug("Watermark store: %s", store.Location())

	_, err = pipeline.Run(ctx, cfg, pipeline.Deps{
		FS:       fs,
		Store:    store,
		Engine:   ffmpeg.NewRunner(cfg.Engine, log),
		Resolver: resolver,
		Prompter: p,
		Log:      log,
		Out:      a.out,
		RunID:    runID,
	})
	return err
}

// reportError logs err with a remediation hint for the conditions the
// operator can fix.
func reportError(log *logging.Logger, cfg *config.Config, err error) {
	switch {
	case errors.Is(err, pipeline.ErrDeclined):
		log.Warn("Nothing was compressed. Rerun with --yes to skip the question.")
	case errors.Is(err, watermark.ErrCorrupt):
		log.Error("%v", err)
		log.Error("Repair or delete %s, or rerun with --reset-watermark", cfg.WatermarkPath())
	case errors.Is(err, check.ErrEngineNotFound):
		log.Error("%v", err)
		log.Error("Install ffmpeg or set engine.binary in the config file")
	default:
		log.Error("%v", err)
	}
}

// Execute runs the root command with os.Args and returns the exit code.
func Execute(version string) int {
	return execute(NewRootCommand(version), os.Stderr)
}

func execute(cmd *cobra.Command, stderr io.Writer) int {
	err := cmd.Execute()
	var logged loggedError
	if err != nil && !errors.As(err, &logged) {
		fmt.Fprintf(stderr, "relive-compress: %v\n", err)
	}
	return ExitCode(err)
}
