package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/arbor/internal/config"
	"github.com/agentic-research/arbor/internal/ingest"
	"github.com/agentic-research/arbor/internal/vfs"
)

// app carries state shared by the subcommands of one invocation.
type app struct {
	configPath string
	verbose    bool
	cfg        *config.Config
}

// NewRootCmd builds the arbor command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "arbor",
		Short:         "Arbor: identity-stable snapshots and diffs of file trees",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if a.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			color.NoColor = !cfg.ColorEnabled(!color.NoColor)
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to HCL config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newShowCmd(a),
		newDiffCmd(a),
		newSnapshotCmd(a),
		newLogCmd(a),
		newServeCmd(a),
		newMountCmd(a),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// ingestDir reads a host directory with the configured options.
func (a *app) ingestDir(ctx context.Context, dir string) (*vfs.Dir, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	fsys := osfs.New(filepath.Dir(abs))
	return ingest.FromFilesystem(ctx, fsys, filepath.Base(abs), ingest.Options{
		Exclude:     a.cfg.Exclude,
		ParseSource: a.cfg.ParseSources(),
		Workers:     a.cfg.Workers,
	})
}
