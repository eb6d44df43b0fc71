package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agentic-research/arbor/internal/fs"
)

func newMountCmd(a *app) *cobra.Command {
	var opts []string
	cmd := &cobra.Command{
		Use:   "mount [dir] [mountpoint]",
		Short: "Mount a snapshot of a directory read-only through FUSE",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := a.ingestDir(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			fmt.Fprintf(cmd.OutOrStdout(), "mounting %s at %s\n", args[0], args[1])
			var fuseArgs []string
			for _, o := range opts {
				fuseArgs = append(fuseArgs, "-o", o)
			}
			return fs.Mount(ctx, root, args[1], fuseArgs...)
		},
	}
	cmd.Flags().StringArrayVarP(&opts, "option", "o", nil, "Extra FUSE options")
	return cmd
}
