package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentic-research/arbor/internal/nfsmount"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		listen     string
		mountpoint string
	)
	cmd := &cobra.Command{
		Use:   "serve [dir]",
		Short: "Export a snapshot of a directory read-only over NFS",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := a.ingestDir(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			srv, err := nfsmount.NewServer(listen, nfsmount.NewSnapshotFS(root, time.Now()))
			if err != nil {
				return err
			}
			defer srv.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "serving %s on port %d\n", args[0], srv.Port())

			if mountpoint != "" {
				if err := nfsmount.Mount(srv.Port(), mountpoint); err != nil {
					return err
				}
				defer func() {
					if err := nfsmount.Unmount(mountpoint); err != nil {
						slog.Warn("unmount failed", "mountpoint", mountpoint, "error", err)
					}
				}()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "127.0.0.1:0", "Address to listen on")
	cmd.Flags().StringVar(&mountpoint, "mount", "", "Also mount the export here (needs sudo)")
	return cmd
}
