package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agentic-research/arbor/internal/history"
	"github.com/agentic-research/arbor/internal/vfs"
)

func newSnapshotCmd(a *app) *cobra.Command {
	var label string
	cmd := &cobra.Command{
		Use:   "snapshot [dir]...",
		Short: "Record directories in the history journal",
		Long: `Ingests each directory in turn and records it in the journal. Every
directory after the first is treated as a later version of the one before
it, so its DiffGrams are journaled with it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := a.openJournal(cmd)
			if err != nil {
				return err
			}
			defer j.Close()

			var prior *vfs.Dir
			for i, dir := range args {
				fresh, err := a.ingestDir(cmd.Context(), dir)
				if err != nil {
					return err
				}
				current := fresh
				if prior != nil {
					if current, err = vfs.Reconcile(prior, fresh); err != nil {
						return err
					}
				}
				l := label
				if l == "" {
					l = dir
				} else if len(args) > 1 {
					l = fmt.Sprintf("%s#%d", label, i+1)
				}

				var snap history.Snapshot
				// A nil *vfs.Dir is not a nil tree.Node.
				if prior == nil {
					snap, _, err = j.Record(cmd.Context(), l, current, nil)
				} else {
					snap, _, err = j.Record(cmd.Context(), l, current, prior)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d nodes, %d removed, %d changed, %d added\n",
					snap.ID, snap.Label, snap.NodeCount, snap.Summary.Removed, snap.Summary.Changed, snap.Summary.Added)
				prior = current
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&label, "label", "l", "", "Snapshot label (default: the directory)")
	return cmd
}

func (a *app) openJournal(cmd *cobra.Command) (*history.Journal, error) {
	if dir := filepath.Dir(a.cfg.HistoryDB); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	return history.Open(cmd.Context(), a.cfg.HistoryDB)
}
