package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentic-research/arbor/internal/history"
	"github.com/agentic-research/arbor/tree"
)

func newLogCmd(a *app) *cobra.Command {
	var (
		since      string
		containing uint64
	)
	cmd := &cobra.Command{
		Use:   "log [snapshot-id]",
		Short: "List journaled snapshots, or the records of one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := a.openJournal(cmd)
			if err != nil {
				return err
			}
			defer j.Close()
			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			if len(args) == 0 {
				var snaps []history.Snapshot
				if cmd.Flags().Changed("containing") {
					snaps, err = j.Containing(ctx, tree.Identity(containing))
				} else {
					snaps, err = j.List(ctx)
				}
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "SEQ\tID\tLABEL\tNODES\t-\t~\t+\tTAKEN")
				for _, s := range snaps {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
						s.Seq, s.ID, s.Label, s.NodeCount,
						s.Summary.Removed, s.Summary.Changed, s.Summary.Added,
						s.TakenAt.Local().Format(time.DateTime))
				}
				return tw.Flush()
			}

			id := args[0]
			records, err := j.Changes(ctx, id)
			if err != nil {
				return err
			}
			for _, r := range records {
				if err := printRecord(w, r.Kind, r.Path, r.Changes); err != nil {
					return err
				}
			}
			if since != "" {
				kept, err := j.Survivors(ctx, since, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%d identities survive since %s\n", kept.GetCardinality(), since)
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&containing, "containing", 0, "Only list snapshots that held this identity")
	cmd.Flags().StringVar(&since, "since", "", "Also count identities shared with this earlier snapshot")
	return cmd
}
