package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/agentic-research/arbor/diff"
	"github.com/agentic-research/arbor/internal/vfs"
	"github.com/agentic-research/arbor/tree"
)

var (
	removedColor = color.New(color.FgRed)
	changedColor = color.New(color.FgYellow)
	addedColor   = color.New(color.FgGreen)
)

func newDiffCmd(a *app) *cobra.Command {
	var summaryOnly bool
	cmd := &cobra.Command{
		Use:   "diff [before-dir] [after-dir]",
		Short: "Show what changed between two versions of a directory",
		Long: `Ingests both directories, treats the second as a later version of the
first (entries at the same path keep their identity) and prints the records
of what was removed, changed and added.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			before, err := a.ingestDir(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fresh, err := a.ingestDir(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			after, err := vfs.Reconcile(before, fresh)
			if err != nil {
				return err
			}
			grams, err := diff.ChangesSince(after, before)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if !summaryOnly {
				if err := printGrams(w, grams, after, before); err != nil {
					return err
				}
			}
			s := diff.Summarize(grams)
			_, err = fmt.Fprintf(w, "%d removed, %d changed, %d added\n", s.Removed, s.Changed, s.Added)
			return err
		},
	}
	cmd.Flags().BoolVar(&summaryOnly, "summary", false, "Only print the counts")
	return cmd
}

func printGrams(w io.Writer, grams []tree.DiffGram, current, prior tree.Node) error {
	for _, g := range grams {
		in := current
		if g.Kind == tree.KindRemoved {
			in = prior
		}
		p, err := vfs.PathOf(in, g.Identity)
		if err != nil {
			return err
		}
		if err := printRecord(w, g.Kind, p, g.Changes); err != nil {
			return err
		}
	}
	return nil
}

func printRecord(w io.Writer, kind tree.ChangeKind, path string, changes tree.Changes) error {
	var err error
	switch kind {
	case tree.KindRemoved:
		_, err = removedColor.Fprintf(w, "- %s\n", path)
	case tree.KindAdded:
		_, err = addedColor.Fprintf(w, "+ %s\n", path)
	default:
		_, err = changedColor.Fprintf(w, "~ %s (%s)\n", path, strings.Join(vfs.Describe(changes), ", "))
	}
	return err
}
