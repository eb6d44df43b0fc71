package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/agentic-research/arbor/internal/config"
	"github.com/agentic-research/arbor/internal/ingest"
	"github.com/agentic-research/arbor/internal/vfs"
)

func newShowCmd(a *app) *cobra.Command {
	var (
		document string
		selector string
		output   string
	)
	cmd := &cobra.Command{
		Use:   "show [dir]",
		Short: "Print the tree of a directory or a JSON document",
		Args: func(cmd *cobra.Command, args []string) error {
			if document != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var root *vfs.Dir
			var err error
			if document != "" {
				data, rerr := os.ReadFile(document)
				if rerr != nil {
					return fmt.Errorf("read document: %w", rerr)
				}
				root, err = ingest.FromDocument(data, selector)
			} else {
				root, err = a.ingestDir(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			if output == "" {
				output = a.cfg.Output
			}
			return encode(cmd.OutOrStdout(), output, ingest.ToDocument(root))
		},
	}
	cmd.Flags().StringVar(&document, "document", "", "Read the tree from a JSON document instead of a directory")
	cmd.Flags().StringVar(&selector, "selector", ingest.DefaultSelector, "JSONPath of the root node within --document")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output format: yaml or json (default from config)")
	return cmd
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
