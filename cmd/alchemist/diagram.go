package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/alchemist/internal/dataset"
	"github.com/dusk-indust/alchemist/internal/export"
	"github.com/dusk-indust/alchemist/internal/graph"
	"github.com/dusk-indust/alchemist/internal/rules"
)

var (
	diagramDir   string
	diagramRules string
)

var diagramCmd = &cobra.Command{
	Use:   "diagram",
	Short: "Print the task co-run graph as a Mermaid diagram",
	Long: `Builds the co-run graph from the CoRunWith attribute of every task and
prints it as a Mermaid flowchart. Tasks on a cycle are highlighted. With
--rules, coRun rules of an exported configuration are drawn as dotted links.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		b, err := dataset.LoadDir(ctx, dataDir(diagramDir))
		if err != nil {
			return err
		}

		var rs []rules.Rule
		if diagramRules != "" {
			doc, err := export.ReadConfig(diagramRules)
			if err != nil {
				return err
			}
			rs = doc.Rules
		}

		store := graph.NewMemStore()
		defer store.Close()
		if err := graph.Build(ctx, store, b); err != nil {
			return err
		}

		mermaid, err := export.GenerateMermaid(ctx, store, rs...)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), mermaid)
		return nil
	},
}

func init() {
	diagramCmd.Flags().StringVar(&diagramDir, "dir", "", "Directory holding the CSV files (default: dataDir from config)")
	diagramCmd.Flags().StringVar(&diagramRules, "rules", "", "Exported rules.json whose coRun rules are drawn")
}
