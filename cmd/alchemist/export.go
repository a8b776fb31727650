package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dusk-indust/alchemist/internal/export"
	"github.com/dusk-indust/alchemist/internal/workspace"
)

var (
	exportDir   string
	exportRules string
	exportOut   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the cleaned tables and the rules configuration",
	Long: `Loads the tables of a directory and, when --rules names a previously
exported configuration, its rules and priority weights. Writes rules.json and
one CSV file per non-empty table to the output directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws := workspace.New(workspace.WithLogger(logger))
		if err := ws.LoadDir(cmd.Context(), dataDir(exportDir)); err != nil {
			return err
		}
		if exportRules != "" {
			if err := importConfig(ws, exportRules); err != nil {
				return err
			}
		}

		out := exportOut
		if out == "" {
			out = cfg.OutputDir
		}
		doc := export.NewConfigExport(ws.Rules().List(), ws.Priorities().Get(), time.Now())
		path := filepath.Join(out, "rules.json")
		if err := export.WriteConfig(path, doc); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		files, err := export.WriteCSV(out, ws.Bundle())
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "  created %s (%d rules)\n", path, len(doc.Rules))
		for _, f := range files {
			fmt.Fprintf(w, "  created %s\n", f)
		}
		if n := len(ws.Snapshot().Errors()); n > 0 {
			logger.Warn("exported tables still have validation findings", zap.Int("findings", n))
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "Directory holding the CSV files (default: dataDir from config)")
	exportCmd.Flags().StringVar(&exportRules, "rules", "", "Previously exported rules.json to carry over")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output directory (default: outputDir from config)")
}

// importConfig replaces the workspace rules and weights with those of an
// exported configuration file.
func importConfig(ws *workspace.Workspace, path string) error {
	doc, err := export.ReadConfig(path)
	if err != nil {
		return err
	}
	if err := ws.Rules().Replace(doc.Rules); err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	if err := ws.Priorities().Replace(doc.Priorities); err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	logger.Info("rules imported", zap.String("path", path), zap.Int("rules", len(doc.Rules)))
	return nil
}
