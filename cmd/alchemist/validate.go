package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dusk-indust/alchemist/internal/dataset"
	"github.com/dusk-indust/alchemist/internal/workspace"
)

// errFindings makes the command exit non-zero when validation finds problems.
var errFindings = errors.New("validation findings")

var (
	validateDir  string
	validateJSON bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the clients, tasks and workers tables of a directory",
	Long: `Loads every clients, tasks and workers CSV file found in the directory,
runs the row checks of each table, then the cross-file checks once all three
tables have rows. Exits non-zero when anything is reported.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws := workspace.New(workspace.WithLogger(logger))
		dir := dataDir(validateDir)
		if err := ws.LoadDir(cmd.Context(), dir); err != nil {
			return err
		}
		snap := ws.Snapshot()
		logger.Debug("validated", zap.String("dir", dir), zap.Int("findings", len(snap.Errors())))

		if err := printSnapshot(cmd.OutOrStdout(), snap, validateJSON); err != nil {
			return err
		}
		if n := len(snap.Errors()); n > 0 {
			return fmt.Errorf("%d %w", n, errFindings)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateDir, "dir", "", "Directory holding the CSV files (default: dataDir from config)")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Print findings as JSON")
}

func printSnapshot(w io.Writer, snap workspace.Snapshot, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	for _, t := range dataset.Tables {
		fmt.Fprintf(w, "%-8s %d rows\n", t, snap.Counts[t])
	}
	errs := snap.Errors()
	if len(errs) == 0 {
		fmt.Fprintln(w, "\nNo problems found.")
		return nil
	}
	fmt.Fprintln(w)
	for _, e := range errs {
		fmt.Fprintln(w, e.String())
	}
	return nil
}
