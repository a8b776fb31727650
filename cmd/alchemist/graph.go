//go:build cgo

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dusk-indust/alchemist/internal/dataset"
	"github.com/dusk-indust/alchemist/internal/graph"
)

var (
	graphDir     string
	graphPersist string
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Load the dataset into a Kuzu graph and summarize it",
	Long: `Loads clients, tasks and workers into a Kuzu graph database with
REQUESTS, CO_RUNS and QUALIFIED edges, then prints node and edge counts and
the groups of tasks that must run together. With --persist (or
graph.persistPath in alchemist.yml) the database is kept on disk for Cypher
queries; otherwise it lives in memory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		b, err := dataset.LoadDir(ctx, dataDir(graphDir))
		if err != nil {
			return err
		}

		path := graphPersist
		if path == "" {
			path = cfg.Graph.PersistPath
		}
		var store *graph.KuzuStore
		if path != "" {
			store, err = graph.NewKuzuFileStore(path)
		} else {
			store, err = graph.NewKuzuStore()
		}
		if err != nil {
			return fmt.Errorf("open graph: %w", err)
		}
		defer store.Close()

		if err := graph.Build(ctx, store, b); err != nil {
			return err
		}
		stats, err := store.Stats(ctx)
		if err != nil {
			return err
		}
		groups, err := graph.CoRunGroups(ctx, store)
		if err != nil {
			return err
		}
		logger.Debug("graph built", zap.String("path", path), zap.Int("edges", stats.EdgeCount))

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "clients %d, tasks %d, workers %d, edges %d\n",
			stats.ClientCount, stats.TaskCount, stats.WorkerCount, stats.EdgeCount)
		for _, g := range groups {
			staff := "none"
			if len(g.Workers) > 0 {
				staff = strings.Join(g.Workers, ", ")
			}
			fmt.Fprintf(w, "  co-run group %s (%d links), qualified for all: %s\n",
				strings.Join(g.Members, ", "), g.Edges, staff)
		}
		if path != "" {
			fmt.Fprintf(w, "graph stored at %s\n", path)
		}
		return nil
	},
}

func init() {
	graphCmd.Flags().StringVar(&graphDir, "dir", "", "Directory holding the CSV files (default: dataDir from config)")
	graphCmd.Flags().StringVar(&graphPersist, "persist", "", "Kuzu database path (default: graph.persistPath from config, else in memory)")
	rootCmd.AddCommand(graphCmd)
}
