package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dusk-indust/alchemist/internal/config"
)

// version is set by goreleaser at build time.
var version = "dev"

var (
	verbose    bool
	projectDir string

	logger *zap.Logger
	cfg    *config.ProjectConfig
)

var rootCmd = &cobra.Command{
	Use:   "alchemist",
	Short: "Validate scheduling datasets and author their rules",
	Long: `alchemist checks clients, tasks and workers CSV tables row by row and
across tables, manages scheduling rules and priority weights, and exports
them for a downstream scheduler.

Run 'alchemist serve' to expose every operation as an MCP tool.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(projectDir)
		if err != nil {
			return err
		}
		cfg.ApplyDefaults()
		logger.Debug("config loaded", zap.String("dir", projectDir), zap.String("dataDir", cfg.DataDir))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&projectDir, "project-dir", ".", "Directory holding alchemist.yml")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(diagramCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// dataDir returns the flag value when set, else the configured directory.
func dataDir(flag string) string {
	if flag != "" {
		return flag
	}
	return cfg.DataDir
}
