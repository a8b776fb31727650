package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/alchemist/internal/config"
	"github.com/dusk-indust/alchemist/internal/samples"
)

var (
	initDir   string
	initForce bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Set up a project with sample data, alchemist.yml and .mcp.json",
	Long: `Writes the sample clients, tasks and workers tables to the data
directory, creates alchemist.yml, and adds an alchemist entry to .mcp.json so
MCP clients can start the tool server. Existing files are kept unless
--force is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(cmd, projectDir, initDir, initForce)
	},
}

func init() {
	initCmd.Flags().StringVar(&initDir, "dir", "data", "Data directory, relative to the project directory")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing files")
}

// mcpConfig represents the structure of a .mcp.json file.
type mcpConfig struct {
	MCPServers map[string]json.RawMessage `json:"mcpServers"`
}

func runInit(cmd *cobra.Command, projectRoot, dataRel string, force bool) error {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}
	w := cmd.OutOrStdout()

	written, err := samples.WriteTo(filepath.Join(abs, dataRel), force)
	if err != nil {
		return fmt.Errorf("copying sample data: %w", err)
	}
	for _, p := range written {
		fmt.Fprintf(w, "  created %s\n", dotRelative(abs, p))
	}

	cfgPath := filepath.Join(abs, "alchemist.yml")
	if _, err := os.Stat(cfgPath); err == nil && !force {
		fmt.Fprintf(w, "  skipped alchemist.yml (exists, use --force to overwrite)\n")
	} else {
		pc := &config.ProjectConfig{DataDir: dataRel, OutputDir: config.DefaultOutputDir}
		if err := config.Save(abs, pc); err != nil {
			return err
		}
		fmt.Fprintf(w, "  created alchemist.yml\n")
	}

	if err := mergeMCPConfig(w, filepath.Join(abs, ".mcp.json"), dataRel, force); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nSetup complete. Run 'alchemist validate' to check the sample data.")
	return nil
}

// mergeMCPConfig creates or merges the alchemist entry into .mcp.json.
func mergeMCPConfig(w io.Writer, mcpPath, dataRel string, force bool) error {
	var cfg mcpConfig

	data, err := os.ReadFile(mcpPath)
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", mcpPath, err)
		}
	}

	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]json.RawMessage)
	}

	if _, exists := cfg.MCPServers["alchemist"]; exists && !force {
		fmt.Fprintf(w, "  skipped .mcp.json alchemist entry (exists, use --force to overwrite)\n")
		return nil
	}

	entry, err := json.Marshal(map[string]any{
		"type":    "stdio",
		"command": "alchemist",
		"args":    []string{"serve", "--dir", dataRel},
	})
	if err != nil {
		return err
	}
	cfg.MCPServers["alchemist"] = entry

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling .mcp.json: %w", err)
	}

	if err := os.WriteFile(mcpPath, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", mcpPath, err)
	}

	action := "created"
	if data != nil {
		action = "updated"
	}
	fmt.Fprintf(w, "  %s .mcp.json with alchemist MCP server\n", action)
	return nil
}

// dotRelative returns a display path relative to the project root, prefixed
// with "./".
func dotRelative(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return "./" + rel
}
