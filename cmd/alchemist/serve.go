package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dusk-indust/alchemist/internal/llm"
	"github.com/dusk-indust/alchemist/internal/mcptools"
	"github.com/dusk-indust/alchemist/internal/workspace"
)

var (
	serveHTTP  bool
	serveAddr  string
	serveDir   string
	serveRules string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP tool server",
	Long: `Serves every dataset, rule and natural-language operation as an MCP
tool, on stdio by default or over streamable HTTP with --http.

The natural-language tools use Gemini when the environment variable named
by llm.apiKeyEnv (default GEMINI_API_KEY) holds a key; without one they fall
back to keeping data unchanged.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ws := workspace.New(workspace.WithLogger(logger))
		if serveDir != "" {
			if err := ws.LoadDir(ctx, serveDir); err != nil {
				return err
			}
		}
		if serveRules != "" {
			if err := importConfig(ws, serveRules); err != nil {
				return err
			}
		}

		svc := mcptools.NewService(ws, newAssistant(ctx),
			mcptools.WithLogger(logger),
			mcptools.WithTimeout(cfg.LLM.Timeout),
		)
		server := mcptools.NewMCPServer(svc)

		var err error
		if serveHTTP {
			addr := serveAddr
			if addr == "" {
				addr = cfg.MCP.HTTPAddr
			}
			logger.Info("serving MCP over HTTP", zap.String("addr", addr))
			err = mcptools.RunMCPServerHTTP(ctx, server, addr)
		} else {
			logger.Info("serving MCP over stdio")
			err = mcptools.RunMCPServerStdio(ctx, server)
		}
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveHTTP, "http", false, "Serve over streamable HTTP instead of stdio")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (default: mcp.httpAddr from config)")
	serveCmd.Flags().StringVar(&serveDir, "dir", "", "Directory of CSV files to load at startup")
	serveCmd.Flags().StringVar(&serveRules, "rules", "", "Exported rules.json to load at startup")
}

// newAssistant returns a Gemini-backed assistant, or nil when no API key is
// configured so that every natural-language tool uses its fallback.
func newAssistant(ctx context.Context) *llm.Assistant {
	key := cfg.APIKey()
	if key == "" {
		logger.Warn("no API key; natural-language tools disabled", zap.String("env", cfg.LLM.APIKeyEnv))
		return nil
	}
	gen, err := llm.NewGeminiGenerator(ctx, key, cfg.LLM.Model)
	if err != nil {
		logger.Warn("gemini client unavailable", zap.Error(err))
		return nil
	}
	logger.Info("natural-language tools enabled", zap.String("model", gen.Model()))
	return llm.NewAssistant(gen, llm.WithLogger(logger))
}
