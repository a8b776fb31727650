package mcptools

import (
	"context"
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewMCPServer creates an MCP server with every dataset, rule and
// natural-language tool registered.
func NewMCPServer(svc *Service) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "alchemist",
		Version: version,
	}, nil)

	// Tables and validation.
	mcp.AddTool(server, &mcp.Tool{
		Name:        "load_data",
		Description: "Load clients, tasks and workers CSV files from a directory, or one CSV file into the table its name mentions. Returns every validation finding.",
	}, svc.LoadData)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate",
		Description: "Return the current row findings of each table and the cross-file findings, which appear once all three tables have rows.",
	}, svc.Validate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_cell",
		Description: "Set one cell of a table. Only the edited row is revalidated; cross-file checks are recomputed.",
	}, svc.UpdateCell)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_row",
		Description: "Delete one row of a table and revalidate the table.",
	}, svc.DeleteRow)

	// Rules and priorities.
	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_rule",
		Description: "Add a scheduling rule: coRun, slotRestriction, loadLimit, phaseWindow, patternMatch, precedenceOverride or TaskPriority.",
	}, svc.AddRule)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_rules",
		Description: "List the scheduling rules in the order they were added.",
	}, svc.ListRules)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_rule",
		Description: "Remove the rule at a zero-based index.",
	}, svc.RemoveRule)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "clear_rules",
		Description: "Remove every rule.",
	}, svc.ClearRules)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_priority",
		Description: "Set one priority weight (priorityLevel, taskFulfillment or fairness) to a value from 0 to 10.",
	}, svc.SetPriority)

	// Reshaping and search.
	mcp.AddTool(server, &mcp.Tool{
		Name:        "apply_patch",
		Description: "Apply modification and deletion lists to a table. Where keys are field paths optionally followed by ==, !=, >, <, >= or <=.",
	}, svc.ApplyPatch)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "filter_rows",
		Description: "Return the rows of a table matching a condition tree of {field, op, value} leaves and all, any and not nodes.",
	}, svc.FilterRows)

	// Natural language.
	mcp.AddTool(server, &mcp.Tool{
		Name:        "nl_modify",
		Description: "Describe a change in plain language; a generated patch is applied to the table. Nothing changes if no patch can be generated.",
	}, svc.NLModify)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "nl_filter",
		Description: "Search a table in plain language. Every row is returned if no filter can be generated.",
	}, svc.NLFilter)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "nl_rule",
		Description: "Describe a scheduling rule in plain language; the generated rule is checked and added.",
	}, svc.NLRule)

	// Export.
	mcp.AddTool(server, &mcp.Tool{
		Name:        "export_config",
		Description: "Export rules and priorities as a versioned JSON document, optionally writing it and the current tables as CSV.",
	}, svc.ExportConfig)

	return server
}

// RunMCPServerStdio runs the MCP server on stdio transport, blocking until
// stdin is closed or the context is cancelled.
func RunMCPServerStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunMCPServerHTTP serves the MCP server over streamable HTTP at addr until
// ctx is cancelled.
func RunMCPServerHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
