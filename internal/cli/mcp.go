package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	codectx "github.com/relvet/revet/internal/context"
	"github.com/relvet/revet/internal/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for context extraction and finding search",
	Long: `Start the Model Context Protocol (MCP) server that lets LLM-powered
coding assistants extract code context and search stored findings.

The MCP server:
- Serves the extract_context tool backed by tree-sitter parsing
- Serves the search_findings tool backed by the scan database
- Communicates via stdio (standard MCP transport)

Example:
  revet mcp`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	dbPath, err := cfg.Storage.ResolveDBPath()
	if err != nil {
		return fmt.Errorf("failed to resolve database path: %w", err)
	}

	resolver, err := codectx.NewResolver(nil, contextConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to create context resolver: %w", err)
	}
	defer resolver.Close()

	fmt.Fprintf(os.Stderr, "Revet MCP Server\n")
	fmt.Fprintf(os.Stderr, "Scan database: %s\n\n", dbPath)

	server := mcp.NewServer(resolver, dbPath, Version)
	if err := server.Serve(ctx); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
