package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/relvet/revet/internal/scanner"
)

const (
	searchDefaultLimit = 20
	searchMaxLimit     = 100
)

// FindingSearcher is the slice of the storage reader the search tool needs.
type FindingSearcher interface {
	SearchFindings(query string, scanID string, limit int) ([]scanner.Finding, error)
	Close() error
}

// SearchFindingsResponse is the tool's JSON payload.
type SearchFindingsResponse struct {
	Findings []scanner.Finding `json:"findings"`
	Total    int               `json:"total"`
}

// AddSearchFindingsTool registers the search_findings tool. openSearcher is
// called once per tool call, so a database created after the server started
// is picked up without a restart.
func AddSearchFindingsTool(s *server.MCPServer, openSearcher func() (FindingSearcher, error)) {
	tool := mcp.NewTool(
		"search_findings",
		mcp.WithDescription("Full-text search over stored scan findings. Matches against finding descriptions, flagged code, and extracted context; returns findings with their verification verdicts when available."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search terms (FTS5 syntax: bare words, \"quoted phrases\", AND/OR)")),
		mcp.WithString("scan_id",
			mcp.Description("Restrict results to one scan (default: all scans)")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (1-100, default: 20)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createSearchFindingsHandler(openSearcher))
}

func createSearchFindingsHandler(openSearcher func() (FindingSearcher, error)) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, ok := request.Params.Arguments.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}

		query, ok := stringArg(argsMap, "query")
		if !ok {
			return mcp.NewToolResultError("query parameter is required"), nil
		}
		scanID, _ := stringArg(argsMap, "scan_id")
		limit := clampedIntArg(argsMap, "limit", searchDefaultLimit, 1, searchMaxLimit)

		// A missing database is a state the caller can fix (run a scan), not
		// a protocol failure.
		searcher, err := openSearcher()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		defer searcher.Close()

		findings, err := searcher.SearchFindings(query, scanID, limit)
		if err != nil {
			return nil, fmt.Errorf("search failed: %w", err)
		}

		response := &SearchFindingsResponse{Findings: findings, Total: len(findings)}
		jsonData, err := json.Marshal(response)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}
