package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	codectx "github.com/relvet/revet/internal/context"
)

// AddExtractContextTool registers the extract_context tool. Registration is
// composable so callers can assemble their own tool set.
func AddExtractContextTool(s *server.MCPServer, resolver *codectx.Resolver) {
	tool := mcp.NewTool(
		"extract_context",
		mcp.WithDescription("Extract the smallest meaningful code region around a file location: the enclosing function if there is one, otherwise the enclosing class, otherwise a line window. Returns the region's code, boundaries, enclosing function and class names, and the file's imports."),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path to the source file")),
		mcp.WithNumber("line_number",
			mcp.Required(),
			mcp.Description("1-indexed line the region should contain")),
		mcp.WithString("language",
			mcp.Required(),
			mcp.Description("Source language (e.g. 'python', 'javascript', 'go'); common aliases like 'js' and 'golang' are accepted")),
		mcp.WithNumber("context_lines",
			mcp.Description("Lines of context on each side when structural extraction is unavailable (default 10)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createExtractContextHandler(resolver))
}

func createExtractContextHandler(resolver *codectx.Resolver) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, ok := request.Params.Arguments.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}

		filePath, ok := stringArg(argsMap, "file_path")
		if !ok {
			return mcp.NewToolResultError("file_path parameter is required"), nil
		}
		line, ok := intArg(argsMap, "line_number")
		if !ok || line < 1 {
			return mcp.NewToolResultError("line_number must be a positive integer"), nil
		}
		language, ok := stringArg(argsMap, "language")
		if !ok {
			return mcp.NewToolResultError("language parameter is required"), nil
		}

		// Extraction never fails: unreadable files and out-of-range lines
		// come back as the error variant of the result, which is still
		// useful to the caller.
		var extracted *codectx.ExtractedContext
		if radius, ok := intArg(argsMap, "context_lines"); ok {
			extracted = resolver.ExtractWithWindow(filePath, line, language, radius)
		} else {
			extracted = resolver.Extract(filePath, line, language)
		}

		jsonData, err := json.Marshal(extracted)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}
