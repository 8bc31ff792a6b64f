package mcp

// Test Plan for the extract_context tool:
// 1. Structural extraction round-trips through the tool as JSON
// 2. context_lines steers the fallback window
// 3. Unreadable files surface the error variant, not a protocol error
// 4. Missing or invalid arguments produce error results

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	codectx "github.com/relvet/revet/internal/context"
)

const pythonFixture = `import hashlib


def hash_password(password):
    digest = hashlib.md5(password.encode()).hexdigest()
    return digest
`

func newTestResolver(t *testing.T) *codectx.Resolver {
	t.Helper()
	resolver, err := codectx.NewResolver(nil, codectx.Config{})
	require.NoError(t, err)
	t.Cleanup(resolver.Close)
	return resolver
}

func callToolRequest(args interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	result, err := handler(context.Background(), callToolRequest(args))
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func decodeText(t *testing.T, result *mcp.CallToolResult, into interface{}) {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok, "tool results are JSON text")
	require.NoError(t, json.Unmarshal([]byte(text.Text), into))
}

func TestExtractContextHandler_Function(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "auth.py")
	require.NoError(t, os.WriteFile(file, []byte(pythonFixture), 0o644))

	handler := createExtractContextHandler(newTestResolver(t))
	result := callTool(t, handler, map[string]interface{}{
		"file_path":   file,
		"line_number": float64(5),
		"language":    "python",
	})
	assert.False(t, result.IsError)

	var extracted codectx.ExtractedContext
	decodeText(t, result, &extracted)

	assert.Equal(t, codectx.KindFunction, extracted.ContextKind)
	assert.Equal(t, "hash_password", extracted.FunctionName)
	assert.Equal(t, 4, extracted.ContextStartLine)
	assert.Equal(t, 5, extracted.TargetLine)
	assert.Contains(t, extracted.ContextCode, "hexdigest")
	assert.Equal(t, []string{"import hashlib"}, extracted.Imports)
	assert.Empty(t, extracted.Error)
}

func TestExtractContextHandler_ContextLinesSteerFallback(t *testing.T) {
	t.Parallel()

	// An unregistered language forces the line-window fallback
	body := strings.Repeat("call do_thing()\n", 30)
	file := filepath.Join(t.TempDir(), "JOB.cbl")
	require.NoError(t, os.WriteFile(file, []byte(body), 0o644))

	handler := createExtractContextHandler(newTestResolver(t))
	result := callTool(t, handler, map[string]interface{}{
		"file_path":     file,
		"line_number":   float64(15),
		"language":      "cobol",
		"context_lines": float64(2),
	})
	assert.False(t, result.IsError)

	var extracted codectx.ExtractedContext
	decodeText(t, result, &extracted)

	assert.Equal(t, codectx.KindFallback, extracted.ContextKind)
	assert.Equal(t, 13, extracted.ContextStartLine)
	assert.Equal(t, 17, extracted.ContextEndLine)
}

func TestExtractContextHandler_UnreadableFile(t *testing.T) {
	t.Parallel()

	handler := createExtractContextHandler(newTestResolver(t))
	result := callTool(t, handler, map[string]interface{}{
		"file_path":   filepath.Join(t.TempDir(), "missing.py"),
		"line_number": float64(3),
		"language":    "python",
	})

	// The error variant is a successful tool call carrying a result the
	// caller can inspect
	assert.False(t, result.IsError)

	var extracted codectx.ExtractedContext
	decodeText(t, result, &extracted)
	assert.NotEmpty(t, extracted.Error)
	assert.Empty(t, extracted.ContextCode)
}

func TestExtractContextHandler_BadArguments(t *testing.T) {
	t.Parallel()

	handler := createExtractContextHandler(newTestResolver(t))

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing file_path", map[string]interface{}{"line_number": float64(1), "language": "python"}},
		{"missing line_number", map[string]interface{}{"file_path": "a.py", "language": "python"}},
		{"zero line_number", map[string]interface{}{"file_path": "a.py", "line_number": float64(0), "language": "python"}},
		{"missing language", map[string]interface{}{"file_path": "a.py", "line_number": float64(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, handler, tt.args)
			assert.True(t, result.IsError)
		})
	}

	t.Run("non-map arguments", func(t *testing.T) {
		result, err := handler(context.Background(), callToolRequest("not a map"))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})
}
