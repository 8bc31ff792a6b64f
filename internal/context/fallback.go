package context

import (
	"fmt"
	"strings"
)

// lineBasedContext extracts a fixed window of lines around the target when
// structural resolution is unavailable. The window covers contextLines lines
// on each side of the target, clipped at the file boundaries. No names or
// imports are reported in this mode; those fields stay absent rather than
// pretending to be empty findings.
func lineBasedContext(source []byte, filePath string, lineNumber, contextLines int) *ExtractedContext {
	lines := strings.Split(string(source), "\n")

	if lineNumber < 1 || lineNumber > len(lines) {
		return &ExtractedContext{
			File:       filePath,
			TargetLine: lineNumber,
			Error:      fmt.Sprintf("line %d out of range: file has %d lines", lineNumber, len(lines)),
		}
	}
	if contextLines < 0 {
		contextLines = 0
	}

	start := lineNumber - contextLines - 1
	if start < 0 {
		start = 0
	}
	end := lineNumber + contextLines
	if end > len(lines) {
		end = len(lines)
	}

	return &ExtractedContext{
		File:             filePath,
		TargetLine:       lineNumber,
		ContextStartLine: start + 1,
		ContextEndLine:   end,
		ContextCode:      strings.Join(lines[start:end], "\n"),
		ContextKind:      KindFallback,
	}
}
