// Package context extracts the smallest semantically meaningful code region
// around a flagged source line: the enclosing function or class when the file
// parses, a fixed line window when it does not. Results feed LLM verification
// prompts, so every failure degrades to usable output instead of an error.
package context

import (
	"fmt"
	"time"

	"github.com/relvet/revet/internal/lang"
)

// Context kinds reported in ExtractedContext.ContextKind.
const (
	KindFunction = "function"
	KindClass    = "class"
	KindNode     = "node"
	KindFallback = "line_based_fallback"
)

// maxImports caps the import list carried by structural results.
const maxImports = 10

// ExtractedContext is the result of one extraction. Exactly one of the normal
// fields or Error is populated; consumers treat missing names and imports as
// "no structural context", not as a failure.
type ExtractedContext struct {
	File             string   `json:"file"`
	TargetLine       int      `json:"target_line"`
	ContextStartLine int      `json:"context_start_line,omitempty"`
	ContextEndLine   int      `json:"context_end_line,omitempty"`
	ContextCode      string   `json:"context_code,omitempty"`
	ContextKind      string   `json:"context_type,omitempty"`
	FunctionName     string   `json:"function_name,omitempty"`
	ClassName        string   `json:"class_name,omitempty"`
	Imports          []string `json:"imports,omitempty"`
	Error            string   `json:"error,omitempty"`
}

// IsError reports whether extraction failed outright, leaving no code span.
func (c *ExtractedContext) IsError() bool {
	return c.Error != ""
}

// Structural reports whether the context came from syntax-tree resolution
// rather than the line-window fallback.
func (c *ExtractedContext) Structural() bool {
	switch c.ContextKind {
	case KindFunction, KindClass, KindNode:
		return true
	}
	return false
}

// Defaults for Config fields left at their zero value.
const (
	DefaultContextLines = 10
	defaultCacheEntries = 512
	defaultCacheTTL     = 5 * time.Minute
)

// Config controls resolver behavior. The zero value is usable; zero fields
// take the defaults above.
type Config struct {
	// ContextLines is the fallback window radius in lines.
	ContextLines int
	// CacheEntries bounds the file-content cache. Zero means the default
	// capacity; a negative value disables caching entirely.
	CacheEntries int
	// CacheTTL is how long cached file contents stay valid.
	CacheTTL time.Duration
}

func (c *Config) applyDefaults() {
	if c.ContextLines <= 0 {
		c.ContextLines = DefaultContextLines
	}
	if c.CacheEntries == 0 {
		c.CacheEntries = defaultCacheEntries
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = defaultCacheTTL
	}
}

// Resolver turns (file, line, language) triples into ExtractedContexts. It is
// stateless per call apart from a read-only grammar registry and an optional
// file-content cache, so one Resolver may serve many goroutines.
type Resolver struct {
	registry     *lang.Registry
	contextLines int
	files        *fileCache
}

// NewResolver builds a resolver on the given registry. A nil registry uses
// the process-wide default.
func NewResolver(registry *lang.Registry, cfg Config) (*Resolver, error) {
	if registry == nil {
		registry = lang.Default()
	}
	cfg.applyDefaults()

	r := &Resolver{
		registry:     registry,
		contextLines: cfg.ContextLines,
	}
	if cfg.CacheEntries > 0 {
		files, err := newFileCache(cfg.CacheEntries, cfg.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("building file cache: %w", err)
		}
		r.files = files
	}
	return r, nil
}

// Close releases the file-content cache. The resolver holds no other
// resources.
func (r *Resolver) Close() {
	if r.files != nil {
		r.files.close()
	}
}

// Extract resolves context around lineNumber (1-indexed) in the named file
// using the resolver's configured fallback window. It never panics and never
// returns nil: unreadable files yield an error-tagged result, every other
// failure yields a line-window fallback.
func (r *Resolver) Extract(filePath string, lineNumber int, language string) *ExtractedContext {
	return r.ExtractWithWindow(filePath, lineNumber, language, r.contextLines)
}

// ExtractWithWindow is Extract with an explicit fallback window radius.
func (r *Resolver) ExtractWithWindow(filePath string, lineNumber int, language string, contextLines int) *ExtractedContext {
	source, err := r.readFile(filePath)
	if err != nil {
		return &ExtractedContext{
			File:       filePath,
			TargetLine: lineNumber,
			Error:      fmt.Sprintf("reading file: %v", err),
		}
	}

	if result := r.resolve(source, filePath, lineNumber, language); result != nil {
		return result
	}
	return lineBasedContext(source, filePath, lineNumber, contextLines)
}

// Imports parses the whole file and returns its import statements in
// document order, capped the same way structural extraction caps them.
// Unlike Extract this reports failure; import analysis has no useful
// degraded output. Partial parses still contribute whatever import nodes
// survived, since import statements usually sit above broken code.
func (r *Resolver) Imports(filePath string, language string) ([]string, error) {
	source, err := r.readFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	entry, err := r.registry.Get(language)
	if err != nil {
		return nil, err
	}
	parser, err := entry.NewParser()
	if err != nil {
		return nil, err
	}
	defer parser.Close()

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("parsing %s: no syntax tree", filePath)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("parsing %s: no root node", filePath)
	}
	return collectImports(root, source, entry.ImportKinds), nil
}
