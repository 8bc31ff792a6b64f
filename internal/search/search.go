// Package search provides in-memory full-text search over findings with
// field filters and match highlighting. The index is rebuilt from stored
// findings per invocation; persistence stays in the storage package.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/relvet/revet/internal/scanner"
)

// Options narrow a search beyond the query string. Zero values mean no
// filter; a nonpositive or oversized limit falls back to the default.
type Options struct {
	Tool     string // exact scanner name: bandit, eslint, gosec
	Severity string // effective severity, case-insensitive
	Decision string // verdict decision, or "unverified"
	FilePath string // wildcard pattern, e.g. "app/*.py"
	Limit    int
}

// DecisionUnverified filters for findings that have no verdict yet.
const DecisionUnverified = "unverified"

const defaultLimit = 20

// Hit is one search result with its match quality and highlighted snippets.
type Hit struct {
	ID         string   `json:"id"`
	Tool       string   `json:"tool"`
	RuleID     string   `json:"rule_id"`
	Severity   string   `json:"severity"`
	Decision   string   `json:"decision"`
	File       string   `json:"file"`
	Line       int      `json:"line"`
	Text       string   `json:"text"`
	Score      float64  `json:"score"`
	Highlights []string `json:"highlights,omitempty"` // Matching snippets with <em> tags
}

// Index is an in-memory bleve index over a set of findings.
type Index struct {
	index bleve.Index
}

// NewIndex builds an in-memory index over the findings.
func NewIndex(ctx context.Context, findings []scanner.Finding) (*Index, error) {
	index, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}

	if err := indexFindings(ctx, index, findings); err != nil {
		index.Close()
		return nil, fmt.Errorf("failed to index findings: %w", err)
	}

	return &Index{index: index}, nil
}

// buildMapping creates the index mapping for finding documents. Filterable
// fields use the keyword analyzer for exact matching; searched fields use
// the standard analyzer.
func buildMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()

	// Text field (primary search target) - standard analyzer
	textMapping := bleve.NewTextFieldMapping()
	textMapping.Analyzer = "standard"
	textMapping.Store = true              // Store for highlighting
	textMapping.Index = true              // Searchable
	textMapping.IncludeTermVectors = true // Enable phrase search

	// Tool field (filterable) - keyword analyzer for exact matching
	toolMapping := bleve.NewTextFieldMapping()
	toolMapping.Analyzer = "keyword"
	toolMapping.Store = true
	toolMapping.Index = true

	// Severity field (filterable) - keyword analyzer
	severityMapping := bleve.NewTextFieldMapping()
	severityMapping.Analyzer = "keyword"
	severityMapping.Store = true
	severityMapping.Index = true

	// Decision field (filterable) - keyword analyzer
	decisionMapping := bleve.NewTextFieldMapping()
	decisionMapping.Analyzer = "keyword"
	decisionMapping.Store = true
	decisionMapping.Index = true

	// Rule ID field (searchable as an exact token)
	ruleMapping := bleve.NewTextFieldMapping()
	ruleMapping.Analyzer = "keyword"
	ruleMapping.Store = true
	ruleMapping.Index = true

	// File path field (filterable) - keyword analyzer so wildcard patterns
	// like "app/*.py" match against the whole path term
	filePathMapping := bleve.NewTextFieldMapping()
	filePathMapping.Analyzer = "keyword"
	filePathMapping.Store = true
	filePathMapping.Index = true

	// ID field (stored but not analyzed) - keyword for exact match only
	idMapping := bleve.NewTextFieldMapping()
	idMapping.Analyzer = "keyword"
	idMapping.Store = true
	idMapping.Index = false // Don't index, just store

	// Line number (stored for result display, never searched)
	lineMapping := bleve.NewNumericFieldMapping()
	lineMapping.Store = true
	lineMapping.Index = false

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("id", idMapping)
	docMapping.AddFieldMappingsAt("text", textMapping)
	docMapping.AddFieldMappingsAt("tool", toolMapping)
	docMapping.AddFieldMappingsAt("severity", severityMapping)
	docMapping.AddFieldMappingsAt("decision", decisionMapping)
	docMapping.AddFieldMappingsAt("rule_id", ruleMapping)
	docMapping.AddFieldMappingsAt("file_path", filePathMapping)
	docMapping.AddFieldMappingsAt("line", lineMapping)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// indexFindings adds findings to the index in batches.
func indexFindings(ctx context.Context, index bleve.Index, findings []scanner.Finding) error {
	const batchSize = 1000

	batch := index.NewBatch()
	for i := range findings {
		// Check cancellation periodically
		if i%batchSize == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		f := &findings[i]
		// Findings loaded from storage carry UUIDs; unstored findings get a
		// positional ID since bleve rejects empty document IDs.
		id := f.ID
		if id == "" {
			id = fmt.Sprintf("%s:%d#%d", f.File, f.Line, i)
		}
		if err := batch.Index(id, findingToDocument(f, id)); err != nil {
			return fmt.Errorf("failed to add finding %s to batch: %w", id, err)
		}

		if batch.Size() >= batchSize {
			if err := index.Batch(batch); err != nil {
				return fmt.Errorf("failed to execute batch: %w", err)
			}
			batch = index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			return fmt.Errorf("failed to execute final batch: %w", err)
		}
	}

	return nil
}

// findingToDocument converts a finding to a bleve document. The text field
// concatenates the description, the tool snippet, and the extracted context
// so all three are searchable under one field.
func findingToDocument(f *scanner.Finding, id string) map[string]interface{} {
	var text strings.Builder
	text.WriteString(f.Description)
	if f.Code != "" {
		text.WriteString("\n")
		text.WriteString(f.Code)
	}
	if f.Context != nil && f.Context.ContextCode != "" {
		text.WriteString("\n")
		text.WriteString(f.Context.ContextCode)
	}

	decision := DecisionUnverified
	if f.Verification != nil {
		decision = f.Verification.Decision
	}

	return map[string]interface{}{
		"id":        id,
		"text":      text.String(),
		"tool":      f.Tool,
		"severity":  f.EffectiveSeverity(),
		"decision":  decision,
		"rule_id":   f.RuleID,
		"file_path": f.File,
		"line":      f.Line,
	}
}

// Search executes a keyword search using bleve QueryStringQuery syntax:
// bare terms, quoted phrases, +required/-excluded terms, and wildcards.
func (idx *Index) Search(queryStr string, options *Options) ([]*Hit, error) {
	if options == nil {
		options = &Options{}
	}

	limit := options.Limit
	if limit <= 0 || limit > 100 {
		limit = defaultLimit
	}

	// Build query with filters
	var queries []query.Query
	queries = append(queries, bleve.NewQueryStringQuery(queryStr))

	if options.Tool != "" {
		toolQuery := bleve.NewMatchQuery(strings.ToLower(options.Tool))
		toolQuery.SetField("tool")
		queries = append(queries, toolQuery)
	}
	if options.Severity != "" {
		sevQuery := bleve.NewMatchQuery(strings.ToUpper(options.Severity))
		sevQuery.SetField("severity")
		queries = append(queries, sevQuery)
	}
	if options.Decision != "" {
		decQuery := bleve.NewMatchQuery(strings.ToLower(options.Decision))
		decQuery.SetField("decision")
		queries = append(queries, decQuery)
	}
	if options.FilePath != "" {
		pathQuery := bleve.NewWildcardQuery(options.FilePath)
		pathQuery.SetField("file_path")
		queries = append(queries, pathQuery)
	}

	// Combine with conjunction (AND)
	var finalQuery query.Query
	if len(queries) == 1 {
		finalQuery = queries[0]
	} else {
		finalQuery = bleve.NewConjunctionQuery(queries...)
	}

	// Execute search with highlighting
	searchRequest := bleve.NewSearchRequestOptions(finalQuery, limit, 0, false)
	highlightStyle := "html" // <em> tags around matches
	searchRequest.Highlight = bleve.NewHighlight()
	searchRequest.Highlight.Style = &highlightStyle
	searchRequest.Highlight.Fields = []string{"text"}

	// Request stored fields for hit reconstruction
	searchRequest.Fields = []string{"id", "text", "tool", "severity", "decision", "rule_id", "file_path", "line"}

	searchResult, err := idx.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]*Hit, 0, len(searchResult.Hits))
	for _, hit := range searchResult.Hits {
		h := &Hit{Score: hit.Score}
		h.ID, _ = hit.Fields["id"].(string)
		h.Tool, _ = hit.Fields["tool"].(string)
		h.RuleID, _ = hit.Fields["rule_id"].(string)
		h.Severity, _ = hit.Fields["severity"].(string)
		h.Decision, _ = hit.Fields["decision"].(string)
		h.File, _ = hit.Fields["file_path"].(string)
		h.Text, _ = hit.Fields["text"].(string)

		// Stored numerics come back as float64
		if line, ok := hit.Fields["line"].(float64); ok {
			h.Line = int(line)
		}

		h.Highlights = extractHighlights(hit.Fragments)
		results = append(results, h)
	}

	return results, nil
}

// extractHighlights extracts highlighted snippets from bleve fragments.
// Limits to 3 highlights per result to keep output readable.
func extractHighlights(fragments map[string][]string) []string {
	var highlights []string
	for _, snippets := range fragments {
		highlights = append(highlights, snippets...)
	}
	if len(highlights) > 3 {
		highlights = highlights[:3]
	}
	return highlights
}

// Count returns the number of indexed findings.
func (idx *Index) Count() (uint64, error) {
	return idx.index.DocCount()
}

// Close releases resources held by the index.
func (idx *Index) Close() error {
	if idx.index != nil {
		return idx.index.Close()
	}
	return nil
}
