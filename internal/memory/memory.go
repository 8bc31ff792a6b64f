// Package memory remembers verified findings in a vector collection so the
// triage of a new finding can see prior verdicts on similar code. The
// collection lives in memory and is rebuilt from stored findings; SQLite
// stays the single source of truth.
package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/philippgille/chromem-go"

	"github.com/relvet/revet/internal/scanner"
)

const collectionName = "findings"

// ErrDisabled is returned when no embedding API key is available. The
// similar-finding memory is optional; callers degrade to running without it.
var ErrDisabled = errors.New("similar-finding memory requires OPENAI_API_KEY")

// Entry is a prior verdict surfaced for a new finding. Note carries the
// false-positive reason when the verdict recorded one.
type Entry struct {
	ID         string  `json:"id"`
	Tool       string  `json:"tool"`
	RuleID     string  `json:"rule_id"`
	Decision   string  `json:"decision"`
	File       string  `json:"file"`
	Note       string  `json:"note,omitempty"`
	Content    string  `json:"content"`
	Similarity float32 `json:"similarity"`
}

// Summary renders the entry as a one-line prior verdict for prompts.
func (e Entry) Summary() string {
	s := fmt.Sprintf("%s (%s) in %s: %s", e.RuleID, e.Tool, e.File, e.Decision)
	if e.Note != "" {
		s += " (" + e.Note + ")"
	}
	return s
}

// Store holds verified findings for similarity lookup.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewStore builds a memory over the given findings, embedding with OpenAI.
// Only findings that carry a verdict are remembered. Returns ErrDisabled
// when OPENAI_API_KEY is not set.
func NewStore(ctx context.Context, findings []scanner.Finding) (*Store, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrDisabled
	}
	embedder := chromem.NewEmbeddingFuncOpenAI(apiKey, chromem.EmbeddingModelOpenAI3Small)
	return newStore(ctx, findings, embedder)
}

// newStore is the embedding-agnostic constructor shared with tests.
func newStore(ctx context.Context, findings []scanner.Finding, embedder chromem.EmbeddingFunc) (*Store, error) {
	db := chromem.NewDB()
	collection, err := db.CreateCollection(collectionName, nil, embedder)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	s := &Store{db: db, collection: collection}
	if _, err := s.Add(ctx, findings); err != nil {
		return nil, err
	}
	return s, nil
}

// Add remembers the verified findings in the batch and reports how many were
// added. Unverified findings are skipped; they have no verdict worth
// remembering.
func (s *Store) Add(ctx context.Context, findings []scanner.Finding) (int, error) {
	added := 0
	for i := range findings {
		f := &findings[i]
		if f.Verification == nil {
			continue
		}

		id := f.ID
		if id == "" {
			id = fmt.Sprintf("%s:%d", f.File, f.Line)
		}

		doc := chromem.Document{
			ID:      id,
			Content: findingContent(f),
			Metadata: map[string]string{
				"tool":     f.Tool,
				"rule":     f.RuleID,
				"decision": f.Verification.Decision,
				"file":     f.File,
				"note":     f.Verification.FalsePositiveReason,
			},
		}
		if err := s.collection.AddDocument(ctx, doc); err != nil {
			return added, fmt.Errorf("failed to add finding %s: %w", id, err)
		}
		added++
	}
	return added, nil
}

// Similar returns up to k prior verdicts closest to the finding, best match
// first. An empty memory returns no entries.
func (s *Store) Similar(ctx context.Context, f *scanner.Finding, k int) ([]Entry, error) {
	count := s.collection.Count()
	if count == 0 || k <= 0 {
		return nil, nil
	}
	// chromem rejects queries asking for more results than documents
	if k > count {
		k = count
	}

	docs, err := s.collection.Query(ctx, findingContent(f), k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("similarity query failed: %w", err)
	}

	entries := make([]Entry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, Entry{
			ID:         doc.ID,
			Tool:       doc.Metadata["tool"],
			RuleID:     doc.Metadata["rule"],
			Decision:   doc.Metadata["decision"],
			File:       doc.Metadata["file"],
			Note:       doc.Metadata["note"],
			Content:    doc.Content,
			Similarity: doc.Similarity,
		})
	}
	return entries, nil
}

// Count returns the number of remembered findings.
func (s *Store) Count() int {
	return s.collection.Count()
}

// findingContent is the embedded text: the description plus the best
// available code snippet. The same recipe serves indexing and querying, so
// like findings land near each other.
func findingContent(f *scanner.Finding) string {
	var b strings.Builder
	b.WriteString(f.Description)

	snippet := f.Code
	if f.Context != nil && f.Context.ContextCode != "" {
		snippet = f.Context.ContextCode
	}
	if snippet != "" {
		b.WriteString("\n\n")
		b.WriteString(snippet)
	}
	return b.String()
}
