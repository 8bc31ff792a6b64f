// Package lang maps language tags to tree-sitter grammars and to the node-kind
// vocabularies that identify function, class, and import constructs in each
// grammar. Centralizing the mapping keeps the context resolver language-agnostic:
// it asks the registry for kind sets instead of switching on language names.
package lang

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ErrUnsupportedLanguage is returned by Get for language tags with no
// registered grammar.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// KindSet is a set of tree-sitter node kind names.
type KindSet map[string]struct{}

func newKindSet(kinds ...string) KindSet {
	s := make(KindSet, len(kinds))
	for _, k := range kinds {
		s[k] = struct{}{}
	}
	return s
}

// Has reports whether kind is in the set.
func (s KindSet) Has(kind string) bool {
	_, ok := s[kind]
	return ok
}

// Language describes one supported language: its tree-sitter grammar and the
// node kinds that count as function-like, class-like, and import-like
// constructs in that grammar.
type Language struct {
	Name       string   // canonical lowercase tag, e.g. "python"
	Aliases    []string // alternate tags accepted by Get, e.g. "js"
	Extensions []string // file extensions including the dot, e.g. ".py"

	Grammar       *sitter.Language
	FunctionKinds KindSet
	ClassKinds    KindSet
	ImportKinds   KindSet
}

// NewParser returns a parser configured for this language's grammar. Parser
// instances are not safe for concurrent reuse, so callers create one per
// parse and Close it when done; the Language itself is immutable and shared.
func (l *Language) NewParser() (*sitter.Parser, error) {
	parser := sitter.NewParser()
	if err := parser.SetLanguage(l.Grammar); err != nil {
		parser.Close()
		return nil, fmt.Errorf("setting %s grammar: %w", l.Name, err)
	}
	return parser, nil
}

// Registry resolves case-insensitive language tags to Language entries. All
// entries are registered at construction and never mutated afterwards, so a
// Registry is safe for concurrent use without locking.
type Registry struct {
	byName map[string]*Language
	byTag  map[string]*Language
	byExt  map[string]*Language
}

// NewRegistry returns a registry with every built-in language registered.
func NewRegistry() *Registry {
	r := &Registry{
		byName: make(map[string]*Language),
		byTag:  make(map[string]*Language),
		byExt:  make(map[string]*Language),
	}
	for _, l := range builtins() {
		r.register(l)
	}
	return r
}

func (r *Registry) register(l *Language) {
	r.byName[l.Name] = l
	r.byTag[l.Name] = l
	for _, alias := range l.Aliases {
		r.byTag[strings.ToLower(alias)] = l
	}
	for _, ext := range l.Extensions {
		r.byExt[strings.ToLower(ext)] = l
	}
}

// Get returns the entry for a language tag. Tags are matched
// case-insensitively with surrounding whitespace ignored; unknown tags
// return ErrUnsupportedLanguage.
func (r *Registry) Get(language string) (*Language, error) {
	l, ok := r.byTag[normalizeTag(language)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
	}
	return l, nil
}

// FunctionKinds returns the function node kinds for a language tag. Unknown
// tags yield an empty set rather than an error so callers can degrade to
// line-based behavior.
func (r *Registry) FunctionKinds(language string) KindSet {
	if l, ok := r.byTag[normalizeTag(language)]; ok {
		return l.FunctionKinds
	}
	return KindSet{}
}

// ClassKinds returns the class node kinds for a language tag, or an empty set
// for unknown tags.
func (r *Registry) ClassKinds(language string) KindSet {
	if l, ok := r.byTag[normalizeTag(language)]; ok {
		return l.ClassKinds
	}
	return KindSet{}
}

// ImportKinds returns the import node kinds for a language tag, or an empty
// set for unknown tags.
func (r *Registry) ImportKinds(language string) KindSet {
	if l, ok := r.byTag[normalizeTag(language)]; ok {
		return l.ImportKinds
	}
	return KindSet{}
}

// ForExtension returns the language registered for a file extension. The
// extension includes the leading dot and is matched case-insensitively.
func (r *Registry) ForExtension(ext string) (*Language, bool) {
	l, ok := r.byExt[strings.ToLower(ext)]
	return l, ok
}

// Names returns the canonical names of all registered languages, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeTag(language string) string {
	return strings.ToLower(strings.TrimSpace(language))
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry. Grammar objects are expensive to
// build and immutable once built, so every caller shares this instance.
func Default() *Registry {
	return defaultRegistry
}
