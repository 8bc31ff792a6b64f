package lang

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for the language registry:
// - Resolve canonical tags, aliases, mixed case, and padded whitespace
// - Reject unknown tags with ErrUnsupportedLanguage
// - Return empty (not nil-ambiguous) kind sets for unknown tags
// - Verify the kind tables for the languages the resolver leans on hardest
// - Resolve file extensions case-insensitively
// - Construct a working parser from a registry entry

// Test: canonical tags and aliases resolve to the same entry
func TestRegistry_Get(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	py, err := r.Get("python")
	require.NoError(t, err)
	assert.Equal(t, "python", py.Name)

	js, err := r.Get("js")
	require.NoError(t, err)
	assert.Equal(t, "javascript", js.Name)

	direct, err := r.Get("javascript")
	require.NoError(t, err)
	assert.Same(t, js, direct, "alias and canonical tag should share one entry")

	upper, err := r.Get("  Python ")
	require.NoError(t, err)
	assert.Same(t, py, upper, "tag matching should ignore case and whitespace")

	sharp, err := r.Get("C#")
	require.NoError(t, err)
	assert.Equal(t, "csharp", sharp.Name)
}

// Test: unknown tags fail with the sentinel error
func TestRegistry_GetUnsupported(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	_, err := r.Get("cobol")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedLanguage))
	assert.Contains(t, err.Error(), "cobol")

	_, err = r.Get("")
	assert.True(t, errors.Is(err, ErrUnsupportedLanguage))
}

// Test: kind lookups never fail, unknown tags get empty sets
func TestRegistry_KindsForUnknownLanguage(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	assert.Empty(t, r.FunctionKinds("cobol"))
	assert.Empty(t, r.ClassKinds("cobol"))
	assert.Empty(t, r.ImportKinds("cobol"))
	assert.False(t, r.FunctionKinds("cobol").Has("function_definition"))
}

// Test: kind tables carry the constructs each grammar actually emits
func TestRegistry_KindTables(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	assert.True(t, r.FunctionKinds("python").Has("function_definition"))
	assert.True(t, r.ClassKinds("python").Has("class_definition"))
	assert.True(t, r.ImportKinds("python").Has("import_from_statement"))

	assert.True(t, r.FunctionKinds("js").Has("arrow_function"))
	assert.True(t, r.FunctionKinds("js").Has("method_definition"))
	assert.True(t, r.ImportKinds("ts").Has("import_statement"))

	assert.True(t, r.FunctionKinds("go").Has("method_declaration"))
	assert.True(t, r.ImportKinds("golang").Has("import_declaration"))

	assert.True(t, r.ClassKinds("rust").Has("impl_item"))
	assert.True(t, r.FunctionKinds("ruby").Has("singleton_method"))
	assert.Empty(t, r.ImportKinds("ruby"), "ruby requires are method calls, not import nodes")
	assert.Empty(t, r.ClassKinds("zig"))
}

// Test: extension lookup is case-insensitive and misses cleanly
func TestRegistry_ForExtension(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	py, ok := r.ForExtension(".py")
	require.True(t, ok)
	assert.Equal(t, "python", py.Name)

	upper, ok := r.ForExtension(".PY")
	require.True(t, ok)
	assert.Same(t, py, upper)

	jsx, ok := r.ForExtension(".jsx")
	require.True(t, ok)
	assert.Equal(t, "javascript", jsx.Name)

	_, ok = r.ForExtension(".txt")
	assert.False(t, ok)
}

// Test: every registered language yields a usable parser
func TestLanguage_NewParser(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	for _, name := range r.Names() {
		entry, err := r.Get(name)
		require.NoError(t, err)

		parser, err := entry.NewParser()
		require.NoError(t, err, "parser for %s", name)
		parser.Close()
	}

	py, err := r.Get("python")
	require.NoError(t, err)
	parser, err := py.NewParser()
	require.NoError(t, err)
	defer parser.Close()

	tree := parser.Parse([]byte("def foo():\n    pass\n"), nil)
	require.NotNil(t, tree)
	defer tree.Close()
	assert.Equal(t, "module", tree.RootNode().Kind())
}

// Test: Names is sorted and Default is a stable shared instance
func TestRegistry_NamesAndDefault(t *testing.T) {
	t.Parallel()

	names := Default().Names()
	assert.Len(t, names, 12)
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "python")
	assert.Contains(t, names, "zig")

	assert.Same(t, Default(), Default())
}
