package lang

import (
	zig "github.com/tree-sitter-grammars/tree-sitter-zig/bindings/go"
	sitter "github.com/tree-sitter/go-tree-sitter"
	csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	golang "github.com/tree-sitter/tree-sitter-go/bindings/go"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// builtins constructs the language table. Each row pairs a grammar with the
// node kinds that grammar uses for functions, classes, and imports; kinds a
// grammar does not have (Ruby requires are plain method calls, Zig imports
// are builtin calls) are left as empty sets and the resolver degrades
// accordingly.
func builtins() []*Language {
	jsFunctions := newKindSet(
		"function_declaration",
		"function_expression",
		"arrow_function",
		"method_definition",
		"generator_function_declaration",
	)
	jsClasses := newKindSet("class_declaration", "class_expression")
	jsImports := newKindSet("import_statement", "import_declaration")

	return []*Language{
		{
			Name:       "python",
			Extensions: []string{".py"},
			Grammar:    sitter.NewLanguage(python.Language()),
			FunctionKinds: newKindSet(
				"function_definition",
				"async_function_definition",
			),
			ClassKinds:  newKindSet("class_definition"),
			ImportKinds: newKindSet("import_statement", "import_from_statement"),
		},
		{
			Name:          "javascript",
			Aliases:       []string{"js"},
			Extensions:    []string{".js", ".jsx", ".mjs", ".cjs"},
			Grammar:       sitter.NewLanguage(javascript.Language()),
			FunctionKinds: jsFunctions,
			ClassKinds:    jsClasses,
			ImportKinds:   jsImports,
		},
		{
			// The TypeScript grammar is a superset of the JavaScript one and
			// shares its kind vocabulary for these constructs.
			Name:          "typescript",
			Aliases:       []string{"ts"},
			Extensions:    []string{".ts"},
			Grammar:       sitter.NewLanguage(typescript.LanguageTypescript()),
			FunctionKinds: jsFunctions,
			ClassKinds:    jsClasses,
			ImportKinds:   jsImports,
		},
		{
			Name:       "go",
			Aliases:    []string{"golang"},
			Extensions: []string{".go"},
			Grammar:    sitter.NewLanguage(golang.Language()),
			FunctionKinds: newKindSet(
				"function_declaration",
				"method_declaration",
				"func_literal",
			),
			ClassKinds:  newKindSet("type_declaration"),
			ImportKinds: newKindSet("import_declaration"),
		},
		{
			Name:       "rust",
			Aliases:    []string{"rs"},
			Extensions: []string{".rs"},
			Grammar:    sitter.NewLanguage(rust.Language()),
			FunctionKinds: newKindSet(
				"function_item",
				"closure_expression",
			),
			ClassKinds: newKindSet(
				"struct_item",
				"enum_item",
				"trait_item",
				"impl_item",
			),
			ImportKinds: newKindSet("use_declaration"),
		},
		{
			Name:       "java",
			Extensions: []string{".java"},
			Grammar:    sitter.NewLanguage(java.Language()),
			FunctionKinds: newKindSet(
				"method_declaration",
				"constructor_declaration",
				"lambda_expression",
			),
			ClassKinds: newKindSet(
				"class_declaration",
				"interface_declaration",
				"enum_declaration",
				"record_declaration",
			),
			ImportKinds: newKindSet("import_declaration"),
		},
		{
			Name:          "c",
			Extensions:    []string{".c", ".h"},
			Grammar:       sitter.NewLanguage(c.Language()),
			FunctionKinds: newKindSet("function_definition"),
			ClassKinds: newKindSet(
				"struct_specifier",
				"enum_specifier",
				"union_specifier",
			),
			ImportKinds: newKindSet("preproc_include"),
		},
		{
			Name:       "cpp",
			Aliases:    []string{"c++"},
			Extensions: []string{".cpp", ".cc", ".cxx", ".hpp", ".hh"},
			Grammar:    sitter.NewLanguage(cpp.Language()),
			FunctionKinds: newKindSet(
				"function_definition",
				"lambda_expression",
			),
			ClassKinds: newKindSet(
				"class_specifier",
				"struct_specifier",
				"enum_specifier",
				"union_specifier",
			),
			ImportKinds: newKindSet("preproc_include", "using_declaration"),
		},
		{
			Name:       "csharp",
			Aliases:    []string{"c#", "cs"},
			Extensions: []string{".cs"},
			Grammar:    sitter.NewLanguage(csharp.Language()),
			FunctionKinds: newKindSet(
				"method_declaration",
				"constructor_declaration",
				"local_function_statement",
			),
			ClassKinds: newKindSet(
				"class_declaration",
				"interface_declaration",
				"struct_declaration",
				"record_declaration",
				"enum_declaration",
			),
			ImportKinds: newKindSet("using_directive"),
		},
		{
			Name:          "ruby",
			Aliases:       []string{"rb"},
			Extensions:    []string{".rb"},
			Grammar:       sitter.NewLanguage(ruby.Language()),
			FunctionKinds: newKindSet("method", "singleton_method"),
			ClassKinds:    newKindSet("class", "module"),
			ImportKinds:   newKindSet(),
		},
		{
			Name:       "php",
			Extensions: []string{".php"},
			Grammar:    sitter.NewLanguage(php.LanguagePHP()),
			FunctionKinds: newKindSet(
				"function_definition",
				"method_declaration",
				"anonymous_function",
				"arrow_function",
			),
			ClassKinds: newKindSet(
				"class_declaration",
				"interface_declaration",
				"trait_declaration",
				"enum_declaration",
			),
			ImportKinds: newKindSet("namespace_use_declaration"),
		},
		{
			Name:          "zig",
			Extensions:    []string{".zig"},
			Grammar:       sitter.NewLanguage(zig.Language()),
			FunctionKinds: newKindSet("function_declaration"),
			ClassKinds:    newKindSet(),
			ImportKinds:   newKindSet(),
		},
	}
}
