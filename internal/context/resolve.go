package context

import (
	"log"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/relvet/revet/internal/lang"
)

// identifierKinds are the child node kinds that carry a declaration's name
// across the registered grammars (Ruby class names are "constant" nodes, PHP
// uses "name", Go methods hang theirs off a "field_identifier").
var identifierKinds = map[string]struct{}{
	"identifier":          {},
	"name":                {},
	"constant":            {},
	"type_identifier":     {},
	"property_identifier": {},
	"field_identifier":    {},
	"simple_identifier":   {},
}

// resolve runs the structural extraction path. A nil result means the caller
// should degrade to the line-based fallback: unsupported language, parse
// failure, a target line outside the tree, or a panic anywhere in the walk.
func (r *Resolver) resolve(source []byte, filePath string, lineNumber int, language string) (result *ExtractedContext) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("Warning: context resolution failed for %s:%d: %v", filePath, lineNumber, rec)
			result = nil
		}
	}()

	entry, err := r.registry.Get(language)
	if err != nil {
		return nil
	}

	parser, err := entry.NewParser()
	if err != nil {
		return nil
	}
	defer parser.Close()

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.HasError() {
		return nil
	}
	if lineNumber < 1 {
		return nil
	}

	node := deepestNodeAt(root, uint(lineNumber-1))
	if node == nil {
		return nil
	}

	function := nearestAncestor(node, entry.FunctionKinds)
	class := nearestAncestor(node, entry.ClassKinds)

	contextNode := node
	kind := KindNode
	switch {
	case function != nil:
		contextNode = function
		kind = KindFunction
	case class != nil:
		contextNode = class
		kind = KindClass
	}

	result = &ExtractedContext{
		File:             filePath,
		TargetLine:       lineNumber,
		ContextStartLine: int(contextNode.StartPosition().Row) + 1,
		ContextEndLine:   int(contextNode.EndPosition().Row) + 1,
		ContextCode:      sliceSource(source, contextNode.StartByte(), contextNode.EndByte()),
		ContextKind:      kind,
	}
	if function != nil {
		result.FunctionName = declarationName(function, source)
	}
	if class != nil {
		result.ClassName = declarationName(class, source)
	}
	result.Imports = collectImports(root, source, entry.ImportKinds)
	return result
}

// deepestNodeAt returns the most specific node whose line span contains
// targetRow (0-indexed), or nil when the root itself does not contain it.
// The descent is iterative rather than recursive so deeply nested trees
// cannot blow the stack, and among siblings the first containing child wins.
func deepestNodeAt(root *sitter.Node, targetRow uint) *sitter.Node {
	if !containsRow(root, targetRow) {
		return nil
	}

	node := root
	for {
		var next *sitter.Node
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(uint(i))
			if child != nil && containsRow(child, targetRow) {
				next = child
				break
			}
		}
		if next == nil {
			return node
		}
		node = next
	}
}

func containsRow(node *sitter.Node, row uint) bool {
	return node.StartPosition().Row <= row && row <= node.EndPosition().Row
}

// nearestAncestor walks parent references upward, inclusive of node itself,
// and returns the first node whose kind is in kinds.
func nearestAncestor(node *sitter.Node, kinds lang.KindSet) *sitter.Node {
	if len(kinds) == 0 {
		return nil
	}
	for current := node; current != nil; current = current.Parent() {
		if kinds.Has(current.Kind()) {
			return current
		}
	}
	return nil
}

// declarationName extracts a declaration's name from its immediate children:
// the grammar's "name" field when it has one, otherwise the first
// name-carrying token. The field lookup matters for grammars where type
// names also parse as identifiers and would shadow the real name in a plain
// scan. Anonymous constructs (arrow functions, lambdas) have neither; the
// empty result means the name is simply absent.
func declarationName(node *sitter.Node, source []byte) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return sliceSource(source, name.StartByte(), name.EndByte())
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child == nil {
			continue
		}
		if _, ok := identifierKinds[child.Kind()]; ok {
			return sliceSource(source, child.StartByte(), child.EndByte())
		}
	}
	return ""
}

// collectImports gathers import-statement text for the whole tree in document
// order, stopping at maxImports. The walk uses an explicit stack with
// children pushed in reverse so pop order matches document order.
func collectImports(root *sitter.Node, source []byte, kinds lang.KindSet) []string {
	if len(kinds) == 0 {
		return nil
	}

	var imports []string
	stack := []*sitter.Node{root}
	for len(stack) > 0 && len(imports) < maxImports {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if kinds.Has(node.Kind()) {
			imports = append(imports, sliceSource(source, node.StartByte(), node.EndByte()))
			continue
		}
		for i := int(node.ChildCount()) - 1; i >= 0; i-- {
			if child := node.Child(uint(i)); child != nil {
				stack = append(stack, child)
			}
		}
	}
	return imports
}

// sliceSource extracts the text between two byte offsets, clamped to the
// source bounds so a malformed tree can never cause an out-of-range slice.
func sliceSource(source []byte, start, end uint) string {
	limit := uint(len(source))
	if start > limit {
		start = limit
	}
	if end > limit {
		end = limit
	}
	if start > end {
		start = end
	}
	return string(source[start:end])
}
