package impact

import (
	"path"
	"regexp"
	"strings"
)

// quotedSpec matches the quoted module specifier in import statements
// ("./util", 'app/db', <header.h>).
var quotedSpec = regexp.MustCompile(`["'<]([^"'<>]+)[">']`)

// candidatePaths turns one import statement into the relative paths it could
// refer to inside the scanned tree. Resolution is deliberately best-effort:
// a candidate that does not exist in the tree is simply never matched, so
// over-generating is harmless and under-generating loses edges.
func candidatePaths(stmt, language, importerRel string) []string {
	dir := path.Dir(importerRel)
	if dir == "." {
		dir = ""
	}

	switch language {
	case "python":
		return pythonCandidates(stmt, dir)
	case "javascript", "typescript":
		return scriptCandidates(stmt, dir)
	case "go":
		return suffixDirCandidates(quotedParts(stmt), "/")
	case "java":
		return javaCandidates(stmt)
	case "c", "cpp":
		return includeCandidates(stmt, dir)
	case "csharp":
		return suffixDirCandidates(dottedPath(stmt, "using"), ".")
	case "rust":
		return rustCandidates(stmt, dir)
	case "php":
		return phpCandidates(stmt)
	}
	return nil
}

// quotedParts extracts every quoted specifier from the statement. Go import
// blocks carry several.
func quotedParts(stmt string) []string {
	var parts []string
	for _, m := range quotedSpec.FindAllStringSubmatch(stmt, -1) {
		parts = append(parts, m[1])
	}
	return parts
}

// pythonCandidates handles both import forms:
//
//	import a.b, c
//	from .sibling import name
//
// Dotted modules map to slash paths; leading dots resolve against the
// importer's directory, one level per extra dot.
func pythonCandidates(stmt, dir string) []string {
	fields := strings.Fields(stmt)
	if len(fields) < 2 {
		return nil
	}

	var candidates []string
	addModule := func(module string) {
		module = strings.TrimSpace(strings.TrimSuffix(module, ","))
		if module == "" {
			return
		}
		if strings.HasPrefix(module, ".") {
			// Relative import: first dot anchors at the importer's
			// directory, each extra dot climbs one level
			base := dir
			rest := strings.TrimPrefix(module, ".")
			for strings.HasPrefix(rest, ".") {
				rest = strings.TrimPrefix(rest, ".")
				base = parentDir(base)
			}
			if rest == "" {
				return
			}
			p := joinRel(base, strings.ReplaceAll(rest, ".", "/"))
			candidates = append(candidates, p+".py", p+"/__init__.py")
			return
		}
		p := strings.ReplaceAll(module, ".", "/")
		candidates = append(candidates, p+".py", p+"/__init__.py")
	}

	switch fields[0] {
	case "from":
		module := fields[1]
		if strings.Trim(module, ".") == "" {
			// "from . import util": the imported names are the modules
			base := dir
			for i := 1; i < len(module); i++ {
				base = parentDir(base)
			}
			for _, name := range importedNames(fields) {
				p := joinRel(base, name)
				candidates = append(candidates, p+".py", p+"/__init__.py")
			}
			return candidates
		}
		addModule(module)
	case "import":
		for _, module := range fields[1:] {
			if module == "as" {
				break
			}
			addModule(module)
		}
	}
	return candidates
}

// importedNames returns the names after the "import" keyword in a from-import.
func importedNames(fields []string) []string {
	var names []string
	seen := false
	for _, f := range fields {
		if f == "import" {
			seen = true
			continue
		}
		if !seen {
			continue
		}
		name := strings.TrimSuffix(f, ",")
		if name == "as" || name == "" || name == "(" || name == ")" {
			continue
		}
		names = append(names, strings.Trim(name, "()"))
	}
	return names
}

// scriptCandidates resolves JavaScript and TypeScript specifiers. Relative
// specifiers resolve against the importer; bare package names live outside
// the tree and produce nothing.
func scriptCandidates(stmt, dir string) []string {
	var candidates []string
	for _, spec := range quotedParts(stmt) {
		if !strings.HasPrefix(spec, ".") {
			continue
		}
		resolved := path.Clean(joinRel(dir, spec))
		candidates = append(candidates, resolved)
		for _, ext := range []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx"} {
			candidates = append(candidates, resolved+ext)
		}
		candidates = append(candidates, resolved+"/index.js", resolved+"/index.ts")
	}
	return candidates
}

// suffixDirCandidates maps package-style imports onto directories. Module
// prefixes are unknowable from inside the tree, so every suffix of the
// import path is tried: "github.com/acme/app/internal/db" also yields
// "acme/app/internal/db", "app/internal/db", "internal/db", and "db".
// Candidates carry a trailing "/" marker so matching targets directories.
func suffixDirCandidates(specs []string, sep string) []string {
	var candidates []string
	for _, spec := range specs {
		spec = strings.TrimSuffix(strings.TrimSpace(spec), ";")
		if spec == "" {
			continue
		}
		segments := strings.Split(spec, sep)
		for i := range segments {
			p := strings.Join(segments[i:], "/")
			if p != "" {
				candidates = append(candidates, p+"/")
			}
		}
	}
	return candidates
}

// dottedPath pulls the dotted path out of a keyword-led statement like
// "using App.Security;" or "import com.example.Foo;".
func dottedPath(stmt, keyword string) []string {
	fields := strings.Fields(strings.TrimSuffix(strings.TrimSpace(stmt), ";"))
	for i, f := range fields {
		if f == keyword && i+1 < len(fields) {
			next := fields[i+1]
			if next == "static" && i+2 < len(fields) {
				next = fields[i+2]
			}
			return []string{strings.TrimSuffix(next, ";")}
		}
	}
	return nil
}

// javaCandidates maps "import com.example.Foo;" to Foo.java under every
// suffix of the package path, and wildcard imports to package directories.
func javaCandidates(stmt string) []string {
	var candidates []string
	for _, spec := range dottedPath(stmt, "import") {
		if strings.HasSuffix(spec, ".*") {
			candidates = append(candidates, suffixDirCandidates([]string{strings.TrimSuffix(spec, ".*")}, ".")...)
			continue
		}
		segments := strings.Split(spec, ".")
		for i := range segments {
			candidates = append(candidates, strings.Join(segments[i:], "/")+".java")
		}
	}
	return candidates
}

// includeCandidates resolves #include directives against the importer's
// directory and the tree root. Angle includes are usually system headers but
// projects build with -I., so both forms get both resolutions.
func includeCandidates(stmt, dir string) []string {
	var candidates []string
	for _, spec := range quotedParts(stmt) {
		candidates = append(candidates, path.Clean(joinRel(dir, spec)), path.Clean(spec))
	}
	return candidates
}

// rustCandidates maps use declarations onto module files. Trailing segments
// name items inside the module, so every prefix is tried, each as both
// prefix.rs and prefix/mod.rs, relative to the importer, the tree root, and
// a src/ root.
func rustCandidates(stmt, dir string) []string {
	spec := strings.TrimSuffix(strings.TrimSpace(stmt), ";")
	spec = strings.TrimPrefix(spec, "pub ")
	spec = strings.TrimPrefix(spec, "use ")
	if i := strings.IndexAny(spec, " {"); i >= 0 {
		spec = spec[:i]
	}

	segments := strings.Split(spec, "::")
	base := ""
	for len(segments) > 0 {
		switch segments[0] {
		case "crate", "self":
			segments = segments[1:]
			continue
		case "super":
			base = parentDir(dir)
			segments = segments[1:]
			continue
		}
		break
	}
	if len(segments) == 0 {
		return nil
	}

	var candidates []string
	for k := len(segments); k >= 1; k-- {
		p := strings.Join(segments[:k], "/")
		for _, root := range []string{base, dir, "", "src"} {
			full := joinRel(root, p)
			candidates = append(candidates, full+".rs", full+"/mod.rs")
		}
	}
	return candidates
}

// phpCandidates maps "use App\Security\Validator;" to Validator.php under
// every suffix of the namespace path.
func phpCandidates(stmt string) []string {
	var candidates []string
	stmt = strings.TrimSuffix(strings.TrimSpace(stmt), ";")
	fields := strings.Fields(stmt)
	for i, f := range fields {
		if f != "use" || i+1 >= len(fields) {
			continue
		}
		spec := strings.Trim(fields[i+1], ";")
		segments := strings.Split(strings.ReplaceAll(spec, `\`, "/"), "/")
		for j := range segments {
			candidates = append(candidates, strings.Join(segments[j:], "/")+".php")
		}
		break
	}
	return candidates
}

func parentDir(dir string) string {
	if dir == "" || dir == "." {
		return ""
	}
	parent := path.Dir(dir)
	if parent == "." {
		return ""
	}
	return parent
}

func joinRel(dir, p string) string {
	if dir == "" {
		return p
	}
	return path.Join(dir, p)
}
