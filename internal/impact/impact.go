// Package impact builds a file-level import graph for a scanned tree and
// answers which files transitively depend on a vulnerable one. Resolution of
// import statements to files is best-effort; edges the resolver cannot see
// are missing rather than guessed.
package impact

import (
	"fmt"
	"log"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"

	codectx "github.com/relvet/revet/internal/context"
)

// Dependent is a file reached by walking import edges backwards from a
// target. Depth 1 is a direct importer.
type Dependent struct {
	File  string `json:"file"`
	Depth int    `json:"depth"`
}

// Analyzer holds the import graph for one scanned tree. Vertices are
// root-relative file paths; edges point importer to imported.
type Analyzer struct {
	g            graph.Graph[string, string]
	files        map[string]bool
	dependencies map[string][]string // importer -> imported
	dependents   map[string][]string // imported -> importers
}

// Build parses every scanned file's imports and assembles the graph. Files
// whose imports cannot be read are kept as vertices without outgoing edges.
func Build(resolver *codectx.Resolver, rootDir string, filesByLanguage map[string][]string) (*Analyzer, error) {
	a := &Analyzer{
		g:            graph.New(graph.StringHash, graph.Directed()),
		files:        make(map[string]bool),
		dependencies: make(map[string][]string),
		dependents:   make(map[string][]string),
	}

	// First pass: vertices plus a directory index for package-style imports
	dirIndex := make(map[string][]string)
	for _, files := range filesByLanguage {
		for _, file := range files {
			rel := relativize(rootDir, file)
			if a.files[rel] {
				continue
			}
			a.files[rel] = true
			if err := a.g.AddVertex(rel); err != nil {
				return nil, fmt.Errorf("failed to add file %s: %w", rel, err)
			}
			dir := path.Dir(rel)
			if dir == "." {
				dir = ""
			}
			dirIndex[dir] = append(dirIndex[dir], rel)
		}
	}

	// Second pass: edges from each file's import statements
	for language, files := range filesByLanguage {
		for _, file := range files {
			rel := relativize(rootDir, file)
			imports, err := resolver.Imports(file, language)
			if err != nil {
				log.Printf("Warning: skipping imports for %s: %v", rel, err)
				continue
			}
			for _, stmt := range imports {
				for _, candidate := range candidatePaths(stmt, language, rel) {
					if dir, ok := strings.CutSuffix(candidate, "/"); ok {
						// Directory candidate: edge to every file in the package
						for _, target := range dirIndex[dir] {
							a.addEdge(rel, target)
						}
						continue
					}
					if a.files[candidate] {
						a.addEdge(rel, candidate)
					}
				}
			}
		}
	}

	return a, nil
}

func (a *Analyzer) addEdge(importer, imported string) {
	if importer == imported {
		return
	}
	if slices.Contains(a.dependencies[importer], imported) {
		return
	}
	// Both vertices exist, so the only remaining error is a duplicate edge
	_ = a.g.AddEdge(importer, imported)
	a.dependencies[importer] = append(a.dependencies[importer], imported)
	a.dependents[imported] = append(a.dependents[imported], importer)
}

// HasFile reports whether the file was part of the scanned tree.
func (a *Analyzer) HasFile(file string) bool {
	return a.files[normalize(file)]
}

// Dependents walks import edges backwards from the file and returns every
// transitive importer, nearest first. Cycles terminate because each file is
// visited once at its shallowest depth.
func (a *Analyzer) Dependents(file string) []Dependent {
	file = normalize(file)
	visited := map[string]bool{file: true}
	queue := []Dependent{{File: file, Depth: 0}}

	var results []Dependent
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, importer := range a.dependents[current.File] {
			if visited[importer] {
				continue
			}
			visited[importer] = true
			next := Dependent{File: importer, Depth: current.Depth + 1}
			results = append(results, next)
			queue = append(queue, next)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Depth != results[j].Depth {
			return results[i].Depth < results[j].Depth
		}
		return results[i].File < results[j].File
	})
	return results
}

// Dependencies returns the files the given file imports directly, sorted.
func (a *Analyzer) Dependencies(file string) []string {
	deps := slices.Clone(a.dependencies[normalize(file)])
	sort.Strings(deps)
	return deps
}

// Stats reports the graph's vertex and edge counts.
func (a *Analyzer) Stats() (files, edges int) {
	files, _ = a.g.Order()
	edges, _ = a.g.Size()
	return files, edges
}

func normalize(file string) string {
	return strings.TrimPrefix(filepath.ToSlash(file), "./")
}

func relativize(rootDir, file string) string {
	if rel, err := filepath.Rel(rootDir, file); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return normalize(file)
}
