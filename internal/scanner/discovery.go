package scanner

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// FileDiscovery walks a target tree and selects the files worth scanning.
// Exclude patterns and the file size cap come from scanner configuration;
// include patterns are optional and default to everything.
type FileDiscovery struct {
	rootDir         string
	includePatterns []compiledPattern
	excludePatterns []compiledPattern
	maxFileSizeMB   float64
}

// NewFileDiscovery compiles the glob patterns up front so a bad pattern
// fails before the walk starts.
func NewFileDiscovery(rootDir string, includes, excludes []string, maxFileSizeMB float64) (*FileDiscovery, error) {
	fd := &FileDiscovery{
		rootDir:       rootDir,
		maxFileSizeMB: maxFileSizeMB,
	}

	for _, pattern := range includes {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		fd.includePatterns = append(fd.includePatterns, compiledPattern{pattern: pattern, glob: g})
	}

	for _, pattern := range excludes {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		fd.excludePatterns = append(fd.excludePatterns, compiledPattern{pattern: pattern, glob: g})
	}

	return fd, nil
}

// Discover walks the root directory and returns the absolute paths of files
// that pass the include, exclude, and size filters.
func (fd *FileDiscovery) Discover() ([]string, error) {
	files := []string{}

	err := filepath.Walk(fd.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(fd.rootDir, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}

		// Normalize path separators for glob matching
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			// Pruning excluded directories keeps the walk out of
			// node_modules and friends entirely.
			if fd.shouldExclude(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if fd.shouldExclude(relPath) {
			return nil
		}

		if len(fd.includePatterns) > 0 && !fd.matchesAnyPattern(relPath, fd.includePatterns) {
			return nil
		}

		if fd.maxFileSizeMB > 0 {
			sizeMB := float64(info.Size()) / (1024 * 1024)
			if sizeMB > fd.maxFileSizeMB {
				log.Printf("Warning: skipping %s: %.1f MB exceeds %.1f MB limit", relPath, sizeMB, fd.maxFileSizeMB)
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// DiscoverByLanguage groups discovered files by the language their extension
// maps to in the registry. Files with unrecognized extensions are dropped.
func (fd *FileDiscovery) DiscoverByLanguage(registry *Registry) (map[string][]string, error) {
	files, err := fd.Discover()
	if err != nil {
		return nil, err
	}

	byLanguage := map[string][]string{}
	for _, path := range files {
		language, ok := registry.LanguageForFile(path)
		if !ok {
			continue
		}
		byLanguage[language] = append(byLanguage[language], path)
	}

	return byLanguage, nil
}

// shouldExclude checks if a path matches any exclude pattern.
func (fd *FileDiscovery) shouldExclude(relPath string) bool {
	// Always exclude the .revet state directory
	if strings.HasPrefix(relPath, ".revet/") || relPath == ".revet" {
		return true
	}

	if fd.matchesAnyPattern(relPath, fd.excludePatterns) {
		return true
	}

	// Also check if this is a directory that would match with /** suffix
	// For example, "node_modules" should match pattern "node_modules/**"
	pathWithSuffix := relPath + "/**"
	return fd.matchesAnyPattern(pathWithSuffix, fd.excludePatterns)
}

// matchesAnyPattern checks if a path matches any of the given patterns.
func (fd *FileDiscovery) matchesAnyPattern(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}

	// Special handling: if path is in root (no slash), also try matching against
	// patterns with **/ prefix removed. This makes "**/*.py" match both "app.py"
	// and "src/app.py" as users would expect.
	if !strings.Contains(path, "/") {
		for _, cp := range patterns {
			if strings.HasPrefix(cp.pattern, "**/") {
				simplified := strings.TrimPrefix(cp.pattern, "**/")
				if simplifiedGlob, err := glob.Compile(simplified, '/'); err == nil {
					if simplifiedGlob.Match(path) {
						return true
					}
				}
			}
		}
	}

	return false
}
