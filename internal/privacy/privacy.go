// Package privacy redacts secrets and user-identifying paths from findings
// before their text is sent to an LLM provider. Redaction is pattern-based
// and destructive: the original values never leave the process.
package privacy

import (
	"fmt"
	"log"
	"regexp"

	"github.com/relvet/revet/internal/config"
	codectx "github.com/relvet/revet/internal/context"
	"github.com/relvet/revet/internal/scanner"
)

type secretPattern struct {
	re   *regexp.Regexp
	kind string
}

// secretPatterns cover the credential shapes that show up in code under
// review. Order matters only for log readability; each pattern is applied to
// the output of the previous one.
var secretPatterns = []secretPattern{
	// API keys
	{regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[=:]\s*["']([a-zA-Z0-9_\-]{20,})["']`), "API_KEY"},
	{regexp.MustCompile(`(?i)(secret[_-]?key|secretkey)\s*[=:]\s*["']([a-zA-Z0-9_\-]{20,})["']`), "SECRET_KEY"},

	// AWS keys
	{regexp.MustCompile(`AKIA[0-9A-Z]{16}`), "AWS_ACCESS_KEY"},
	{regexp.MustCompile(`(?i)aws[_-]?secret[_-]?access[_-]?key\s*[=:]\s*["']([a-zA-Z0-9/+=]{40})["']`), "AWS_SECRET_KEY"},

	// GitHub tokens
	{regexp.MustCompile(`ghp_[a-zA-Z0-9]{36}`), "GITHUB_TOKEN"},
	{regexp.MustCompile(`gho_[a-zA-Z0-9]{36}`), "GITHUB_OAUTH_TOKEN"},

	// Private keys
	{regexp.MustCompile(`-----BEGIN (RSA |DSA |EC )?PRIVATE KEY-----`), "PRIVATE_KEY"},

	// Generic tokens
	{regexp.MustCompile(`(?i)(bearer|token)\s*[=:]\s*["']([a-zA-Z0-9_\-.]{20,})["']`), "AUTH_TOKEN"},

	// Database URLs with credentials
	{regexp.MustCompile(`(?i)(postgres|mysql|mongodb)://[^:]+:[^@]+@[^/]+`), "DATABASE_URL"},

	// JWTs
	{regexp.MustCompile(`eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`), "JWT_TOKEN"},
}

var (
	macUsersPath     = regexp.MustCompile(`/Users/[^/]+/`)
	linuxHomePath    = regexp.MustCompile(`/home/[^/]+/`)
	windowsUsersPath = regexp.MustCompile(`C:\\Users\\[^\\]+\\`)
)

// Sanitizer applies secret and path redaction according to the privacy
// configuration.
type Sanitizer struct {
	redactSecrets bool
	redactPaths   bool
}

// NewSanitizer builds a sanitizer from config.
func NewSanitizer(cfg config.PrivacyConfig) *Sanitizer {
	return &Sanitizer{
		redactSecrets: cfg.RedactSecrets,
		redactPaths:   cfg.RedactPaths,
	}
}

// SanitizeFinding redacts the finding in place: the tool's code snippet, the
// extracted context, and the file path. It returns one log entry per
// redaction so callers can surface what was removed without echoing it.
func (s *Sanitizer) SanitizeFinding(f *scanner.Finding) []string {
	var entries []string

	if f.Code != "" {
		code, redactions := s.sanitizeText(f.Code, "code")
		f.Code = code
		entries = append(entries, redactions...)
	}

	if f.Context != nil {
		entries = append(entries, s.SanitizeContext(f.Context)...)
	}

	f.File = s.SanitizePath(f.File)

	return entries
}

// SanitizeContext redacts an extracted context in place.
func (s *Sanitizer) SanitizeContext(ctx *codectx.ExtractedContext) []string {
	var entries []string

	if ctx.ContextCode != "" {
		code, redactions := s.sanitizeText(ctx.ContextCode, "context_code")
		ctx.ContextCode = code
		entries = append(entries, redactions...)
	}

	for i, imp := range ctx.Imports {
		sanitized, redactions := s.sanitizeText(imp, "import")
		ctx.Imports[i] = sanitized
		entries = append(entries, redactions...)
	}

	ctx.File = s.SanitizePath(ctx.File)

	return entries
}

// SanitizePath strips usernames from user-directory paths.
func (s *Sanitizer) SanitizePath(path string) string {
	if !s.redactPaths {
		return path
	}
	path = macUsersPath.ReplaceAllString(path, "/Users/<USERNAME>/")
	path = linuxHomePath.ReplaceAllString(path, "/home/<USERNAME>/")
	path = windowsUsersPath.ReplaceAllString(path, `C:\Users\<USERNAME>\`)
	return path
}

// Validate reports whether text is free of detectable secrets. It is the
// fail-safe check applied after sanitization: a false result means the text
// must not leave the process.
func (s *Sanitizer) Validate(text string) bool {
	for _, sp := range secretPatterns {
		if sp.re.MatchString(text) {
			log.Printf("Warning: validation failed: %s detected in sanitized text", sp.kind)
			return false
		}
	}
	return true
}

// sanitizeText replaces every secret match with a typed placeholder.
// Matches are spliced out back to front so earlier offsets stay valid.
func (s *Sanitizer) sanitizeText(text, field string) (string, []string) {
	if !s.redactSecrets {
		return text, nil
	}

	var entries []string
	for _, sp := range secretPatterns {
		matches := sp.re.FindAllStringIndex(text, -1)
		for i := len(matches) - 1; i >= 0; i-- {
			m := matches[i]
			text = text[:m[0]] + "<" + sp.kind + "_REDACTED>" + text[m[1]:]
			entries = append(entries, fmt.Sprintf("redacted %s in %s at position %d", sp.kind, field, m[0]))
		}
	}
	return text, entries
}
