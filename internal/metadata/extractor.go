package metadata

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"ragloader/pkg/models"
)

// importPatterns holds per-language regexes for import statements. This is a
// best-effort pattern match, not a parser; dynamic or unusual import syntax
// will be missed.
var importPatterns = map[string][]*regexp.Regexp{
	"python": {
		regexp.MustCompile(`^import\s+([\w.]+)`),
		regexp.MustCompile(`^from\s+([\w.]+)\s+import`),
	},
	"javascript": {
		regexp.MustCompile(`import\s+.*\s+from\s+['"]([^'"]+)['"]`),
		regexp.MustCompile(`require\(['"]([^'"]+)['"]\)`),
	},
	"typescript": {
		regexp.MustCompile(`import\s+.*\s+from\s+['"]([^'"]+)['"]`),
		regexp.MustCompile(`require\(['"]([^'"]+)['"]\)`),
	},
	"java": {
		regexp.MustCompile(`^import\s+([\w.]+)`),
	},
	"go": {
		regexp.MustCompile(`^import\s+(?:\w+\s+)?"([^"]+)"`),
	},
	"rust": {
		regexp.MustCompile(`^use\s+([\w:]+)`),
	},
	"cpp": {
		regexp.MustCompile(`^#include\s+[<"]([^>"]+)[>"]`),
	},
	"c": {
		regexp.MustCompile(`^#include\s+[<"]([^>"]+)[>"]`),
	},
}

// goImportLine matches entries inside a grouped Go import block.
var goImportLine = regexp.MustCompile(`^(?:\w+\s+)?"([^"]+)"$`)

// hashCommentLanguages use # as the line comment marker.
var hashCommentLanguages = map[string]bool{
	"python": true, "ruby": true, "shell": true, "r": true, "txt": true,
}

// LineStats holds heuristic line counts for a file.
type LineStats struct {
	Total   int
	Code    int
	Comment int
	Blank   int
}

// Extractor derives upload metadata from files in a repository checkout.
type Extractor struct {
	repoRoot string
}

// NewExtractor creates an extractor rooted at the repository checkout.
func NewExtractor(repoRoot string) *Extractor {
	return &Extractor{repoRoot: repoRoot}
}

// Extract builds the metadata attached to a file upload. It always succeeds:
// if the file cannot be read, the derived fields stay empty and only the
// identity fields are populated.
func (e *Extractor) Extract(file models.CandidateFile, snap *models.RepositorySnapshot) models.FileMetadata {
	md := models.FileMetadata{
		Source:       "codebase",
		Language:     file.Language,
		Module:       ModuleName(file.RelativePath),
		FilePath:     file.RelativePath,
		RepoName:     snap.Name,
		RepoURL:      snap.URL,
		CommitHash:   snap.CommitHash,
		ShortHash:    snap.ShortHash,
		CommitMsg:    snap.Message,
		CommitAuthor: snap.AuthorName,
		CommitDate:   snap.CommitTime.Format("2006-01-02 15:04:05 -0700"),
		Imports:      []string{},
	}

	content, err := os.ReadFile(file.Path)
	if err != nil {
		return md
	}

	md.Imports = ExtractImports(string(content), file.Language)
	md.ImportCount = len(md.Imports)

	stats := CountLines(string(content), file.Language)
	md.LinesTotal = stats.Total
	md.LinesCode = stats.Code
	md.LinesComment = stats.Comment
	md.LinesBlank = stats.Blank

	return md
}

// ModuleName converts a relative path into a dotted module path.
//
//	src/services/auth.py -> src.services.auth
func ModuleName(relPath string) string {
	p := filepath.ToSlash(relPath)
	if ext := filepath.Ext(p); ext != "" {
		p = strings.TrimSuffix(p, ext)
	}
	return strings.TrimLeft(strings.ReplaceAll(p, "/", "."), ".")
}

// ExtractImports scans file content for import statements of the given
// language. Returns a sorted, de-duplicated list.
func ExtractImports(content, language string) []string {
	patterns := importPatterns[language]
	if len(patterns) == 0 {
		return []string{}
	}

	seen := make(map[string]bool)
	inGoImportBlock := false

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "#") && language != "c" && language != "cpp" {
			continue
		}
		if strings.HasPrefix(line, "//") {
			continue
		}

		// Grouped Go imports span several lines.
		if language == "go" {
			switch {
			case strings.HasPrefix(line, "import ("):
				inGoImportBlock = true
				continue
			case inGoImportBlock && line == ")":
				inGoImportBlock = false
				continue
			case inGoImportBlock:
				if m := goImportLine.FindStringSubmatch(line); m != nil {
					seen[m[1]] = true
				}
				continue
			}
		}

		for _, pattern := range patterns {
			if m := pattern.FindStringSubmatch(line); m != nil {
				seen[m[1]] = true
			}
		}
	}

	imports := make([]string, 0, len(seen))
	for imp := range seen {
		imports = append(imports, imp)
	}
	sort.Strings(imports)
	return imports
}

// CountLines computes heuristic line statistics. Comment detection is a
// prefix and block-comment scan, not a lexer; comment markers inside string
// literals may misclassify.
func CountLines(content, language string) LineStats {
	var stats LineStats
	inBlockComment := false

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		stats.Total++
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			stats.Blank++
		case inBlockComment:
			stats.Comment++
			if strings.Contains(line, "*/") {
				inBlockComment = false
			}
		case isCommentLine(line, language):
			stats.Comment++
		case strings.HasPrefix(line, "/*") && !hashCommentLanguages[language]:
			stats.Comment++
			if !strings.Contains(line, "*/") {
				inBlockComment = true
			}
		default:
			stats.Code++
		}
	}

	return stats
}

func isCommentLine(line, language string) bool {
	if hashCommentLanguages[language] {
		return strings.HasPrefix(line, "#")
	}
	return strings.HasPrefix(line, "//")
}

// TopLevelPackages reduces an import list to its top-level package names.
//
//	[fastapi.routing, pydantic] -> [fastapi, pydantic]
func TopLevelPackages(imports []string) []string {
	seen := make(map[string]bool)
	for _, imp := range imports {
		pkg := imp
		if idx := strings.IndexAny(pkg, "./:"); idx >= 0 {
			pkg = pkg[:idx]
		}
		if pkg != "" {
			seen[pkg] = true
		}
	}

	packages := make([]string, 0, len(seen))
	for pkg := range seen {
		packages = append(packages, pkg)
	}
	sort.Strings(packages)
	return packages
}
