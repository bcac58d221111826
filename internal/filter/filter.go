package filter

import (
	"bufio"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"ragloader/pkg/models"
)

// languageByExtension maps file extensions to the language recorded in
// upload metadata. Extensions absent from this table are not ingested.
// YAML/TOML/XML are ingested as plain text; the server does not treat them
// as distinct document types.
var languageByExtension = map[string]string{
	// Programming languages
	".py":    "python",
	".js":    "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".jsx":   "javascript",
	".java":  "java",
	".cs":    "csharp",
	".cpp":   "cpp",
	".cc":    "cpp",
	".c":     "c",
	".h":     "c",
	".hpp":   "cpp",
	".go":    "go",
	".rs":    "rust",
	".rb":    "ruby",
	".php":   "php",
	".swift": "swift",
	".kt":    "kotlin",
	".scala": "scala",
	".r":     "r",
	".m":     "objective-c",

	// Web/markup
	".html": "html",
	".css":  "css",
	".scss": "scss",
	".sass": "sass",
	".vue":  "vue",

	// Shell/config
	".sh":   "shell",
	".bash": "shell",
	".zsh":  "shell",
	".fish": "shell",
	".yaml": "txt",
	".yml":  "txt",
	".toml": "txt",
	".json": "json",
	".xml":  "txt",

	// Documentation
	".md":  "markdown",
	".rst": "restructuredtext",
	".txt": "text",

	// Images (multimodal processing server-side)
	".png":  "image",
	".jpg":  "image",
	".jpeg": "image",
	".gif":  "image",
	".svg":  "image",
	".webp": "image",

	// Diagrams
	".puml":     "plantuml",
	".plantuml": "plantuml",
}

// defaultIgnorePatterns are applied in addition to the repository's own
// .gitignore. They cover version control internals, dependency trees, build
// outputs, lockfiles, and editor/OS noise.
var defaultIgnorePatterns = []string{
	// Version control
	".git", ".svn", ".hg", ".bzr",

	// Python
	"__pycache__", "*.pyc", "*.pyo", "*.pyd", ".pytest_cache", ".mypy_cache",
	".tox", ".coverage", "htmlcov", "*.egg-info", ".eggs", "venv", "env",
	".env", ".venv", "poetry.lock", "Pipfile.lock", "pdm.lock",

	// JavaScript/Node.js
	"node_modules", "bower_components", "package-lock.json", "yarn.lock",
	"pnpm-lock.yaml", "bun.lockb", ".next", ".nuxt", ".parcel-cache",
	".cache", "npm-debug.log*", "yarn-debug.log*", "yarn-error.log*",

	// Java
	"target", ".gradle", ".mvn", "*.class", "*.jar", "*.war", "*.ear",

	// .NET
	"bin", "obj", "packages", "packages.lock.json", ".vs", "*.suo", "*.user",

	// Go
	"vendor", "go.sum", "go.work.sum",

	// Rust
	"Cargo.lock",

	// Ruby
	".bundle", "Gemfile.lock",

	// PHP
	"composer.lock", "composer.phar",

	// Other ecosystems
	"Package.resolved", "pubspec.lock", "mix.lock",

	// Build outputs
	"dist", "build", "out", "release", "Debug", "Release",

	// Test coverage
	"coverage", ".nyc_output",

	// Logs and temp files
	"logs", "*.log", "tmp", "temp", "*.tmp", "*.temp",

	// IDEs and editors
	".vscode", ".idea", "*.iml", ".sublime-workspace", ".sublime-project",
	"*.swp", "*.swo", "*~", ".project", ".classpath", ".settings",

	// OS files
	".DS_Store", "Thumbs.db", "desktop.ini",
}

// SkipCounts reports how many files were excluded and why. Unreadable files
// are counted here rather than surfaced as errors so a single bad file never
// stops the walk.
type SkipCounts struct {
	Ignored     int
	Unsupported int
	TooLarge    int
	Unreadable  int
}

// FileFilter selects ingestible files from a repository working tree.
type FileFilter struct {
	root         string
	maxSizeBytes int64
	patterns     []string
}

// New creates a filter for the given repository root. Patterns from the
// repository's .gitignore are loaded on top of the built-in defaults and any
// configured extras.
func New(root string, cfg models.FilterConfig) *FileFilter {
	maxBytes := int64(cfg.MaxFileSizeMB) * 1024 * 1024
	if maxBytes <= 0 {
		maxBytes = 20 * 1024 * 1024
	}

	patterns := make([]string, 0, len(defaultIgnorePatterns)+len(cfg.IgnorePatterns))
	patterns = append(patterns, defaultIgnorePatterns...)
	patterns = append(patterns, cfg.IgnorePatterns...)

	f := &FileFilter{
		root:         root,
		maxSizeBytes: maxBytes,
		patterns:     patterns,
	}
	f.loadGitignore()
	return f
}

// Select walks the tree and returns the candidate files. The walk is
// recomputed fresh on every call.
func (f *FileFilter) Select() ([]models.CandidateFile, SkipCounts, error) {
	var files []models.CandidateFile
	var skips SkipCounts

	err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			skips.Unreadable++
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(f.root, p)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if f.isIgnored(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		// Symlinks are skipped entirely, broken or not.
		if d.Type()&fs.ModeSymlink != 0 {
			skips.Ignored++
			return nil
		}

		if f.isIgnored(rel) {
			skips.Ignored++
			return nil
		}

		ext := strings.ToLower(filepath.Ext(p))
		lang, ok := languageByExtension[ext]
		if !ok {
			skips.Unsupported++
			return nil
		}

		info, err := d.Info()
		if err != nil {
			skips.Unreadable++
			return nil
		}
		if info.Size() > f.maxSizeBytes {
			skips.TooLarge++
			return nil
		}

		files = append(files, models.CandidateFile{
			Path:         p,
			RelativePath: rel,
			Language:     lang,
			Size:         info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, skips, err
	}

	return files, skips, nil
}

// LanguageFor returns the language for a file path, or "unknown".
func LanguageFor(p string) string {
	if lang, ok := languageByExtension[strings.ToLower(filepath.Ext(p))]; ok {
		return lang
	}
	return "unknown"
}

// GroupByLanguage buckets candidates by detected language.
func GroupByLanguage(files []models.CandidateFile) map[string][]models.CandidateFile {
	groups := make(map[string][]models.CandidateFile)
	for _, f := range files {
		groups[f.Language] = append(groups[f.Language], f)
	}
	return groups
}

// TotalSize sums the byte sizes of the candidates.
func TotalSize(files []models.CandidateFile) int64 {
	var total int64
	for _, f := range files {
		total += f.Size
	}
	return total
}

// loadGitignore appends patterns from the repository's .gitignore. This is a
// simplified dialect: globs are matched against the full relative path and
// against each path segment; negation is not supported.
func (f *FileFilter) loadGitignore() {
	file, err := os.Open(filepath.Join(f.root, ".gitignore"))
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		line = strings.TrimPrefix(line, "/")
		line = strings.TrimSuffix(line, "/")
		if line != "" {
			f.patterns = append(f.patterns, line)
		}
	}
}

// isIgnored checks a slash-separated relative path against the patterns.
func (f *FileFilter) isIgnored(rel string) bool {
	segments := strings.Split(rel, "/")

	for _, pattern := range f.patterns {
		if ok, _ := path.Match(pattern, rel); ok {
			return true
		}
		for _, segment := range segments {
			if ok, _ := path.Match(pattern, segment); ok {
				return true
			}
		}
	}
	return false
}
