package filter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragloader/pkg/models"
)

// writeTree lays out files under a temp root and returns the root.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func relPaths(files []models.CandidateFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.RelativePath
	}
	return out
}

func TestSelectPicksSupportedFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.py":          "print('x')\n",
		"src/app.ts":       "console.log('x')\n",
		"docs/readme.md":   "# docs\n",
		"image.bin":        "\x00\x01",
		"notes.unsupported": "nope\n",
	})

	f := New(root, models.FilterConfig{})
	files, skips, err := f.Select()
	require.NoError(t, err)

	got := relPaths(files)
	assert.ElementsMatch(t, []string{"main.py", "src/app.ts", "docs/readme.md"}, got)
	assert.Equal(t, 2, skips.Unsupported)
}

func TestSelectExcludesUnsupportedExtensionsAlways(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.dat": "x", "b.exe": "x", "c.py": "x",
	})

	f := New(root, models.FilterConfig{})
	files, _, err := f.Select()
	require.NoError(t, err)

	for _, file := range files {
		assert.True(t, strings.HasSuffix(file.RelativePath, ".py"))
	}
}

func TestSelectEnforcesSizeLimit(t *testing.T) {
	root := writeTree(t, map[string]string{
		"small.py": "ok\n",
		"big.py":   strings.Repeat("x", 2*1024*1024),
	})

	f := New(root, models.FilterConfig{MaxFileSizeMB: 1})
	files, skips, err := f.Select()
	require.NoError(t, err)

	assert.Equal(t, []string{"small.py"}, relPaths(files))
	assert.Equal(t, 1, skips.TooLarge)
}

func TestSelectAppliesDefaultIgnorePatterns(t *testing.T) {
	root := writeTree(t, map[string]string{
		"app.py":                       "x\n",
		"node_modules/lib/index.js":    "x\n",
		"__pycache__/app.pyc":          "x",
		".git/config":                  "x",
		"build/out.js":                 "x\n",
	})

	f := New(root, models.FilterConfig{})
	files, _, err := f.Select()
	require.NoError(t, err)

	assert.Equal(t, []string{"app.py"}, relPaths(files))
}

func TestSelectLoadsGitignore(t *testing.T) {
	root := writeTree(t, map[string]string{
		".gitignore":     "generated/\n*.gen.py\n# a comment\n\n",
		"app.py":         "x\n",
		"thing.gen.py":   "x\n",
		"generated/g.py": "x\n",
	})

	f := New(root, models.FilterConfig{})
	files, skips, err := f.Select()
	require.NoError(t, err)

	assert.Equal(t, []string{"app.py"}, relPaths(files))
	assert.GreaterOrEqual(t, skips.Ignored, 1)
}

func TestSelectConfiguredExtraPatterns(t *testing.T) {
	root := writeTree(t, map[string]string{
		"keep.py":      "x\n",
		"skip_me.py":   "x\n",
	})

	f := New(root, models.FilterConfig{IgnorePatterns: []string{"skip_*.py"}})
	files, _, err := f.Select()
	require.NoError(t, err)

	assert.Equal(t, []string{"keep.py"}, relPaths(files))
}

func TestSelectSkipsSymlinks(t *testing.T) {
	root := writeTree(t, map[string]string{"real.py": "x\n"})
	require.NoError(t, os.Symlink(
		filepath.Join(root, "real.py"),
		filepath.Join(root, "link.py"),
	))

	f := New(root, models.FilterConfig{})
	files, _, err := f.Select()
	require.NoError(t, err)

	assert.Equal(t, []string{"real.py"}, relPaths(files))
}

func TestSelectIsRestartable(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": "x\n", "b.py": "y\n"})

	f := New(root, models.FilterConfig{})
	first, _, err := f.Select()
	require.NoError(t, err)
	second, _, err := f.Select()
	require.NoError(t, err)

	assert.Equal(t, relPaths(first), relPaths(second))
}

func TestLanguageFor(t *testing.T) {
	assert.Equal(t, "python", LanguageFor("src/app.py"))
	assert.Equal(t, "typescript", LanguageFor("web/App.TSX"))
	assert.Equal(t, "txt", LanguageFor("deploy/config.yaml"))
	assert.Equal(t, "unknown", LanguageFor("mystery.xyz"))
}

func TestGroupByLanguageAndTotalSize(t *testing.T) {
	files := []models.CandidateFile{
		{RelativePath: "a.py", Language: "python", Size: 10},
		{RelativePath: "b.py", Language: "python", Size: 20},
		{RelativePath: "c.go", Language: "go", Size: 5},
	}

	groups := GroupByLanguage(files)
	assert.Len(t, groups["python"], 2)
	assert.Len(t, groups["go"], 1)
	assert.Equal(t, int64(35), TotalSize(files))
}
