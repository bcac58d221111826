package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initTestRepo creates a git repository on disk with the given files and a
// single commit, returning its path.
func initTestRepo(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		_, err = wt.Add(name)
		require.NoError(t, err)
	}

	_, err = wt.Commit("initial import", &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test Author",
			Email: "author@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)

	return dir
}

func TestExtractRepoName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://github.com/user/repo.git", "repo"},
		{"https://github.com/user/repo", "repo"},
		{"https://github.com/user/repo/", "repo"},
		{"git@github.com:user/repo.git", "repo"},
		{"git@gitlab.example.com:group/sub/project.git", "project"},
		{"/var/tmp/checkouts/local-repo", "local-repo"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractRepoName(tt.url))
		})
	}
}

func TestEnsureCheckoutClonesAndReadsSnapshot(t *testing.T) {
	source := initTestRepo(t, map[string]string{
		"main.py":   "print('hello')\n",
		"README.md": "# fixture\n",
	})

	svc := NewServiceWithCache(t.TempDir())

	snap, err := svc.EnsureCheckout(source, "", false)
	require.NoError(t, err)

	assert.Equal(t, source, snap.URL)
	assert.Equal(t, filepath.Base(source), snap.Name)
	assert.Equal(t, "initial import", snap.Message)
	assert.Equal(t, "Test Author", snap.AuthorName)
	assert.Equal(t, "author@example.com", snap.AuthorEmail)
	assert.Len(t, snap.CommitHash, 40)
	assert.Equal(t, snap.CommitHash[:7], snap.ShortHash)
	assert.DirExists(t, snap.LocalPath)
	assert.FileExists(t, filepath.Join(snap.LocalPath, "main.py"))
}

func TestEnsureCheckoutReusesExistingClone(t *testing.T) {
	source := initTestRepo(t, map[string]string{"a.txt": "one\n"})
	svc := NewServiceWithCache(t.TempDir())

	first, err := svc.EnsureCheckout(source, "", false)
	require.NoError(t, err)

	// Without update the second call must read the existing checkout as-is.
	second, err := svc.EnsureCheckout(source, "", false)
	require.NoError(t, err)

	assert.Equal(t, first.CommitHash, second.CommitHash)
	assert.Equal(t, first.LocalPath, second.LocalPath)
}

func TestEnsureCheckoutInvalidURLFails(t *testing.T) {
	svc := NewServiceWithCache(t.TempDir())

	_, err := svc.EnsureCheckout(filepath.Join(t.TempDir(), "does-not-exist"), "", false)
	require.Error(t, err)
}

func TestHeadCommit(t *testing.T) {
	source := initTestRepo(t, map[string]string{"x.go": "package x\n"})

	commit, err := HeadCommit(source)
	require.NoError(t, err)

	assert.Equal(t, "initial import", commit.Message)
	assert.Equal(t, "Test Author", commit.AuthorName)
	assert.Len(t, commit.Hash, 40)
}

func TestListCached(t *testing.T) {
	source := initTestRepo(t, map[string]string{"f.txt": "data\n"})
	cache := t.TempDir()
	svc := NewServiceWithCache(cache)

	_, err := svc.EnsureCheckout(source, "", false)
	require.NoError(t, err)

	// A stray non-repo directory must be skipped.
	require.NoError(t, os.MkdirAll(filepath.Join(cache, "not-a-repo"), 0o755))

	repos, err := svc.ListCached()
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, filepath.Base(source), repos[0].RepoName)
	assert.NotEmpty(t, repos[0].Branch)
}

func TestIsLocalSource(t *testing.T) {
	assert.True(t, isLocalSource("/tmp/some/repo"))
	assert.True(t, isLocalSource("file:///tmp/some/repo"))
	assert.False(t, isLocalSource("https://github.com/user/repo.git"))
	assert.False(t, isLocalSource("git@github.com:user/repo.git"))
}
