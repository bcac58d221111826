package git

import (
	"os"
	"path/filepath"
	"strings"

	"ragloader/internal/common"
	"ragloader/pkg/errors"
	"ragloader/pkg/models"
)

// Service provides high-level git operations for repositories. Git failures
// are treated as non-transient and are never retried.
type Service struct {
	cacheDir string
}

// NewService creates a git service using the default cache directory.
func NewService() *Service {
	return &Service{cacheDir: GetCacheDirectory()}
}

// NewServiceWithCache creates a git service rooted at a specific cache
// directory. Used by tests and by callers that manage their own layout.
func NewServiceWithCache(cacheDir string) *Service {
	return &Service{cacheDir: cacheDir}
}

// EnsureCheckout makes sure a local clone of the repository exists and
// returns a snapshot of the revision it points at.
//
// When no clone exists the repository is cloned (shallow for remote URLs).
// When a clone exists and update is requested, the remote is fetched and the
// worktree fast-forwarded; otherwise the existing checkout is read as-is.
func (s *Service) EnsureCheckout(url, branch string, update bool) (*models.RepositorySnapshot, error) {
	name := ExtractRepoName(url)
	if name == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "Could not derive repository name from URL").
			WithContext("url", url)
	}
	localPath := s.localPath(name)

	_, statErr := os.Stat(filepath.Join(localPath, ".git"))
	exists := statErr == nil

	switch {
	case !exists:
		if err := CloneOrFetch(url, localPath, branch); err != nil {
			return nil, s.classify(err, url, name)
		}
	case update:
		if err := CloneOrFetch(url, localPath, branch); err != nil {
			return nil, s.classify(err, url, name)
		}
		if err := Pull(localPath, branch); err != nil {
			return nil, s.classify(err, url, name)
		}
	}

	if branch != "" {
		current, err := GetCurrentBranch(localPath)
		if err != nil || current != branch {
			if err := CheckoutBranch(localPath, branch); err != nil {
				return nil, errors.GitError("Failed to checkout branch", err).
					WithContext("branch", branch)
			}
		}
	}

	return s.snapshot(url, name, localPath)
}

// ListCached returns information about all locally cached repositories.
func (s *Service) ListCached() ([]models.RepoCache, error) {
	if err := os.MkdirAll(s.cacheDir, common.DirPermissionNormal); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFileOperation, "Failed to create cache directory")
	}

	entries, err := os.ReadDir(s.cacheDir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFileOperation, "Failed to read cache directory")
	}

	var repos []models.RepoCache
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		repoPath := filepath.Join(s.cacheDir, entry.Name())
		if _, err := os.Stat(filepath.Join(repoPath, ".git")); os.IsNotExist(err) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		branch, err := GetCurrentBranch(repoPath)
		if err != nil {
			branch = "main"
		}

		repos = append(repos, models.RepoCache{
			RepoName:    entry.Name(),
			LocalPath:   repoPath,
			Branch:      branch,
			LastFetched: info.ModTime(),
		})
	}

	return repos, nil
}

// snapshot reads the checked-out revision's identifying fields.
func (s *Service) snapshot(url, name, localPath string) (*models.RepositorySnapshot, error) {
	commit, err := HeadCommit(localPath)
	if err != nil {
		return nil, errors.GitError("Failed to read repository metadata", err).
			WithContext("repository", name)
	}

	branch, err := GetCurrentBranch(localPath)
	if err != nil {
		branch = ""
	}

	short := commit.Hash
	if len(short) > 7 {
		short = short[:7]
	}

	return &models.RepositorySnapshot{
		URL:         url,
		Name:        name,
		LocalPath:   localPath,
		Branch:      branch,
		CommitHash:  commit.Hash,
		ShortHash:   short,
		Message:     commit.Message,
		AuthorName:  commit.AuthorName,
		AuthorEmail: commit.AuthorEmail,
		CommitTime:  commit.Date,
	}, nil
}

// classify maps raw git errors onto the error taxonomy.
func (s *Service) classify(err error, url, name string) error {
	msg := err.Error()

	if strings.Contains(msg, "authentication") || strings.Contains(msg, "authorization") {
		return errors.New(errors.ErrCodeRepoAccessDenied, "Authentication failed for repository").
			WithContext("repository", name).
			WithContext("url", url).
			WithSuggestions(
				"Check your Git credentials",
				"Ensure you have access to the repository",
			)
	}

	if strings.Contains(msg, "repository not found") || strings.Contains(msg, "does not exist") {
		return errors.New(errors.ErrCodeRepoNotFound, "Repository not found").
			WithContext("url", url)
	}

	return errors.GitError("Git operation failed", err).
		WithContext("repository", name).
		WithContext("url", url)
}

// localPath returns the cache path for a repository, with the name made
// filesystem safe.
func (s *Service) localPath(repoName string) string {
	safeName := strings.ReplaceAll(repoName, "/", "_")
	safeName = strings.ReplaceAll(safeName, "\\", "_")
	return filepath.Join(s.cacheDir, safeName)
}
