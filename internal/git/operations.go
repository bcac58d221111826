package git

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"ragloader/internal/common"
)

// shallowDepth is used for fresh clones of remote repositories. Only the
// latest commit is needed for ingestion.
const shallowDepth = 1

// CommitInfo represents information about a git commit
type CommitInfo struct {
	Hash        string
	Message     string
	AuthorName  string
	AuthorEmail string
	Date        time.Time
}

// CloneOrFetch clones a repository or fetches updates if it already exists.
// Fresh clones of remote URLs are shallow; local sources are cloned in full
// since shallowness saves nothing there.
func CloneOrFetch(gitURL, localPath, branch string) error {
	cacheDir := filepath.Dir(localPath)
	if err := os.MkdirAll(cacheDir, common.DirPermissionNormal); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	if _, err := os.Stat(filepath.Join(localPath, ".git")); err == nil {
		// Repository exists, fetch updates
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing repository: %w", err)
		}

		remote, err := repo.Remote("origin")
		if err != nil {
			return fmt.Errorf("failed to get remote: %w", err)
		}

		err = remote.Fetch(&git.FetchOptions{
			Auth: getAuthMethod(gitURL),
		})
		if err != nil && err != git.NoErrAlreadyUpToDate {
			return fmt.Errorf("failed to fetch updates: %w", err)
		}

		return nil
	}

	opts := &git.CloneOptions{
		URL:  gitURL,
		Auth: getAuthMethod(gitURL),
	}
	if !isLocalSource(gitURL) {
		opts.Depth = shallowDepth
	}
	if branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
		opts.SingleBranch = true
	}

	if _, err := git.PlainClone(localPath, false, opts); err != nil {
		return fmt.Errorf("failed to clone repository: %w", err)
	}

	return nil
}

// Pull fast-forwards the worktree to the latest remote state.
func Pull(repoPath, branch string) error {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	opts := &git.PullOptions{RemoteName: "origin"}
	if branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
	}

	err = worktree.Pull(opts)
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("failed to pull updates: %w", err)
	}

	return nil
}

// HeadCommit returns information about the commit HEAD points at.
func HeadCommit(repoPath string) (*CommitInfo, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	ref, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD reference: %w", err)
	}

	commit, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get commit object: %w", err)
	}

	return &CommitInfo{
		Hash:        commit.Hash.String(),
		Message:     strings.TrimSpace(commit.Message),
		AuthorName:  commit.Author.Name,
		AuthorEmail: commit.Author.Email,
		Date:        commit.Author.When,
	}, nil
}

// CheckoutBranch checks out a specific branch in the repository
func CheckoutBranch(repoPath, branchName string) error {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	// First check if the branch already exists locally
	branchRef := plumbing.NewBranchReferenceName(branchName)
	_, err = repo.Reference(branchRef, false)
	if err == nil {
		return worktree.Checkout(&git.CheckoutOptions{
			Branch: branchRef,
			Force:  false,
		})
	}

	// Try to find the branch in remotes
	remoteRef := plumbing.NewRemoteReferenceName("origin", branchName)
	ref, err := repo.Reference(remoteRef, false)
	if err == nil {
		return worktree.Checkout(&git.CheckoutOptions{
			Branch: branchRef,
			Hash:   ref.Hash(),
			Create: true,
		})
	}

	return fmt.Errorf("branch %s not found locally or on origin", branchName)
}

// GetCurrentBranch returns the current branch name of the repository
func GetCurrentBranch(repoPath string) (string, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return "", fmt.Errorf("failed to open repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}

	refName := head.Name()
	if refName.IsBranch() {
		return refName.Short(), nil
	}

	return "", fmt.Errorf("HEAD is not pointing to a branch")
}

// ExtractRepoName derives a repository name from its URL.
//
//	https://github.com/user/repo.git -> repo
//	git@github.com:user/repo.git     -> repo
//	/path/to/repo                    -> repo
func ExtractRepoName(gitURL string) string {
	path := gitURL

	if strings.HasPrefix(gitURL, "git@") {
		// SSH form: git@host:user/repo.git
		if idx := strings.Index(gitURL, ":"); idx >= 0 {
			path = gitURL[idx+1:]
		}
	} else if idx := strings.Index(gitURL, "://"); idx >= 0 {
		path = gitURL[idx+3:]
		if slash := strings.Index(path, "/"); slash >= 0 {
			path = path[slash+1:]
		}
	}

	path = strings.TrimSuffix(strings.TrimRight(path, "/"), ".git")
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		path = path[idx+1:]
	}

	return path
}

// getAuthMethod returns the appropriate auth method based on the URL
func getAuthMethod(gitURL string) transport.AuthMethod {
	if strings.HasPrefix(gitURL, "git@") || strings.HasPrefix(gitURL, "ssh://") {
		sshKeyPath := filepath.Join(os.Getenv("HOME"), ".ssh", "id_rsa")
		if _, err := os.Stat(sshKeyPath); err == nil {
			auth, err := ssh.NewPublicKeysFromFile("git", sshKeyPath, "")
			if err == nil {
				return auth
			}
		}
	}

	if strings.HasPrefix(gitURL, "https://") {
		username := os.Getenv("GIT_USERNAME")
		password := os.Getenv("GIT_PASSWORD")
		if username != "" && password != "" {
			return &http.BasicAuth{
				Username: username,
				Password: password,
			}
		}

		token := os.Getenv("GITHUB_TOKEN")
		if token != "" {
			return &http.BasicAuth{
				Username: "token",
				Password: token,
			}
		}
	}

	return nil
}

// isLocalSource reports whether the URL refers to a filesystem path.
func isLocalSource(gitURL string) bool {
	if strings.HasPrefix(gitURL, "file://") {
		return true
	}
	if strings.Contains(gitURL, "://") || strings.HasPrefix(gitURL, "git@") {
		return false
	}
	return true
}

// GetCacheDirectory returns the default cache directory for repositories
func GetCacheDirectory() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".ragloader", "repos")
}
