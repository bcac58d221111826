package models

import "time"

// RepositorySnapshot identifies one checked-out revision of a repository.
// It is created once per load run after clone/update and not mutated after.
type RepositorySnapshot struct {
	URL         string
	Name        string
	LocalPath   string
	Branch      string
	CommitHash  string
	ShortHash   string
	Message     string
	AuthorName  string
	AuthorEmail string
	CommitTime  time.Time
}

// CandidateFile is a file selected for upload by the filter.
type CandidateFile struct {
	Path         string // Absolute path on disk
	RelativePath string // Path relative to the repository root
	Language     string
	Size         int64
}

// FileMetadata carries the derived attributes attached to a file upload as
// the JSON metadata side-channel. Field names match what the server stores.
type FileMetadata struct {
	Source       string   `json:"source"`
	Language     string   `json:"language"`
	Module       string   `json:"module"`
	FilePath     string   `json:"file_path"`
	RepoName     string   `json:"repo_name"`
	RepoURL      string   `json:"repo_url"`
	CommitHash   string   `json:"commit_hash"`
	ShortHash    string   `json:"commit_hash_short"`
	CommitMsg    string   `json:"commit_message"`
	CommitAuthor string   `json:"commit_author"`
	CommitDate   string   `json:"commit_date"`
	Imports      []string `json:"imports"`
	ImportCount  int      `json:"import_count"`
	LinesTotal   int      `json:"lines_total"`
	LinesCode    int      `json:"lines_code"`
	LinesComment int      `json:"lines_comment"`
	LinesBlank   int      `json:"lines_blank"`
}

// RepoCache describes a locally cached clone.
type RepoCache struct {
	RepoName    string
	LocalPath   string
	Branch      string
	LastFetched time.Time
}
