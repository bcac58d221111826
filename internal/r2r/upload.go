package r2r

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"ragloader/pkg/errors"
	"ragloader/pkg/models"
)

// renamedExtensions are file types the server rejects by extension. The
// upload keeps the original name visible and appends .txt so the server
// ingests them as plain text.
var renamedExtensions = map[string]bool{
	".yaml": true, ".yml": true, ".toml": true, ".xml": true,
	".sh": true, ".bash": true, ".zsh": true, ".fish": true,
}

// ingestionConfigs are the chunking settings sent per quality mode. The
// high mode enables chunk enrichment with tighter chunks; fast skips
// enrichment entirely.
var ingestionConfigs = map[string]map[string]any{
	"high": {
		"provider":          "r2r",
		"chunking_strategy": "recursive",
		"chunk_size":        512,
		"chunk_overlap":     50,
		"chunk_enrichment_settings": map[string]any{
			"enable_chunk_enrichment":       true,
			"strategies":                    []string{"semantic", "neighborhood"},
			"forward_chunks":                3,
			"backward_chunks":               3,
			"semantic_neighbors":            10,
			"semantic_similarity_threshold": 0.7,
		},
	},
	"fast": {
		"provider":          "r2r",
		"chunking_strategy": "recursive",
		"chunk_size":        1024,
		"chunk_overlap":     0,
	},
}

// DocumentID derives the deterministic document id for a file: a UUIDv5 of
// "repoURL:relativePath". Re-uploading the same file of the same repository
// therefore collides server-side instead of duplicating.
func DocumentID(repoURL, relativePath string) string {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(repoURL+":"+relativePath)).String()
}

// UploadFile sends one file with its metadata to the ingestion endpoint and
// reports the outcome. It never returns an error: per-file failures are
// recorded in the result and must not abort the run.
//
// 202/200 map to uploaded, 409 to already_exists. 429 is retried with
// exponential backoff up to the configured attempts, then recorded as
// failed. Any other status fails the file immediately.
func (c *Client) UploadFile(ctx context.Context, file models.CandidateFile, md models.FileMetadata, collectionID string) models.UploadResult {
	start := time.Now()
	result := models.UploadResult{
		File:       file,
		DocumentID: DocumentID(md.RepoURL, file.RelativePath),
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return c.fail(result, err, start)
		}
	}

	attempts := c.upload.RetryAttempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := c.upload.RetryBackoff
	if backoff <= 1 {
		backoff = 2.0
	}
	delay := 1 * time.Second

	for attempt := 1; ; attempt++ {
		status, detail, err := c.postIngest(ctx, file, md, collectionID, result.DocumentID)
		if err != nil {
			return c.fail(result, err, start)
		}

		switch {
		case status == http.StatusAccepted || status == http.StatusOK || status == http.StatusCreated:
			result.Outcome = models.OutcomeUploaded
			result.Elapsed = time.Since(start)
			return result

		case status == http.StatusConflict:
			result.Outcome = models.OutcomeDuplicate
			result.Elapsed = time.Since(start)
			return result

		case status == http.StatusTooManyRequests:
			if attempt >= attempts {
				return c.fail(result, errors.APIError(
					fmt.Sprintf("Rate limited after %d attempts", attempts), status, nil), start)
			}
			if err := c.wait(ctx, delay); err != nil {
				return c.fail(result, err, start)
			}
			delay = time.Duration(float64(delay) * backoff)

		default:
			return c.fail(result, errors.APIError(
				fmt.Sprintf("Upload rejected with status %d%s", status, detail), status, nil).
				WithContext("file", file.RelativePath), start)
		}
	}
}

func (c *Client) fail(result models.UploadResult, err error, start time.Time) models.UploadResult {
	result.Outcome = models.OutcomeFailed
	result.Err = err
	result.Elapsed = time.Since(start)
	return result
}

// postIngest performs one multipart POST to /v3/ingest_files. The returned
// error covers transport and local I/O failures only; HTTP statuses are
// passed back for the caller to interpret.
func (c *Client) postIngest(ctx context.Context, file models.CandidateFile, md models.FileMetadata, collectionID, documentID string) (int, string, error) {
	f, err := os.Open(file.Path)
	if err != nil {
		return 0, "", errors.Wrap(err, errors.ErrCodeFileOperation, "Could not open file for upload").
			WithContext("file", file.RelativePath)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", uploadFilename(file.RelativePath))
	if err != nil {
		return 0, "", errors.Wrap(err, errors.ErrCodeUploadFailed, "Failed to build upload body")
	}
	if _, err := io.Copy(part, f); err != nil {
		return 0, "", errors.Wrap(err, errors.ErrCodeFileOperation, "Could not read file for upload").
			WithContext("file", file.RelativePath)
	}

	metadataJSON, err := json.Marshal(md)
	if err != nil {
		return 0, "", errors.Wrap(err, errors.ErrCodeInternal, "Failed to encode metadata")
	}
	collectionsJSON, _ := json.Marshal([]string{collectionID})

	fields := map[string]string{
		"metadata":       string(metadataJSON),
		"collection_ids": string(collectionsJSON),
		"id":             documentID,
	}
	if cfg, ok := ingestionConfigs[c.upload.Quality]; ok {
		cfgJSON, _ := json.Marshal(cfg)
		fields["ingestion_config"] = string(cfgJSON)
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return 0, "", errors.Wrap(err, errors.ErrCodeUploadFailed, "Failed to build upload body")
		}
	}
	if err := w.Close(); err != nil {
		return 0, "", errors.Wrap(err, errors.ErrCodeUploadFailed, "Failed to build upload body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v3/ingest_files", &buf)
	if err != nil {
		return 0, "", errors.Wrap(err, errors.ErrCodeInternal, "Failed to build upload request")
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	c.authorize(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, "", errors.Wrap(err, errors.ErrCodeConnectionFailed, "Upload request failed").
			WithContext("file", file.RelativePath)
	}
	defer resp.Body.Close()

	detail := ""
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail = bodySnippet(resp.Body)
	} else {
		io.Copy(io.Discard, resp.Body)
	}
	return resp.StatusCode, detail, nil
}

// uploadFilename returns the name the file is uploaded under. Extensions the
// server refuses get .txt appended, keeping the original name intact.
func uploadFilename(relativePath string) string {
	name := filepath.Base(relativePath)
	if renamedExtensions[strings.ToLower(filepath.Ext(name))] {
		return name + ".txt"
	}
	return name
}
