package loader

import (
	"context"
	"fmt"
	"time"

	"ragloader/internal/filter"
	"ragloader/internal/git"
	"ragloader/internal/metadata"
	"ragloader/internal/ui"
	"ragloader/pkg/models"
)

// IngestClient is the slice of the remote API the loader drives. Satisfied
// by *r2r.Client; injectable so the pipeline is testable without a server.
type IngestClient interface {
	Authenticate(ctx context.Context, email, password string) error
	GetOrCreateCollection(ctx context.Context, name, description string) (*models.Collection, error)
	UploadFile(ctx context.Context, file models.CandidateFile, md models.FileMetadata, collectionID string) models.UploadResult
	AwaitIngestion(ctx context.Context, documentIDs []string, interval, timeout time.Duration) map[string]models.IngestionStatus
	PullGraph(ctx context.Context, collectionID string) error
	GraphStats(ctx context.Context, collectionID string) (models.GraphSummary, error)
}

// LoadOptions are the per-run parameters of the pipeline.
type LoadOptions struct {
	RepoURL    string
	Collection string // Defaults to repo-<name>
	Branch     string
	Update     bool
	ExtractKG  bool
	Email      string
	Password   string
}

// Loader runs the load pipeline: checkout, filter, collection resolution,
// upload, ingestion polling, optional graph extraction. Uploads are strictly
// sequential; a single file failure never aborts the run. Only checkout and
// collection resolution (and authentication) are fatal.
type Loader struct {
	git    *git.Service
	client IngestClient
	cfg    *models.Config
	ui     *ui.UI

	// sleep is swappable for tests; defaults to a context-aware wait.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a loader wired to a git service and an ingestion client.
func New(gitSvc *git.Service, client IngestClient, cfg *models.Config, u *ui.UI) *Loader {
	return &Loader{
		git:    gitSvc,
		client: client,
		cfg:    cfg,
		ui:     u,
	}
}

// LoadRepository runs the full pipeline and returns its summary. The summary
// is returned even when some files failed; a nil error only means every
// stage ran to completion.
func (l *Loader) LoadRepository(ctx context.Context, opts LoadOptions) (*models.RunSummary, error) {
	start := time.Now()
	summary := &models.RunSummary{
		RepoURL:          opts.RepoURL,
		IngestionsByStat: make(map[models.IngestionStatus]int),
	}

	if err := l.client.Authenticate(ctx, opts.Email, opts.Password); err != nil {
		return nil, err
	}

	l.section("Checking out repository")
	snap, err := l.git.EnsureCheckout(opts.RepoURL, opts.Branch, opts.Update)
	if err != nil {
		return nil, err
	}
	summary.RepoName = snap.Name
	if !l.ui.IsQuiet() {
		ui.ShowCheckout(snap)
	}

	l.section("Selecting files")
	files, skips, err := filter.New(snap.LocalPath, l.cfg.Filter).Select()
	if err != nil {
		return nil, err
	}
	summary.FilesFound = len(files)
	l.ui.Printf("  %d files selected (%d ignored, %d unsupported, %d too large, %d unreadable)\n",
		len(files), skips.Ignored, skips.Unsupported, skips.TooLarge, skips.Unreadable)
	if l.ui.IsVerbose() && len(files) > 0 {
		ui.ShowLanguageTable(filter.GroupByLanguage(files))
	}
	if len(files) == 0 {
		l.ui.Warning("No ingestible files found; nothing to do")
		summary.Duration = time.Since(start)
		return summary, nil
	}

	l.section("Resolving collection")
	name := opts.Collection
	if name == "" {
		name = "repo-" + snap.Name
	}
	description := fmt.Sprintf("Source files of %s (%s)", snap.Name, snap.URL)
	collection, err := l.client.GetOrCreateCollection(ctx, name, description)
	if err != nil {
		return nil, err
	}
	summary.CollectionID = collection.ID
	summary.CollectionName = collection.Name
	l.ui.Printf("  Using collection %s (%s)\n", collection.Name, collection.ID)

	l.section("Uploading files")
	uploaded := l.uploadAll(ctx, snap, files, collection.ID, summary)

	if len(uploaded) > 0 {
		l.section("Waiting for ingestion")
		statuses := l.client.AwaitIngestion(ctx, uploaded, l.cfg.PollInterval(), l.cfg.PollTimeout())
		for _, status := range statuses {
			summary.IngestionsByStat[status]++
		}
	}

	if opts.ExtractKG {
		l.section("Extracting knowledge graph")
		l.extractGraph(ctx, collection.ID, summary)
	}

	summary.Duration = time.Since(start)
	return summary, nil
}

// uploadAll runs the sequential upload stage and returns the document ids of
// newly uploaded files.
func (l *Loader) uploadAll(ctx context.Context, snap *models.RepositorySnapshot, files []models.CandidateFile, collectionID string, summary *models.RunSummary) []string {
	extractor := metadata.NewExtractor(snap.LocalPath)

	var bar *ui.ProgressBar
	if !l.ui.IsQuiet() {
		bar = ui.NewProgressBar(len(files))
	}

	var uploaded []string
	for i, file := range files {
		md := extractor.Extract(file, snap)
		result := l.client.UploadFile(ctx, file, md, collectionID)

		switch result.Outcome {
		case models.OutcomeUploaded:
			summary.FilesUploaded++
			uploaded = append(uploaded, result.DocumentID)
		case models.OutcomeDuplicate:
			summary.FilesDuplicate++
		case models.OutcomeFailed:
			summary.FilesFailed++
			l.ui.VerbosePrintf("\n  upload failed: %s: %v\n", file.RelativePath, result.Err)
		}

		if bar != nil {
			bar.Update(i+1, file.RelativePath, result.Outcome)
		}
	}
	if bar != nil {
		bar.Finish()
	}
	return uploaded
}

// extractGraph triggers graph extraction and reads back the counts. The
// whole stage is best-effort: failures are reported and the run still
// completes.
func (l *Loader) extractGraph(ctx context.Context, collectionID string, summary *models.RunSummary) {
	if err := l.client.PullGraph(ctx, collectionID); err != nil {
		l.ui.Warning(fmt.Sprintf("Graph extraction could not be triggered: %v", err))
		return
	}

	wait := time.Duration(l.cfg.Poll.GraphWaitSeconds) * time.Second
	l.ui.Printf("  Extraction triggered; waiting %s before reading counts\n", wait)
	if err := l.wait(ctx, wait); err != nil {
		return
	}

	stats, err := l.client.GraphStats(ctx, collectionID)
	if err != nil {
		l.ui.Warning(fmt.Sprintf("Could not read graph counts: %v", err))
		return
	}
	summary.KGEntities = stats.Entities
	summary.KGRelationships = stats.Relationships
}

func (l *Loader) section(title string) {
	if !l.ui.IsQuiet() {
		ui.PrintSection(title)
	}
}

func (l *Loader) wait(ctx context.Context, d time.Duration) error {
	if l.sleep != nil {
		return l.sleep(ctx, d)
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
