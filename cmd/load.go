package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ragloader/internal/git"
	"ragloader/internal/loader"
	"ragloader/internal/r2r"
	"ragloader/internal/ui"
)

var loadFlags struct {
	collection string
	branch     string
	update     bool
	extractKG  bool
	quality    string
	verbose    bool
	quiet      bool
	email      string
	password   string
}

var loadCmd = &cobra.Command{
	Use:   "load <repository-url>",
	Short: "Clone a repository and ingest its files into the server",
	Long: "Runs the full pipeline: clone or update the repository, select " +
		"ingestible files, resolve the target collection, upload each file with " +
		"extracted metadata, wait for ingestion, and optionally trigger " +
		"knowledge-graph extraction.",
	Args: cobra.ExactArgs(1),
	Run:  runLoad,
}

func init() {
	loadCmd.Flags().StringVarP(&loadFlags.collection, "collection", "c", "", "Target collection name (default repo-<name>)")
	loadCmd.Flags().StringVarP(&loadFlags.branch, "branch", "b", "", "Branch to check out")
	loadCmd.Flags().BoolVarP(&loadFlags.update, "update", "u", false, "Fetch and fast-forward an existing clone")
	loadCmd.Flags().BoolVar(&loadFlags.extractKG, "extract-kg", false, "Trigger knowledge-graph extraction after ingestion")
	loadCmd.Flags().StringVar(&loadFlags.quality, "quality", "", "Ingestion quality: high or fast")
	loadCmd.Flags().BoolVarP(&loadFlags.verbose, "verbose", "v", false, "Verbose output")
	loadCmd.Flags().BoolVarP(&loadFlags.quiet, "quiet", "q", false, "Suppress progress output")
	loadCmd.Flags().StringVar(&loadFlags.email, "email", "", "API account email")
	loadCmd.Flags().StringVar(&loadFlags.password, "password", "", "API account password")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		ui.PrintError(err)
		os.Exit(1)
	}

	if loadFlags.quality != "" {
		if loadFlags.quality != "high" && loadFlags.quality != "fast" {
			ui.PrintError(fmt.Errorf("invalid quality %q: must be high or fast", loadFlags.quality))
			os.Exit(1)
		}
		cfg.Upload.Quality = loadFlags.quality
	}

	email, password, err := resolveCredentials(cfg, loadFlags.email, loadFlags.password)
	if err != nil {
		ui.PrintError(err)
		os.Exit(1)
	}

	u := ui.NewUI(loadFlags.verbose, loadFlags.quiet)
	client := r2r.NewClient(cfg.API.URL, cfg)
	l := loader.New(git.NewService(), client, cfg, u)

	summary, err := l.LoadRepository(cmd.Context(), loader.LoadOptions{
		RepoURL:    args[0],
		Collection: loadFlags.collection,
		Branch:     loadFlags.branch,
		Update:     loadFlags.update,
		ExtractKG:  loadFlags.extractKG,
		Email:      email,
		Password:   password,
	})
	if err != nil {
		ui.PrintError(err)
		os.Exit(1)
	}

	if !loadFlags.quiet {
		ui.ShowRunSummary(summary)
	}
}
