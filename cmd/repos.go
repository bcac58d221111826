package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"ragloader/internal/git"
	"ragloader/internal/ui"
)

var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "List locally cached repository clones",
	Run:   runRepos,
}

func init() {
	rootCmd.AddCommand(reposCmd)
}

func runRepos(cmd *cobra.Command, args []string) {
	repos, err := git.NewService().ListCached()
	if err != nil {
		ui.PrintError(err)
		os.Exit(1)
	}

	if len(repos) == 0 {
		ui.PrintInfo("No cached repositories")
		return
	}

	table := ui.NewTable([]string{"Repository", "Branch", "Last fetched", "Path"})
	for _, r := range repos {
		table.Append([]string{
			r.RepoName,
			r.Branch,
			r.LastFetched.Format(time.RFC3339),
			r.LocalPath,
		})
	}
	table.Render()
}
