package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ragloader/internal/ui"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "Manage collections on the server",
}

var collectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all collections",
	Run:   runCollectionsList,
}

var collectionsDeleteForce bool

var collectionsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a collection by name",
	Long: "Deletes the collection grouping on the server. The documents it " +
		"contained are not removed.",
	Args: cobra.ExactArgs(1),
	Run:  runCollectionsDelete,
}

func init() {
	collectionsDeleteCmd.Flags().BoolVarP(&collectionsDeleteForce, "force", "f", false, "Delete without confirmation")
	collectionsCmd.AddCommand(collectionsListCmd)
	collectionsCmd.AddCommand(collectionsDeleteCmd)
	rootCmd.AddCommand(collectionsCmd)
}

func runCollectionsList(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		ui.PrintError(err)
		os.Exit(1)
	}

	client, err := newAuthedClient(cmd.Context(), cfg, "", "")
	if err != nil {
		ui.PrintError(err)
		os.Exit(1)
	}

	collections, err := client.ListCollections(cmd.Context())
	if err != nil {
		ui.PrintError(err)
		os.Exit(1)
	}

	if len(collections) == 0 {
		ui.PrintInfo("No collections found")
		return
	}

	table := ui.NewTable([]string{"Name", "ID", "Documents", "Description"})
	for _, c := range collections {
		table.Append([]string{c.Name, c.ID, fmt.Sprintf("%d", c.DocumentCount), c.Description})
	}
	table.Render()
}

func runCollectionsDelete(cmd *cobra.Command, args []string) {
	name := args[0]

	cfg, err := loadConfig()
	if err != nil {
		ui.PrintError(err)
		os.Exit(1)
	}

	client, err := newAuthedClient(cmd.Context(), cfg, "", "")
	if err != nil {
		ui.PrintError(err)
		os.Exit(1)
	}

	collection, err := client.FindCollection(cmd.Context(), name)
	if err != nil {
		ui.PrintError(err)
		os.Exit(1)
	}
	if collection == nil {
		ui.PrintWarning(fmt.Sprintf("Collection %q not found", name))
		os.Exit(1)
	}

	if !collectionsDeleteForce {
		ok, err := ui.Confirm(fmt.Sprintf("Delete collection %q (%s)?", collection.Name, collection.ID), false)
		if err != nil || !ok {
			ui.PrintInfo("Aborted")
			return
		}
	}

	if err := client.DeleteCollection(cmd.Context(), collection.ID); err != nil {
		ui.PrintError(err)
		os.Exit(1)
	}
	ui.PrintSuccess(fmt.Sprintf("Deleted collection %q", name))
}
