package cmd

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"ragloader/internal/config"
	"ragloader/internal/r2r"
	"ragloader/internal/security"
	"ragloader/internal/ui"
	"ragloader/pkg/models"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration setup",
	Run:   runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) {
	fmt.Println("Setting up ragloader...")
	fmt.Println()

	if config.Exists() {
		var overwrite bool
		prompt := &survey.Confirm{
			Message: "Configuration already exists. Do you want to overwrite it?",
			Default: false,
		}
		_ = survey.AskOne(prompt, &overwrite)
		if !overwrite {
			fmt.Println("Setup cancelled.")
			return
		}
	}

	cfg := &models.Config{}
	cfg.Defaults()

	answers := struct {
		URL      string
		Email    string
		Password string
		Quality  string
	}{}

	questions := []*survey.Question{
		{
			Name: "url",
			Prompt: &survey.Input{
				Message: "RAG server URL:",
				Default: cfg.API.URL,
			},
			Validate: survey.Required,
		},
		{
			Name: "email",
			Prompt: &survey.Input{
				Message: "Account email:",
			},
			Validate: survey.Required,
		},
		{
			Name: "password",
			Prompt: &survey.Password{
				Message: "Account password:",
			},
			Validate: survey.Required,
		},
		{
			Name: "quality",
			Prompt: &survey.Select{
				Message: "Default ingestion quality:",
				Options: []string{"high", "fast"},
				Default: "high",
			},
		},
	}

	if err := survey.Ask(questions, &answers); err != nil {
		ui.PrintError(err)
		os.Exit(1)
	}

	cfg.API.URL = answers.URL
	cfg.API.Email = answers.Email
	cfg.Upload.Quality = answers.Quality

	// Prefer the system keyring for the password; fall back to the
	// encrypted config file entry.
	storedInKeyring := false
	if cm, err := security.NewCredentialManager(); err == nil {
		if err := cm.StoreAPICredentials(answers.Email, answers.Password); err == nil {
			storedInKeyring = true
		}
	}
	if !storedInKeyring {
		cfg.API.Password = answers.Password
	}

	if err := config.Save(cfg); err != nil {
		ui.PrintError(err)
		os.Exit(1)
	}

	if storedInKeyring {
		ui.PrintSuccess("Password stored in the system keyring")
	} else {
		ui.PrintWarning("Keyring unavailable; password stored encrypted in the config file")
	}
	ui.PrintSuccess(fmt.Sprintf("Configuration written to %s", config.GetConfigFile()))

	// Verify the server answers before calling setup done.
	client := r2r.NewClient(cfg.API.URL, cfg)
	if err := client.HealthCheck(cmd.Context()); err != nil {
		ui.PrintWarning(fmt.Sprintf("Server health check failed: %v", err))
		return
	}
	ui.PrintSuccess("Server is reachable")
}
