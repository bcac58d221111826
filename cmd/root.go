package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ragloader/internal/config"
	"ragloader/internal/r2r"
	"ragloader/internal/security"
	"ragloader/pkg/errors"
	"ragloader/pkg/models"
)

var rootCmd = &cobra.Command{
	Use:   "ragloader",
	Short: "Load source repositories into a RAG server",
	Long: "ragloader clones a Git repository, selects its ingestible files, " +
		"and uploads them with code-aware metadata to an R2R-compatible RAG server.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initEnv)
}

// initEnv binds the environment overrides. These take precedence over the
// config file but not over explicit flags.
func initEnv() {
	_ = viper.BindEnv("api.url", "R2R_API_URL")
	_ = viper.BindEnv("api.email", "R2R_EMAIL")
	_ = viper.BindEnv("api.password", "R2R_PASSWORD")
}

// loadConfig reads the config file and applies environment overrides.
func loadConfig() (*models.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if v := viper.GetString("api.url"); v != "" {
		cfg.API.URL = v
	}
	if v := viper.GetString("api.email"); v != "" {
		cfg.API.Email = v
	}
	if v := viper.GetString("api.password"); v != "" {
		cfg.API.Password = v
	}
	return cfg, nil
}

// resolveCredentials returns the account to authenticate with: explicit
// values win, then config/environment, then the system keyring.
func resolveCredentials(cfg *models.Config, email, password string) (string, string, error) {
	if email == "" {
		email = cfg.API.Email
	}
	if password == "" {
		password = cfg.API.Password
	}

	if email == "" || password == "" {
		if cm, err := security.NewCredentialManager(); err == nil {
			if storedEmail, storedPassword, err := cm.GetAPICredentials(); err == nil {
				if email == "" {
					email = storedEmail
				}
				if password == "" {
					password = storedPassword
				}
			}
		}
	}

	if email == "" || password == "" {
		return "", "", errors.New(errors.ErrCodeConfigNotFound,
			"No API credentials configured").
			WithSuggestions(
				"Run 'ragloader setup' to configure the server account",
				"Or set R2R_EMAIL and R2R_PASSWORD",
			)
	}
	return email, password, nil
}

// newAuthedClient builds a client and logs it in with the resolved account.
func newAuthedClient(ctx context.Context, cfg *models.Config, email, password string) (*r2r.Client, error) {
	email, password, err := resolveCredentials(cfg, email, password)
	if err != nil {
		return nil, err
	}

	client := r2r.NewClient(cfg.API.URL, cfg)
	if err := client.Authenticate(ctx, email, password); err != nil {
		return nil, err
	}
	return client, nil
}
