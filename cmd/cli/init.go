package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func NewInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively write a stackpick.yaml config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit()
		},
	}

	return cmd
}

type initAnswers struct {
	APIBaseURL  string `yaml:"apibaseurl"`
	AuthBaseURL string `yaml:"authbaseurl"`
	APIKey      string `yaml:"apikey"`
	Email       string `yaml:"email"`
	Password    string `yaml:"password"`
	Provider    string `yaml:"connectionprovider"`
}

func runInit() error {
	answers := initAnswers{
		APIBaseURL:  "https://api.stack-ai.com",
		AuthBaseURL: "https://sb.stack-ai.com",
		Provider:    "gdrive",
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API base URL").
				Value(&answers.APIBaseURL),
			huh.NewInput().
				Title("Auth base URL").
				Value(&answers.AuthBaseURL),
			huh.NewInput().
				Title("Supabase anon key").
				Value(&answers.APIKey).
				Validate(required("anon key")),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Service account email").
				Value(&answers.Email).
				Validate(required("email")),
			huh.NewInput().
				Title("Service account password").
				EchoMode(huh.EchoModePassword).
				Value(&answers.Password).
				Validate(required("password")),
			huh.NewSelect[string]().
				Title("Connection provider").
				Options(
					huh.NewOption("Google Drive", "gdrive"),
					huh.NewOption("Dropbox", "dropbox"),
					huh.NewOption("OneDrive", "onedrive"),
				).
				Value(&answers.Provider),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to resolve home directory: %w", err)
	}

	dir := filepath.Join(home, ".stackpick")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(answers)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	path := filepath.Join(dir, "stackpick.yaml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("✅ Wrote %s\n", path)
	fmt.Printf("Run '%s status' to verify connectivity\n", os.Args[0])

	return nil
}

func required(field string) func(string) error {
	return func(value string) error {
		if value == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}
