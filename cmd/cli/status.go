package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stackpick/stackpick/internal/config"
	"github.com/stackpick/stackpick/internal/version"
	"github.com/stackpick/stackpick/pkg/stackai"
)

func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show configuration and upstream connectivity",
		Long:  `Check the configured credentials against the Stack AI platform and report the resolved organization.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}

	return cmd
}

func runStatus() error {
	info := version.Get()
	fmt.Printf("stackpick %s\n", version.GetShortVersion())
	fmt.Printf("   Go: %s (%s)\n", info.GoVersion, info.Platform)
	if info.BuildDate != "" {
		fmt.Printf("   Built: %s\n", info.BuildDate)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Println("❌ Stackpick is not configured")
		fmt.Printf("   %v\n", err)
		fmt.Printf("Run '%s init' to set up credentials\n", os.Args[0])
		return nil
	}

	fmt.Println("✅ Configuration loaded")
	fmt.Printf("   API URL: %s\n", cfg.APIBaseURL)
	fmt.Printf("   Auth URL: %s\n", cfg.AuthBaseURL)
	fmt.Printf("   Account: %s\n", cfg.Email)
	fmt.Printf("   Provider: %s\n", cfg.ConnectionProvider)

	client := stackai.NewClient(
		stackai.WithBaseURL(cfg.APIBaseURL),
		stackai.WithAuthBaseURL(cfg.AuthBaseURL),
		stackai.WithAPIKey(cfg.APIKey),
		stackai.WithCredentials(cfg.Email, cfg.Password),
	)

	org, err := client.CurrentOrganization(context.Background())
	if err != nil {
		fmt.Println("❌ Upstream check failed")
		fmt.Printf("   %v\n", err)
		return nil
	}

	fmt.Println("✅ Upstream reachable")
	fmt.Printf("   Organization: %s\n", org.OrgID)
	if org.Name != "" {
		fmt.Printf("   Name: %s\n", org.Name)
	}

	return nil
}
