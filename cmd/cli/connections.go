package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/stackpick/stackpick/internal/config"
	"github.com/stackpick/stackpick/pkg/stackai"
)

func NewConnectionsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "connections",
		Short: "List the cloud-drive connections on this account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConnections(limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of connections to list")

	return cmd
}

func runConnections(limit int) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	client := stackai.NewClient(
		stackai.WithBaseURL(cfg.APIBaseURL),
		stackai.WithAuthBaseURL(cfg.AuthBaseURL),
		stackai.WithAPIKey(cfg.APIKey),
		stackai.WithCredentials(cfg.Email, cfg.Password),
	)

	connections, err := client.ListConnections(context.Background(), cfg.ConnectionProvider, limit)
	if err != nil {
		return fmt.Errorf("failed to list connections: %w", err)
	}

	if len(connections) == 0 {
		fmt.Printf("No %s connections found\n", cfg.ConnectionProvider)
		return nil
	}

	fmt.Printf("Connections (%d):\n", len(connections))
	for _, conn := range connections {
		fmt.Printf("   %s  %s (%s)\n", conn.ConnectionID, conn.Name, conn.ConnectionProvider)
	}

	return nil
}
