package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/stackpick/stackpick/internal/config"
	"github.com/stackpick/stackpick/internal/picker"
	"github.com/stackpick/stackpick/internal/tui"
	"github.com/stackpick/stackpick/pkg/stackai"
)

func NewBrowseCommand() *cobra.Command {
	var connectionID string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse a connection and pick files to index",
		Long: `Open an interactive picker for a cloud-drive connection. Select files with
space, index them into a knowledge base with i, and de-index with d.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(connectionID)
		},
	}

	cmd.Flags().StringVar(&connectionID, "connection", "", "Connection ID to browse (defaults to the first connection)")

	return cmd
}

func runBrowse(connectionID string) error {
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

	if connectionID == "" {
		connections, err := client.ListConnections(context.Background(), cfg.ConnectionProvider, 1)
		if err != nil {
			return fmt.Errorf("failed to list connections: %w", err)
		}
		if len(connections) == 0 {
			return fmt.Errorf("no %s connections found for this account", cfg.ConnectionProvider)
		}
		connectionID = connections[0].ConnectionID
	}

	loader := picker.NewLoader(client, connectionID)
	orchestrator := picker.NewOrchestrator(client)

	p := tea.NewProgram(tui.NewModel(loader, orchestrator, connectionID), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
