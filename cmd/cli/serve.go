package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/stackpick/stackpick/internal/config"
	"github.com/stackpick/stackpick/internal/controllers"
	"github.com/stackpick/stackpick/internal/server"
	"github.com/stackpick/stackpick/pkg/stackai"
)

func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the file picker proxy server",
		Long: `Run the HTTP proxy that authenticates against the Stack AI platform with the
configured service account and relays picker requests. Credentials never leave
the server.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	return cmd
}

func runServe() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := stackai.NewClient(
		stackai.WithBaseURL(cfg.APIBaseURL),
		stackai.WithAuthBaseURL(cfg.AuthBaseURL),
		stackai.WithAPIKey(cfg.APIKey),
		stackai.WithCredentials(cfg.Email, cfg.Password),
	)

	pickerController := controllers.NewPickerController(controllers.PickerControllerDependencies{
		Client:             client,
		ConnectionProvider: cfg.ConnectionProvider,
	})

	app := server.NewHTTPServer(ctx, server.HTTPServerDependencies{
		PickerController: pickerController,
	})

	log.Info().
		Str("address", cfg.HTTPAddress).
		Str("api_base_url", cfg.APIBaseURL).
		Msg("Starting picker proxy")

	if err := app.Listen(cfg.HTTPAddress, fiber.ListenConfig{
		GracefulContext:       ctx,
		DisableStartupMessage: true,
	}); err != nil {
		log.Error().Err(err).Msg("HTTP server failed")
		return err
	}

	log.Info().Msg("Picker proxy stopped")
	return nil
}
