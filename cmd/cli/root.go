package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stackpick/stackpick/internal/version"
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "stackpick",
		Short: "Stack AI file picker CLI",
		Long: `Stackpick browses cloud-drive connections on the Stack AI platform, indexes
selected files into knowledge bases, and serves the proxy API a browser front
end would call.`,
		Version:       version.GetShortVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewBrowseCommand())
	rootCmd.AddCommand(NewConnectionsCommand())
	rootCmd.AddCommand(NewStatusCommand())
	rootCmd.AddCommand(NewInitCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
