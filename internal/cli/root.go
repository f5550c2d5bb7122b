// Package cli is the draftolio command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wttnguyen/draftolio/internal/cli/commands"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "draftolio",
	Short: "Draftolio - League of Legends draft companion",
	Long: `Draftolio CLI - Run tournament drafts against the Draftolio backend.

Authenticates through Riot Sign-On, keeps the session token fresh in the
background, and manages pick/ban drafts and their spectator links.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("draftolio version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewStatusCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewDraftsCmd())
	rootCmd.AddCommand(commands.NewServeCmd(version))
	rootCmd.AddCommand(commands.NewMockRSOCmd())
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
