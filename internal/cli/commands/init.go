package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	cliconfig "github.com/wttnguyen/draftolio/internal/cli/config"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	var backendURL string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a draftolio.yaml configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(backendURL)
		},
	}

	cmd.Flags().StringVar(&backendURL, "backend", "", "Backend URL to write into the config")

	return cmd
}

func runInit(backendURL string) error {
	path := filepath.Join(".", cliconfig.ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	cfg := cliconfig.DefaultConfig()
	if backendURL != "" {
		cfg.BackendURL = backendURL
	}

	if err := cfg.Save(path); err != nil {
		return err
	}

	fmt.Printf("Created %s\n", path)
	fmt.Println("Edit it to point at your Draftolio backend, then run 'draftolio login'.")
	return nil
}
