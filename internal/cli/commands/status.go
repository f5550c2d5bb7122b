package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}

			status, err := e.session.CheckStatus(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to check status: %w", err)
			}

			if !status.Authenticated {
				fmt.Println("Not logged in")
				if status.Message != "" {
					fmt.Printf("  %s\n", status.Message)
				}
				return nil
			}

			fmt.Printf("Logged in as %s\n", e.session.DisplayName())
			if status.CPID != "" {
				fmt.Printf("  Region:      %s\n", status.CPID)
			}
			if len(status.Authorities) > 0 {
				fmt.Printf("  Authorities: %s\n", strings.Join(status.Authorities, ", "))
			}
			if e.session.IsTokenExpiringSoon() {
				fmt.Println("  Access token expires soon")
			}
			return nil
		},
	}
}
