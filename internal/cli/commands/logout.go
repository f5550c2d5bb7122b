package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}

			// Logout never fails locally; a backend error only means the
			// server-side session may linger until it expires.
			if _, err := e.session.Logout(cmd.Context()); err != nil {
				e.logger.Warn().Err(err).Msg("Backend logout failed")
			}
			fmt.Println("Logged out")
			fmt.Println("Run 'draftolio login' to sign in again.")
			return nil
		},
	}
}
