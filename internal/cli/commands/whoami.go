package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the full current-user profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if _, err := e.session.CheckStatus(ctx); err != nil {
				return fmt.Errorf("failed to check status: %w", err)
			}
			if !e.session.IsAuthenticated() {
				return fmt.Errorf("not logged in; run 'draftolio login' first")
			}

			user, err := e.session.FetchCurrentUser(ctx)
			if err != nil {
				return fmt.Errorf("failed to fetch profile: %w", err)
			}

			fmt.Printf("ID:           %s\n", user.ID)
			fmt.Printf("Subject:      %s\n", user.Subject)
			if user.DisplayName != "" {
				fmt.Printf("Display name: %s\n", user.DisplayName)
			}
			if user.CPID != "" {
				fmt.Printf("Region:       %s\n", user.CPID)
			}
			if user.Email != "" {
				fmt.Printf("Email:        %s\n", user.Email)
			}
			if user.AuthInfo.Provider != "" {
				fmt.Printf("Provider:     %s\n", user.AuthInfo.Provider)
			}
			if len(user.AuthInfo.Scopes) > 0 {
				fmt.Printf("Scopes:       %s\n", strings.Join(user.AuthInfo.Scopes, " "))
			}
			if user.AuthInfo.AccessTokenExpiresAt != nil {
				fmt.Printf("Token expiry: %s\n", user.AuthInfo.AccessTokenExpiresAt.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}
