package commands

import (
	"bufio"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the Draftolio backend through Riot Sign-On",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd)
		},
	}

	return cmd
}

func runLogin(cmd *cobra.Command) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if _, err := e.session.CheckStatus(ctx); err == nil && e.session.IsAuthenticated() {
		fmt.Printf("Already logged in as %s\n", e.session.DisplayName())
		return nil
	}

	authURL, err := e.session.Login(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to initiate login: %w", err)
	}

	fmt.Println("Open this URL in your browser to sign in:")
	fmt.Printf("\n  %s\n\n", authURL)

	// Login completes out-of-band in the browser. Interactively, wait for
	// the user to come back; piped, just report the URL and exit.
	if !term.IsTerminal(int(syscall.Stdin)) {
		fmt.Println("Run 'draftolio status' after completing the sign-in.")
		return nil
	}

	fmt.Print("Press Enter once you have signed in... ")
	_, _ = bufio.NewReader(os.Stdin).ReadString('\n')

	if _, err := e.session.CheckStatus(ctx); err != nil {
		return fmt.Errorf("failed to verify login: %w", err)
	}
	if !e.session.IsAuthenticated() {
		return fmt.Errorf("sign-in not completed; run 'draftolio login' again")
	}

	fmt.Printf("Logged in as %s\n", e.session.DisplayName())
	return nil
}
