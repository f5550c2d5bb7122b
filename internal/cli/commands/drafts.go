package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wttnguyen/draftolio/internal/drafts"
	"github.com/wttnguyen/draftolio/internal/identity"
	"github.com/wttnguyen/draftolio/internal/store"
)

// NewDraftsCmd creates the drafts command group
func NewDraftsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Manage pick/ban drafts",
	}

	cmd.AddCommand(newDraftsCreateCmd())
	cmd.AddCommand(newDraftsGetCmd())
	cmd.AddCommand(newDraftsListCmd())
	cmd.AddCommand(newDraftsSpectateCmd())
	cmd.AddCommand(newDraftsModesCmd())
	cmd.AddCommand(newDraftsActiveCmd())

	return cmd
}

// currentUserID resolves the id the backend keys drafts on: the session
// user when logged in, the placeholder identity otherwise.
func currentUserID(ctx context.Context, e *env) (string, error) {
	if _, err := e.session.CheckStatus(ctx); err == nil && e.session.IsAuthenticated() {
		if user := e.session.Snapshot().CurrentUser; user != nil {
			return user.ID, nil
		}
	}

	path, err := identity.DefaultPath()
	if err != nil {
		return "", fmt.Errorf("failed to resolve identity path: %w", err)
	}
	return identity.Ensure(path)
}

// openCache opens the local draft cache; failures degrade to no caching.
func openCache(e *env) *store.Store {
	cache, err := store.Open(e.cfg.Cache.Path, e.logger)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Draft cache unavailable")
		return nil
	}
	return cache
}

func printDraft(e *env, d *drafts.Draft) {
	fmt.Printf("Draft %s\n", d.ID)
	if d.Name != "" {
		fmt.Printf("  Name:     %s\n", d.Name)
	}
	fmt.Printf("  Teams:    %s vs %s\n", d.BlueTeamName, d.RedTeamName)
	fmt.Printf("  Mode:     %s\n", d.Mode)
	fmt.Printf("  Status:   %s\n", d.Status)
	if d.CurrentPhase != "" {
		fmt.Printf("  Phase:    %s (game %d)\n", d.CurrentPhase, d.GameNumber)
	}
	if d.SpectateURL != "" {
		fmt.Printf("  Spectate: %s\n", drafts.AbsoluteURL(e.cfg.Backend.Origin, d.SpectateURL))
	}
}

func newDraftsCreateCmd() *cobra.Command {
	var req drafts.CreateRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new draft",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			// Refresh ahead of a long-lived operation rather than pay the
			// 401 round trip mid-create.
			if _, err := e.session.CheckStatus(ctx); err == nil &&
				e.session.IsAuthenticated() && e.session.IsTokenExpiringSoon() {
				if err := e.session.RefreshToken(ctx); err != nil {
					return fmt.Errorf("session expired, run 'draftolio login' again: %w", err)
				}
			}

			draft, err := e.client.CreateDraft(ctx, req)
			if err != nil {
				e.session.HandleAuthError(err)
				return fmt.Errorf("failed to create draft: %w", err)
			}

			if cache := openCache(e); cache != nil {
				defer cache.Close()
				if err := cache.Record(draft); err != nil {
					e.logger.Warn().Err(err).Msg("Failed to cache draft")
				}
			}

			printDraft(e, draft)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Draft name")
	cmd.Flags().StringVar(&req.BlueTeamName, "blue", "", "Blue side team name (required)")
	cmd.Flags().StringVar(&req.RedTeamName, "red", "", "Red side team name (required)")
	cmd.Flags().StringVar(&req.Mode, "mode", "TOURNAMENT", "Draft mode: TOURNAMENT, FEARLESS or FULL_FEARLESS")
	cmd.Flags().IntVar(&req.BanPhaseTimerDuration, "ban-timer", 0, "Ban phase timer in seconds (backend default when omitted)")
	cmd.Flags().IntVar(&req.PickPhaseTimerDuration, "pick-timer", 0, "Pick phase timer in seconds (backend default when omitted)")
	_ = cmd.MarkFlagRequired("blue")
	_ = cmd.MarkFlagRequired("red")

	return cmd
}

func newDraftsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <draft-id>",
		Short: "Show one draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}

			draft, err := e.client.GetDraft(cmd.Context(), args[0])
			if err != nil {
				e.session.HandleAuthError(err)
				return fmt.Errorf("failed to fetch draft: %w", err)
			}

			if cache := openCache(e); cache != nil {
				defer cache.Close()
				_ = cache.Record(draft)
			}

			printDraft(e, draft)
			return nil
		},
	}
}

func newDraftsListCmd() *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your drafts",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}

			if cached {
				cache := openCache(e)
				if cache == nil {
					return fmt.Errorf("draft cache unavailable")
				}
				defer cache.Close()

				recent, err := cache.Recent(20)
				if err != nil {
					return err
				}
				if len(recent) == 0 {
					fmt.Println("No cached drafts")
					return nil
				}
				for _, d := range recent {
					fmt.Printf("%s  %-11s %-13s %s vs %s\n", d.ID, d.Status, d.Mode, d.BlueTeamName, d.RedTeamName)
				}
				return nil
			}

			userID, err := currentUserID(cmd.Context(), e)
			if err != nil {
				return err
			}

			list, err := e.client.ListUserDrafts(cmd.Context(), userID)
			if err != nil {
				e.session.HandleAuthError(err)
				return fmt.Errorf("failed to list drafts: %w", err)
			}
			if len(list) == 0 {
				fmt.Println("No drafts")
				return nil
			}
			for i := range list {
				d := &list[i]
				fmt.Printf("%s  %-11s %-13s %s vs %s\n", d.ID, d.Status, d.Mode, d.BlueTeamName, d.RedTeamName)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&cached, "cached", false, "List from the local cache instead of the backend")

	return cmd
}

func newDraftsSpectateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spectate <draft-id>",
		Short: "Generate a shareable spectator link for a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}

			link, err := e.client.GenerateSpectateURL(cmd.Context(), args[0])
			if err != nil {
				e.session.HandleAuthError(err)
				return fmt.Errorf("failed to generate spectate URL: %w", err)
			}

			fmt.Println(drafts.AbsoluteURL(e.cfg.Backend.Origin, link.SpectateURL))
			return nil
		},
	}
}

func newDraftsModesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List available draft modes",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}

			modes, err := e.client.ListModes(cmd.Context())
			if err != nil {
				// Mode metadata is stable; fall back to the built-in set.
				modes = drafts.Modes()
			}
			for _, m := range modes {
				fmt.Printf("%-14s %s\n", m.Mode, m.DisplayName)
				fmt.Printf("               %s\n", m.Description)
			}
			return nil
		},
	}
}

func newDraftsActiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "Count your active drafts",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}

			userID, err := currentUserID(cmd.Context(), e)
			if err != nil {
				return err
			}

			count, err := e.client.ActiveDraftCount(cmd.Context(), userID)
			if err != nil {
				e.session.HandleAuthError(err)
				return fmt.Errorf("failed to count active drafts: %w", err)
			}

			fmt.Printf("%d active draft(s)\n", count)
			return nil
		},
	}
}
