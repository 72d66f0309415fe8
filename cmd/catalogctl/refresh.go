// cmd/catalogctl/refresh.go
package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"catalog-sync/internal/app"
	"catalog-sync/internal/syncer"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch entities from GitHub into the cache now",
}

var refreshOwnerCmd = &cobra.Command{
	Use:   "owner <login>",
	Short: "Refresh a user or organization and its repositories",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App, _ *slog.Logger) error {
			ctx, err := a.Syncer.Unit(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Syncer.RefreshOwner(ctx, args[0]); err != nil {
				return fmt.Errorf("refresh %s: %w", args[0], err)
			}
			cmd.Printf("Refreshed %s\n", args[0])
			return nil
		})
	},
}

var refreshRepoCmd = &cobra.Command{
	Use:   "repo <owner/name>",
	Short: "Refresh a repository with its languages, star count and stargazers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := syncer.ParseRepoIdentifier(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app.App, _ *slog.Logger) error {
			ctx, err := a.Syncer.Unit(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Syncer.RefreshRepository(ctx, id); err != nil {
				return fmt.Errorf("refresh %s: %w", id, err)
			}
			cmd.Printf("Refreshed %s\n", id)
			return nil
		})
	},
}

var refreshTrackedCmd = &cobra.Command{
	Use:   "tracked",
	Short: "Run one refresh cycle over TRACKED_LOGINS and TRACKED_REPOS",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(a *app.App, _ *slog.Logger) error {
			a.Syncer.RunOnce(cmd.Context())
			return nil
		})
	},
}

func init() {
	refreshCmd.AddCommand(refreshOwnerCmd, refreshRepoCmd, refreshTrackedCmd)
	rootCmd.AddCommand(refreshCmd)
}
