// cmd/catalogctl/account.go
package main

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"catalog-sync/internal/api"
	"catalog-sync/internal/app"
	"catalog-sync/internal/config"
	"catalog-sync/internal/model"
)

var (
	accountLogin             string
	accountPersonalToken     string
	accountInstallationToken string
	tokenTTL                 time.Duration
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage local accounts",
}

var accountSaveCmd = &cobra.Command{
	Use:   "save <id>",
	Short: "Create or update a local account and its GitHub tokens",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		account := model.LocalAccount{
			ID:                      args[0],
			Login:                   accountLogin,
			InstallationAccessToken: accountInstallationToken,
		}
		if accountPersonalToken != "" {
			account.PersonalAccessToken = &accountPersonalToken
		}
		return withApp(cmd.Context(), func(a *app.App, _ *slog.Logger) error {
			if err := a.Accounts.Save(cmd.Context(), account); err != nil {
				return err
			}
			cmd.Printf("Saved account %s\n", account.ID)
			return nil
		})
	},
}

var accountTierCmd = &cobra.Command{
	Use:   "tier <id>",
	Short: "Resolve and store the access tier of an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App, _ *slog.Logger) error {
			account, err := a.Accounts.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			access := a.Resolver.Resolve(cmd.Context(), account)
			cmd.Printf("%s %s (%s credential)\n", account.ID, access.Tier, access.Credential.Source)
			return nil
		})
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token <account-id>",
	Short: "Issue an API session token for an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		token, err := api.IssueToken([]byte(cfg.SessionSecret), args[0], tokenTTL)
		if err != nil {
			return err
		}
		cmd.Println(token)
		return nil
	},
}

func init() {
	accountSaveCmd.Flags().StringVar(&accountLogin, "login", "", "GitHub login of the account")
	accountSaveCmd.Flags().StringVar(&accountPersonalToken, "personal-token", "", "personal access token")
	accountSaveCmd.Flags().StringVar(&accountInstallationToken, "installation-token", "", "GitHub App user access token")
	_ = accountSaveCmd.MarkFlagRequired("login")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")

	accountCmd.AddCommand(accountSaveCmd, accountTierCmd)
	rootCmd.AddCommand(accountCmd, tokenCmd)
}
