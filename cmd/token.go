package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyejinbaek/cognition-ai-proj/internal/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage admin session tokens",
}

var tokenMintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Mint an admin session token",
	Long: `Signs an admin session token with admin.signing_key of the server configuration
(or TRIAGE_ADMIN_SIGNING_KEY). The token is printed to stdout, use 'triage login' to save it.`,
	Example: `  TRIAGE_ADMIN_SIGNING_KEY=... triage token mint --subject hr-ops --ttl 8h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		roles, _ := cmd.Flags().GetStringSlice("role")

		cfg, err := f.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		key := f.SigningKey(cfg)
		if len(key) == 0 {
			return fmt.Errorf("no signing key configured (admin.signing_key or TRIAGE_ADMIN_SIGNING_KEY)")
		}

		token, err := auth.Mint(key, subject, roles, ttl, time.Now())
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenMintCmd)

	tokenMintCmd.Flags().String("subject", "cli", "Subject of the token, shown in server logs")
	tokenMintCmd.Flags().Duration("ttl", auth.DefaultTTL, "Token lifetime")
	tokenMintCmd.Flags().StringSlice("role", []string{auth.AdminRole}, "Roles granted by the token")
}
