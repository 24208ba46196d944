// devtoken mints a signed access token for local development and smoke tests.
// Usage: JWT_SECRET=... go run ./cmd/devtoken --role supervisor --username ana
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/AbnerInnovation/coffee-shop-sub000/internal/config"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/middleware"

	"github.com/spf13/cobra"
)

func main() {
	if err := newCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "devtoken:", err)
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	var (
		userID   string
		username string
		role     string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:           "devtoken",
		Short:         "Print a signed access token for the cash register API",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !middleware.KnownRole(role) {
				return fmt.Errorf("unknown role %q", role)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = time.Duration(cfg.JWTExpirationHours) * time.Hour
			}
			token, err := middleware.IssueToken(cfg.JWTSecret, userID, username, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user-id", "1", "subject user id")
	cmd.Flags().StringVar(&username, "username", "cashier", "display name recorded on ledger entries")
	cmd.Flags().StringVar(&role, "role", middleware.RoleCashier, "cashier | supervisor | admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to JWT_EXPIRATION_HOURS)")
	return cmd
}
