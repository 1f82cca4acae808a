package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/baharkarakas/paystream/internal/auth"
	"github.com/baharkarakas/paystream/internal/identity"
)

func newTokenCommand() *cobra.Command {
	var tenantID, userID, email, roles string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access/refresh token pair for local testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadEnv()
			if err != nil {
				return err
			}
			if cfg.Env == "prod" {
				return fmt.Errorf("token minting is disabled in prod")
			}
			tm := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.JWTIssuer, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
			pair, err := tm.GeneratePair(identity.New(tenantID, userID, email, identity.ParseRoles(roles)...))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]string{
				"access_token":  pair.Access,
				"refresh_token": pair.Refresh,
				"expires_at":    pair.AccessExp.UTC().Format(time.RFC3339),
			})
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant id (required)")
	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	cmd.Flags().StringVar(&email, "email", "", "user email")
	cmd.Flags().StringVar(&roles, "roles", "", "comma separated roles, e.g. TRANSACTION_CREATOR,TRANSACTION_VIEWER")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
