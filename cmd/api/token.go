package main

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/contractor-backend-go/internal/pkg/jwt"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	tokenUserID     string
	tokenBusinessID string
	tokenRole       string
)

// tokenCmd mints access tokens for local development and smoke tests.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token for a user of a business",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.JWT.Secret == "" {
			return eris.New("JWT_SECRET_KEY is required")
		}
		role := user.Role(tokenRole)
		if !role.IsValid() {
			return eris.Wrapf(user.ErrInvalidRole, "role %q", tokenRole)
		}

		svc := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
		token, expiresAt, err := svc.GenerateAccessToken(tokenUserID, tokenBusinessID, role)
		if err != nil {
			return eris.Wrap(err, "generate token")
		}

		fmt.Fprintln(cmd.OutOrStdout(), token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", time.Unix(expiresAt, 0).UTC().Format(time.RFC3339))
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user", "", "user id")
	tokenCmd.Flags().StringVar(&tokenBusinessID, "business", "", "business id")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(user.RoleOwner), "owner, manager or worker")
	_ = tokenCmd.MarkFlagRequired("user")
	_ = tokenCmd.MarkFlagRequired("business")
}
