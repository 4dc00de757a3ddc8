package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iliyamo/vehicle-reservation/internal/config"
	"github.com/iliyamo/vehicle-reservation/internal/database"
	"github.com/iliyamo/vehicle-reservation/internal/model"
	"github.com/iliyamo/vehicle-reservation/internal/repository"
	"github.com/iliyamo/vehicle-reservation/internal/utils"
)

func newRootCmd() *cobra.Command {
	var (
		userID  uint64
		role    string
		offline bool
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:          "tokengen",
		Short:        "Mint an access token for a user",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			tc, err := config.LoadToken()
			if err != nil {
				return errors.Wrap(err, "invalid configuration")
			}
			logger := tc.Logger()
			logger.SetOutput(cmd.ErrOrStderr())
			log := logrus.NewEntry(logger).WithField("component", "tokengen")

			claimRole := strings.ToUpper(strings.TrimSpace(role))
			if !offline {
				u, err := lookupUser(cmd.Context(), userID)
				if err != nil {
					return err
				}
				if claimRole, err = resolveRole(u, claimRole); err != nil {
					return err
				}
			}
			if !utils.KnownRole(claimRole) {
				return fmt.Errorf("role %q must be EMPLOYEE, APPROVER or ADMIN", claimRole)
			}

			life := ttl
			if life <= 0 {
				life = tc.AccessTTL()
			}
			tok, err := utils.NewAccessToken(tc.JWTSecret, userID, claimRole, life)
			if err != nil {
				return errors.Wrap(err, "sign token")
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok.Token)
			log.WithFields(logrus.Fields{"user_id": userID, "role": claimRole, "expires": tok.Exp.Format(time.RFC3339)}).Info("token issued")
			return nil
		},
	}

	cmd.Flags().Uint64VarP(&userID, "user", "u", 0, "User id, the token subject (required)")
	cmd.Flags().StringVarP(&role, "role", "r", "", "Role claim; read from the users table when empty")
	cmd.Flags().BoolVar(&offline, "offline", false, "Do not touch the database; --role is required")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default ACCESS_TOKEN_TTL_MIN)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// lookupUser reads the user from the database named by the DB_* settings.
func lookupUser(ctx context.Context, id uint64) (*model.User, error) {
	dc, err := config.LoadDatabase()
	if err != nil {
		return nil, errors.Wrap(err, "database settings")
	}
	db, err := database.Open(database.Options{User: dc.User, Pass: dc.Pass, Host: dc.Host, Port: dc.Port, Name: dc.Name})
	if err != nil {
		return nil, errors.Wrap(err, "database unreachable")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	u, err := repository.NewUserRepo(db).GetByID(ctx, id)
	return u, errors.Wrap(err, "lookup user")
}

// resolveRole picks the role claim for u.  An explicit role must match
// the stored one.
func resolveRole(u *model.User, requested string) (string, error) {
	if !u.IsActive {
		return "", fmt.Errorf("user %d is inactive", u.ID)
	}
	if requested == "" {
		return u.Role, nil
	}
	if requested != u.Role {
		return "", fmt.Errorf("role %s does not match user role %s", requested, u.Role)
	}
	return requested, nil
}
