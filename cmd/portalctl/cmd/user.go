package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dev-mohitbeniwal/echo-portal/auth"
	"github.com/dev-mohitbeniwal/echo-portal/config"
	"github.com/dev-mohitbeniwal/echo-portal/dao"
	"github.com/dev-mohitbeniwal/echo-portal/db"
	logger "github.com/dev-mohitbeniwal/echo-portal/logging"
	"github.com/dev-mohitbeniwal/echo-portal/model"
	"github.com/dev-mohitbeniwal/echo-portal/util"
)

var newUser model.RegisterRequest

// createUserCmd writes straight to the credential store, so it is how the
// first administrator gets an account.
var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a portal account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		conn, err := db.OpenPostgres(ctx, config.GetString("postgres.dsn"))
		if err != nil {
			return err
		}
		defer conn.Close()

		users := dao.NewUserDAO(conn)
		if err := users.EnsureSchema(ctx); err != nil {
			return err
		}
		if newUser.Password == "" {
			if newUser.Password, err = passwordArg(nil, cmd.InOrStdin()); err != nil {
				return err
			}
		}

		created, err := createUser(ctx, users, util.NewValidationUtil(), newUser, config.GetInt("auth.bcryptCost"))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s created user %s (id %d, role %s)\n",
			okFmt("✓"), created.Username, created.ID, created.Role)
		return nil
	},
}

func init() {
	f := createUserCmd.Flags()
	f.StringVar(&newUser.Username, "username", "", "login name")
	f.StringVar(&newUser.Email, "email", "", "email address")
	f.StringVar(&newUser.Password, "password", "", "password (read from stdin when empty)")
	f.StringVar(&newUser.Role, "role", model.RoleEmployee, "one of "+strings.Join(model.KnownRoles, ", "))
	f.StringVar(&newUser.Department, "department", "", "department")
	_ = createUserCmd.MarkFlagRequired("username")
	_ = createUserCmd.MarkFlagRequired("email")
}

type userCreator interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
}

func createUser(ctx context.Context, store userCreator, v *util.ValidationUtil, req model.RegisterRequest, cost int) (*model.User, error) {
	user := &model.User{
		Username:   strings.TrimSpace(req.Username),
		Email:      strings.TrimSpace(req.Email),
		Role:       strings.TrimSpace(req.Role),
		Department: strings.TrimSpace(req.Department),
	}
	if err := v.ValidateUser(user, req.Password); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(req.Password, cost)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	created, err := store.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	logger.Debug("User created from CLI", zap.Int64("userID", created.ID), zap.String("role", created.Role))
	return created, nil
}
