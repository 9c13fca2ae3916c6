// dao/user_dao.go
package dao

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	echo_errors "github.com/dev-mohitbeniwal/echo-portal/errors"
	logger "github.com/dev-mohitbeniwal/echo-portal/logging"
	"github.com/dev-mohitbeniwal/echo-portal/model"
)

const pgErrUniqueViolation = "23505"

const usersSchema = `
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL,
	department    TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// UserDAO is the credential store.
type UserDAO struct {
	DB *sql.DB
}

func NewUserDAO(db *sql.DB) *UserDAO {
	return &UserDAO{DB: db}
}

func (dao *UserDAO) EnsureSchema(ctx context.Context) error {
	logger.Info("Ensuring users table")
	if _, err := dao.DB.ExecContext(ctx, usersSchema); err != nil {
		logger.Error("Failed to ensure users table", zap.Error(err))
		return err
	}
	return nil
}

// CreateUser inserts a user. A taken username or email yields ErrUserConflict.
func (dao *UserDAO) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	start := time.Now()
	logger.Info("Creating new user", zap.String("username", user.Username))

	created := *user
	err := dao.DB.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash, role, department)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		user.Username, user.Email, user.PasswordHash, user.Role, user.Department,
	).Scan(&created.ID, &created.CreatedAt)

	duration := time.Since(start)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
			logger.Warn("User already exists",
				zap.String("username", user.Username),
				zap.String("constraint", pgErr.ConstraintName),
				zap.Duration("duration", duration))
			return nil, echo_errors.ErrUserConflict
		}
		logger.Error("Failed to create user",
			zap.Error(err),
			zap.String("username", user.Username),
			zap.Duration("duration", duration))
		return nil, fmt.Errorf("%w: %v", echo_errors.ErrDatabaseOperation, err)
	}

	logger.Info("User created successfully",
		zap.Int64("userID", created.ID),
		zap.Duration("duration", duration))
	return &created, nil
}

// GetUserByUsername is an exact, case-sensitive lookup.
func (dao *UserDAO) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return dao.getUser(ctx, "username", `
		SELECT id, username, email, password_hash, role, department, created_at
		FROM users WHERE username = $1`, username)
}

func (dao *UserDAO) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return dao.getUser(ctx, "id", `
		SELECT id, username, email, password_hash, role, department, created_at
		FROM users WHERE id = $1`, id)
}

func (dao *UserDAO) getUser(ctx context.Context, by, query string, arg any) (*model.User, error) {
	start := time.Now()
	var u model.User
	err := dao.DB.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Department, &u.CreatedAt)

	duration := time.Since(start)
	if errors.Is(err, sql.ErrNoRows) {
		logger.Debug("User not found", zap.String("by", by), zap.Duration("duration", duration))
		return nil, echo_errors.ErrUserNotFound
	}
	if err != nil {
		logger.Error("Failed to retrieve user",
			zap.Error(err),
			zap.String("by", by),
			zap.Duration("duration", duration))
		return nil, fmt.Errorf("%w: %v", echo_errors.ErrDatabaseOperation, err)
	}
	logger.Debug("User retrieved successfully", zap.Int64("userID", u.ID), zap.Duration("duration", duration))
	return &u, nil
}

// ListUsers returns users ordered by id.
func (dao *UserDAO) ListUsers(ctx context.Context, limit, offset int) ([]*model.User, error) {
	start := time.Now()
	rows, err := dao.DB.QueryContext(ctx, `
		SELECT id, username, email, password_hash, role, department, created_at
		FROM users ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		logger.Error("Failed to list users", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", echo_errors.ErrDatabaseOperation, err)
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Department, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", echo_errors.ErrDatabaseOperation, err)
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", echo_errors.ErrDatabaseOperation, err)
	}

	logger.Debug("Users listed successfully",
		zap.Int("count", len(users)),
		zap.Duration("duration", time.Since(start)))
	return users, nil
}
