package dao

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echo_errors "github.com/dev-mohitbeniwal/echo-portal/errors"
	"github.com/dev-mohitbeniwal/echo-portal/model"
)

var userColumns = []string{"id", "username", "email", "password_hash", "role", "department", "created_at"}

func newUserDAO(t *testing.T) (*UserDAO, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewUserDAO(db), mock
}

func TestUserDAO_CreateUser(t *testing.T) {
	dao, mock := newUserDAO(t)
	created := time.Date(2024, 7, 9, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("hannah", "hannah@example.com", "$2a$hash", model.RoleHR, "People").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), created))

	user, err := dao.CreateUser(context.Background(), &model.User{
		Username: "hannah", Email: "hannah@example.com", PasswordHash: "$2a$hash",
		Role: model.RoleHR, Department: "People",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, created, user.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserDAO_CreateUser_Conflict(t *testing.T) {
	dao, mock := newUserDAO(t)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

	_, err := dao.CreateUser(context.Background(), &model.User{Username: "hannah", Email: "h@example.com", Role: model.RoleHR})
	assert.ErrorIs(t, err, echo_errors.ErrUserConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserDAO_CreateUser_DatabaseError(t *testing.T) {
	dao, mock := newUserDAO(t)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).WillReturnError(errors.New("connection reset"))

	_, err := dao.CreateUser(context.Background(), &model.User{Username: "hannah"})
	assert.ErrorIs(t, err, echo_errors.ErrDatabaseOperation)
}

func TestUserDAO_GetUserByUsername(t *testing.T) {
	dao, mock := newUserDAO(t)
	created := time.Date(2024, 7, 9, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username = $1")).
		WithArgs("hannah").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(int64(7), "hannah", "hannah@example.com", "$2a$hash", model.RoleHR, "People", created))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username = $1")).
		WithArgs("Hannah").
		WillReturnRows(sqlmock.NewRows(userColumns))

	user, err := dao.GetUserByUsername(context.Background(), "hannah")
	require.NoError(t, err)
	assert.Equal(t, model.Identity{ID: 7, Username: "hannah", Role: model.RoleHR, Department: "People"}, user.Identity())
	assert.Equal(t, "$2a$hash", user.PasswordHash)

	_, err = dao.GetUserByUsername(context.Background(), "Hannah")
	assert.ErrorIs(t, err, echo_errors.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserDAO_ListUsers(t *testing.T) {
	dao, mock := newUserDAO(t)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users ORDER BY id LIMIT $1 OFFSET $2")).
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(int64(1), "admin", "admin@example.com", "h1", model.RoleAdmin, "", now).
			AddRow(int64(2), "ivy", "ivy@example.com", "h2", model.RoleIntern, "People", now))

	users, err := dao.ListUsers(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "ivy", users[1].Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}
