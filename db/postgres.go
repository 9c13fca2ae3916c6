// db/postgres.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/dev-mohitbeniwal/echo-portal/config"
	logger "github.com/dev-mohitbeniwal/echo-portal/logging"
)

var Postgres *sql.DB

// InitPostgres opens the credential store.
func InitPostgres(ctx context.Context) error {
	db, err := OpenPostgres(ctx, config.GetString("postgres.dsn"))
	if err != nil {
		return err
	}
	Postgres = db
	logger.Info("Successfully connected to PostgreSQL")
	return nil
}

func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	return db, nil
}

func ClosePostgres() {
	if Postgres == nil {
		return
	}
	if err := Postgres.Close(); err != nil {
		logger.Error("Error closing PostgreSQL connection", zap.Error(err))
	}
}
