package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Connect открывает пул соединений к Postgres и проверяет его пингом.
// Настройки пула рассчитаны на один инстанс сервиса.
func Connect(dsn string, timeout time.Duration) (*sql.DB, error) {
	database, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database handle: %w", err)
	}

	database.SetMaxOpenConns(25)
	database.SetMaxIdleConns(25)
	database.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err = database.PingContext(ctx); err != nil {
		closeErr := database.Close()
		return nil, errors.Join(
			fmt.Errorf("failed to ping database within %v: %w", timeout, err),
			closeErr,
		)
	}

	return database, nil
}
