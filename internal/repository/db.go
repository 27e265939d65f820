// Package repository is the clone-and-share, thread-safe persistence layer:
// chatmates, message history, and learned-vocabulary state. Every exported
// function is total — it returns a typed error rather than panicking — so
// callers can map failures onto the flat error taxonomy without inspecting
// driver internals.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"epis-realtime/server/internal/config"
	"epis-realtime/server/internal/errors"

	"github.com/lib/pq"
)

// DB wraps a pooled Postgres connection. It is safe for concurrent use and
// is shared (not cloned) across every session goroutine.
type DB struct {
	*sql.DB
}

// Connect opens the pool, tunes it, and retries the initial ping a few
// times so the process can start before Postgres has finished booting in a
// container orchestrator.
func Connect(cfg *config.Config) (*DB, error) {
	if cfg.Database.URL == "" {
		return nil, errors.New(errors.ErrUnknown, "database.url is required")
	}

	sqlDB, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return nil, errors.New(errors.ErrRepo, fmt.Sprintf("opening database connection: %v", err))
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if lastErr = sqlDB.PingContext(ctx); lastErr == nil {
			break
		}
		slog.Warn("database ping failed", "attempt", attempt, "error", lastErr)
		if attempt < 3 {
			time.Sleep(2 * time.Second)
		}
	}
	if lastErr != nil {
		sqlDB.Close()
		return nil, errors.New(errors.ErrRepo, fmt.Sprintf("connecting to database after 3 attempts: %v", lastErr))
	}

	slog.Info("connected to postgres")
	return &DB{sqlDB}, nil
}

func (db *DB) Close() error {
	if db.DB != nil {
		return db.DB.Close()
	}
	return nil
}

// Migrate is a placeholder: schema changes for chatmate, message, and
// learned_vocab are applied via init scripts ahead of deployment, not at
// process startup.
func (db *DB) Migrate() error {
	slog.Info("schema migrations handled by init scripts")
	return nil
}

// Transaction runs fn inside a transaction, rolling back on error or panic.
func (db *DB) Transaction(fn func(*sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, errors.ErrRepo)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrRepo)
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique_violation (23505).
func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == "23505"
}
