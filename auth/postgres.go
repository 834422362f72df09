package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

// PostgresVerifier checks passwords against bcrypt hashes in a users table
type PostgresVerifier struct {
	pool *sql.DB
	log  *slog.Logger
}

// OpenPostgres opens a connection pool, waits for the database and creates the schema
func OpenPostgres(ctx context.Context, dsn string, log *slog.Logger) (*PostgresVerifier, error) {
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	pool.SetMaxOpenConns(10)
	pool.SetMaxIdleConns(5)
	pool.SetConnMaxLifetime(5 * time.Minute)

	v := &PostgresVerifier{pool: pool, log: log}
	if err := v.waitReady(ctx, 30, 2*time.Second); err != nil {
		pool.Close()
		return nil, err
	}
	if err := v.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return v, nil
}

func (v *PostgresVerifier) waitReady(ctx context.Context, attempts int, every time.Duration) error {
	for i := 0; i < attempts; i++ {
		if err := v.pool.PingContext(ctx); err == nil {
			v.log.Info("users db connected")
			return nil
		}
		v.log.Warn("users db not ready, retrying", "attempt", i+1, "of", attempts)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(every):
		}
	}
	return fmt.Errorf("users db unavailable after %d attempts", attempts)
}

// Migrate creates the users table if it does not exist
func (v *PostgresVerifier) Migrate(ctx context.Context) error {
	_, err := v.pool.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			username      VARCHAR(64)  PRIMARY KEY,
			password_hash VARCHAR(100) NOT NULL,
			created_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate users: %w", err)
	}
	return nil
}

// AddUser stores a user with the bcrypt hash of pass
func (v *PostgresVerifier) AddUser(ctx context.Context, user, pass string) error {
	hash, err := HashPassword(pass)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = v.pool.ExecContext(ctx,
		`INSERT INTO users(username, password_hash) VALUES($1, $2)
		 ON CONFLICT (username) DO UPDATE SET password_hash = EXCLUDED.password_hash`,
		user, hash,
	)
	if err != nil {
		return fmt.Errorf("add user %s: %w", user, err)
	}
	return nil
}

func (v *PostgresVerifier) Verify(ctx context.Context, user, pass string) (bool, error) {
	var hash string
	err := v.pool.QueryRowContext(ctx,
		`SELECT password_hash FROM users WHERE username = $1`, user,
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup user %s: %w", user, err)
	}
	return checkHash([]byte(hash), pass)
}

// Close releases the pool
func (v *PostgresVerifier) Close() error {
	return v.pool.Close()
}
