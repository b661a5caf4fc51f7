package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Pool manages a MySQL/MariaDB connection pool.
type Pool struct {
	db *sql.DB
}

// NewPool creates a new MariaDB connection pool and ensures the schema exists.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	if dsn == "" {
		return nil, errors.New("MariaDB DSN is required")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MariaDB: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MariaDB: %w", err)
	}

	p := &Pool{db: db}
	if err := p.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate MariaDB: %w", err)
	}
	return p, nil
}

// migrate creates the attendance table if it doesn't exist.
func (p *Pool) migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS attendance ("+
		"id BIGINT AUTO_INCREMENT PRIMARY KEY, "+
		"day DATE NOT NULL, "+
		"`identity` VARCHAR(255) NOT NULL, "+
		"time_of_day VARCHAR(8) NOT NULL, "+
		"confidence DOUBLE NOT NULL, "+
		"created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP, "+
		"UNIQUE KEY attendance_day_identity (day, `identity`)"+
		") CHARACTER SET utf8mb4")
	if err != nil {
		return fmt.Errorf("create attendance table: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}
