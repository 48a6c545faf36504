package db

import (
	"context"
	"database/sql"
	"fmt"

	"coin-heist/internal/config"
	"coin-heist/internal/models"

	_ "github.com/lib/pq"
)

// LedgerStore persists the economy ledger. Commit must be atomic: either the
// whole change is durable or none of it is.
type LedgerStore interface {
	Load(ctx context.Context) (*models.Ledger, error)
	Commit(ctx context.Context, change models.Change) error
	Close() error
}

func Connect(cfg *config.Config) (*sql.DB, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DatabaseHost,
		cfg.DatabasePort,
		cfg.DatabaseUser,
		cfg.DatabasePassword,
		cfg.DatabaseName,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Open builds the store selected by cfg.StoreDriver. The postgres store is
// migrated before it is returned.
func Open(cfg *config.Config) (LedgerStore, error) {
	switch cfg.StoreDriver {
	case config.StoreFile:
		return NewFileStore(cfg.LedgerPath), nil
	case config.StorePostgres:
		conn, err := Connect(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := Migrate(conn); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return NewPostgresStore(conn), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
