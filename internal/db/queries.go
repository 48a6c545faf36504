package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"coin-heist/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dbConn *sql.DB) *PostgresStore {
	return &PostgresStore{
		db: dbConn,
	}
}

func (p *PostgresStore) Load(ctx context.Context) (*models.Ledger, error) {
	ledger := models.NewLedger()

	rows, err := p.db.QueryContext(ctx, `
SELECT user_id, balance, guns, bullet, crazy_bullet, insane_bullet, jail_until, last_steal
FROM accounts`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a         models.Account
			jailUntil sql.NullTime
			lastSteal sql.NullTime
		)
		if err := rows.Scan(&a.UserID, &a.Balance,
			&a.Inventory.Guns, &a.Inventory.Bullet, &a.Inventory.CrazyBullet, &a.Inventory.InsaneBullet,
			&jailUntil, &lastSteal); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		a.JailUntil = timePtr(jailUntil)
		a.LastSteal = timePtr(lastSteal)
		ledger.Accounts[a.UserID] = &a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read accounts: %w", err)
	}

	txRows, err := p.db.QueryContext(ctx, "SELECT payload FROM ledger_transactions ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer txRows.Close()

	for txRows.Next() {
		var payload []byte
		if err := txRows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		var tx models.Transaction
		if err := json.Unmarshal(payload, &tx); err != nil {
			return nil, fmt.Errorf("failed to decode transaction: %w", err)
		}
		ledger.Transactions = append(ledger.Transactions, tx)
	}
	if err := txRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	return ledger, nil
}

// Commit writes accounts in user id order so concurrent writers always lock
// rows in the same sequence.
func (p *PostgresStore) Commit(ctx context.Context, change models.Change) error {
	if change.Empty() {
		return nil
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	accounts := append([]*models.Account(nil), change.Accounts...)
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].UserID < accounts[j].UserID })

	for _, a := range accounts {
		if err := upsertAccount(ctx, tx, a); err != nil {
			return err
		}
	}
	for _, t := range change.Transactions {
		if err := insertTransaction(ctx, tx, t); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ledger change: %w", err)
	}
	return nil
}

func (p *PostgresStore) Close() error {
	return p.db.Close()
}

func upsertAccount(ctx context.Context, tx *sql.Tx, a *models.Account) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO accounts (user_id, balance, guns, bullet, crazy_bullet, insane_bullet, jail_until, last_steal)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (user_id) DO UPDATE SET
    balance = EXCLUDED.balance,
    guns = EXCLUDED.guns,
    bullet = EXCLUDED.bullet,
    crazy_bullet = EXCLUDED.crazy_bullet,
    insane_bullet = EXCLUDED.insane_bullet,
    jail_until = EXCLUDED.jail_until,
    last_steal = EXCLUDED.last_steal`,
		a.UserID, a.Balance,
		a.Inventory.Guns, a.Inventory.Bullet, a.Inventory.CrazyBullet, a.Inventory.InsaneBullet,
		nullTime(a.JailUntil), nullTime(a.LastSteal))
	if err != nil {
		return fmt.Errorf("failed to upsert account %q: %w", a.UserID, err)
	}
	return nil
}

// Transaction ids are unique, so replaying a commit that already landed is a no-op.
func insertTransaction(ctx context.Context, tx *sql.Tx, t models.Transaction) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode transaction: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO ledger_transactions (id, created_at, type, payload)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO NOTHING`,
		t.ID, t.Timestamp, string(t.Type), payload)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
