package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"coin-heist/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	dbConn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbConn.Close() })
	return dbConn, mock
}

func TestPostgresStore_Load(t *testing.T) {
	dbConn, mock := newMock(t)
	jail := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery("SELECT user_id, balance, guns, bullet, crazy_bullet, insane_bullet, jail_until, last_steal").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "balance", "guns", "bullet", "crazy_bullet", "insane_bullet", "jail_until", "last_steal"}).
			AddRow("a", int64(10), int64(1), int64(2), int64(0), int64(0), jail, nil).
			AddRow("b", int64(0), int64(0), int64(0), int64(0), int64(3), nil, nil))

	payload, err := json.Marshal(models.Transaction{ID: "t1", Type: models.TxGive, From: "a", To: "b", Amount: 4})
	require.NoError(t, err)
	mock.ExpectQuery("SELECT payload FROM ledger_transactions ORDER BY seq").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(payload))

	ledger, err := NewPostgresStore(dbConn).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, ledger.Accounts, 2)
	a := ledger.Accounts["a"]
	assert.Equal(t, int64(10), a.Balance)
	assert.Equal(t, int64(2), a.Inventory.Bullet)
	require.NotNil(t, a.JailUntil)
	assert.True(t, a.JailUntil.Equal(jail))
	assert.Nil(t, a.LastSteal)
	assert.Equal(t, int64(3), ledger.Accounts["b"].Inventory.InsaneBullet)

	require.Len(t, ledger.Transactions, 1)
	assert.Equal(t, int64(4), ledger.Transactions[0].Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CommitOrdersAccounts(t *testing.T) {
	dbConn, mock := newMock(t)
	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	change := models.Change{
		Accounts: []*models.Account{
			{UserID: "zed", Balance: 1},
			{UserID: "amy", Balance: 60, Inventory: models.Inventory{Guns: 2}},
		},
		Transactions: []models.Transaction{{ID: "tx-1", Timestamp: now, Type: models.TxGive, From: "amy", To: "zed", Amount: 1}},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO accounts").
		WithArgs("amy", int64(60), int64(2), int64(0), int64(0), int64(0), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO accounts").
		WithArgs("zed", int64(1), int64(0), int64(0), int64(0), int64(0), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO ledger_transactions").
		WithArgs("tx-1", now, "give", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, NewPostgresStore(dbConn).Commit(context.Background(), change))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CommitRollsBackOnError(t *testing.T) {
	dbConn, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO accounts").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := NewPostgresStore(dbConn).Commit(context.Background(), models.Change{
		Accounts: []*models.Account{{UserID: "a", Balance: 1}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_EmptyCommitIsNoop(t *testing.T) {
	dbConn, mock := newMock(t)
	require.NoError(t, NewPostgresStore(dbConn).Commit(context.Background(), models.Change{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
