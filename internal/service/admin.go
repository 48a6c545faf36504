package service

import (
	"context"
	"math"

	"coin-heist/internal/models"

	"go.uber.org/zap"
)

// Admin operations trust their caller: the role check happens before the
// economy is reached.

type AdminResult struct {
	User      string
	Amount    int64
	Requested int64
	Balance   int64
}

func (e *Economy) AdminGrant(ctx context.Context, targetID string, amount int64) (res AdminResult, err error) {
	defer func() { e.observe("gencoins", err) }()
	if amount <= 0 {
		return AdminResult{}, ErrInvalidAmount
	}
	return e.adjust(ctx, targetID, models.TxGenCoins, func(a *models.Account, tx *models.Transaction) error {
		if a.Balance > math.MaxInt64-amount {
			return ErrInvalidAmount
		}
		a.Balance += amount
		tx.Amount = amount
		return nil
	})
}

// AdminRevoke never drives a balance below zero; the result and the audit
// entry carry the amount actually taken.
func (e *Economy) AdminRevoke(ctx context.Context, targetID string, amount int64) (res AdminResult, err error) {
	defer func() { e.observe("takecoins", err) }()
	if amount <= 0 {
		return AdminResult{}, ErrInvalidAmount
	}
	return e.adjust(ctx, targetID, models.TxTakeCoins, func(a *models.Account, tx *models.Transaction) error {
		taken := min(amount, a.Balance)
		a.Balance -= taken
		tx.Amount = taken
		tx.Requested = amount
		return nil
	})
}

func (e *Economy) AdminSet(ctx context.Context, targetID string, amount int64) (res AdminResult, err error) {
	defer func() { e.observe("setcoins", err) }()
	if amount < 0 {
		return AdminResult{}, ErrNegativeBalance
	}
	return e.adjust(ctx, targetID, models.TxSetCoins, func(a *models.Account, tx *models.Transaction) error {
		previous := a.Balance
		a.Balance = amount
		tx.Amount = amount
		tx.Previous = &previous
		return nil
	})
}

func (e *Economy) adjust(ctx context.Context, targetID string, txType models.TransactionType,
	apply func(a *models.Account, tx *models.Transaction) error) (AdminResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(ctx); err != nil {
		return AdminResult{}, err
	}

	s := e.begin()
	target := s.account(targetID)
	tx := models.Transaction{Type: txType, User: targetID}
	if err := apply(target, &tx); err != nil {
		return AdminResult{}, err
	}
	s.record(tx)

	if err := e.commit(ctx, s); err != nil {
		return AdminResult{}, err
	}
	e.log.Info("Balance adjusted by admin",
		zap.String("type", string(txType)),
		zap.String("userID", targetID),
		zap.Int64("amount", tx.Amount),
		zap.Int64("balance", target.Balance))
	return AdminResult{
		User:      targetID,
		Amount:    tx.Amount,
		Requested: tx.Requested,
		Balance:   target.Balance,
	}, nil
}
