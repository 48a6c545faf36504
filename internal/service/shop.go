package service

import (
	"context"
	"math"

	"coin-heist/internal/models"

	"go.uber.org/zap"
)

var itemPrices = map[string]int64{
	models.ItemGun:          30,
	models.ItemBullet:       2,
	models.ItemCrazyBullet:  4,
	models.ItemInsaneBullet: 8,
}

// Price returns the unit price of item.
func Price(item string) (int64, bool) {
	p, ok := itemPrices[item]
	return p, ok
}

type TransferResult struct {
	From        string
	To          string
	Amount      int64
	FromBalance int64
	ToBalance   int64
}

type PurchaseResult struct {
	Item      string
	Quantity  int64
	Cost      int64
	Balance   int64
	Inventory models.Inventory
}

func (e *Economy) Transfer(ctx context.Context, fromID, toID string, amount int64) (res TransferResult, err error) {
	defer func() { e.observe("give", err) }()
	if amount <= 0 {
		return TransferResult{}, ErrInvalidAmount
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(ctx); err != nil {
		return TransferResult{}, err
	}

	s := e.begin()
	sender := s.account(fromID)
	if rem, jailed := sender.JailRemaining(s.now); jailed {
		return TransferResult{}, &WaitError{Err: ErrJailed, Remaining: rem}
	}
	if sender.Balance < amount {
		return TransferResult{}, ErrInsufficientFunds
	}
	if fromID != toID && s.account(toID).Balance > math.MaxInt64-amount {
		return TransferResult{}, ErrInvalidAmount
	}

	sender.Balance -= amount
	recipient := s.account(toID)
	recipient.Balance += amount
	s.record(models.Transaction{
		Type:   models.TxGive,
		From:   fromID,
		To:     toID,
		Amount: amount,
	})

	if err := e.commit(ctx, s); err != nil {
		return TransferResult{}, err
	}
	e.log.Info("Coins sent successfully",
		zap.String("fromUserID", fromID),
		zap.String("toUserID", toID),
		zap.Int64("amount", amount))
	return TransferResult{
		From:        fromID,
		To:          toID,
		Amount:      amount,
		FromBalance: sender.Balance,
		ToBalance:   recipient.Balance,
	}, nil
}

func (e *Economy) Purchase(ctx context.Context, userID, item string, quantity int64) (res PurchaseResult, err error) {
	defer func() { e.observe("buy", err) }()
	if quantity <= 0 {
		return PurchaseResult{}, ErrInvalidAmount
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(ctx); err != nil {
		return PurchaseResult{}, err
	}

	s := e.begin()
	buyer := s.account(userID)
	if rem, jailed := buyer.JailRemaining(s.now); jailed {
		return PurchaseResult{}, &WaitError{Err: ErrJailed, Remaining: rem}
	}
	price, ok := Price(item)
	if !ok {
		return PurchaseResult{}, ErrUnknownItem
	}
	if quantity > buyer.Balance/price {
		return PurchaseResult{}, ErrInsufficientFunds
	}
	cost := price * quantity

	buyer.Balance -= cost
	buyer.Inventory.Add(item, quantity)
	s.record(models.Transaction{
		Type:     models.TxBuy,
		User:     userID,
		Item:     item,
		Quantity: quantity,
		Cost:     cost,
	})

	if err := e.commit(ctx, s); err != nil {
		return PurchaseResult{}, err
	}
	e.log.Info("Item purchased successfully",
		zap.String("userID", userID),
		zap.String("item", item),
		zap.Int64("quantity", quantity),
		zap.Int64("cost", cost))
	return PurchaseResult{
		Item:      item,
		Quantity:  quantity,
		Cost:      cost,
		Balance:   buyer.Balance,
		Inventory: buyer.Inventory,
	}, nil
}
