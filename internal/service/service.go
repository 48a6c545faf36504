package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"coin-heist/internal/db"
	"coin-heist/internal/metrics"
	"coin-heist/internal/models"
	"coin-heist/pkg"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	StealCooldown = 24 * time.Hour
	JailTerm      = 24 * time.Hour

	defaultHistoryLimit = 50
)

type EconomyService interface {
	GetBalance(ctx context.Context, userID string) (int64, error)
	Info(ctx context.Context, userID string) (Info, error)
	History(ctx context.Context, limit int) ([]models.Transaction, error)

	Transfer(ctx context.Context, fromID, toID string, amount int64) (TransferResult, error)
	Purchase(ctx context.Context, userID, item string, quantity int64) (PurchaseResult, error)
	Steal(ctx context.Context, attackerID, victimID string) (StealResult, error)

	AdminGrant(ctx context.Context, targetID string, amount int64) (AdminResult, error)
	AdminRevoke(ctx context.Context, targetID string, amount int64) (AdminResult, error)
	AdminSet(ctx context.Context, targetID string, amount int64) (AdminResult, error)

	DailyReward(ctx context.Context) (RewardResult, error)
}

type Info struct {
	UserID            string
	Balance           int64
	Inventory         models.Inventory
	JailUntil         *time.Time
	JailRemaining     time.Duration
	LastSteal         *time.Time
	CooldownRemaining time.Duration
	History           []models.Transaction
}

// Economy owns the in-memory ledger. Every operation runs under one mutex:
// it stages changes on copies of the touched accounts, commits them to the
// store and only then applies them, so a failed commit leaves no trace.
type Economy struct {
	mu     sync.Mutex
	ledger *models.Ledger
	closed bool

	store   db.LedgerStore
	log     pkg.Logger
	metrics *metrics.Metrics

	now          func() time.Time
	draw         func() float64
	newID        func() string
	commitTries  uint
	retryBackoff time.Duration
}

type Option func(*Economy)

func WithClock(now func() time.Time) Option {
	return func(e *Economy) { e.now = now }
}

// WithRandom replaces the source of steal rolls. draw must return values in [0,1).
func WithRandom(draw func() float64) Option {
	return func(e *Economy) { e.draw = draw }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Economy) { e.metrics = m }
}

func WithCommitRetries(tries uint, initial time.Duration) Option {
	return func(e *Economy) {
		e.commitTries = tries
		e.retryBackoff = initial
	}
}

func NewEconomy(ctx context.Context, store db.LedgerStore, log pkg.Logger, opts ...Option) (*Economy, error) {
	e := &Economy{
		store:        store,
		log:          log,
		now:          time.Now,
		draw:         rand.Float64,
		newID:        uuid.NewString,
		commitTries:  3,
		retryBackoff: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(e)
	}

	ledger, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	ledger.Normalize()
	e.ledger = ledger
	e.metrics.SetAccounts(len(ledger.Accounts))
	e.log.Info("Ledger loaded",
		zap.Int("accounts", len(ledger.Accounts)),
		zap.Int("transactions", len(ledger.Transactions)))
	return e, nil
}

// Close waits for the in-flight operation, rejects new ones and closes the store.
func (e *Economy) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.store.Close()
}

func (e *Economy) GetBalance(ctx context.Context, userID string) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(ctx); err != nil {
		return 0, err
	}
	if a, ok := e.ledger.Account(userID); ok {
		return a.Balance, nil
	}
	return 0, nil
}

func (e *Economy) Info(ctx context.Context, userID string) (Info, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(ctx); err != nil {
		return Info{}, err
	}

	now := e.now().UTC()
	a, ok := e.ledger.Account(userID)
	if !ok {
		a = models.NewAccount(userID)
	}
	a = a.Clone()
	info := Info{
		UserID:    userID,
		Balance:   a.Balance,
		Inventory: a.Inventory,
		JailUntil: a.JailUntil,
		LastSteal: a.LastSteal,
	}
	info.JailRemaining, _ = a.JailRemaining(now)
	info.CooldownRemaining = cooldownRemaining(a, now)

	for i := len(e.ledger.Transactions) - 1; i >= 0 && len(info.History) < defaultHistoryLimit; i-- {
		if tx := e.ledger.Transactions[i]; tx.Involves(userID) {
			info.History = append(info.History, tx)
		}
	}
	return info, nil
}

// History returns the last limit audit entries, oldest first.
func (e *Economy) History(ctx context.Context, limit int) ([]models.Transaction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	txs := e.ledger.Transactions
	if len(txs) > limit {
		txs = txs[len(txs)-limit:]
	}
	return append([]models.Transaction(nil), txs...), nil
}

// ready must be called with e.mu held.
func (e *Economy) ready(ctx context.Context) error {
	if e.closed {
		return ErrClosed
	}
	return ctx.Err()
}

// stage collects the effect of one operation without touching the live ledger.
type stage struct {
	base    *models.Ledger
	scratch *models.Ledger
	now     time.Time
	newID   func() string
}

func (e *Economy) begin() *stage {
	return &stage{
		base:    e.ledger,
		scratch: models.NewLedger(),
		now:     e.now().UTC(),
		newID:   e.newID,
	}
}

// account returns a private copy of userID's account, materializing it with
// defaults if the ledger has never seen it.
func (s *stage) account(userID string) *models.Account {
	if _, ok := s.scratch.Accounts[userID]; !ok {
		if cur, ok := s.base.Account(userID); ok {
			s.scratch.Accounts[userID] = cur.Clone()
		}
	}
	return s.scratch.Ensure(userID)
}

func (s *stage) record(tx models.Transaction) {
	tx.ID = s.newID()
	tx.Timestamp = s.now
	s.scratch.Transactions = append(s.scratch.Transactions, tx)
}

func (s *stage) change() models.Change {
	c := models.Change{Transactions: s.scratch.Transactions}
	for _, id := range s.scratch.UserIDs() {
		c.Accounts = append(c.Accounts, s.scratch.Accounts[id])
	}
	return c
}

// commit persists the staged change, retrying transient store failures,
// and applies it to the live ledger once it is durable. The operation has
// been validated by now, so a caller that goes away does not abort it.
func (e *Economy) commit(ctx context.Context, s *stage) error {
	change := s.change()
	if change.Empty() {
		return nil
	}
	ctx = context.WithoutCancel(ctx)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.retryBackoff
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, e.store.Commit(ctx, change)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(e.commitTries))
	if err != nil {
		e.metrics.CommitFailed()
		e.log.Error("failed to commit ledger change",
			zap.Int("accounts", len(change.Accounts)),
			zap.Int("transactions", len(change.Transactions)),
			zap.Error(err))
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	e.ledger.Apply(change)
	e.log.Debug("Ledger change committed",
		zap.Int("accounts", len(change.Accounts)),
		zap.Int("transactions", len(change.Transactions)))
	for _, tx := range change.Transactions {
		e.metrics.Transaction(string(tx.Type))
	}
	e.metrics.SetAccounts(len(e.ledger.Accounts))
	return nil
}

func (e *Economy) observe(op string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case IsDomain(err):
		result = "rejected"
	default:
		result = "error"
	}
	e.metrics.Operation(op, result)
}

func cooldownRemaining(a *models.Account, now time.Time) time.Duration {
	if a.LastSteal == nil {
		return 0
	}
	if elapsed := now.Sub(*a.LastSteal); elapsed < StealCooldown {
		return StealCooldown - elapsed
	}
	return 0
}
