package service

import (
	"context"
	"math"
	"time"

	"coin-heist/internal/models"
	"coin-heist/pkg"

	"go.uber.org/zap"
)

const DailyRewardAmount = 1

type RewardResult struct {
	Accounts int
	At       time.Time
}

// DailyReward credits every known account in one commit.
func (e *Economy) DailyReward(ctx context.Context) (res RewardResult, err error) {
	defer func() { e.observe("daily_reward", err) }()

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(ctx); err != nil {
		return RewardResult{}, err
	}

	s := e.begin()
	for _, id := range e.ledger.UserIDs() {
		a, _ := e.ledger.Account(id)
		if a.Balance > math.MaxInt64-DailyRewardAmount {
			e.log.Warn("Daily reward skipped, balance at maximum", zap.String("userID", id))
			continue
		}
		s.account(id).Balance += DailyRewardAmount
		s.record(models.Transaction{
			Type:   models.TxDailyReward,
			User:   id,
			Amount: DailyRewardAmount,
		})
	}
	if err := e.commit(ctx, s); err != nil {
		return RewardResult{}, err
	}
	return RewardResult{Accounts: len(s.scratch.Accounts), At: s.now}, nil
}

type Rewarder interface {
	DailyReward(ctx context.Context) (RewardResult, error)
}

// Scheduler fires the daily reward at every midnight of its location. Missed
// midnights (process down) are not paid retroactively.
type Scheduler struct {
	rewarder Rewarder
	log      pkg.Logger
	loc      *time.Location
	now      func() time.Time
	after    func(time.Duration) <-chan time.Time
}

func NewScheduler(rewarder Rewarder, log pkg.Logger, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		rewarder: rewarder,
		log:      log,
		loc:      loc,
		now:      time.Now,
		after:    time.After,
	}
}

func NextMidnight(now time.Time, loc *time.Location) time.Time {
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc)
}

// Run blocks until ctx is cancelled. A tick that has started always runs to
// completion. Each midnight is paid at most once, even if the timer wakes
// before the wall clock reaches it.
func (s *Scheduler) Run(ctx context.Context) error {
	next := NextMidnight(s.now(), s.loc)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("Daily reward scheduler stopped")
			return nil
		case <-s.after(next.Sub(s.now())):
		}
		if s.now().Before(next) {
			continue
		}
		s.Tick(context.WithoutCancel(ctx), next)

		from := next
		if now := s.now(); now.After(from) {
			from = now
		}
		next = NextMidnight(from, s.loc)
	}
}

func (s *Scheduler) Tick(ctx context.Context, scheduled time.Time) {
	res, err := s.rewarder.DailyReward(ctx)
	if err != nil {
		s.log.Error("failed to grant daily reward", zap.Time("scheduled", scheduled), zap.Error(err))
		return
	}
	s.log.Info("Awarded daily coin",
		zap.Int("accounts", res.Accounts),
		zap.Time("scheduled", scheduled))
}
