package service

import (
	"context"
	"math"
	"time"

	"coin-heist/internal/models"

	"go.uber.org/zap"
)

type StealOutcome string

const (
	StealSucceeded      StealOutcome = "success"
	StealFailed         StealOutcome = "fail"
	StealNothingToSteal StealOutcome = "nothing_to_steal"
)

type StealResult struct {
	Outcome       StealOutcome
	Amount        int64
	AttackerArmed bool
	VictimArmed   bool
	AmmoUsed      string
	FailChance    float64
	Balance       int64
	ReleaseAt     *time.Time
}

// FailChance is the probability that a steal attempt ends in jail. Only an
// armed/unarmed mismatch moves it off even odds.
func FailChance(attackerArmed, victimArmed bool) float64 {
	switch {
	case attackerArmed && !victimArmed:
		return 0.25
	case victimArmed && !attackerArmed:
		return 0.75
	default:
		return 0.5
	}
}

// Steal resolves one attempt by attackerID on victimID. A victim with no
// coins yields StealNothingToSteal and changes nothing.
func (e *Economy) Steal(ctx context.Context, attackerID, victimID string) (res StealResult, err error) {
	defer func() { e.observe("steal", err) }()
	if attackerID == victimID {
		return StealResult{}, ErrSelfTarget
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(ctx); err != nil {
		return StealResult{}, err
	}

	s := e.begin()
	attacker := s.account(attackerID)
	if rem, jailed := attacker.JailRemaining(s.now); jailed {
		return StealResult{}, &WaitError{Err: ErrJailed, Remaining: rem}
	}
	if rem := cooldownRemaining(attacker, s.now); rem > 0 {
		return StealResult{}, &WaitError{Err: ErrCooldown, Remaining: rem}
	}
	victim := s.account(victimID)
	if victim.Balance <= 0 {
		return StealResult{Outcome: StealNothingToSteal, Balance: attacker.Balance}, nil
	}
	if attacker.Balance == math.MaxInt64 {
		return StealResult{}, ErrInvalidAmount
	}

	res.AttackerArmed = attacker.Inventory.Armed()
	res.VictimArmed = victim.Inventory.Armed()
	if res.AttackerArmed {
		res.AmmoUsed = attacker.Inventory.SpendAmmo()
	}
	res.FailChance = FailChance(res.AttackerArmed, res.VictimArmed)

	now := s.now
	attacker.LastSteal = &now
	tx := models.Transaction{
		Attacker:      attackerID,
		Victim:        victimID,
		AttackerArmed: res.AttackerArmed,
		VictimArmed:   res.VictimArmed,
		AmmoUsed:      res.AmmoUsed,
	}
	if e.draw() >= res.FailChance {
		victim.Balance--
		attacker.Balance++
		res.Outcome = StealSucceeded
		res.Amount = 1
		tx.Type = models.TxStealSuccess
		tx.Amount = 1
	} else {
		release := now.Add(JailTerm)
		attacker.JailUntil = &release
		res.Outcome = StealFailed
		res.ReleaseAt = &release
		tx.Type = models.TxStealFail
		tx.ReleaseAt = &release
	}
	s.record(tx)

	if err := e.commit(ctx, s); err != nil {
		return StealResult{}, err
	}
	res.Balance = attacker.Balance
	e.log.Info("Steal resolved",
		zap.String("attackerID", attackerID),
		zap.String("victimID", victimID),
		zap.String("outcome", string(res.Outcome)),
		zap.Bool("attackerArmed", res.AttackerArmed),
		zap.Bool("victimArmed", res.VictimArmed),
		zap.String("ammoUsed", res.AmmoUsed))
	return res, nil
}
