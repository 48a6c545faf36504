package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrNegativeBalance   = errors.New("balance cannot be negative")
	ErrInsufficientFunds = errors.New("not enough coins")
	ErrJailed            = errors.New("you are in jail")
	ErrCooldown          = errors.New("steal is on cooldown")
	ErrSelfTarget        = errors.New("cannot steal from yourself")
	ErrUnknownItem       = errors.New("item not found")
	ErrUnauthorized      = errors.New("you lack permission")

	ErrPersistence = errors.New("failed to persist ledger")
	ErrClosed      = errors.New("economy is shut down")
)

var domainErrors = []error{
	ErrInvalidAmount,
	ErrNegativeBalance,
	ErrInsufficientFunds,
	ErrJailed,
	ErrCooldown,
	ErrSelfTarget,
	ErrUnknownItem,
	ErrUnauthorized,
}

// WaitError is returned for Jailed and Cooldown failures and carries how long
// the caller has to wait. errors.Is matches the wrapped sentinel.
type WaitError struct {
	Err       error
	Remaining time.Duration
}

func (e *WaitError) Error() string {
	return fmt.Sprintf("%v: %s remaining", e.Err, e.Remaining.Round(time.Second))
}

func (e *WaitError) Unwrap() error {
	return e.Err
}

func Remaining(err error) (time.Duration, bool) {
	var we *WaitError
	if errors.As(err, &we) {
		return we.Remaining, true
	}
	return 0, false
}

// IsDomain reports whether err is a rule violation rather than a failure of
// the process.
func IsDomain(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Ephemeral reports whether the failure should only be shown to the caller.
func Ephemeral(err error) bool {
	return IsDomain(err)
}
