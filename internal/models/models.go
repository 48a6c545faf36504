package models

import (
	"sort"
	"time"
)

const (
	ItemGun          = "gun"
	ItemBullet       = "bullet"
	ItemCrazyBullet  = "crazy_bullet"
	ItemInsaneBullet = "insane_bullet"
)

type TransactionType string

const (
	TxGive         TransactionType = "give"
	TxBuy          TransactionType = "buy"
	TxGenCoins     TransactionType = "gencoins"
	TxTakeCoins    TransactionType = "takecoins"
	TxSetCoins     TransactionType = "setcoins"
	TxStealSuccess TransactionType = "steal_success"
	TxStealFail    TransactionType = "steal_fail"
	TxDailyReward  TransactionType = "daily_reward"
)

type Inventory struct {
	Guns         int64 `json:"guns"`
	Bullet       int64 `json:"bullet"`
	CrazyBullet  int64 `json:"crazy_bullet"`
	InsaneBullet int64 `json:"insane_bullet"`
}

func (i Inventory) Ammo() int64 {
	return i.Bullet + i.CrazyBullet + i.InsaneBullet
}

// Armed reports whether the holder has a gun and something to load it with.
func (i Inventory) Armed() bool {
	return i.Guns > 0 && i.Ammo() > 0
}

// Add increments the counter for item. A "gun" purchase lands in Guns.
func (i *Inventory) Add(item string, quantity int64) bool {
	switch item {
	case ItemGun:
		i.Guns += quantity
	case ItemBullet:
		i.Bullet += quantity
	case ItemCrazyBullet:
		i.CrazyBullet += quantity
	case ItemInsaneBullet:
		i.InsaneBullet += quantity
	default:
		return false
	}
	return true
}

// SpendAmmo consumes one round, best ammunition first, and returns its kind.
// It returns "" when there is nothing to spend.
func (i *Inventory) SpendAmmo() string {
	switch {
	case i.InsaneBullet > 0:
		i.InsaneBullet--
		return ItemInsaneBullet
	case i.CrazyBullet > 0:
		i.CrazyBullet--
		return ItemCrazyBullet
	case i.Bullet > 0:
		i.Bullet--
		return ItemBullet
	}
	return ""
}

type Account struct {
	UserID    string     `json:"-"`
	Balance   int64      `json:"balance"`
	Inventory Inventory  `json:"inventory"`
	JailUntil *time.Time `json:"jail_until"`
	LastSteal *time.Time `json:"last_steal"`
}

func NewAccount(userID string) *Account {
	return &Account{UserID: userID}
}

func (a *Account) Clone() *Account {
	c := *a
	if a.JailUntil != nil {
		t := *a.JailUntil
		c.JailUntil = &t
	}
	if a.LastSteal != nil {
		t := *a.LastSteal
		c.LastSteal = &t
	}
	return &c
}

// JailRemaining returns the time left on the sentence and whether the
// account is still jailed at now.
func (a *Account) JailRemaining(now time.Time) (time.Duration, bool) {
	if a.JailUntil == nil || !now.Before(*a.JailUntil) {
		return 0, false
	}
	return a.JailUntil.Sub(now), true
}

type Transaction struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Type      TransactionType `json:"type"`

	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	User      string `json:"user,omitempty"`
	Amount    int64  `json:"amount,omitempty"`
	Requested int64  `json:"requested,omitempty"`
	Previous  *int64 `json:"previous,omitempty"`

	Item     string `json:"item,omitempty"`
	Quantity int64  `json:"quantity,omitempty"`
	Cost     int64  `json:"cost,omitempty"`

	Attacker      string     `json:"attacker,omitempty"`
	Victim        string     `json:"victim,omitempty"`
	AttackerArmed bool       `json:"attacker_armed,omitempty"`
	VictimArmed   bool       `json:"victim_armed,omitempty"`
	AmmoUsed      string     `json:"ammo_used,omitempty"`
	ReleaseAt     *time.Time `json:"release_at,omitempty"`
}

func (t Transaction) Involves(userID string) bool {
	switch userID {
	case t.From, t.To, t.User, t.Attacker, t.Victim:
		return userID != ""
	}
	return false
}

// Change is the unit handed to a ledger store: the full new state of every
// touched account plus the audit entries appended by one operation.
type Change struct {
	Accounts     []*Account
	Transactions []Transaction
}

func (c Change) Empty() bool {
	return len(c.Accounts) == 0 && len(c.Transactions) == 0
}

type Ledger struct {
	Accounts     map[string]*Account `json:"accounts"`
	Transactions []Transaction       `json:"transactions"`
}

func NewLedger() *Ledger {
	return &Ledger{Accounts: make(map[string]*Account)}
}

// Ensure returns the account for userID, creating it with zero defaults if
// it does not exist yet. Existing accounts are returned untouched.
func (l *Ledger) Ensure(userID string) *Account {
	if l.Accounts == nil {
		l.Accounts = make(map[string]*Account)
	}
	if a, ok := l.Accounts[userID]; ok {
		return a
	}
	a := NewAccount(userID)
	l.Accounts[userID] = a
	return a
}

func (l *Ledger) Account(userID string) (*Account, bool) {
	a, ok := l.Accounts[userID]
	return a, ok
}

// UserIDs returns every known account id in ascending order.
func (l *Ledger) UserIDs() []string {
	ids := make([]string, 0, len(l.Accounts))
	for id := range l.Accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Normalize fills in fields that are not serialized, after decoding.
func (l *Ledger) Normalize() {
	if l.Accounts == nil {
		l.Accounts = make(map[string]*Account)
	}
	for id, a := range l.Accounts {
		if a == nil {
			a = NewAccount(id)
			l.Accounts[id] = a
		}
		a.UserID = id
	}
}

// Copy returns a ledger sharing no mutable state with l.
func (l *Ledger) Copy() *Ledger {
	c := &Ledger{
		Accounts:     make(map[string]*Account, len(l.Accounts)),
		Transactions: append([]Transaction(nil), l.Transactions...),
	}
	for id, a := range l.Accounts {
		c.Accounts[id] = a.Clone()
	}
	return c
}

func (l *Ledger) Apply(c Change) {
	if l.Accounts == nil {
		l.Accounts = make(map[string]*Account)
	}
	for _, a := range c.Accounts {
		l.Accounts[a.UserID] = a.Clone()
	}
	l.Transactions = append(l.Transactions, c.Transactions...)
}
