package api

import (
	"time"

	"coin-heist/internal/models"
)

type ErrorResponse struct {
	Error            string `json:"error"`
	Message          string `json:"message"`
	Ephemeral        bool   `json:"ephemeral"`
	RemainingSeconds *int64 `json:"remainingSeconds,omitempty"`
}

type GiveRequest struct {
	ToUser string `json:"toUser" binding:"required"`
	Amount int64  `json:"amount"`
}

type BuyRequest struct {
	Item     string `json:"item" binding:"required"`
	Quantity *int64 `json:"quantity"`
}

type StealRequest struct {
	Victim string `json:"victim" binding:"required"`
}

type AdminRequest struct {
	User   string `json:"user" binding:"required"`
	Amount int64  `json:"amount"`
}

type BalanceResponse struct {
	User    string `json:"user"`
	Balance int64  `json:"balance"`
}

type InfoResponse struct {
	User              string               `json:"user"`
	Balance           int64                `json:"balance"`
	Inventory         models.Inventory     `json:"inventory"`
	JailUntil         *time.Time           `json:"jailUntil,omitempty"`
	LastSteal         *time.Time           `json:"lastSteal,omitempty"`
	JailSeconds       int64                `json:"jailSeconds"`
	CooldownSeconds   int64                `json:"cooldownSeconds"`
	RecentTransaction []models.Transaction `json:"recentTransactions"`
}

type GiveResponse struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Amount      int64  `json:"amount"`
	FromBalance int64  `json:"fromBalance"`
	ToBalance   int64  `json:"toBalance"`
}

type BuyResponse struct {
	Item      string           `json:"item"`
	Quantity  int64            `json:"quantity"`
	Cost      int64            `json:"cost"`
	Balance   int64            `json:"balance"`
	Inventory models.Inventory `json:"inventory"`
}

type StealResponse struct {
	Outcome       string     `json:"outcome"`
	Amount        int64      `json:"amount"`
	AttackerArmed bool       `json:"attackerArmed"`
	VictimArmed   bool       `json:"victimArmed"`
	AmmoUsed      string     `json:"ammoUsed,omitempty"`
	Balance       int64      `json:"balance"`
	ReleaseAt     *time.Time `json:"releaseAt,omitempty"`
}

type AdminResponse struct {
	User      string `json:"user"`
	Amount    int64  `json:"amount"`
	Requested int64  `json:"requested,omitempty"`
	Balance   int64  `json:"balance"`
}
