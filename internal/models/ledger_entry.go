package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind names the transition a LedgerEntry records.
type EntryKind string

const (
	EntryDeposit      EntryKind = "deposit"
	EntryAllowanceSet EntryKind = "allowance_set"
	EntryWithdrawal   EntryKind = "withdrawal"
)

// LedgerEntry is one row of the audit journal, written once per committed transition.
type LedgerEntry struct {
	ID           string          `json:"id"`            // uuid
	Kind         EntryKind       `json:"kind"`          // deposit, allowance_set or withdrawal
	Caller       Identity        `json:"caller"`        // who invoked the operation
	Counterparty Identity        `json:"counterparty"`  // allowance target or withdrawal recipient
	Amount       decimal.Decimal `json:"amount"`        // value moved or allowance set
	BalanceAfter decimal.Decimal `json:"balance_after"` // custody balance once committed
	CreatedAt    time.Time       `json:"created_at"`
}
