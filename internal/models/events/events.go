package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kafka topics, one per event type.
const (
	TopicDeposited    = "ledger.deposited"
	TopicAllowanceSet = "ledger.allowance_set"
	TopicWithdrawn    = "ledger.withdrawn"
)

// Deposited is emitted once per accepted, non-zero deposit.
type Deposited struct {
	EntryID    string          `json:"entry_id"`
	From       string          `json:"from"`
	Amount     decimal.Decimal `json:"amount"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// AllowanceSet is emitted every time the owner writes an allowance, including revocations.
type AllowanceSet struct {
	EntryID    string          `json:"entry_id"`
	Owner      string          `json:"owner"`
	Target     string          `json:"target"`
	Amount     decimal.Decimal `json:"amount"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Withdrawn is emitted once the withdrawal and its transfer have both committed.
type Withdrawn struct {
	EntryID    string          `json:"entry_id"`
	Caller     string          `json:"caller"`
	To         string          `json:"to"`
	Amount     decimal.Decimal `json:"amount"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// PayoutRequested asks the payout system to release Amount to To.
type PayoutRequested struct {
	ID          string          `json:"id"`
	To          string          `json:"to"`
	Amount      decimal.Decimal `json:"amount"`
	RequestedAt time.Time       `json:"requested_at"`
}
