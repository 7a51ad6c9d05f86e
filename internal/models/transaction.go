package models

import "github.com/shopspring/decimal"

// AllowanceChange is the new value of a single allowance entry.
type AllowanceChange struct {
	Identity Identity
	Amount   decimal.Decimal
}

// Commit is one state transition handed to a LedgerStore: the journal
// entry, the custody balance after it, and the allowance it rewrote, if any.
type Commit struct {
	Entry     LedgerEntry
	Balance   decimal.Decimal
	Allowance *AllowanceChange
}
