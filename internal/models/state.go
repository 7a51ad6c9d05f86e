package models

import "github.com/shopspring/decimal"

// LedgerState is a full snapshot of the ledger.
type LedgerState struct {
	Owner      Identity                     `json:"owner"`
	Balance    decimal.Decimal              `json:"balance"`
	Allowances map[Identity]decimal.Decimal `json:"allowances"`
}

// NewLedgerState returns the initial state for owner: zero balance, no allowances.
func NewLedgerState(owner Identity) LedgerState {
	return LedgerState{
		Owner:      owner,
		Balance:    decimal.Zero,
		Allowances: make(map[Identity]decimal.Decimal),
	}
}

// AllowanceOf returns the remaining spend limit of id. Identities that were
// never granted an allowance have a limit of zero.
func (s LedgerState) AllowanceOf(id Identity) decimal.Decimal {
	if amount, ok := s.Allowances[id]; ok {
		return amount
	}
	return decimal.Zero
}

// Apply moves s forward by c.
func (s *LedgerState) Apply(c Commit) {
	s.Balance = c.Balance
	if c.Allowance == nil {
		return
	}
	if s.Allowances == nil {
		s.Allowances = make(map[Identity]decimal.Decimal)
	}
	s.Allowances[c.Allowance.Identity] = c.Allowance.Amount
}

// Clone returns a deep copy so callers can't reach the live allowance map.
func (s LedgerState) Clone() LedgerState {
	allowances := make(map[Identity]decimal.Decimal, len(s.Allowances))
	for id, amount := range s.Allowances {
		allowances[id] = amount
	}
	return LedgerState{
		Owner:      s.Owner,
		Balance:    s.Balance,
		Allowances: allowances,
	}
}

// Equal reports whether s and other hold the same owner, balance and
// allowances. A missing entry and an explicit zero compare equal.
func (s LedgerState) Equal(other LedgerState) bool {
	if s.Owner != other.Owner || !s.Balance.Equal(other.Balance) {
		return false
	}
	for id, amount := range s.Allowances {
		if !amount.Equal(other.AllowanceOf(id)) {
			return false
		}
	}
	for id, amount := range other.Allowances {
		if !amount.Equal(s.AllowanceOf(id)) {
			return false
		}
	}
	return true
}
