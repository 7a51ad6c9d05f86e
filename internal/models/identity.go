package models

import "strings"

// Identity is an externally authenticated caller reference, usually an
// account address. The ledger trusts it as given.
type Identity string

// NewIdentity trims and lower-cases raw so that differently cased
// spellings of the same address resolve to one account.
func NewIdentity(raw string) Identity {
	return Identity(strings.ToLower(strings.TrimSpace(raw)))
}

func (i Identity) IsZero() bool {
	return i == ""
}

func (i Identity) String() string {
	return string(i)
}
