package httpapi

import (
	"fmt"
	"regexp"

	"github.com/sheikh-saqib/shared-wallet-ledger/internal/ledger"
	"github.com/sheikh-saqib/shared-wallet-ledger/internal/models"
)

// IdentityParser turns a raw caller-supplied string into an Identity.
type IdentityParser func(raw string) (models.Identity, error)

var evmAddress = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// AnyIdentity accepts any non-blank string.
func AnyIdentity(raw string) (models.Identity, error) {
	id := models.NewIdentity(raw)
	if id.IsZero() {
		return "", fmt.Errorf("%w: empty", ledger.ErrInvalidIdentity)
	}
	return id, nil
}

// EVMIdentity accepts 0x-prefixed 20-byte hex addresses in any case.
func EVMIdentity(raw string) (models.Identity, error) {
	id := models.NewIdentity(raw)
	if !evmAddress.MatchString(id.String()) {
		return "", fmt.Errorf("%w: %q is not an address", ledger.ErrInvalidIdentity, raw)
	}
	return id, nil
}
