package interfaces

import (
	"context"

	"github.com/sheikh-saqib/shared-wallet-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// Transferer moves value out of custody to an identity.
type Transferer interface {
	Release(ctx context.Context, to models.Identity, amount decimal.Decimal) error
}
