package transfer

import (
	"context"
	"sync"

	interfaces "github.com/sheikh-saqib/shared-wallet-ledger/internal/interfaces"
	"github.com/sheikh-saqib/shared-wallet-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// Book is an in-process payout book: every release is credited to the
// recipient's running total.
type Book struct {
	mu   sync.Mutex
	paid map[models.Identity]decimal.Decimal
}

func NewBook() *Book {
	return &Book{paid: make(map[models.Identity]decimal.Decimal)}
}

func (b *Book) Release(ctx context.Context, to models.Identity, amount decimal.Decimal) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.paid[to] = b.paid[to].Add(amount)
	return nil
}

// Paid returns the total released to id.
func (b *Book) Paid(id models.Identity) decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.paid[id]
}

var _ interfaces.Transferer = (*Book)(nil)
