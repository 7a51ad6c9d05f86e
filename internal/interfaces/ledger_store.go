package interfaces

import (
	"context"

	"github.com/sheikh-saqib/shared-wallet-ledger/internal/models"
)

// ReleaseFunc runs inside a store transaction after the debit has been
// written. A non-nil error aborts the transaction.
type ReleaseFunc func(ctx context.Context) error

type LedgerStore interface {
	// LoadState returns the persisted state, creating an empty one owned by
	// owner if nothing has been stored yet.
	LoadState(ctx context.Context, owner models.Identity) (models.LedgerState, error)
	// CommitEntry persists commit atomically. If release is non-nil it is
	// called after the writes and before the commit; its failure rolls
	// everything back.
	CommitEntry(ctx context.Context, commit models.Commit, release ReleaseFunc) error
	GetLedgerEntries(ctx context.Context) ([]models.LedgerEntry, error)
}
