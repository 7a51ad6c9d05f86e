package storage

import (
	"context"
	"fmt"

	interfaces "github.com/sheikh-saqib/shared-wallet-ledger/internal/interfaces"
	"github.com/sheikh-saqib/shared-wallet-ledger/internal/storage/memory"
	"github.com/sheikh-saqib/shared-wallet-ledger/internal/storage/postgres"
	"go.uber.org/zap"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Open builds the LedgerStore named by driver. The returned func releases
// whatever the store holds open.
func Open(ctx context.Context, driver string, pg postgres.Config, logger *zap.Logger) (interfaces.LedgerStore, func() error, error) {
	switch driver {
	case DriverMemory, "":
		return memory.NewMemoryLedgerStore(), func() error { return nil }, nil

	case DriverPostgres:
		db, err := postgres.Connect(ctx, pg, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return postgres.NewPostgresLedgerStore(db, logger), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
