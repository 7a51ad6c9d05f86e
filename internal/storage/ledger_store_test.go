package storage

import (
	"context"
	"testing"

	"github.com/sheikh-saqib/shared-wallet-ledger/internal/storage/memory"
	"github.com/sheikh-saqib/shared-wallet-ledger/internal/storage/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	for _, driver := range []string{DriverMemory, ""} {
		driver := driver
		t.Run("driver "+driver, func(t *testing.T) {
			t.Parallel()

			store, closeStore, err := Open(context.Background(), driver, postgres.Config{}, zap.NewNop())
			require.NoError(t, err)
			require.NotNil(t, closeStore)
			assert.IsType(t, &memory.MemoryLedgerStore{}, store)
			assert.NoError(t, closeStore())
		})
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	store, closeStore, err := Open(context.Background(), "sqlite", postgres.Config{}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"sqlite"`)
	assert.Nil(t, store)
	assert.Nil(t, closeStore)
}

func TestOpenPostgresHonoursContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := postgres.Config{Host: "127.0.0.1", Port: "1", User: "ledger", Password: "ledger", Name: "ledger", SSLMode: "disable"}
	_, _, err := Open(ctx, DriverPostgres, cfg, zap.NewNop())
	require.ErrorIs(t, err, context.Canceled)
}
