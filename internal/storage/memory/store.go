package memory

import (
	"context"
	"fmt"
	"sync"

	interfaces "github.com/sheikh-saqib/shared-wallet-ledger/internal/interfaces"
	"github.com/sheikh-saqib/shared-wallet-ledger/internal/models"
)

// MemoryLedgerStore is an in-memory implementation of interfaces.LedgerStore.
// It keeps the latest state and the journal, and is safe for concurrent use.
type MemoryLedgerStore struct {
	mu      sync.Mutex
	state   *models.LedgerState // nil until LoadState
	entries []models.LedgerEntry
}

func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		entries: make([]models.LedgerEntry, 0),
	}
}

// LoadState returns a copy of the stored state, initialising it for owner on first use.
func (m *MemoryLedgerStore) LoadState(ctx context.Context, owner models.Identity) (models.LedgerState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == nil {
		state := models.NewLedgerState(owner)
		m.state = &state
	}
	return m.state.Clone(), nil
}

// CommitEntry applies commit, then runs release. If release fails the
// previous state and journal are put back.
func (m *MemoryLedgerStore) CommitEntry(ctx context.Context, commit models.Commit, release interfaces.ReleaseFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == nil {
		return fmt.Errorf("memory store: state not loaded")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	previous := m.state.Clone()
	journalLen := len(m.entries)

	m.state.Apply(commit)
	m.entries = append(m.entries, commit.Entry)

	if release != nil {
		if err := release(ctx); err != nil {
			*m.state = previous
			m.entries = m.entries[:journalLen]
			return err
		}
	}
	return nil
}

// GetLedgerEntries returns a copy of the journal in commit order.
func (m *MemoryLedgerStore) GetLedgerEntries(ctx context.Context) ([]models.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]models.LedgerEntry, len(m.entries))
	copy(copied, m.entries)
	return copied, nil
}

// Compile-time check: ensure MemoryLedgerStore implements LedgerStore interface
var _ interfaces.LedgerStore = (*MemoryLedgerStore)(nil)
