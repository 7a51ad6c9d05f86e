package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	interfaces "github.com/sheikh-saqib/shared-wallet-ledger/internal/interfaces"
	"github.com/sheikh-saqib/shared-wallet-ledger/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PostgresLedgerStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresLedgerStore(db *sql.DB, logger *zap.Logger) *PostgresLedgerStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresLedgerStore{
		db:     db,
		logger: logger,
	}
}

// LoadState reads the singleton state row and every allowance, inserting an
// empty state for owner if the row doesn't exist yet.
func (p *PostgresLedgerStore) LoadState(ctx context.Context, owner models.Identity) (models.LedgerState, error) {
	const insertQuery = `INSERT INTO ledger_state (id, owner, balance, updated_at)
	VALUES (1, $1, 0, now()) ON CONFLICT (id) DO NOTHING`

	if _, err := p.db.ExecContext(ctx, insertQuery, owner); err != nil {
		return models.LedgerState{}, fmt.Errorf("init ledger state: %w", err)
	}

	const stateQuery = `SELECT owner, balance FROM ledger_state WHERE id = 1`

	state := models.NewLedgerState("")
	err := p.db.QueryRowContext(ctx, stateQuery).Scan(&state.Owner, &state.Balance)
	if errors.Is(err, sql.ErrNoRows) {
		return models.LedgerState{}, fmt.Errorf("ledger state row missing")
	}
	if err != nil {
		return models.LedgerState{}, err
	}

	const allowanceQuery = `SELECT identity, amount FROM ledger_allowances`

	rows, err := p.db.QueryContext(ctx, allowanceQuery)
	if err != nil {
		return models.LedgerState{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id     models.Identity
			amount decimal.Decimal
		)
		if err := rows.Scan(&id, &amount); err != nil {
			return models.LedgerState{}, err
		}
		state.Allowances[id] = amount
	}
	if err := rows.Err(); err != nil {
		return models.LedgerState{}, err
	}
	return state, nil
}

func (p *PostgresLedgerStore) saveBalance(ctx context.Context, dbTx *sql.Tx, commit models.Commit) error {
	const query = `UPDATE ledger_state SET balance = $1, updated_at = $2 WHERE id = 1`

	_, err := dbTx.ExecContext(ctx, query, commit.Balance, commit.Entry.CreatedAt)
	return err
}

func (p *PostgresLedgerStore) saveAllowance(ctx context.Context, dbTx *sql.Tx, change models.AllowanceChange, commit models.Commit) error {
	const query = `INSERT INTO ledger_allowances (identity, amount, updated_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (identity) DO UPDATE SET amount = EXCLUDED.amount, updated_at = EXCLUDED.updated_at`

	_, err := dbTx.ExecContext(ctx, query, change.Identity, change.Amount, commit.Entry.CreatedAt)
	return err
}

func (p *PostgresLedgerStore) saveEntry(ctx context.Context, ledgerEntry models.LedgerEntry, dbTx *sql.Tx) error {
	const query = `INSERT INTO ledger_entries (id, kind, caller, counterparty, amount, balance_after, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := dbTx.ExecContext(ctx, query,
		ledgerEntry.ID,
		ledgerEntry.Kind,
		ledgerEntry.Caller,
		ledgerEntry.Counterparty,
		ledgerEntry.Amount,
		ledgerEntry.BalanceAfter,
		ledgerEntry.CreatedAt,
	)
	return err
}

// CommitEntry writes the balance, the allowance and the journal row in one
// transaction, then calls release before committing. A commit that fails
// after release succeeded leaves a payout without its debit; it is logged
// with the entry id for reconciliation.
func (p *PostgresLedgerStore) CommitEntry(ctx context.Context, commit models.Commit, release interfaces.ReleaseFunc) (err error) {
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = dbTx.Rollback()
		}
	}()

	if err = p.saveBalance(ctx, dbTx, commit); err != nil {
		return err
	}

	if commit.Allowance != nil {
		if err = p.saveAllowance(ctx, dbTx, *commit.Allowance, commit); err != nil {
			return err
		}
	}

	if err = p.saveEntry(ctx, commit.Entry, dbTx); err != nil {
		return err
	}

	if release == nil {
		return dbTx.Commit()
	}
	if err = release(ctx); err != nil {
		return err
	}
	if err = dbTx.Commit(); err != nil {
		p.logger.Error("commit failed after funds were released",
			zap.String("entry_id", commit.Entry.ID),
			zap.String("kind", string(commit.Entry.Kind)),
			zap.String("counterparty", commit.Entry.Counterparty.String()),
			zap.Stringer("amount", commit.Entry.Amount),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (p *PostgresLedgerStore) GetLedgerEntries(ctx context.Context) ([]models.LedgerEntry, error) {
	const query = `SELECT id, kind, caller, counterparty, amount, balance_after, created_at
	FROM ledger_entries ORDER BY seq`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	entries := make([]models.LedgerEntry, 0)

	for rows.Next() {
		var entry models.LedgerEntry
		err := rows.Scan(
			&entry.ID,
			&entry.Kind,
			&entry.Caller,
			&entry.Counterparty,
			&entry.Amount,
			&entry.BalanceAfter,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

var _ interfaces.LedgerStore = (*PostgresLedgerStore)(nil)
