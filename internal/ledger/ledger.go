package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	interfaces "github.com/sheikh-saqib/shared-wallet-ledger/internal/interfaces"
	"github.com/sheikh-saqib/shared-wallet-ledger/internal/models"
	"github.com/sheikh-saqib/shared-wallet-ledger/internal/models/events"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// publishTimeout bounds how long an event publish may hold the ledger lock.
const publishTimeout = 5 * time.Second

// Ledger is the custodial allowance ledger.
// One owner controls the custody balance and hands out spending limits
// (allowances) to other identities. Every mutation is serialised by mu and
// committed to the store before it becomes visible to readers.
type Ledger struct {
	store     interfaces.LedgerStore    // durable state and journal
	publisher interfaces.EventPublisher // optional, audit events
	transfer  interfaces.Transferer     // optional, releases withdrawn value
	logger    *zap.Logger
	now       func() time.Time

	mu    sync.RWMutex
	state models.LedgerState
}

// Option configures a Ledger.
type Option func(*Ledger)

func WithPublisher(p interfaces.EventPublisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

func WithTransferer(t interfaces.Transferer) Option {
	return func(l *Ledger) { l.transfer = t }
}

func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithClock overrides time.Now for journal timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// NewLedger restores the ledger for owner from store.
// A fresh store starts at a zero balance with no allowances.
func NewLedger(ctx context.Context, owner models.Identity, store interfaces.LedgerStore, opts ...Option) (*Ledger, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("%w: owner is empty", ErrInvalidIdentity)
	}

	l := &Ledger{
		store:  store,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	state, err := store.LoadState(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("load ledger state: %w", err)
	}
	if state.Owner != owner {
		return nil, fmt.Errorf("%w: %s", ErrOwnerMismatch, state.Owner)
	}
	if state.Allowances == nil {
		state.Allowances = make(map[models.Identity]decimal.Decimal)
	}
	l.state = state

	l.logger.Info("ledger restored",
		zap.String("owner", owner.String()),
		zap.Stringer("balance", state.Balance),
		zap.Int("allowances", len(state.Allowances)),
	)
	return l, nil
}

// Owner returns the identity set at creation. It never changes.
func (l *Ledger) Owner() models.Identity {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.Owner
}

// Deposit credits amount to custody. Anyone may deposit; a zero deposit
// succeeds without touching state.
func (l *Ledger) Deposit(ctx context.Context, from models.Identity, amount decimal.Decimal) error {
	if from.IsZero() {
		return l.reject("deposit", from, ErrInvalidIdentity)
	}
	if err := ValidateAmount(amount); err != nil {
		return l.reject("deposit", from, err)
	}
	amount = canonical(amount)

	l.mu.Lock()
	defer l.mu.Unlock()

	if amount.IsZero() {
		return nil
	}

	balance, err := checkedAdd(l.state.Balance, amount)
	if err != nil {
		return l.reject("deposit", from, err, zap.Stringer("amount", amount))
	}

	commit := models.Commit{
		Entry:   l.newEntry(models.EntryDeposit, from, from, amount, balance),
		Balance: balance,
	}
	if err := l.store.CommitEntry(ctx, commit, nil); err != nil {
		return fmt.Errorf("commit deposit: %w", err)
	}
	l.state.Apply(commit)

	l.logger.Info("deposit committed",
		zap.String("from", from.String()),
		zap.Stringer("amount", amount),
		zap.Stringer("balance", balance),
	)
	l.publish(ctx, events.TopicDeposited, from, events.Deposited{
		EntryID:    commit.Entry.ID,
		From:       from.String(),
		Amount:     amount,
		OccurredAt: commit.Entry.CreatedAt,
	})
	return nil
}

// SetAllowance overwrites target's spend limit. Only the owner may call it;
// an amount of zero revokes the allowance.
func (l *Ledger) SetAllowance(ctx context.Context, caller, target models.Identity, amount decimal.Decimal) error {
	if caller.IsZero() || target.IsZero() {
		return l.reject("set_allowance", caller, ErrInvalidIdentity)
	}
	if err := ValidateAmount(amount); err != nil {
		return l.reject("set_allowance", caller, err)
	}
	amount = canonical(amount)

	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.state.Owner {
		return l.reject("set_allowance", caller, ErrUnauthorized, zap.Stringer("amount", amount))
	}

	commit := models.Commit{
		Entry:     l.newEntry(models.EntryAllowanceSet, caller, target, amount, l.state.Balance),
		Balance:   l.state.Balance,
		Allowance: &models.AllowanceChange{Identity: target, Amount: amount},
	}
	if err := l.store.CommitEntry(ctx, commit, nil); err != nil {
		return fmt.Errorf("commit allowance: %w", err)
	}
	l.state.Apply(commit)

	l.logger.Info("allowance set",
		zap.String("target", target.String()),
		zap.Stringer("amount", amount),
	)
	l.publish(ctx, events.TopicAllowanceSet, target, events.AllowanceSet{
		EntryID:    commit.Entry.ID,
		Owner:      caller.String(),
		Target:     target.String(),
		Amount:     amount,
		OccurredAt: commit.Entry.CreatedAt,
	})
	return nil
}

// Withdraw moves amount out of custody to to.
//
// The owner is only bounded by the custody balance. Anyone else is checked
// against their allowance first and the balance second, and has the
// allowance reduced by exactly amount on success. The debit is written
// before the transferer releases the funds, inside the same store
// transaction, so a failed transfer leaves no trace.
func (l *Ledger) Withdraw(ctx context.Context, caller, to models.Identity, amount decimal.Decimal) error {
	if caller.IsZero() || to.IsZero() {
		return l.reject("withdraw", caller, ErrInvalidIdentity)
	}
	if err := ValidateAmount(amount); err != nil {
		return l.reject("withdraw", caller, err)
	}
	amount = canonical(amount)

	l.mu.Lock()
	defer l.mu.Unlock()

	isOwner := caller == l.state.Owner

	var change *models.AllowanceChange
	if !isOwner {
		remaining, err := checkedSub(l.state.AllowanceOf(caller), amount, ErrInsufficientAllowance)
		if err != nil {
			return l.reject("withdraw", caller, err, zap.Stringer("amount", amount))
		}
		change = &models.AllowanceChange{Identity: caller, Amount: remaining}
	}

	balance, err := checkedSub(l.state.Balance, amount, ErrInsufficientBalance)
	if err != nil {
		return l.reject("withdraw", caller, err, zap.Stringer("amount", amount))
	}

	if amount.IsZero() {
		return nil
	}

	commit := models.Commit{
		Entry:     l.newEntry(models.EntryWithdrawal, caller, to, amount, balance),
		Balance:   balance,
		Allowance: change,
	}

	var release interfaces.ReleaseFunc
	if l.transfer != nil {
		release = func(ctx context.Context) error {
			if err := l.transfer.Release(ctx, to, amount); err != nil {
				return fmt.Errorf("%w: %w", ErrTransferFailed, err)
			}
			return nil
		}
	}

	if err := l.store.CommitEntry(ctx, commit, release); err != nil {
		if errors.Is(err, ErrTransferFailed) {
			return l.reject("withdraw", caller, err, zap.Stringer("amount", amount))
		}
		return fmt.Errorf("commit withdrawal: %w", err)
	}
	l.state.Apply(commit)

	l.logger.Info("withdrawal committed",
		zap.String("caller", caller.String()),
		zap.String("to", to.String()),
		zap.Stringer("amount", amount),
		zap.Stringer("balance", balance),
		zap.Bool("owner", isOwner),
	)
	l.publish(ctx, events.TopicWithdrawn, caller, events.Withdrawn{
		EntryID:    commit.Entry.ID,
		Caller:     caller.String(),
		To:         to.String(),
		Amount:     amount,
		OccurredAt: commit.Entry.CreatedAt,
	})
	return nil
}

// GetBalance returns the custody balance.
func (l *Ledger) GetBalance() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.Balance
}

// GetAllowance returns target's remaining allowance, zero if none was granted.
func (l *Ledger) GetAllowance(target models.Identity) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.AllowanceOf(target)
}

// Snapshot returns a copy of the committed state.
func (l *Ledger) Snapshot() models.LedgerState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.Clone()
}

func (l *Ledger) GetLedgerEntries(ctx context.Context) ([]models.LedgerEntry, error) {
	ledgerEntries, err := l.store.GetLedgerEntries(ctx)
	if err != nil {
		return []models.LedgerEntry{}, err
	}
	return ledgerEntries, nil
}

func (l *Ledger) newEntry(kind models.EntryKind, caller, counterparty models.Identity, amount, balanceAfter decimal.Decimal) models.LedgerEntry {
	return models.LedgerEntry{
		ID:           uuid.New().String(),
		Kind:         kind,
		Caller:       caller,
		Counterparty: counterparty,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		CreatedAt:    l.now().UTC(),
	}
}

func (l *Ledger) reject(op string, caller models.Identity, err error, fields ...zap.Field) error {
	fields = append(fields,
		zap.String("op", op),
		zap.String("caller", caller.String()),
		zap.Error(err),
	)
	l.logger.Debug("operation rejected", fields...)
	return err
}

// publish runs under mu, so events leave in commit order. The transition
// has already committed; a failed publish is logged and dropped. The
// caller's cancellation no longer applies once the commit went through.
func (l *Ledger) publish(ctx context.Context, topic string, key models.Identity, event any) {
	if l.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := l.publisher.Publish(ctx, topic, key.String(), event); err != nil {
		l.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.Error(err),
		)
	}
}
