package ledger

import (
	"cafeteria-pass/common/constant"
	"cafeteria-pass/outbound/storage"
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
)

// ErrInsufficientBalance is a validation failure, not a system error: the
// caller asked to debit more than is available and nothing was mutated.
var ErrInsufficientBalance = errors.New("insufficient balance")

var ErrInvalidAmount = errors.New("amount must be positive")

// Ledger holds the mocked internal balance in whole Won. The balance never
// goes negative: Debit checks and subtracts under one lock.
type Ledger struct {
	mu      sync.Mutex
	balance int64
	store   storage.Storage
}

// Load reads the persisted balance, substituting zero for missing or
// malformed values.
func Load(ctx context.Context, store storage.Storage) *Ledger {
	l := &Ledger{store: store}

	raw, err := store.Get(ctx, constant.StorageKeyBalance)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			slog.WarnContext(ctx, "failed to load balance, starting from zero", slog.Any(constant.LogFieldErr, err))
		}
		return l
	}

	balance, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || balance < 0 {
		slog.WarnContext(ctx, "stored balance malformed, starting from zero", slog.String("raw", raw))
		return l
	}

	l.balance = balance
	return l
}

func (l *Ledger) Balance() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.balance
}

// Charge is the mock top-up path; it always succeeds for positive amounts.
func (l *Ledger) Charge(ctx context.Context, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.balance += amount
	l.persist(ctx)

	return l.balance, nil
}

// Debit subtracts amount if the balance covers it. The sufficiency check and
// the subtraction happen under the same lock.
func (l *Ledger) Debit(ctx context.Context, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balance < amount {
		return ErrInsufficientBalance
	}

	l.balance -= amount
	l.persist(ctx)

	return nil
}

// Credit returns amount to the balance. Used only on the cancel path, at
// most once per purchased ticket.
func (l *Ledger) Credit(ctx context.Context, amount int64) {
	if amount <= 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.balance += amount
	l.persist(ctx)
}

func (l *Ledger) persist(ctx context.Context) {
	err := l.store.Set(ctx, constant.StorageKeyBalance, strconv.FormatInt(l.balance, 10))
	if err != nil {
		slog.ErrorContext(ctx, "failed to persist balance", slog.Any(constant.LogFieldErr, err))
	}
}
