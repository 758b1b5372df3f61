package ticket

import (
	"cafeteria-pass/common"
	"cafeteria-pass/common/constant"
	"cafeteria-pass/ledger"
	"cafeteria-pass/model"
	"cafeteria-pass/outbound/storage"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/oklog/ulid/v2"
)

var (
	ErrTicketNotFound      = errors.New("ticket not found")
	ErrNotCancellable      = errors.New("ticket is not cancellable")
	ErrCancelWindowExpired = errors.New("cancellation window expired")
	ErrNotStored           = errors.New("ticket is not in stored state")
	ErrNotActive           = errors.New("ticket is not active")
)

const PaymentMethodBalance = "balance"

// Store owns the live ticket set and its state machine. Every mutation,
// including the expiry sweep and the ledger calls made on the purchase and
// cancel paths, runs under one mutex so balance and ticket state always
// move together.
type Store struct {
	mu      sync.Mutex
	tickets []model.Ticket // newest first
	history []model.Ticket // newest first

	Ledger    *ledger.Ledger
	Storage   storage.Storage
	Publisher jetstream.Publisher

	TimeNow func() time.Time
}

// Load restores the live set and history from storage. Malformed or missing
// records yield empty sets, never an error.
func Load(ctx context.Context, st storage.Storage, l *ledger.Ledger, publisher jetstream.Publisher) *Store {
	s := &Store{
		Ledger:    l,
		Storage:   st,
		Publisher: publisher,
		TimeNow:   time.Now,
	}

	s.tickets = loadTicketList(ctx, st, constant.StorageKeyTickets)
	s.history = loadTicketList(ctx, st, constant.StorageKeyHistory)

	return s
}

func loadTicketList(ctx context.Context, st storage.Storage, key string) []model.Ticket {
	raw, err := st.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			slog.WarnContext(ctx, "failed to load tickets, starting empty",
				slog.String("key", key), slog.Any(constant.LogFieldErr, err))
		}
		return nil
	}

	var tickets []model.Ticket
	if err := json.Unmarshal([]byte(raw), &tickets); err != nil {
		slog.WarnContext(ctx, "stored tickets malformed, starting empty",
			slog.String("key", key), slog.Any(constant.LogFieldErr, err))
		return nil
	}

	return tickets
}

// Purchase debits the balance (when paying by balance) and creates a stored
// ticket as one atomic step. Insufficient balance leaves everything
// untouched.
func (s *Store) Purchase(ctx context.Context, req model.PurchaseTicketRequest) (model.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.PaymentMethod == PaymentMethodBalance {
		if err := s.Ledger.Debit(ctx, req.PriceWon); err != nil {
			return model.Ticket{}, err
		}
	}

	now := s.TimeNow()
	id := ulid.Make().String()
	t := model.Ticket{
		Id:           id,
		RestaurantId: req.RestaurantId,
		CornerId:     req.CornerId,
		MenuName:     req.MenuName,
		PriceWon:     req.PriceWon,
		Status:       model.TicketStatusStored,
		QrPayload:    fmt.Sprintf("%s.%s", id, ulid.Make().String()),
		CreatedAt:    now,
	}

	s.tickets = append([]model.Ticket{t}, s.tickets...)
	s.persistLive(ctx)

	s.publishEvent(ctx, constant.SubjectTicketPurchased, t, now)

	return t, nil
}

// Cancel refunds and removes a stored ticket while the 5 minute window is
// open. The three failure modes carry distinct errors so callers can show
// the right reason.
func (s *Store) Cancel(ctx context.Context, ticketId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(ticketId)
	if idx < 0 {
		return ErrTicketNotFound
	}

	t := s.tickets[idx]
	if t.Status != model.TicketStatusStored {
		return ErrNotCancellable
	}

	now := s.TimeNow()
	if now.Sub(t.CreatedAt) > constant.TicketCancelWindow {
		return ErrCancelWindowExpired
	}

	s.Ledger.Credit(ctx, t.PriceWon)
	s.tickets = append(s.tickets[:idx], s.tickets[idx+1:]...)
	s.persistLive(ctx)

	s.publishEvent(ctx, constant.SubjectTicketCancelled, t, now)

	return nil
}

// Activate opens the 30 minute redemption window on a stored ticket.
func (s *Store) Activate(ctx context.Context, ticketId string) (model.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(ticketId)
	if idx < 0 {
		return model.Ticket{}, ErrTicketNotFound
	}

	if s.tickets[idx].Status != model.TicketStatusStored {
		return model.Ticket{}, ErrNotStored
	}

	now := s.TimeNow()
	expiresAt := now.Add(constant.TicketActiveTTL)

	s.tickets[idx].Status = model.TicketStatusActive
	s.tickets[idx].ActivatedAt = &now
	s.tickets[idx].ExpiresAt = &expiresAt
	s.persistLive(ctx)

	return s.tickets[idx], nil
}

// MarkUsed archives an active ticket into history with status used and
// removes it from the live set.
func (s *Store) MarkUsed(ctx context.Context, ticketId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(ticketId)
	if idx < 0 {
		return ErrTicketNotFound
	}

	t := s.tickets[idx]
	if t.Status != model.TicketStatusActive {
		return ErrNotActive
	}

	now := s.TimeNow()
	t.Status = model.TicketStatusUsed

	s.tickets = append(s.tickets[:idx], s.tickets[idx+1:]...)
	s.history = append([]model.Ticket{t}, s.history...)
	s.persistLive(ctx)
	s.persistHistory(ctx)

	s.publishEvent(ctx, constant.SubjectTicketRedeemed, t, now)

	return nil
}

// RemainingSeconds reports how long an active ticket can still be redeemed.
// Zero for everything that is not active.
func (s *Store) RemainingSeconds(ticketId string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(ticketId)
	if idx < 0 {
		return 0
	}

	t := s.tickets[idx]
	if t.Status != model.TicketStatusActive || t.ExpiresAt == nil {
		return 0
	}

	remaining := t.ExpiresAt.Sub(s.TimeNow()) / time.Second
	if remaining < 0 {
		return 0
	}

	return int64(remaining)
}

// SweepExpired flips every active ticket whose window has closed to
// expired. Idempotent; returns the number of tickets flipped.
func (s *Store) SweepExpired(ctx context.Context, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	flipped := 0
	for i := range s.tickets {
		t := s.tickets[i]
		if t.Status != model.TicketStatusActive || t.ExpiresAt == nil {
			continue
		}

		if !t.ExpiresAt.Before(now) {
			continue
		}

		s.tickets[i].Status = model.TicketStatusExpired
		flipped++

		s.publishEvent(ctx, constant.SubjectTicketExpired, s.tickets[i], now)
	}

	if flipped > 0 {
		s.persistLive(ctx)
	}

	return flipped
}

// Tickets returns a copy of the live set, newest first.
func (s *Store) Tickets() []model.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Ticket, len(s.tickets))
	copy(out, s.tickets)
	return out
}

// History returns a copy of the archived tickets, newest first.
func (s *Store) History() []model.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Ticket, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Store) indexOf(ticketId string) int {
	for i := range s.tickets {
		if s.tickets[i].Id == ticketId {
			return i
		}
	}
	return -1
}

func (s *Store) persistLive(ctx context.Context) {
	s.persistList(ctx, constant.StorageKeyTickets, s.tickets)
}

func (s *Store) persistHistory(ctx context.Context) {
	s.persistList(ctx, constant.StorageKeyHistory, s.history)
}

func (s *Store) persistList(ctx context.Context, key string, tickets []model.Ticket) {
	data, err := json.Marshal(tickets)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal tickets", slog.String("key", key), slog.Any(constant.LogFieldErr, err))
		return
	}

	if err := s.Storage.Set(ctx, key, string(data)); err != nil {
		slog.ErrorContext(ctx, "failed to persist tickets", slog.String("key", key), slog.Any(constant.LogFieldErr, err))
	}
}

// publishEvent is best effort: a broken broker must never fail a ticket
// operation.
func (s *Store) publishEvent(ctx context.Context, subject string, t model.Ticket, occurredAt time.Time) {
	if s.Publisher == nil {
		return
	}

	msg := model.TicketEventMessage{
		TicketId:     t.Id,
		RestaurantId: t.RestaurantId,
		CornerId:     t.CornerId,
		MenuName:     t.MenuName,
		PriceWon:     t.PriceWon,
		OccurredAt:   occurredAt.Format(time.RFC3339),
	}

	if err := common.PublishMessage(ctx, s.Publisher, subject, msg); err != nil {
		slog.ErrorContext(ctx, "failed to publish ticket event",
			slog.String("subject", subject), slog.Any(constant.LogFieldErr, err))
	}
}
