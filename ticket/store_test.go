package ticket

import (
	jetstreamMock "cafeteria-pass/common/jetstream/mocks"
	"cafeteria-pass/ledger"
	"cafeteria-pass/model"
	"cafeteria-pass/outbound/storage"
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type StoreTestSuite struct {
	suite.Suite

	Storage   *storage.MemoryStorage
	Ledger    *ledger.Ledger
	Publisher *jetstreamMock.MockPublisher
	Store     *Store

	now time.Time
}

func (s *StoreTestSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())

	s.Storage = storage.NewMemoryStorage()
	s.Ledger = ledger.Load(context.Background(), s.Storage)
	s.Publisher = jetstreamMock.NewMockPublisher(ctrl)
	s.Publisher.EXPECT().
		Publish(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&jetstream.PubAck{}, nil).
		AnyTimes()

	s.Store = Load(context.Background(), s.Storage, s.Ledger, s.Publisher)

	s.now = time.Date(2026, 1, 15, 11, 30, 0, 0, time.UTC)
	s.Store.TimeNow = func() time.Time { return s.now }
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) purchaseRequest() model.PurchaseTicketRequest {
	return model.PurchaseTicketRequest{
		RestaurantId:  "student-hall",
		CornerId:      "student-a",
		MenuName:      "Pork Cutlet",
		PriceWon:      3000,
		PaymentMethod: PaymentMethodBalance,
	}
}

func (s *StoreTestSuite) TestPurchaseWithBalance() {
	_, err := s.Ledger.Charge(context.Background(), 10000)
	s.Require().NoError(err)

	t, err := s.Store.Purchase(context.Background(), s.purchaseRequest())
	s.NoError(err)

	s.Equal(int64(7000), s.Ledger.Balance())
	s.Equal(model.TicketStatusStored, t.Status)
	s.Equal(s.now, t.CreatedAt)
	s.NotEmpty(t.Id)
	s.NotEmpty(t.QrPayload)
	s.Nil(t.ActivatedAt)
	s.Nil(t.ExpiresAt)

	live := s.Store.Tickets()
	s.Len(live, 1)
	s.Equal(t.Id, live[0].Id)
}

func (s *StoreTestSuite) TestPurchaseInsufficientBalance() {
	_, err := s.Ledger.Charge(context.Background(), 1000)
	s.Require().NoError(err)

	_, err = s.Store.Purchase(context.Background(), s.purchaseRequest())
	s.ErrorIs(err, ledger.ErrInsufficientBalance)

	s.Equal(int64(1000), s.Ledger.Balance())
	s.Empty(s.Store.Tickets())
}

func (s *StoreTestSuite) TestPurchaseNewestFirst() {
	_, err := s.Ledger.Charge(context.Background(), 10000)
	s.Require().NoError(err)

	first, err := s.Store.Purchase(context.Background(), s.purchaseRequest())
	s.Require().NoError(err)

	s.now = s.now.Add(time.Minute)
	second, err := s.Store.Purchase(context.Background(), s.purchaseRequest())
	s.Require().NoError(err)

	live := s.Store.Tickets()
	s.Require().Len(live, 2)
	s.Equal(second.Id, live[0].Id)
	s.Equal(first.Id, live[1].Id)
}

func (s *StoreTestSuite) TestCancelWithinWindow() {
	_, err := s.Ledger.Charge(context.Background(), 10000)
	s.Require().NoError(err)

	t, err := s.Store.Purchase(context.Background(), s.purchaseRequest())
	s.Require().NoError(err)
	s.Require().Equal(int64(7000), s.Ledger.Balance())

	s.now = s.now.Add(2 * time.Minute)

	s.NoError(s.Store.Cancel(context.Background(), t.Id))
	s.Equal(int64(10000), s.Ledger.Balance())
	s.Empty(s.Store.Tickets())
	s.Empty(s.Store.History())
}

func (s *StoreTestSuite) TestCancelFailures() {
	_, err := s.Ledger.Charge(context.Background(), 10000)
	s.Require().NoError(err)

	t, err := s.Store.Purchase(context.Background(), s.purchaseRequest())
	s.Require().NoError(err)

	s.Run("not found", func() {
		s.ErrorIs(s.Store.Cancel(context.Background(), "missing"), ErrTicketNotFound)
	})

	s.Run("window expired", func() {
		s.now = s.now.Add(6 * time.Minute)
		s.ErrorIs(s.Store.Cancel(context.Background(), t.Id), ErrCancelWindowExpired)
	})

	s.Run("not cancellable after activation", func() {
		_, err := s.Store.Activate(context.Background(), t.Id)
		s.Require().NoError(err)
		s.ErrorIs(s.Store.Cancel(context.Background(), t.Id), ErrNotCancellable)
	})

	// Every failure left balance and live set untouched.
	s.Equal(int64(7000), s.Ledger.Balance())
	s.Len(s.Store.Tickets(), 1)
}

func (s *StoreTestSuite) TestCancelBoundary() {
	_, err := s.Ledger.Charge(context.Background(), 10000)
	s.Require().NoError(err)

	t, err := s.Store.Purchase(context.Background(), s.purchaseRequest())
	s.Require().NoError(err)

	// Exactly at the window edge cancellation still succeeds.
	s.now = s.now.Add(5 * time.Minute)
	s.NoError(s.Store.Cancel(context.Background(), t.Id))
}

func (s *StoreTestSuite) TestActivate() {
	_, err := s.Ledger.Charge(context.Background(), 10000)
	s.Require().NoError(err)

	t, err := s.Store.Purchase(context.Background(), s.purchaseRequest())
	s.Require().NoError(err)

	activated, err := s.Store.Activate(context.Background(), t.Id)
	s.NoError(err)
	s.Equal(model.TicketStatusActive, activated.Status)
	s.Require().NotNil(activated.ActivatedAt)
	s.Require().NotNil(activated.ExpiresAt)
	s.Equal(s.now, *activated.ActivatedAt)
	s.Equal(s.now.Add(30*time.Minute), *activated.ExpiresAt)

	_, err = s.Store.Activate(context.Background(), t.Id)
	s.ErrorIs(err, ErrNotStored)

	_, err = s.Store.Activate(context.Background(), "missing")
	s.ErrorIs(err, ErrTicketNotFound)
}

func (s *StoreTestSuite) TestMarkUsed() {
	_, err := s.Ledger.Charge(context.Background(), 10000)
	s.Require().NoError(err)

	t, err := s.Store.Purchase(context.Background(), s.purchaseRequest())
	s.Require().NoError(err)

	s.ErrorIs(s.Store.MarkUsed(context.Background(), t.Id), ErrNotActive)

	_, err = s.Store.Activate(context.Background(), t.Id)
	s.Require().NoError(err)

	s.NoError(s.Store.MarkUsed(context.Background(), t.Id))
	s.Empty(s.Store.Tickets())

	history := s.Store.History()
	s.Require().Len(history, 1)
	s.Equal(model.TicketStatusUsed, history[0].Status)
	s.Require().NotNil(history[0].ActivatedAt)
	s.Equal(s.now, *history[0].ActivatedAt)

	s.ErrorIs(s.Store.MarkUsed(context.Background(), t.Id), ErrTicketNotFound)
}

func (s *StoreTestSuite) TestRemainingSeconds() {
	_, err := s.Ledger.Charge(context.Background(), 10000)
	s.Require().NoError(err)

	t, err := s.Store.Purchase(context.Background(), s.purchaseRequest())
	s.Require().NoError(err)

	s.Equal(int64(0), s.Store.RemainingSeconds(t.Id))

	_, err = s.Store.Activate(context.Background(), t.Id)
	s.Require().NoError(err)

	s.Equal(int64(1800), s.Store.RemainingSeconds(t.Id))

	s.now = s.now.Add(29*time.Minute + 30*time.Second)
	s.Equal(int64(30), s.Store.RemainingSeconds(t.Id))

	s.now = s.now.Add(time.Hour)
	s.Equal(int64(0), s.Store.RemainingSeconds(t.Id))

	s.Equal(int64(0), s.Store.RemainingSeconds("missing"))
}

func (s *StoreTestSuite) TestSweepExpired() {
	_, err := s.Ledger.Charge(context.Background(), 10000)
	s.Require().NoError(err)

	t, err := s.Store.Purchase(context.Background(), s.purchaseRequest())
	s.Require().NoError(err)

	activatedAt := s.now
	_, err = s.Store.Activate(context.Background(), t.Id)
	s.Require().NoError(err)

	// Not expired at the boundary instant.
	s.Equal(0, s.Store.SweepExpired(context.Background(), activatedAt.Add(30*time.Minute)))
	s.Equal(model.TicketStatusActive, s.Store.Tickets()[0].Status)

	s.Equal(1, s.Store.SweepExpired(context.Background(), activatedAt.Add(31*time.Minute)))
	s.Equal(model.TicketStatusExpired, s.Store.Tickets()[0].Status)

	// Idempotent.
	s.Equal(0, s.Store.SweepExpired(context.Background(), activatedAt.Add(32*time.Minute)))
	s.Equal(model.TicketStatusExpired, s.Store.Tickets()[0].Status)
}

func (s *StoreTestSuite) TestSweepIgnoresStored() {
	_, err := s.Ledger.Charge(context.Background(), 10000)
	s.Require().NoError(err)

	_, err = s.Store.Purchase(context.Background(), s.purchaseRequest())
	s.Require().NoError(err)

	s.Equal(0, s.Store.SweepExpired(context.Background(), s.now.Add(24*time.Hour)))
	s.Equal(model.TicketStatusStored, s.Store.Tickets()[0].Status)
}

func (s *StoreTestSuite) TestPersistsAcrossLoads() {
	_, err := s.Ledger.Charge(context.Background(), 10000)
	s.Require().NoError(err)

	t, err := s.Store.Purchase(context.Background(), s.purchaseRequest())
	s.Require().NoError(err)

	_, err = s.Store.Activate(context.Background(), t.Id)
	s.Require().NoError(err)
	s.Require().NoError(s.Store.MarkUsed(context.Background(), t.Id))

	reloaded := Load(context.Background(), s.Storage, s.Ledger, nil)
	s.Empty(reloaded.Tickets())

	history := reloaded.History()
	s.Require().Len(history, 1)
	s.Equal(t.Id, history[0].Id)
	s.Equal(model.TicketStatusUsed, history[0].Status)
}

func (s *StoreTestSuite) TestLoadMalformedState() {
	st := storage.NewMemoryStorage()
	s.Require().NoError(st.Set(context.Background(), "cafeteria:tickets", "{broken"))
	s.Require().NoError(st.Set(context.Background(), "cafeteria:history", "also broken"))

	loaded := Load(context.Background(), st, s.Ledger, nil)
	s.Empty(loaded.Tickets())
	s.Empty(loaded.History())
}
