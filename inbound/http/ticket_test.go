package http

import (
	jetstreamMock "cafeteria-pass/common/jetstream/mocks"
	"cafeteria-pass/ledger"
	"cafeteria-pass/model"
	"cafeteria-pass/outbound/storage"
	"cafeteria-pass/ticket"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type TicketHttpTestSuite struct {
	suite.Suite

	Storage   *storage.MemoryStorage
	Ledger    *ledger.Ledger
	Publisher *jetstreamMock.MockPublisher
	Store     *ticket.Store
	Validate  *validator.Validate

	Mux *http.ServeMux

	now time.Time
}

func (s *TicketHttpTestSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())

	s.Storage = storage.NewMemoryStorage()
	s.Ledger = ledger.Load(context.Background(), s.Storage)
	s.Publisher = jetstreamMock.NewMockPublisher(ctrl)
	s.Publisher.EXPECT().
		Publish(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&jetstream.PubAck{}, nil).
		AnyTimes()

	s.Store = ticket.Load(context.Background(), s.Storage, s.Ledger, s.Publisher)

	s.now = time.Date(2026, 1, 15, 11, 30, 0, 0, time.UTC)
	s.Store.TimeNow = func() time.Time { return s.now }

	s.Validate = validator.New()

	s.Mux = http.NewServeMux()
	RegisterTicketHttp(s.Mux, s.Store, s.Validate)
	RegisterBalanceHttp(s.Mux, s.Ledger, s.Validate)

	slog.SetLogLoggerLevel(slog.LevelDebug)
}

func TestTicketHttpTestSuite(t *testing.T) {
	suite.Run(t, new(TicketHttpTestSuite))
}

func (s *TicketHttpTestSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}

	rec := httptest.NewRecorder()
	s.Mux.ServeHTTP(rec, req)
	return rec
}

func (s *TicketHttpTestSuite) purchaseBody() string {
	return `{"restaurant_id":"student-hall","corner_id":"student-a","menu_name":"Pork Cutlet","price_won":3000,"payment_method":"balance"}`
}

func (s *TicketHttpTestSuite) TestPurchase() {
	tests := []struct {
		name           string
		reqBody        string
		balance        int64
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "invalid json",
			reqBody:        `{invalid json`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Invalid request"}`,
		},
		{
			name:           "validation error - missing menu",
			reqBody:        `{"restaurant_id":"student-hall","corner_id":"student-a","price_won":3000,"payment_method":"balance"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Validation failed","data":{"MenuName":"required"}}`,
		},
		{
			name:           "validation error - non positive price",
			reqBody:        `{"restaurant_id":"student-hall","corner_id":"student-a","menu_name":"Pork Cutlet","price_won":-1,"payment_method":"balance"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Validation failed","data":{"PriceWon":"gt"}}`,
		},
		{
			name:           "validation error - unknown payment method",
			reqBody:        `{"restaurant_id":"student-hall","corner_id":"student-a","menu_name":"Pork Cutlet","price_won":3000,"payment_method":"card"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Validation failed","data":{"PaymentMethod":"oneof"}}`,
		},
		{
			name:           "insufficient balance",
			reqBody:        s.purchaseBody(),
			balance:        1000,
			expectedStatus: http.StatusConflict,
			expectedBody:   `{"error":"Insufficient balance"}`,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			if tt.balance > 0 {
				_, err := s.Ledger.Charge(context.Background(), tt.balance)
				s.Require().NoError(err)
			}

			rec := s.do(http.MethodPost, "/api/tickets", tt.reqBody)
			s.Equal(tt.expectedStatus, rec.Code)
			s.JSONEq(tt.expectedBody, strings.TrimSpace(rec.Body.String()))
		})
	}
}

func (s *TicketHttpTestSuite) TestPurchaseSuccess() {
	_, err := s.Ledger.Charge(context.Background(), 10000)
	s.Require().NoError(err)

	rec := s.do(http.MethodPost, "/api/tickets", s.purchaseBody())
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp model.PurchaseTicketResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(int64(7000), resp.Balance)
	s.Equal(model.TicketStatusStored, resp.Ticket.Status)
	s.NotEmpty(resp.Ticket.Id)

	rec = s.do(http.MethodGet, "/api/tickets", "")
	s.Equal(http.StatusOK, rec.Code)

	var live []model.Ticket
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &live))
	s.Len(live, 1)
}

func (s *TicketHttpTestSuite) TestCancel() {
	_, err := s.Ledger.Charge(context.Background(), 10000)
	s.Require().NoError(err)

	t, err := s.Store.Purchase(context.Background(), model.PurchaseTicketRequest{
		RestaurantId: "student-hall", CornerId: "student-a", MenuName: "Pork Cutlet",
		PriceWon: 3000, PaymentMethod: ticket.PaymentMethodBalance,
	})
	s.Require().NoError(err)

	s.Run("unknown ticket", func() {
		rec := s.do(http.MethodPost, "/api/tickets/missing/cancel", "")
		s.Equal(http.StatusNotFound, rec.Code)
		s.JSONEq(`{"success":false,"message":"ticket not found"}`, rec.Body.String())
	})

	s.Run("within window", func() {
		s.now = s.now.Add(2 * time.Minute)

		rec := s.do(http.MethodPost, "/api/tickets/"+t.Id+"/cancel", "")
		s.Equal(http.StatusOK, rec.Code)

		var resp model.CancelTicketResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.True(resp.Success)
		s.Equal(int64(10000), resp.Balance)
		s.Empty(s.Store.Tickets())
	})
}

func (s *TicketHttpTestSuite) TestCancelWindowExpired() {
	_, err := s.Ledger.Charge(context.Background(), 10000)
	s.Require().NoError(err)

	t, err := s.Store.Purchase(context.Background(), model.PurchaseTicketRequest{
		RestaurantId: "student-hall", CornerId: "student-a", MenuName: "Pork Cutlet",
		PriceWon: 3000, PaymentMethod: ticket.PaymentMethodBalance,
	})
	s.Require().NoError(err)

	s.now = s.now.Add(6 * time.Minute)

	rec := s.do(http.MethodPost, "/api/tickets/"+t.Id+"/cancel", "")
	s.Equal(http.StatusConflict, rec.Code)
	s.JSONEq(`{"success":false,"message":"cancellation window expired"}`, rec.Body.String())
	s.Equal(int64(7000), s.Ledger.Balance())
	s.Len(s.Store.Tickets(), 1)
}

func (s *TicketHttpTestSuite) TestActivateRedeemRemaining() {
	_, err := s.Ledger.Charge(context.Background(), 10000)
	s.Require().NoError(err)

	t, err := s.Store.Purchase(context.Background(), model.PurchaseTicketRequest{
		RestaurantId: "student-hall", CornerId: "student-a", MenuName: "Pork Cutlet",
		PriceWon: 3000, PaymentMethod: ticket.PaymentMethodBalance,
	})
	s.Require().NoError(err)

	rec := s.do(http.MethodPost, "/api/tickets/"+t.Id+"/redeem", "")
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/api/tickets/"+t.Id+"/activate", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var activated model.Ticket
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &activated))
	s.Equal(model.TicketStatusActive, activated.Status)

	rec = s.do(http.MethodGet, "/api/tickets/"+t.Id+"/remaining", "")
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"ticket_id":"`+t.Id+`","remaining_seconds":1800}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/tickets/"+t.Id+"/activate", "")
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/api/tickets/"+t.Id+"/redeem", "")
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/tickets/history", "")
	s.Equal(http.StatusOK, rec.Code)

	var history []model.Ticket
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &history))
	s.Require().Len(history, 1)
	s.Equal(model.TicketStatusUsed, history[0].Status)
}

func (s *TicketHttpTestSuite) TestBalance() {
	rec := s.do(http.MethodGet, "/api/balance", "")
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"balance":0}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/balance/charge", `{"amount":10000}`)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"balance":10000}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/balance/charge", `{"amount":-5}`)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/balance/charge", `{broken`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.JSONEq(`{"error":"Invalid request"}`, rec.Body.String())
}
