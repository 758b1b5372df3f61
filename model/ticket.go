package model

import "time"

type TicketStatus string

const (
	TicketStatusStored  TicketStatus = "stored"
	TicketStatusActive  TicketStatus = "active"
	TicketStatusUsed    TicketStatus = "used"
	TicketStatusExpired TicketStatus = "expired"
)

// Ticket is a single-use order voucher. ActivatedAt and ExpiresAt are set
// together when the ticket enters the active state and never cleared.
// QrPayload is an unsigned "id.nonce" pair; a staff scanner cannot verify
// authenticity, which is accepted for this deployment.
type Ticket struct {
	Id           string       `json:"id"`
	RestaurantId string       `json:"restaurant_id"`
	CornerId     string       `json:"corner_id"`
	MenuName     string       `json:"menu_name"`
	PriceWon     int64        `json:"price_won"`
	Status       TicketStatus `json:"status"`
	QrPayload    string       `json:"qr_payload"`
	CreatedAt    time.Time    `json:"created_at"`
	ActivatedAt  *time.Time   `json:"activated_at,omitempty"`
	ExpiresAt    *time.Time   `json:"expires_at,omitempty"`
}

type PurchaseTicketRequest struct {
	RestaurantId  string `json:"restaurant_id" validate:"required,max=50"`
	CornerId      string `json:"corner_id" validate:"required,max=50"`
	MenuName      string `json:"menu_name" validate:"required,max=100"`
	PriceWon      int64  `json:"price_won" validate:"required,gt=0"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=balance external"`
}

type PurchaseTicketResponse struct {
	Ticket  Ticket `json:"ticket"`
	Balance int64  `json:"balance"`
}

type CancelTicketResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Balance int64  `json:"balance,omitempty"`
}

type RemainingSecondsResponse struct {
	TicketId         string `json:"ticket_id"`
	RemainingSeconds int64  `json:"remaining_seconds"`
}

type ChargeBalanceRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

type BalanceResponse struct {
	Balance int64 `json:"balance"`
}

type TicketEventMessage struct {
	TicketId     string `json:"ticket_id"`
	RestaurantId string `json:"restaurant_id"`
	CornerId     string `json:"corner_id"`
	MenuName     string `json:"menu_name"`
	PriceWon     int64  `json:"price_won"`
	OccurredAt   string `json:"occurred_at"`
}

type Notification struct {
	Id        string    `json:"id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
