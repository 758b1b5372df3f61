package constant

import "time"

const (
	StorageKeyBalance       = "cafeteria:balance"
	StorageKeyTickets       = "cafeteria:tickets"
	StorageKeyHistory       = "cafeteria:history"
	StorageKeyNotifications = "cafeteria:notifications"
)

const (
	TicketActiveTTL    = 30 * time.Minute
	TicketCancelWindow = 5 * time.Minute
)

const (
	WaitingCacheTTL      = 5 * time.Minute
	WaitingCacheCapacity = 20
	WaitingFetchTimeout  = 3 * time.Second
)

const MaxNotifications = 50
