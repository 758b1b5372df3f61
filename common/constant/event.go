package constant

const (
	QueueStreamName = "cafeteria_pass_queue_stream"
)

const (
	AllWildcard          = "events.>"
	TicketWildcard       = "events.ticket.>"
	NotificationWildcard = "events.notification.>"

	SubjectTicketPurchased = "events.ticket.purchased"
	SubjectTicketCancelled = "events.ticket.cancelled"
	SubjectTicketRedeemed  = "events.ticket.redeemed"
	SubjectTicketExpired   = "events.ticket.expired"
)
