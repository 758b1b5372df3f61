package constant

const NotificationTicketPurchasedTemplate = `Your order ticket for %s is ready. Amount charged: %s. Activate it at the counter within the lunch window.`

const NotificationTicketCancelledTemplate = `Your order for %s was cancelled. %s has been returned to your balance.`

const NotificationTicketRedeemedTemplate = `Enjoy your meal! Your ticket for %s has been redeemed.`

const NotificationTicketExpiredTemplate = `Your activated ticket for %s expired before it was redeemed. Visit the service desk if this was a mistake.`
