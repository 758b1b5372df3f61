package event

import (
	"cafeteria-pass/common/constant"
	"cafeteria-pass/model"
	"cafeteria-pass/outbound/storage"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/text/message"
)

// NotificationEvent turns ticket lifecycle events into the user-facing
// notification feed, newest first, capped at MaxNotifications.
type NotificationEvent struct {
	Storage           storage.Storage
	WonPriceFormatter *message.Printer

	Timeout time.Duration
}

func (in NotificationEvent) PurchasedHandler(ctx context.Context, msg []byte) error {
	return in.handle(ctx, msg, func(ev model.TicketEventMessage) string {
		return fmt.Sprintf(constant.NotificationTicketPurchasedTemplate, ev.MenuName, in.formatWon(ev.PriceWon))
	})
}

func (in NotificationEvent) CancelledHandler(ctx context.Context, msg []byte) error {
	return in.handle(ctx, msg, func(ev model.TicketEventMessage) string {
		return fmt.Sprintf(constant.NotificationTicketCancelledTemplate, ev.MenuName, in.formatWon(ev.PriceWon))
	})
}

func (in NotificationEvent) RedeemedHandler(ctx context.Context, msg []byte) error {
	return in.handle(ctx, msg, func(ev model.TicketEventMessage) string {
		return fmt.Sprintf(constant.NotificationTicketRedeemedTemplate, ev.MenuName)
	})
}

func (in NotificationEvent) ExpiredHandler(ctx context.Context, msg []byte) error {
	return in.handle(ctx, msg, func(ev model.TicketEventMessage) string {
		return fmt.Sprintf(constant.NotificationTicketExpiredTemplate, ev.MenuName)
	})
}

func (in NotificationEvent) handle(ctx context.Context, msg []byte, buildBody func(model.TicketEventMessage) string) error {
	ctx, cancel := context.WithTimeout(ctx, in.Timeout)
	defer cancel()

	var ev model.TicketEventMessage
	if err := json.Unmarshal(msg, &ev); err != nil {
		slog.WarnContext(ctx, "ticket event unmarshal error", slog.Any(constant.LogFieldErr, err))
		return nil
	}

	notification := model.Notification{
		Id:        ulid.Make().String(),
		Body:      buildBody(ev),
		CreatedAt: time.Now(),
	}

	if err := in.append(ctx, notification); err != nil {
		slog.ErrorContext(ctx, "failed to append notification", slog.Any(constant.LogFieldErr, err))
		return err
	}

	slog.DebugContext(ctx, "notification appended", slog.String("id", notification.Id))

	return nil
}

func (in NotificationEvent) append(ctx context.Context, notification model.Notification) error {
	feed := in.load(ctx)

	feed = append([]model.Notification{notification}, feed...)
	if len(feed) > constant.MaxNotifications {
		feed = feed[:constant.MaxNotifications]
	}

	data, err := json.Marshal(feed)
	if err != nil {
		return err
	}

	return in.Storage.Set(ctx, constant.StorageKeyNotifications, string(data))
}

// load reads the current feed, substituting an empty one for missing or
// malformed state.
func (in NotificationEvent) load(ctx context.Context) []model.Notification {
	raw, err := in.Storage.Get(ctx, constant.StorageKeyNotifications)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			slog.WarnContext(ctx, "failed to load notifications", slog.Any(constant.LogFieldErr, err))
		}
		return nil
	}

	var feed []model.Notification
	if err := json.Unmarshal([]byte(raw), &feed); err != nil {
		slog.WarnContext(ctx, "stored notifications malformed, resetting", slog.Any(constant.LogFieldErr, err))
		return nil
	}

	return feed
}

func (in NotificationEvent) formatWon(amount int64) string {
	return in.WonPriceFormatter.Sprintf("₩%d", amount)
}
