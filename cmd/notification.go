package cmd

import (
	"cafeteria-pass/common/constant"
	"cafeteria-pass/inbound/event"
	"context"
	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"log"
	"log/slog"
	"time"
)

func runQueueNotificationCmd(ctx context.Context) {
	cfg := newCfg("env")

	store, closeStorage := newStorage(cfg)
	defer closeStorage()

	js, closeNats := ensureQueueStream(ctx, cfg)
	defer closeNats()

	st, err := js.Stream(ctx, constant.QueueStreamName)
	if err != nil {
		log.Fatalln("failed to get stream", err)
	}

	notificationEvent := event.NotificationEvent{
		Storage:           store,
		WonPriceFormatter: message.NewPrinter(language.Korean),
		Timeout:           cfg.GetDuration("queue.notification.timeout"),
	}

	cons, err := st.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       "consumer:notification",
		FilterSubject: constant.TicketWildcard,
		MaxDeliver:    cfg.GetInt("queue.notification.max_deliver"),
		AckWait:       cfg.GetDuration("queue.notification.ack_wait"),
	})
	if err != nil {
		log.Fatalln("failed to create consumer", err)
	}

	iter, err := cons.Messages()
	if err != nil {
		panic(err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
				msg, err := iter.Next()
				if err != nil && err != jetstream.ErrMsgIteratorClosed {
					slog.ErrorContext(ctx, "Error fetching message", slog.Any(constant.LogFieldErr, err))
					continue
				}

				if msg == nil {
					continue
				}

				var eventErr error
				switch msg.Subject() {
				case constant.SubjectTicketPurchased:
					eventErr = notificationEvent.PurchasedHandler(ctx, msg.Data())
				case constant.SubjectTicketCancelled:
					eventErr = notificationEvent.CancelledHandler(ctx, msg.Data())
				case constant.SubjectTicketRedeemed:
					eventErr = notificationEvent.RedeemedHandler(ctx, msg.Data())
				case constant.SubjectTicketExpired:
					eventErr = notificationEvent.ExpiredHandler(ctx, msg.Data())
				}

				if eventErr != nil {
					msg.NakWithDelay(1 * time.Second)
					continue
				}

				if err := msg.Ack(); err != nil {
					slog.ErrorContext(ctx, "Error acknowledging message",
						slog.Any(constant.LogFieldErr, err),
						slog.Any(constant.LogFieldPayload, string(msg.Data())),
						slog.String("subject", msg.Subject()),
					)
					continue
				}
			}
		}
	}()

	slog.InfoContext(ctx, "notification queue consumer started")

	<-ctx.Done()

	iter.Stop()

	slog.InfoContext(ctx, "notification queue consumer stopped")
}
