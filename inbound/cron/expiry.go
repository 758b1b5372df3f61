package cron

import (
	"cafeteria-pass/ticket"
	"context"
	"log/slog"
	"time"

	"github.com/spf13/viper"
)

// ExpiryCron periodically demotes timed-out active tickets to expired. The
// period is a tunable, not a correctness knob: the sweep itself is
// idempotent.
type ExpiryCron struct {
	Cfg   *viper.Viper
	Store *ticket.Store
}

func (in ExpiryCron) Start(ctx context.Context) {
	sweepTicker := time.NewTicker(in.Cfg.GetDuration("cron.expiry.interval"))
	defer sweepTicker.Stop()

	slog.Info("expiry cron started")

	for {
		select {
		case <-sweepTicker.C:
			in.sweep(ctx)
		case <-ctx.Done():
			slog.Info("expiry cron stopped")
			return
		}
	}
}

func (in ExpiryCron) sweep(ctx context.Context) {
	expired := in.Store.SweepExpired(ctx, in.Store.TimeNow())
	if expired > 0 {
		slog.InfoContext(ctx, "expired tickets", slog.Int("count", expired))
	}
}
