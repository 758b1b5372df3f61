package cmd

import (
	"cafeteria-pass/common/constant"
	"cafeteria-pass/common/otel"
	inboundCron "cafeteria-pass/inbound/cron"
	inboundHttp "cafeteria-pass/inbound/http"
	"cafeteria-pass/ledger"
	"cafeteria-pass/outbound/waitingdata"
	"cafeteria-pass/ticket"
	"cafeteria-pass/waiting"
	"context"
	"fmt"
	"github.com/go-playground/validator/v10"
	"log"
	"log/slog"
	"net/http"
	"time"
)

func runHttpServerCmd(ctx context.Context) {
	cfg := newCfg("env")

	if endpoint := cfg.GetString("otel.endpoint"); endpoint != "" {
		shutdown := otel.InitTracerProvider(ctx, endpoint)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := shutdown(shutdownCtx); err != nil {
				slog.Error("failed to shutdown tracer provider", slog.Any(constant.LogFieldErr, err))
			}
		}()
	}

	validate := validator.New()

	store, closeStorage := newStorage(cfg)
	defer closeStorage()

	js, closeNats := ensureQueueStream(ctx, cfg)
	defer closeNats()

	balanceLedger := ledger.Load(ctx, store)
	ticketStore := ticket.Load(ctx, store, balanceLedger, js)

	fetcher := waitingdata.NewFetcher(
		cfg.GetString("waiting.base_url"),
		cfg.GetDuration("waiting.fetch_timeout"),
	)
	waitingCache := waiting.NewCache(fetcher,
		cfg.GetDuration("waiting.cache_ttl"),
		cfg.GetInt("waiting.cache_capacity"),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		slog.DebugContext(r.Context(), "health check")
		w.WriteHeader(http.StatusOK)
	})

	timeoutMiddleware := inboundHttp.TimeoutMiddleware(20 * time.Second)

	inboundHttp.RegisterTicketHttp(mux, ticketStore, validate)
	inboundHttp.RegisterBalanceHttp(mux, balanceLedger, validate)
	inboundHttp.RegisterWaitingHttp(mux, waitingCache)
	inboundHttp.RegisterNotificationHttp(mux, store)

	expiryCron := &inboundCron.ExpiryCron{
		Cfg:   cfg,
		Store: ticketStore,
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.GetInt("server.port")),
		Handler:           timeoutMiddleware(inboundHttp.CorsMiddleware(inboundHttp.RecoverMiddleware(mux))),
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalln("unable to start server", err)
		}
	}()

	slog.Info("http server started")

	go func() {
		expiryCron.Start(ctx)
	}()

	<-ctx.Done()

	ctxShutDown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutDown); err != nil {
		log.Fatalln("unable to shutdown server", err)
	}

	slog.Info("http server stopped")
}
