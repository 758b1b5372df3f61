package http

import (
	"cafeteria-pass/common"
	"cafeteria-pass/common/constant"
	"cafeteria-pass/common/errs"
	"cafeteria-pass/common/otel"
	"cafeteria-pass/ledger"
	"cafeteria-pass/model"
	"cafeteria-pass/ticket"
	"encoding/json"
	"errors"
	"github.com/go-playground/validator/v10"
	"log/slog"
	"net/http"
)

type TicketHttp struct {
	Store    *ticket.Store
	Validate *validator.Validate
}

func RegisterTicketHttp(mux *http.ServeMux, store *ticket.Store, validate *validator.Validate) *TicketHttp {
	in := &TicketHttp{
		Store:    store,
		Validate: validate,
	}

	mux.HandleFunc("GET /api/tickets", in.list)
	mux.HandleFunc("GET /api/tickets/history", in.listHistory)
	mux.HandleFunc("POST /api/tickets", in.purchase)
	mux.HandleFunc("POST /api/tickets/{id}/cancel", in.cancel)
	mux.HandleFunc("POST /api/tickets/{id}/activate", in.activate)
	mux.HandleFunc("POST /api/tickets/{id}/redeem", in.redeem)
	mux.HandleFunc("GET /api/tickets/{id}/remaining", in.remaining)

	return in
}

func (in TicketHttp) list(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, in.Store.Tickets())
}

func (in TicketHttp) listHistory(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, in.Store.History())
}

func (in TicketHttp) purchase(w http.ResponseWriter, r *http.Request) {
	var req model.PurchaseTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, &errs.HttpError{Code: http.StatusBadRequest, Message: "Invalid request"})
		return
	}

	if err := in.Validate.Struct(req); err != nil {
		writeErrorResponse(w, err)
		return
	}

	ctx, span := otel.Tracer.Start(r.Context(), "TicketHttp.purchase")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	slog.InfoContext(ctx, "purchase ticket receive request", slog.Any(constant.LogFieldPayload, req), traceIdAttr)

	t, err := in.Store.Purchase(ctx, req)
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			slog.DebugContext(ctx, "insufficient balance", traceIdAttr)
			writeErrorResponse(w, &errs.HttpError{Code: http.StatusConflict, Message: "Insufficient balance"})
			return
		}

		slog.ErrorContext(ctx, "failed to purchase ticket", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		common.UtilSpanError(span, err)
		writeErrorResponse(w, err)
		return
	}

	slog.InfoContext(ctx, "purchase ticket success", traceIdAttr, slog.Any(constant.LogFieldResponse, t.Id))

	writeJSONResponse(w, http.StatusOK, model.PurchaseTicketResponse{
		Ticket:  t,
		Balance: in.Store.Ledger.Balance(),
	})
}

func (in TicketHttp) cancel(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer.Start(r.Context(), "TicketHttp.cancel")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	ticketId := r.PathValue("id")

	slog.InfoContext(ctx, "cancel ticket receive request", slog.String("ticket_id", ticketId), traceIdAttr)

	err := in.Store.Cancel(ctx, ticketId)
	if err != nil {
		slog.DebugContext(ctx, "cancel ticket rejected", traceIdAttr, slog.Any(constant.LogFieldErr, err))

		code := http.StatusConflict
		if errors.Is(err, ticket.ErrTicketNotFound) {
			code = http.StatusNotFound
		}

		writeJSONResponse(w, code, model.CancelTicketResponse{Success: false, Message: err.Error()})
		return
	}

	slog.InfoContext(ctx, "cancel ticket success", slog.String("ticket_id", ticketId), traceIdAttr)

	writeJSONResponse(w, http.StatusOK, model.CancelTicketResponse{
		Success: true,
		Message: "ticket cancelled",
		Balance: in.Store.Ledger.Balance(),
	})
}

func (in TicketHttp) activate(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer.Start(r.Context(), "TicketHttp.activate")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	ticketId := r.PathValue("id")

	t, err := in.Store.Activate(ctx, ticketId)
	if err != nil {
		slog.DebugContext(ctx, "activate ticket rejected", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, httpErrorForTicket(err))
		return
	}

	slog.InfoContext(ctx, "activate ticket success", slog.String("ticket_id", ticketId), traceIdAttr)

	writeJSONResponse(w, http.StatusOK, t)
}

func (in TicketHttp) redeem(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer.Start(r.Context(), "TicketHttp.redeem")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	ticketId := r.PathValue("id")

	err := in.Store.MarkUsed(ctx, ticketId)
	if err != nil {
		slog.DebugContext(ctx, "redeem ticket rejected", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, httpErrorForTicket(err))
		return
	}

	slog.InfoContext(ctx, "redeem ticket success", slog.String("ticket_id", ticketId), traceIdAttr)

	writeJSONResponse(w, http.StatusOK, nil)
}

func (in TicketHttp) remaining(w http.ResponseWriter, r *http.Request) {
	ticketId := r.PathValue("id")

	writeJSONResponse(w, http.StatusOK, model.RemainingSecondsResponse{
		TicketId:         ticketId,
		RemainingSeconds: in.Store.RemainingSeconds(ticketId),
	})
}

func httpErrorForTicket(err error) error {
	switch {
	case errors.Is(err, ticket.ErrTicketNotFound):
		return &errs.HttpError{Code: http.StatusNotFound, Message: err.Error()}
	case errors.Is(err, ticket.ErrNotStored), errors.Is(err, ticket.ErrNotActive),
		errors.Is(err, ticket.ErrNotCancellable), errors.Is(err, ticket.ErrCancelWindowExpired):
		return &errs.HttpError{Code: http.StatusConflict, Message: err.Error()}
	default:
		return err
	}
}
