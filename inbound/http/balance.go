package http

import (
	"cafeteria-pass/common"
	"cafeteria-pass/common/constant"
	"cafeteria-pass/common/errs"
	"cafeteria-pass/common/otel"
	"cafeteria-pass/ledger"
	"cafeteria-pass/model"
	"encoding/json"
	"github.com/go-playground/validator/v10"
	"log/slog"
	"net/http"
)

type BalanceHttp struct {
	Ledger   *ledger.Ledger
	Validate *validator.Validate
}

func RegisterBalanceHttp(mux *http.ServeMux, l *ledger.Ledger, validate *validator.Validate) *BalanceHttp {
	in := &BalanceHttp{
		Ledger:   l,
		Validate: validate,
	}

	mux.HandleFunc("GET /api/balance", in.get)
	mux.HandleFunc("POST /api/balance/charge", in.charge)

	return in
}

func (in BalanceHttp) get(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, model.BalanceResponse{Balance: in.Ledger.Balance()})
}

func (in BalanceHttp) charge(w http.ResponseWriter, r *http.Request) {
	var req model.ChargeBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, &errs.HttpError{Code: http.StatusBadRequest, Message: "Invalid request"})
		return
	}

	if err := in.Validate.Struct(req); err != nil {
		writeErrorResponse(w, err)
		return
	}

	ctx, span := otel.Tracer.Start(r.Context(), "BalanceHttp.charge")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	balance, err := in.Ledger.Charge(ctx, req.Amount)
	if err != nil {
		slog.DebugContext(ctx, "charge rejected", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		writeErrorResponse(w, &errs.HttpError{Code: http.StatusBadRequest, Message: err.Error()})
		return
	}

	slog.InfoContext(ctx, "charge success", slog.Int64("amount", req.Amount), traceIdAttr)

	writeJSONResponse(w, http.StatusOK, model.BalanceResponse{Balance: balance})
}
