package http

import (
	"cafeteria-pass/common"
	"cafeteria-pass/common/constant"
	"cafeteria-pass/common/errs"
	"cafeteria-pass/common/otel"
	"cafeteria-pass/model"
	"cafeteria-pass/outbound/waitingdata"
	"cafeteria-pass/waiting"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
)

var dateKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type WaitingHttp struct {
	Cache *waiting.Cache
}

func RegisterWaitingHttp(mux *http.ServeMux, cache *waiting.Cache) *WaitingHttp {
	in := &WaitingHttp{Cache: cache}

	mux.HandleFunc("GET /api/waiting/{dateKey}", in.get)

	return in
}

func (in WaitingHttp) get(w http.ResponseWriter, r *http.Request) {
	dateKey := r.PathValue("dateKey")
	if !dateKeyPattern.MatchString(dateKey) {
		writeErrorResponse(w, &errs.HttpError{Code: http.StatusBadRequest, Message: "Invalid date key"})
		return
	}

	ctx, span := otel.Tracer.Start(r.Context(), "WaitingHttp.get")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	result, err := in.Cache.Get(ctx, dateKey)
	if err != nil {
		if errors.Is(err, waitingdata.ErrNotFound) {
			slog.DebugContext(ctx, "no waiting data for date", slog.String("date_key", dateKey), traceIdAttr)
			writeErrorResponse(w, &errs.HttpError{Code: http.StatusNotFound, Message: "not found"})
			return
		}

		slog.ErrorContext(ctx, "failed to get waiting data", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		common.UtilSpanError(span, err)
		writeErrorResponse(w, &errs.HttpError{Code: http.StatusBadGateway, Message: "Waiting data unavailable"})
		return
	}

	// Backfill estimates the source left empty with the per-corner model.
	for i := range result.Data {
		if result.Data[i].EstWaitTimeMin > 0 {
			continue
		}

		cornerId := result.Data[i].CornerId
		result.Data[i].EstWaitTimeMin = float64(waiting.Estimate(
			result.Data[i].QueueLen,
			constant.CornerServiceRate(cornerId),
			constant.CornerOverheadMinutes(cornerId),
		))
	}

	writeJSONResponse(w, http.StatusOK, model.WaitingDataResponse{
		DateKey: dateKey,
		Cached:  result.Cached,
		Data:    result.Data,
	})
}
