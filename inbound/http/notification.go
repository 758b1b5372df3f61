package http

import (
	"cafeteria-pass/common/constant"
	"cafeteria-pass/model"
	"cafeteria-pass/outbound/storage"
	"encoding/json"
	"net/http"
)

type NotificationHttp struct {
	Storage storage.Storage
}

func RegisterNotificationHttp(mux *http.ServeMux, st storage.Storage) *NotificationHttp {
	in := &NotificationHttp{Storage: st}

	mux.HandleFunc("GET /api/notifications", in.list)

	return in
}

func (in NotificationHttp) list(w http.ResponseWriter, r *http.Request) {
	feed := []model.Notification{}

	raw, err := in.Storage.Get(r.Context(), constant.StorageKeyNotifications)
	if err == nil {
		// Malformed state reads as an empty feed.
		_ = json.Unmarshal([]byte(raw), &feed)
	}

	writeJSONResponse(w, http.StatusOK, feed)
}
