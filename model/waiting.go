package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// WaitingData is one congestion snapshot for a corner. Upstream objects have
// drifted between "timestamp" and "time" for the first field, and numeric
// fields occasionally arrive as quoted strings; UnmarshalJSON tolerates both.
type WaitingData struct {
	Timestamp      string  `json:"timestamp"`
	RestaurantId   string  `json:"restaurantId"`
	CornerId       string  `json:"cornerId"`
	QueueLen       int     `json:"queueLen"`
	EstWaitTimeMin float64 `json:"estWaitTimeMin"`
}

func (w *WaitingData) UnmarshalJSON(data []byte) error {
	var raw struct {
		Timestamp      string `json:"timestamp"`
		Time           string `json:"time"`
		RestaurantId   string `json:"restaurantId"`
		CornerId       string `json:"cornerId"`
		QueueLen       any    `json:"queueLen"`
		EstWaitTimeMin any    `json:"estWaitTimeMin"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	ts := raw.Timestamp
	if ts == "" {
		ts = raw.Time
	}

	queueLen, err := coerceFloat(raw.QueueLen)
	if err != nil {
		return fmt.Errorf("queueLen: %w", err)
	}

	estWait, err := coerceFloat(raw.EstWaitTimeMin)
	if err != nil {
		return fmt.Errorf("estWaitTimeMin: %w", err)
	}

	w.Timestamp = ts
	w.RestaurantId = raw.RestaurantId
	w.CornerId = raw.CornerId
	w.QueueLen = int(queueLen)
	w.EstWaitTimeMin = estWait

	if w.QueueLen < 0 {
		w.QueueLen = 0
	}

	return nil
}

func coerceFloat(v any) (float64, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return val, nil
	case string:
		if val == "" {
			return 0, nil
		}

		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("not numeric: %q", val)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

type WaitingDataResponse struct {
	DateKey string        `json:"date_key"`
	Cached  bool          `json:"cached"`
	Data    []WaitingData `json:"data"`
}
