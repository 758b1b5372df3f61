package waitingdata

import (
	"cafeteria-pass/common/constant"
	"cafeteria-pass/model"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ErrNotFound means the object store has no waiting-data object for the
// requested day. Callers may skip retrying; there is simply no forecast.
var ErrNotFound = errors.New("not found")

// Fetcher pulls one day of congestion records from the external object
// store. A single bounded GET, no retries; retry policy belongs to callers.
type Fetcher struct {
	BaseUrl string
	Client  *http.Client

	Timeout time.Duration
}

func NewFetcher(baseUrl string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = constant.WaitingFetchTimeout
	}

	return &Fetcher{
		BaseUrl: baseUrl,
		Client:  &http.Client{Timeout: timeout},
		Timeout: timeout,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, dateKey string) ([]model.WaitingData, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	url := fmt.Sprintf("%s/waiting-data/%s.json", f.BaseUrl, dateKey)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		slog.DebugContext(ctx, "waiting data fetch failed",
			slog.String("date_key", dateKey),
			slog.Any(constant.LogFieldErr, err))
		return nil, fmt.Errorf("fetch waiting data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch waiting data: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read waiting data body: %w", err)
	}

	var records []model.WaitingData
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("parse waiting data: %w", err)
	}

	return records, nil
}
