package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"homes-service/internal/store"
)

// FetchData returns a thunk that GETs endpoint and dispatches the decoded
// JSON body as UPDATE_DATA. On any failure nothing is dispatched and the
// error is returned to the caller.
func FetchData(client *http.Client, endpoint string) store.Thunk {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, d store.Dispatcher) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("session.FetchData: build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("session.FetchData: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("session.FetchData: %s returned status %d: %s", endpoint, resp.StatusCode, body)
		}

		var data any
		if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
			return fmt.Errorf("session.FetchData: decode body: %w", err)
		}
		return d.Dispatch(ctx, UpdateDataSet(data))
	}
}
