// Package webhook notifies an external endpoint about sync and
// assignment activity.
package webhook

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

var (
	// timeout is the timeout for webhook request. Default to 30 seconds.
	timeout = 30 * time.Second
)

// RequestPayload is the body posted to the configured endpoint.
type RequestPayload struct {
	URL          string `json:"-"`
	ActivityType string `json:"activityType"`
	ClientID     string `json:"clientId,omitempty"`
	Category     string `json:"category,omitempty"`
	Applied      int    `json:"applied,omitempty"`
	Failed       int    `json:"failed,omitempty"`
	Total        int    `json:"total,omitempty"`
	CreatedTs    int64  `json:"createdTs"`
}

const (
	ActivityBulkAssignCompleted = "coachcal.bulkAssign.completed"
	ActivitySyncCompleted       = "coachcal.sync.completed"
	ActivitySyncFailed          = "coachcal.sync.failed"
)

// Post posts the message to webhook endpoint.
func Post(requestPayload *RequestPayload) error {
	body, err := json.Marshal(requestPayload)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal webhook request to %s", requestPayload.URL)
	}

	req, err := http.NewRequest("POST", requestPayload.URL, bytes.NewBuffer(body))
	if err != nil {
		return errors.Wrapf(err, "failed to construct webhook request to %s", requestPayload.URL)
	}

	req.Header.Set("Content-Type", "application/json")
	client := &http.Client{
		Timeout: timeout,
	}
	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to post webhook to %s", requestPayload.URL)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "failed to read webhook response from %s", requestPayload.URL)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("failed to post webhook %s, status code: %d, response body: %s", requestPayload.URL, resp.StatusCode, b)
	}
	return nil
}

// PostAsync posts the message to webhook endpoint asynchronously.
// It spawns a new goroutine to handle the request and does not wait for the response.
func PostAsync(requestPayload *RequestPayload) {
	go func() {
		if err := Post(requestPayload); err != nil {
			// Since we're in a goroutine, we can only log the error
			slog.Warn("Failed to dispatch webhook asynchronously",
				slog.String("url", requestPayload.URL),
				slog.String("activityType", requestPayload.ActivityType),
				slog.Any("err", err))
		}
	}()
}
