package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hugo-lorenzo-mato/caso/internal/core"
)

// HTTP POSTs records as a JSON array to a collector endpoint.
type HTTP struct {
	url    string
	client *http.Client
}

// NewHTTP creates an HTTP messenger. A zero timeout means no client timeout.
func NewHTTP(url string, timeout time.Duration) *HTTP {
	return &HTTP{url: url, client: &http.Client{Timeout: timeout}}
}

// Name implements core.Messenger.
func (h *HTTP) Name() string { return "http" }

// Push implements core.Messenger. Any non-2xx answer is a failure.
func (h *HTTP) Push(ctx context.Context, records []core.Record) error {
	if records == nil {
		records = []core.Record{}
	}
	body, err := json.Marshal(records)
	if err != nil {
		return core.ErrValidation(core.CodePushRejected, "encoding records").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return core.ErrValidation(core.CodeInvalidConfig, "building request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return core.ErrNetwork(core.CodeSinkUnreachable, "posting records to "+h.url).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := fmt.Sprintf("collector answered %s: %s", resp.Status, bytes.TrimSpace(snippet))
		if permanentStatus(resp.StatusCode) {
			return core.ErrValidation(core.CodePushRejected, msg)
		}
		return core.ErrNetwork(core.CodePushFailed, msg)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// permanentStatus reports client errors that resending the same batch
// cannot fix.
func permanentStatus(code int) bool {
	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
		return false
	}
	return code >= 400 && code < 500
}
