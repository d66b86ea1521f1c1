// Package history reads the action history kept by the automation backend
// and provides the history panel.
package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Capacity is how many actions the backend retains; Ring mirrors it.
const Capacity = 100

// Timestamp accepts the backend's mixed encodings: epoch seconds or
// milliseconds as a number, or an ISO-8601 string.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
			if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
				t.Time = parsed
				return nil
			}
		}
		return fmt.Errorf("unrecognised timestamp %q", s)
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("unrecognised timestamp %s", data)
	}
	if f > 1e12 {
		t.Time = time.UnixMilli(int64(f))
		return nil
	}
	sec := int64(f)
	t.Time = time.Unix(sec, int64((f-float64(sec))*1e9))
	return nil
}

// Result is the outcome the backend recorded for an action.
type Result struct {
	Success         bool   `json:"success"`
	Error           string `json:"error,omitempty"`
	ExecutionTimeMS int64  `json:"execution_time_ms,omitempty"`
}

// Action is one executed tool call.
type Action struct {
	ID        any            `json:"id"`
	Type      string         `json:"type"`
	Tool      string         `json:"tool"`
	Params    map[string]any `json:"params"`
	Timestamp Timestamp      `json:"timestamp"`
	Result    *Result        `json:"result,omitempty"`
}

// Failed reports whether the backend recorded the action as unsuccessful.
func (a Action) Failed() bool {
	return a.Result != nil && !a.Result.Success
}

// ErrorText is the recorded failure text, empty on success.
func (a Action) ErrorText() string {
	if a.Result == nil {
		return ""
	}
	return a.Result.Error
}

// Source fetches the current history, oldest first.
type Source interface {
	Fetch(ctx context.Context) ([]Action, error)
}

// HTTPSource reads GET {BaseURL}/api/actions/history.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

type historyResponse struct {
	Actions []Action `json:"actions"`
}

func (s HTTPSource) Fetch(ctx context.Context) ([]Action, error) {
	url := strings.TrimRight(s.BaseURL, "/") + "/api/actions/history"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build history request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch history: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var out historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return out.Actions, nil
}

// Ring keeps the newest Capacity actions.
type Ring struct {
	items []Action
	limit int
}

func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = Capacity
	}
	return &Ring{limit: capacity}
}

// Push appends actions, dropping the oldest beyond capacity.
func (r *Ring) Push(actions ...Action) {
	r.items = append(r.items, actions...)
	if over := len(r.items) - r.limit; over > 0 {
		r.items = append(r.items[:0:0], r.items[over:]...)
	}
}

// Replace swaps the contents for actions, keeping only the newest.
func (r *Ring) Replace(actions []Action) {
	r.items = nil
	r.Push(actions...)
}

func (r *Ring) Len() int { return len(r.items) }

// Items returns the actions oldest first.
func (r *Ring) Items() []Action {
	out := make([]Action, len(r.items))
	copy(out, r.items)
	return out
}
