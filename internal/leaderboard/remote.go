package leaderboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// RemoteClient talks to a hosted PostgREST table (the REST face of a
// Supabase project).
type RemoteClient struct {
	baseURL    string
	apiKey     string
	table      string
	httpClient *http.Client
}

// NewRemoteClient creates a client for the given project URL.
// Returns nil if baseURL is empty (remote board disabled).
func NewRemoteClient(baseURL, apiKey, table string) *RemoteClient {
	if baseURL == "" {
		return nil
	}
	if table == "" {
		table = "leaderboard"
	}
	return &RemoteClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		table:   table,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Enabled returns true if the client has somewhere to send requests.
func (c *RemoteClient) Enabled() bool {
	return c != nil && c.baseURL != ""
}

func (c *RemoteClient) endpoint() string {
	return c.baseURL + "/rest/v1/" + url.PathEscape(c.table)
}

// row is the wire shape of a table row.
type row struct {
	Name      string    `json:"name"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Top fetches the best scores, highest first.
func (c *RemoteClient) Top(ctx context.Context, limit int) ([]Entry, error) {
	if !c.Enabled() {
		return nil, unavailable("fetch", fmt.Errorf("remote leaderboard not configured"))
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	q := url.Values{}
	q.Set("select", "name,score,created_at")
	q.Set("order", "score.desc")
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint()+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	body, err := c.do(req)
	if err != nil {
		return nil, unavailable("fetch", err)
	}

	var rows []row
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, unavailable("fetch", fmt.Errorf("unmarshal response: %w", err))
	}
	entries := make([]Entry, len(rows))
	for i, r := range rows {
		entries[i] = Entry{Name: r.Name, Score: r.Score, CreatedAt: r.CreatedAt}
	}
	slog.Debug("leaderboard fetched", "rows", len(entries))
	return entries, nil
}

// Submit inserts one row.
func (c *RemoteClient) Submit(ctx context.Context, e Entry) error {
	if !c.Enabled() {
		return unavailable("submit", fmt.Errorf("remote leaderboard not configured"))
	}
	body, err := json.Marshal([]row{{Name: e.Name, Score: e.Score, CreatedAt: e.CreatedAt}})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")
	if _, err := c.do(req); err != nil {
		return unavailable("submit", err)
	}
	slog.Debug("leaderboard score submitted", "name", e.Name, "score", e.Score)
	return nil
}

func (c *RemoteClient) do(req *http.Request) ([]byte, error) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
