package entropy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

const randomOrgURL = "https://api.random.org/json-rpc/4/invoke"

// Client provides true random numbers from random.org with a local pool.
// Refills run in the background; while the pool is empty draws come from
// crypto/rand, so a slow or flaky network never stalls a turn.
type Client struct {
	apiKey   string
	endpoint string
	batch    int
	client   *http.Client

	mu        sync.Mutex
	pool      []float64
	refilling bool
}

// NewClient creates a random.org client. Returns nil if apiKey is empty.
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey:   apiKey,
		endpoint: randomOrgURL,
		batch:    100,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Float returns a random float64 in [0, 1). A nil Client uses crypto/rand.
// It never waits on the network.
func (c *Client) Float() float64 {
	if c == nil {
		return cryptoRandFloat()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pool) < 10 && !c.refilling {
		c.refilling = true
		go c.refill()
	}
	if len(c.pool) == 0 {
		return cryptoRandFloat()
	}

	val := c.pool[0]
	c.pool = c.pool[1:]
	return val
}

// Enabled returns true if the client has a valid API key.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      int       `json:"id"`
}

type rpcParams struct {
	APIKey        string `json:"apiKey"`
	N             int    `json:"n"`
	DecimalPlaces int    `json:"decimalPlaces"`
}

type rpcResponse struct {
	Result struct {
		Random struct {
			Data []float64 `json:"data"`
		} `json:"random"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// refill fetches a batch without holding mu, then tops up the pool.
func (c *Client) refill() {
	data, err := c.fetch()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.refilling = false
	if err != nil {
		slog.Debug("random.org refill failed", "error", err)
		return
	}
	for _, f := range data {
		// decimalPlaces=6 can round up to exactly 1.0.
		if f >= 0 && f < 1 {
			c.pool = append(c.pool, f)
		}
	}
	slog.Debug("random.org pool refilled", "count", len(data), "pool", len(c.pool))
}

func (c *Client) fetch() ([]float64, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "generateDecimalFractions",
		Params:  rpcParams{APIKey: c.apiKey, N: c.batch, DecimalPlaces: 6},
		ID:      1,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	resp, err := c.client.Post(c.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var result rpcResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("API error: %s", result.Error.Message)
	}
	return result.Result.Random.Data, nil
}

// NewFactory returns a constructor for per-game sources: the shared
// random.org pool when a key is set, a seeded generator when seed is non-zero
// (game n gets seed+n, so the first game replays seed), crypto/rand otherwise.
func NewFactory(apiKey string, seed uint64) func() Source {
	if c := NewClient(apiKey); c != nil {
		return func() Source { return c }
	}
	if seed != 0 {
		var n atomic.Uint64
		return func() Source { return NewSeeded(seed + n.Add(1) - 1) }
	}
	return func() Source { return Crypto{} }
}
