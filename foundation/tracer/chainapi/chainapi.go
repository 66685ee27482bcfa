// Package chainapi provides a client for the blockchain.info public API.
// The API is free but aggressively rate limited, so every call is paced
// and HTTP 429 responses are retried with a delay.
package chainapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Default client settings. The pacing values match the terms of use of
// the blockchain.info API.
const (
	DefaultHost       = "https://blockchain.info"
	DefaultPaceDelay  = 10 * time.Second
	DefaultRetryDelay = 10 * time.Second
	DefaultMaxRetries = 3
)

// EventHandler defines a function that is called when notable events
// occur during API calls, such as retries after a rate limit response.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to construct a client.
type Config struct {
	Host       string
	PaceDelay  time.Duration
	RetryDelay time.Duration
	MaxRetries int
	Client     *http.Client
	EvHandler  EventHandler
}

// Client knows how to query the blockchain.info endpoints the tracer needs.
type Client struct {
	host       string
	paceDelay  time.Duration
	retryDelay time.Duration
	maxRetries int
	client     *http.Client
	evHandler  EventHandler
}

// New constructs a client, applying defaults for any zero value settings.
func New(cfg Config) *Client {
	c := Client{
		host:       cfg.Host,
		paceDelay:  cfg.PaceDelay,
		retryDelay: cfg.RetryDelay,
		maxRetries: cfg.MaxRetries,
		client:     cfg.Client,
		evHandler:  cfg.EvHandler,
	}

	if c.host == "" {
		c.host = DefaultHost
	}
	if c.paceDelay == 0 {
		c.paceDelay = DefaultPaceDelay
	}
	if c.retryDelay == 0 {
		c.retryDelay = DefaultRetryDelay
	}
	if c.maxRetries == 0 {
		c.maxRetries = DefaultMaxRetries
	}
	if c.client == nil {
		c.client = http.DefaultClient
	}
	if c.evHandler == nil {
		c.evHandler = func(v string, args ...any) {}
	}

	return &c
}

// Address returns the address information including its most recent
// transactions, capped at the specified limit.
func (c *Client) Address(ctx context.Context, addr string, limit int) (Address, error) {
	url := fmt.Sprintf("%s/rawaddr/%s?limit=%d", c.host, addr, limit)

	var address Address
	if err := c.get(ctx, url, &address); err != nil {
		return Address{}, fmt.Errorf("query address %s: %w", addr, err)
	}

	return address, nil
}

// TxCounts performs a batch query for the transaction count of every
// specified address. Addresses missing from the response are reported
// with a count of -1 so callers can tell errors apart from inactivity.
func (c *Client) TxCounts(ctx context.Context, addrs []string) (map[string]int, error) {
	counts := make(map[string]int, len(addrs))
	for _, addr := range addrs {
		counts[addr] = -1
	}

	u := fmt.Sprintf("%s/multiaddr?active=%s", c.host, url.QueryEscape(strings.Join(addrs, "|")))

	var ma multiAddr
	if err := c.get(ctx, u, &ma); err != nil {
		return counts, fmt.Errorf("batch query of %d addresses: %w", len(addrs), err)
	}

	for _, info := range ma.Addresses {
		if _, exists := counts[info.Address]; exists {
			counts[info.Address] = info.TxCount
		}
	}

	return counts, nil
}

// =============================================================================

// get performs the HTTP call with rate limit retries and then pauses to
// respect the pacing the API expects between calls.
func (c *Client) get(ctx context.Context, url string, v any) error {
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()

			if attempt >= c.maxRetries {
				return fmt.Errorf("rate limited after %d retries", c.maxRetries)
			}

			c.evHandler("chainapi: get: rate limited, waiting %v before retry %d", c.retryDelay, attempt+1)
			if err := wait(ctx, c.retryDelay); err != nil {
				return err
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return fmt.Errorf("unexpected status code %d", resp.StatusCode)
		}

		err = json.NewDecoder(resp.Body).Decode(v)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}

		// Pause between calls so the next one is not rate limited.
		return wait(ctx, c.paceDelay)
	}
}

// wait blocks for the specified duration unless the context is canceled
// first.
func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
