// Package oracle supplies the BTC/USD rate consumed by the accrual and
// lifecycle engines. The rate is polled in the background and served
// from an explicitly-owned cache; readers never trigger a live fetch.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"mining_hub/internal/logger"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
)

// Oracle returns the current BTC/USD rate. ok is false when no rate is
// known or the cached one is stale; callers must then defer pricing
// rather than use a zero or stale value.
type Oracle interface {
	Rate() (rate decimal.Decimal, ok bool)
}

// PricePoller keeps a process-local last-known price with a staleness
// threshold and refreshes it on a fixed interval.
type PricePoller struct {
	url        string
	staleAfter time.Duration
	client     *http.Client

	mu        sync.RWMutex
	price     decimal.Decimal
	fetchedAt time.Time
}

func NewPricePoller(url string, staleAfter time.Duration) *PricePoller {
	return &PricePoller{
		url:        url,
		staleAfter: staleAfter,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Rate returns the cached price. ok is false until the first successful
// fetch and again once the cached value outlives the staleness window.
func (p *PricePoller) Rate() (decimal.Decimal, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.fetchedAt.IsZero() {
		return decimal.Zero, false
	}
	if time.Since(p.fetchedAt) > p.staleAfter {
		return p.price, false
	}
	return p.price, true
}

// Run polls until ctx is cancelled. One immediate fetch, then a fixed
// interval; individual failures are retried with backoff and otherwise
// only logged, the previous price stays served until it goes stale.
func (p *PricePoller) Run(ctx context.Context, interval time.Duration) {
	p.refresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refresh(ctx)
		}
	}
}

func (p *PricePoller) refresh(ctx context.Context) {
	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(2*time.Second))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		price, err := p.fetch(ctx)
		if err != nil {
			return retry.RetryableError(err)
		}

		p.mu.Lock()
		p.price = price
		p.fetchedAt = time.Now()
		p.mu.Unlock()

		logger.Debug("oracle price updated", "btc_usd", price.String())
		return nil
	})
	if err != nil {
		logger.Error("oracle price refresh failed", "error", err)
	}
}

type coingeckoResponse struct {
	Bitcoin struct {
		USD json.Number `json:"usd"`
	} `json:"bitcoin"`
}

func (p *PricePoller) fetch(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return decimal.Zero, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("oracle responded with status %d", resp.StatusCode)
	}

	var body coingeckoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, err
	}

	price, err := decimal.NewFromString(body.Bitcoin.USD.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q: %w", body.Bitcoin.USD, err)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("non-positive price %s", price)
	}
	return price, nil
}

// Fixed is an Oracle pinned to one rate, used in tests.
type Fixed struct {
	Price decimal.Decimal
	Down  bool
}

func (f Fixed) Rate() (decimal.Decimal, bool) {
	if f.Down {
		return decimal.Zero, false
	}
	return f.Price, true
}
