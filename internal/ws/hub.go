// Package ws pushes live profit and balance updates to connected
// mini-app clients after each accrual sweep.
package ws

import (
	"encoding/json"
	"sync"

	"mining_hub/internal/logger"

	"github.com/shopspring/decimal"
)

// ProfitUpdate is the payload sent after an accrual tick lands on one
// of the user's cards.
type ProfitUpdate struct {
	Type       string          `json:"type"`
	ProfitSats decimal.Decimal `json:"profit_sats"`
	ProfitUSD  decimal.Decimal `json:"profit_usd"`
}

// Hub tracks connected clients by user id. A user may hold several
// connections (multiple devices); all of them receive updates.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[int64]map[*Client]bool)}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.UserID] == nil {
		h.clients[c.UserID] = make(map[*Client]bool)
	}
	h.clients[c.UserID][c] = true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns := h.clients[c.UserID]; conns != nil {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.clients, c.UserID)
		}
	}
}

// NotifyProfit implements service.Notifier. Slow clients are skipped
// rather than blocking the accrual sweep.
func (h *Hub) NotifyProfit(userID int64, profitSats, profitUSD decimal.Decimal) {
	payload, err := json.Marshal(ProfitUpdate{
		Type:       "profit",
		ProfitSats: profitSats,
		ProfitUSD:  profitUSD,
	})
	if err != nil {
		logger.Error("failed to marshal profit update", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		select {
		case c.send <- payload:
		default:
		}
	}
}
