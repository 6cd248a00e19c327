package ws

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_NotifyProfitReachesAllUserConnections(t *testing.T) {
	h := NewHub()

	c1 := NewClient(1, nil, h)
	c2 := NewClient(1, nil, h)
	other := NewClient(2, nil, h)
	h.register(c1)
	h.register(c2)
	h.register(other)

	h.NotifyProfit(1, decimal.RequireFromString("0.0114"), decimal.RequireFromString("0.0000074"))

	for _, c := range []*Client{c1, c2} {
		select {
		case msg := <-c.send:
			var upd ProfitUpdate
			require.NoError(t, json.Unmarshal(msg, &upd))
			assert.Equal(t, "profit", upd.Type)
			assert.True(t, upd.ProfitSats.Equal(decimal.RequireFromString("0.0114")))
		default:
			t.Fatal("expected a queued update")
		}
	}

	select {
	case <-other.send:
		t.Fatal("user 2 must not receive user 1 updates")
	default:
	}
}

func TestHub_UnregisterStopsDelivery(t *testing.T) {
	h := NewHub()
	c := NewClient(7, nil, h)
	h.register(c)
	h.unregister(c)

	h.NotifyProfit(7, decimal.NewFromInt(1), decimal.Zero)

	select {
	case <-c.send:
		t.Fatal("unregistered client must not receive updates")
	default:
	}
}

func TestHub_SlowClientDoesNotBlock(t *testing.T) {
	h := NewHub()
	c := NewClient(3, nil, h)
	c.send = make(chan []byte) // unbuffered, nobody reading
	h.register(c)

	done := make(chan struct{})
	go func() {
		h.NotifyProfit(3, decimal.NewFromInt(1), decimal.Zero)
		close(done)
	}()

	select {
	case <-done:
	case <-c.send:
		t.Fatal("no reader expected")
	}
}
