package handlers

import (
	"context"
	"net/http"
	"strconv"

	"mining_hub/internal/domain"
	"mining_hub/internal/mining"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type cardTypeView struct {
	domain.CardType
	PriceUSD *decimal.Decimal `json:"price_usd,omitempty"`
}

// ListCardTypes returns the purchasable tiers. The USD price is quoted
// from the current BTC rate and omitted while the feed is down; the
// actual charge is computed again inside the purchase transaction.
func (h *Handler) ListCardTypes(c *gin.Context) {
	types, err := h.CardTypes.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	rate, rateOK := h.Oracle.Rate()
	out := make([]cardTypeView, 0, len(types))
	for _, ct := range types {
		view := cardTypeView{CardType: ct}
		if rateOK {
			price := mining.CardPriceUSD(ct.NominalSats, rate)
			view.PriceUSD = &price
		}
		out = append(out, view)
	}

	c.JSON(http.StatusOK, gin.H{"card_types": out})
}

// CardTypeSerials reports which serial numbers of a tier are taken, so
// the client can render the collection grid.
func (h *Handler) CardTypeSerials(c *gin.Context) {
	typeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid card type id"})
		return
	}

	ct, err := h.CardTypes.GetByID(c.Request.Context(), typeID)
	if err != nil {
		respondError(c, err)
		return
	}
	sold, err := h.Cards.SoldSerials(c.Request.Context(), typeID)
	if err != nil {
		respondError(c, err)
		return
	}

	type serialView struct {
		Serial int  `json:"serial"`
		Sold   bool `json:"sold"`
	}
	serials := make([]serialView, 0, ct.MaxSupply)
	for i := 1; i <= ct.MaxSupply; i++ {
		serials = append(serials, serialView{Serial: i, Sold: sold[i]})
	}

	c.JSON(http.StatusOK, gin.H{"card_type": ct, "serials": serials})
}

// MyCards lists the caller's owned cards.
func (h *Handler) MyCards(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	cards, err := h.Cards.ListByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cards": cards})
}

type buyCardRequest struct {
	CardTypeID int64 `json:"card_type_id" binding:"required"`
	Serial     int   `json:"serial"`
}

// BuyCard charges the wallet at the current BTC rate and mints the
// card in Inactive state. Serial 0 means "any free serial".
func (h *Handler) BuyCard(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req buyCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	card, err := h.Lifecycle.Purchase(c.Request.Context(), userID, req.CardTypeID, req.Serial)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"card": card})
}

// StartCard begins a mining session on an Inactive card.
func (h *Handler) StartCard(c *gin.Context) {
	h.cardAction(c, h.Lifecycle.Start)
}

// StopCard ends the session and moves capital into cooldown.
func (h *Handler) StopCard(c *gin.Context) {
	h.cardAction(c, h.Lifecycle.Stop)
}

func (h *Handler) cardAction(c *gin.Context, fn func(ctx context.Context, userID, cardID int64) (*domain.UserCard, error)) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	cardID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid card id"})
		return
	}

	card, err := fn(c.Request.Context(), userID, cardID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"card": card})
}

// SellCard returns an Inactive card to the pool and refunds the
// purchase price.
func (h *Handler) SellCard(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	cardID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid card id"})
		return
	}

	refund, err := h.Lifecycle.SellBack(c.Request.Context(), userID, cardID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"refund_usd": refund})
}

// CardHistory returns the ownership and session log of one serial.
func (h *Handler) CardHistory(c *gin.Context) {
	typeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid card type id"})
		return
	}
	serial, err := strconv.Atoi(c.Param("serial"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid serial"})
		return
	}

	events, err := h.History.ListBySerial(c.Request.Context(), typeID, serial)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": events})
}
