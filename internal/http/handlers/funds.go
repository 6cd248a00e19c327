package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type depositRequest struct {
	AmountUSD decimal.Decimal `json:"amount_usd" binding:"required"`
}

// RequestDeposit files a pending top-up claim for admin review.
func (h *Handler) RequestDeposit(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AmountUSD.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	dep, err := h.Funds.RequestDeposit(c.Request.Context(), userID, req.AmountUSD)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"request": dep})
}

type withdrawalRequest struct {
	AmountUSD decimal.Decimal `json:"amount_usd" binding:"required"`
	Address   string          `json:"address" binding:"required"`
}

// RequestWithdrawal debits the wallet immediately; a rejection refunds.
func (h *Handler) RequestWithdrawal(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req withdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AmountUSD.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	wd, err := h.Funds.RequestWithdrawal(c.Request.Context(), userID, req.AmountUSD, req.Address)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"request": wd})
}
