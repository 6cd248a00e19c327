package handlers

import (
	"net/http"
	"time"

	"mining_hub/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Me returns the caller's profile, balances and today's mined sats.
func (h *Handler) Me(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.UserRepo.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	today, err := h.Earnings.Today(c.Request.Context(), userID, time.Now().UTC())
	if err != nil {
		logger.Warn("today earnings lookup failed", "user_id", userID, "error", err)
		today = decimal.Zero
	}

	c.JSON(http.StatusOK, gin.H{
		"user":             user,
		"today_mined_sats": today,
	})
}
