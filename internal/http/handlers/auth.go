package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	TgID         int64  `json:"tg_id" binding:"required"`
	Username     string `json:"username"`
	ReferralCode string `json:"referral_code"`
}

// Login creates the user on first sight and returns a session token.
// The Telegram payload is verified by the gateway in front of this
// service; by the time a request lands here the tg id is trusted.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, token, err := h.Auth.Login(c.Request.Context(), req.TgID, req.Username, req.ReferralCode)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}
