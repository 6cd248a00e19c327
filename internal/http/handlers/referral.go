package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Referral returns the caller's invite code and referral stats.
func (h *Handler) Referral(c *gin.Context) {
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
	count, err := h.UserRepo.CountReferrals(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referral_code":  user.ReferralCode,
		"referral_count": count,
		"referral_sats":  user.ReferralSats,
	})
}

type bindUplineRequest struct {
	ReferralCode string `json:"referral_code" binding:"required"`
}

// BindUpline attaches the caller to an inviter after signup. The link
// is permanent and self-referral is rejected.
func (h *Handler) BindUpline(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req bindUplineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	upline, err := h.UserRepo.GetByReferralCode(c.Request.Context(), req.ReferralCode)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.UserRepo.SetUpline(c.Request.Context(), userID, upline.ID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"upline_id": upline.ID})
}
