package handlers

import (
	"context"
	"net/http"
	"strconv"

	"mining_hub/internal/domain"

	"github.com/gin-gonic/gin"
)

// RequireAdmin loads the caller and aborts unless they hold the ADMIN
// role. Must run after WithAuth.
func (h *Handler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := getUserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		user, err := h.UserRepo.GetByID(c.Request.Context(), userID)
		if err != nil || user.Role != domain.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// PendingRequests lists deposit and withdrawal claims awaiting a
// decision.
func (h *Handler) PendingRequests(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	deposits, err := h.FundReqRepo.ListPendingDeposits(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	withdrawals, err := h.FundReqRepo.ListPendingWithdrawals(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deposits":    deposits,
		"withdrawals": withdrawals,
	})
}

type decideRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note"`
}

// DecideDeposit approves or rejects a pending deposit.
func (h *Handler) DecideDeposit(c *gin.Context) {
	h.decide(c, h.Funds.DecideDeposit)
}

// DecideWithdrawal approves or rejects a pending withdrawal.
func (h *Handler) DecideWithdrawal(c *gin.Context) {
	h.decide(c, h.Funds.DecideWithdrawal)
}

func (h *Handler) decide(c *gin.Context, fn func(ctx context.Context, requestID int64, approve bool, note string) error) {
	requestID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	var req decideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := fn(c.Request.Context(), requestID, req.Approve, req.Note); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "decided"})
}

type createCardTypeRequest struct {
	Name        string  `json:"name" binding:"required"`
	NominalSats int64   `json:"nominal_sats" binding:"required"`
	ClientAPY   float64 `json:"client_apy" binding:"required"`
	ReferralAPY float64 `json:"referral_apy"`
	MaxSupply   int     `json:"max_supply" binding:"required"`
}

// CreateCardType adds a new tier with its full supply available.
func (h *Handler) CreateCardType(c *gin.Context) {
	var req createCardTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.NominalSats <= 0 || req.MaxSupply <= 0 || req.ClientAPY <= 0 || req.ReferralAPY < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid card type parameters"})
		return
	}

	ct := &domain.CardType{
		Name:        req.Name,
		NominalSats: req.NominalSats,
		ClientAPY:   req.ClientAPY,
		ReferralAPY: req.ReferralAPY,
		MaxSupply:   req.MaxSupply,
		Available:   req.MaxSupply,
		IsActive:    true,
	}
	if err := h.CardTypes.Create(c.Request.Context(), ct); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"card_type": ct})
}

type setCardTypeActiveRequest struct {
	Active bool `json:"active"`
}

// SetCardTypeActive hides or re-lists a tier on the storefront.
func (h *Handler) SetCardTypeActive(c *gin.Context) {
	typeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid card type id"})
		return
	}

	var req setCardTypeActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.CardTypes.SetActive(c.Request.Context(), typeID, req.Active); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

type setBannedRequest struct {
	Banned bool `json:"banned"`
}

// SetBanned blocks or unblocks a user's logins.
func (h *Handler) SetBanned(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req setBannedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.UserRepo.SetBanned(c.Request.Context(), userID, req.Banned); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}
