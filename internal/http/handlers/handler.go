package handlers

import (
	"errors"
	"net/http"

	"mining_hub/internal/domain"
	"mining_hub/internal/oracle"
	"mining_hub/internal/repository"
	"mining_hub/internal/service"
	"mining_hub/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Handler struct {
	DB          *pgxpool.Pool
	Oracle      oracle.Oracle
	Hub         *ws.Hub
	Auth        *service.AuthService
	Lifecycle   *service.LifecycleService
	Funds       *service.FundsService
	UserRepo    *repository.UserRepository
	CardTypes   *repository.CardTypeRepository
	Cards       *repository.UserCardRepository
	History     *repository.CardHistoryRepository
	Earnings    *repository.DailyEarningRepository
	FundReqRepo *repository.FundRequestRepository
}

func NewHandler(db *pgxpool.Pool, orc oracle.Oracle, hub *ws.Hub) *Handler {
	return &Handler{
		DB:          db,
		Oracle:      orc,
		Hub:         hub,
		Auth:        service.NewAuthService(db),
		Lifecycle:   service.NewLifecycleService(db, orc),
		Funds:       service.NewFundsService(db),
		UserRepo:    repository.NewUserRepository(db),
		CardTypes:   repository.NewCardTypeRepository(db),
		Cards:       repository.NewUserCardRepository(db),
		History:     repository.NewCardHistoryRepository(db),
		Earnings:    repository.NewDailyEarningRepository(db),
		FundReqRepo: repository.NewFundRequestRepository(db),
	}
}

func getUserID(c *gin.Context) (int64, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	id, ok := uidVal.(int64)
	return id, ok
}

// respondError maps domain failures to status codes so the client can
// distinguish e.g. insufficient balance from the price feed being down.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": "invalid card state"})
	case errors.Is(err, domain.ErrAlreadySold):
		c.JSON(http.StatusConflict, gin.H{"error": "already sold"})
	case errors.Is(err, domain.ErrRequestDecided):
		c.JSON(http.StatusConflict, gin.H{"error": "request already decided"})
	case errors.Is(err, domain.ErrUplineAlreadySet):
		c.JSON(http.StatusConflict, gin.H{"error": "upline already set"})
	case errors.Is(err, domain.ErrInsufficientFunds):
		c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient funds"})
	case errors.Is(err, domain.ErrOracleUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "price feed unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	}
}
