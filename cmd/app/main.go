package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mining_hub/internal/config"
	"mining_hub/internal/db"
	httpServer "mining_hub/internal/http"
	"mining_hub/internal/http/handlers"
	"mining_hub/internal/http/middleware"
	"mining_hub/internal/logger"
	"mining_hub/internal/oracle"
	"mining_hub/internal/service"
	"mining_hub/internal/sweep"
	"mining_hub/internal/ws"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	service.InitJWT(cfg.JWTSecret)

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poller := oracle.NewPricePoller(cfg.OracleURL, cfg.OracleStaleAfter)
	go poller.Run(ctx, cfg.OraclePollInterval)

	hub := ws.NewHub()
	h := handlers.NewHandler(dbPool, poller, hub)

	accrual := service.NewAccrualService(dbPool, poller, hub, cfg.AccrualInterval)
	unlock := service.NewUnlockService(dbPool, h.Lifecycle)
	referral := service.NewReferralService(dbPool)

	var guard sweep.Guard
	if rg := sweep.NewRedisGuard(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); rg != nil {
		guard = rg
	} else {
		guard = sweep.NewLocalGuard()
	}

	referralHour := cfg.ReferralHourUTC
	runner := sweep.NewRunner(guard,
		sweep.Job{Name: "accrual", Interval: cfg.AccrualInterval, Run: accrual.RunOnce},
		sweep.Job{Name: "unlock", Interval: cfg.UnlockInterval, Run: unlock.RunOnce},
		sweep.Job{Name: "referral", AtHourUTC: &referralHour, Run: func(ctx context.Context, _ time.Time) error {
			return referral.RunOnce(ctx)
		}},
	)
	runner.Start(ctx)

	r := gin.Default()

	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	httpServer.RegisterRoutes(r, h, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited")
}
