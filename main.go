package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	intconfig "titledesk/internal/config"
	router "titledesk/internal/http"
	"titledesk/internal/http/handlers"
	"titledesk/internal/notify"
	"titledesk/internal/repositories"
	"titledesk/internal/services"
	"titledesk/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	env := intconfig.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	logger, err := utils.InitLogger(env.AppEnv, env.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	rules, err := intconfig.LoadTaxRules(env.TaxRulesFile)
	if err != nil {
		logger.Fatal("failed to load tax rules", zap.String("file", env.TaxRulesFile), zap.Error(err))
	}

	if _, err := intconfig.ConnectDB(env); err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}
	defer intconfig.CloseDB()

	var rates services.RateRepository = repositories.RateRepository{}
	redisClient, err := intconfig.NewRedisClient(context.Background(), env)
	if err != nil {
		logger.Warn("redis unavailable, rate cache disabled", zap.String("addr", env.RedisAddr), zap.Error(err))
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		rates = repositories.CachedRateRepository{
			Source: repositories.RateRepository{},
			Client: redisClient,
			TTL:    env.RateCacheTTL,
		}
		logger.Info("rate cache enabled", zap.String("addr", env.RedisAddr), zap.Duration("ttl", env.RateCacheTTL))
	}

	hub := notify.NewHub(env.CORSAllowedOrigins, 16)

	svc := services.TaxService{
		Tickets:  repositories.TicketRepository{},
		Forms:    repositories.TaxFormRepository{},
		Rates:    rates,
		Notifier: hub,
		Rules:    rules,
	}

	r := router.NewRouter(env, handlers.TaxHandler{Service: svc, Hub: hub})

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", env.AppAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server shutdown failed", zap.Error(err))
	}

	logger.Info("server stopped")
}
