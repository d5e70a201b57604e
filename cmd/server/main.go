package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"nest/backend/config"
	"nest/backend/internal/api/handler"
	"nest/backend/internal/api/router"
	"nest/backend/internal/realtime"
	"nest/backend/internal/repository"
	"nest/backend/internal/service"
	"nest/backend/pkg/database"
	"nest/backend/pkg/jwt"
	applogger "nest/backend/pkg/logger"
	"nest/backend/pkg/mail"
	"nest/backend/pkg/redis"
)

func main() {
	// 1. configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logging
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. database + migrations
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("unwrap sql.DB failed", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}

	// 4. Redis is optional: without it, token revocation, rate limiting and
	// cross-instance event fan-out degrade but the server still runs.
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, running degraded", zap.Error(err))
		rdb = nil
	}

	// 5. shared infrastructure
	jwtMgr := jwt.NewManager(&cfg.Auth)
	mailer := mail.NewMailer(&cfg.Mail, logger)

	hubCtx, stopHub := context.WithCancel(context.Background())
	hub := realtime.NewHub(rdb, logger)
	go hub.Run(hubCtx)

	// 6. dependency wiring: repository -> service -> handler
	repo := repository.NewRepository(db)
	svc := service.NewService(repo, rdb, jwtMgr, mailer, cfg, logger, hub)
	h := handler.NewHandler(svc)

	engine := router.Setup(cfg, h, hub, jwtMgr, rdb, logger)

	// 7. background workers
	var pushWorker *service.PushWorker
	if cfg.Push.Enabled {
		pushWorker = service.NewPushWorker(repo.Push, &cfg.Push, logger)
		pushWorker.Start()
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	if cfg.Sweep.Enabled {
		go runOverdueSweeper(sweepCtx, svc.Request, cfg.Sweep.Interval, logger)
	}

	// 8. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second, // exports can be slow
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	stopSweep()
	if pushWorker != nil {
		pushWorker.Stop()
	}
	stopHub()

	if closeDB, _ := db.DB(); closeDB != nil {
		closeDB.Close()
	}
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("stopped")
}

// runOverdueSweeper periodically flips approved requests past their due
// date to Overdue. One run happens at startup so a restart never delays
// overdue detection by a full interval.
func runOverdueSweeper(ctx context.Context, requests *service.RequestService, interval time.Duration, logger *zap.Logger) {
	sweep := func() {
		sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if _, err := requests.RunOverdueSweep(sweepCtx); err != nil {
			logger.Error("overdue sweep failed", zap.Error(err))
		}
	}

	sweep()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
