package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"

	"movers-api/config"
	"movers-api/handlers"
	"movers-api/metrics"
	"movers-api/middleware"
	"movers-api/notify"
	"movers-api/payment"
	"movers-api/routes"
	"movers-api/services"
	"movers-api/session"
	"movers-api/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := config.NewLogger(cfg)
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	clk := clock.WallClock
	db, err := config.OpenDB(cfg, clk)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	st := store.New(db)
	log.WithField("driver", cfg.DatabaseDriver).Info("database connected and migrated")

	loc, err := cfg.Location()
	if err != nil {
		log.WithError(err).Fatal("invalid analytics time zone")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var denylist session.Denylist = session.NewMemoryDenylist(clk)
	if cfg.RedisAddr != "" {
		rdb, err := session.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to redis")
		}
		defer rdb.Close()
		denylist = session.NewRedisDenylist(rdb, clk)
		log.WithField("addr", cfg.RedisAddr).Info("token denylist backed by redis")
	}

	var sender notify.Sender = notify.LogSender{Log: log}
	if cfg.EmailEnabled() {
		sender = notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.EmailUser,
			Password: cfg.EmailPass,
			FromName: cfg.EmailFromName,
		})
	} else {
		log.Warn("EMAIL_USER/EMAIL_PASS not set, notifications are logged only")
	}
	notifier := notify.NewAsync(sender, log, 30*time.Second)

	var gateway payment.Gateway
	if cfg.RazorpayKeyID != "" && cfg.RazorpayKeySecret != "" {
		gateway = payment.NewClient(payment.ClientConfig{
			KeyID:     cfg.RazorpayKeyID,
			KeySecret: cfg.RazorpayKeySecret,
			BaseURL:   cfg.RazorpayBaseURL,
		})
	} else {
		log.Warn("Razorpay keys not set, payment endpoints will fail")
	}

	tokens := middleware.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL, clk)
	authSvc := services.NewAuthService(st, tokens, denylist, notifier, log, services.AuthConfig{FrontendURL: cfg.FrontendURL})
	if err := authSvc.EnsureSuperadmin(ctx, cfg.SuperadminName, cfg.SuperadminEmail, cfg.SuperadminPassword); err != nil {
		log.WithError(err).Fatal("failed to bootstrap superadmin")
	}

	h := &handlers.Handler{
		Auth:     authSvc,
		Requests: services.NewRequestService(st, notifier, clk, log, cfg.FrontendURL),
		Payments: services.NewPaymentService(st, gateway, services.PaymentConfig{KeySecret: cfg.RazorpayKeySecret, Currency: cfg.PaymentCurrency}, log),
		Admin:    services.NewAdminService(st, clk, loc, log),
		Reviews:  services.NewReviewService(st),
		Store:    st,
		Log:      log,
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), metrics.Instrument(), middleware.CORS(cfg.FrontendURL))
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Welcome to the Movers & Packers API",
			"docs":    "/api/state-machine",
			"health":  "/health",
			"roles":   []string{"client", "provider", "admin", "superadmin"},
		})
	})
	routes.SetupRoutes(r,
		h,
		middleware.NewAuthenticator(tokens, st, denylist),
		middleware.NewRateLimiter(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst, log),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infof("server running on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	notifier.Wait()
}
