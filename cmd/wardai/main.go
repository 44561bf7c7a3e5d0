package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/liamashdown/wardai/internal/alerts"
	"github.com/liamashdown/wardai/internal/api"
	"github.com/liamashdown/wardai/internal/config"
	"github.com/liamashdown/wardai/internal/cooldown"
	"github.com/liamashdown/wardai/internal/dexscreener"
	"github.com/liamashdown/wardai/internal/monitor"
	"github.com/liamashdown/wardai/internal/risk"
	"github.com/liamashdown/wardai/internal/storage"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)

	log.Info("Starting wardai service...")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.WithField("log_level", cfg.LogLevel).Warn("Unknown log level, using info")
	}

	log.WithFields(logrus.Fields{
		"environment":       cfg.Environment,
		"chain_id":          cfg.ChainID,
		"monitor_enabled":   cfg.MonitorEnabled,
		"poll_interval_sec": cfg.PollIntervalSec,
		"cooldown_backend":  cfg.CooldownBackend,
		"alert_mode":        cfg.AlertMode,
	}).Info("Configuration loaded")

	// History database is optional
	var db *storage.DB
	if cfg.DatabaseDSN != "" {
		db, err = storage.New(cfg, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to database")
		}
		defer db.Close()

		if err := db.AutoMigrate(); err != nil {
			log.WithError(err).Fatal("Failed to run database migrations")
		}
		log.Info("Database migrations complete")
	}

	cooldowns, closeCooldowns, err := createCooldownStore(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create cooldown store")
	}
	defer closeCooldowns()

	client := dexscreener.NewClient(cfg)
	engine := risk.NewEngine(risk.DefaultRules())
	rules := engine.Rules()
	log.WithFields(logrus.Fields{
		"rule_categories": len(rules.Categories),
		"max_score":       rules.MaxScore,
		"critical_at":     rules.Levels.Critical,
		"high_at":         rules.Levels.High,
		"medium_at":       rules.Levels.Medium,
	}).Info("Risk engine initialized")

	alertSender := createAlertSender(cfg, log)
	log.WithField("alert_mode", cfg.AlertMode).Info("Alert sender initialized")

	// Pass interfaces only when the database exists so nil checks hold
	var monRecorder monitor.Recorder
	var apiRecorder api.AssessmentRecorder
	if db != nil {
		monRecorder = db
		apiRecorder = db
	}

	mon := monitor.New(cfg, client, cooldowns, engine, alertSender, monRecorder, log)

	srv := api.New(cfg, client, mon, engine, apiRecorder, log)
	if db != nil {
		srv.SetHistory(db)
		srv.AddReadyCheck("database", db.Ping)
	}
	if rs, ok := cooldowns.(*cooldown.RedisStore); ok {
		srv.AddReadyCheck("redis", rs.Ping)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.MonitorEnabled {
		go mon.Run(ctx, time.Duration(cfg.PollIntervalSec)*time.Second)
		log.Info("Live-alert monitor started")
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      srv.Routes(),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.HTTPPort).Info("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Received shutdown signal")
	case err := <-serverErr:
		log.WithError(err).Error("HTTP server failed")
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}

	log.Info("Graceful shutdown complete")
}

func createCooldownStore(cfg *config.Config, log *logrus.Logger) (cooldown.Store, func(), error) {
	switch cfg.CooldownBackend {
	case config.CooldownRedis:
		// Keys outlive the cooldown slightly so Evict is rarely needed
		store := cooldown.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisKeyPrefix, 2*cfg.AlertCooldown)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}

		log.WithField("addr", cfg.RedisAddr).Info("Using Redis cooldown store")
		return store, func() {
			if err := store.Close(); err != nil {
				log.WithError(err).Warn("Failed to close Redis client")
			}
		}, nil
	default:
		log.Info("Using in-memory cooldown store")
		return cooldown.NewMemoryStore(), func() {}, nil
	}
}

func createAlertSender(cfg *config.Config, log *logrus.Logger) alerts.Sender {
	senders := []alerts.Sender{}

	for _, mode := range cfg.AlertModes() {
		switch mode {
		case "log":
			senders = append(senders, alerts.NewLogSender(log))
		case "discord":
			if len(cfg.DiscordWebhookURLs) == 0 {
				log.Warn("Discord mode specified but DISCORD_WEBHOOK_URLS not set")
				continue
			}
			for _, url := range cfg.DiscordWebhookURLs {
				senders = append(senders, alerts.NewDiscordSender(url))
			}
		case "smtp":
			if cfg.SMTPHost == "" {
				log.Warn("SMTP mode specified but SMTP_HOST not set")
				continue
			}
			senders = append(senders, alerts.NewSMTPSender(
				cfg.SMTPHost,
				cfg.SMTPPort,
				cfg.SMTPUser,
				cfg.SMTPPassword,
				cfg.SMTPFrom,
				cfg.SMTPTo,
			))
		default:
			log.WithField("mode", mode).Warn("Unknown alert mode, skipping")
		}
	}

	switch len(senders) {
	case 0:
		log.Warn("No valid alert senders configured, using log")
		return alerts.NewLogSender(log)
	case 1:
		return senders[0]
	default:
		return alerts.NewMultiSender(senders...)
	}
}
