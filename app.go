package main

import (
	"context"
	"time"

	"gorm.io/gorm"

	"moodtrack-backend/internal/ai"
	"moodtrack-backend/internal/auth"
	"moodtrack-backend/internal/common"
	"moodtrack-backend/internal/db"
	"moodtrack-backend/internal/events"
	"moodtrack-backend/internal/kv"
	"moodtrack-backend/internal/logger"
	"moodtrack-backend/internal/logic"
	"moodtrack-backend/internal/mood"
	"moodtrack-backend/internal/onboarding"
	"moodtrack-backend/internal/subscription"
)

type app struct {
	conn     *gorm.DB
	redis    *kv.RedisStore
	services logic.Services
}

// newApp connects the database and key/value store and wires every service.
func newApp(ctx context.Context, cfg *common.Config) (*app, error) {
	conn, err := db.InitDB(cfg.DBDriver, cfg.DSN, cfg.RedactedDSN())
	if err != nil {
		return nil, err
	}
	a := &app{conn: conn}

	var cache kv.Store
	if cfg.RedisAddr != "" {
		r, err := kv.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = r
		cache = r
		logger.Info("connected to redis", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
	} else {
		logger.Warn("REDIS_ADDR not set, sessions and caches live in process memory")
		cache = kv.NewMemoryStore()
	}

	gen, err := ai.NewGenerator(ai.GeneratorConfig{
		Provider:  cfg.AIProvider,
		Token:     cfg.AIToken,
		Model:     cfg.AIModel,
		BaseURL:   cfg.AIBaseURL,
		SecretID:  cfg.TencentSecretID,
		SecretKey: cfg.TencentSecretKey,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	tierTTL := cfg.TierCacheTTL
	if tierTTL <= 0 {
		tierTTL = common.DefaultTierCacheTTL
	}
	sessionTTL := cfg.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = 30 * 24 * time.Hour
	}

	store := db.NewStore(conn)
	hub := events.NewHub()
	prefs := onboarding.NewService(cache)
	a.services = logic.Services{
		Store:      store,
		Auth:       auth.NewService(store, cache, cfg.JWTSecret, sessionTTL),
		Moods:      mood.NewService(store),
		Gate:       subscription.NewGate(store, cache, tierTTL),
		Onboarding: prefs,
		Prompter:   ai.NewPrompter(gen),
		Hub:        hub,
		Reminder:   logic.NewReminder(store, prefs, logic.NewExpoSender(cfg.ExpoPushURL), hub),
		AIRate:     cfg.AIRequestsPerSec,
		AIBurst:    cfg.AIBurst,
		AdminToken: cfg.AdminToken,
	}
	return a, nil
}

func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logger.Warn("close redis", "err", err)
		}
	}
	if err := db.Close(a.conn); err != nil {
		logger.Warn("close database", "err", err)
	}
}
