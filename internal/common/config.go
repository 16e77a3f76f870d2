package common

import (
	"fmt"
	"strings"
	"time"
)

// Config is filled by kong from flags, then environment variables, then defaults.
type Config struct {
	HTTPAddr string `name:"http-addr" env:"HTTP_ADDR" default:":8080" help:"HTTP listen address."`

	DBDriver string `name:"db-driver" env:"DB_DRIVER" default:"mysql" enum:"mysql,postgres,sqlite" help:"Database driver (mysql, postgres, sqlite)."`
	DSN      string `name:"dsn" env:"DB_DSN,MYSQL_DSN" help:"Database connection string."`

	RedisAddr     string `name:"redis-addr" env:"REDIS_ADDR" help:"Redis address; empty keeps key/value state in memory."`
	RedisPassword string `name:"redis-password" env:"REDIS_PASSWORD" help:"Redis password."`
	RedisDB       int    `name:"redis-db" env:"REDIS_DB" default:"0" help:"Redis database index."`
	RedisPrefix   string `name:"redis-prefix" env:"REDIS_PREFIX" default:"moodtrack" help:"Prefix for every Redis key."`

	JWTSecret  string        `name:"jwt-secret" env:"JWT_SECRET" help:"HMAC secret for access tokens."`
	SessionTTL time.Duration `name:"session-ttl" env:"SESSION_TTL" default:"720h" help:"Lifetime of a sign-in session."`

	AIProvider       string  `name:"ai-provider" env:"AI_PROVIDER" default:"none" enum:"openai,hunyuan,none" help:"Prompt generator backend."`
	AIToken          string  `name:"ai-token" env:"AI_TOKEN,HUNYUAN_TOKEN" help:"Token for the OpenAI-compatible endpoint."`
	AIModel          string  `name:"ai-model" env:"AI_MODEL" help:"Model name; defaults per provider."`
	AIBaseURL        string  `name:"ai-base-url" env:"AI_BASE_URL" help:"Base URL of the OpenAI-compatible endpoint."`
	TencentSecretID  string  `name:"tencent-secret-id" env:"TENCENTCLOUD_SECRETID" help:"Tencent Cloud secret id for the hunyuan provider."`
	TencentSecretKey string  `name:"tencent-secret-key" env:"TENCENTCLOUD_SECRETKEY" help:"Tencent Cloud secret key for the hunyuan provider."`
	AIRequestsPerSec float64 `name:"ai-rps" env:"AI_RPS" default:"0.2" help:"Per-user AI request rate."`
	AIBurst          int     `name:"ai-burst" env:"AI_BURST" default:"3" help:"Per-user AI request burst."`

	TierCacheTTL time.Duration `name:"tier-cache-ttl" env:"TIER_CACHE_TTL" default:"6h" help:"Upper bound on how long a premium tier read is cached."`

	ReminderAt  string `name:"reminder-at" env:"REMINDER_AT" default:"20:30" help:"Daily reminder time (HH:MM, server local time)."`
	AdminToken  string `name:"admin-token" env:"ADMIN_TOKEN" help:"Shared secret for operator endpoints (X-Admin-Token); empty disables them."`
	ExpoPushURL string `name:"expo-push-url" env:"EXPO_PUSH_URL" default:"https://exp.host/--/api/v2/push/send" help:"Expo push endpoint."`

	LogLevel string `name:"log-level" env:"LOG_LEVEL" default:"info" enum:"debug,info,warn,error" help:"Log level."`
	LogDir   string `name:"log-dir" env:"LOG_DIR" help:"Directory for the rotating log file; empty logs to stderr only."`
}

// Validate reports configuration that cannot start a server.
func (c *Config) Validate() error {
	if err := c.RequireDSN(); err != nil {
		return err
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if _, _, err := c.ReminderClock(); err != nil {
		return err
	}
	return nil
}

// RequireDSN is the only check commands that just touch the database need.
func (c *Config) RequireDSN() error {
	if strings.TrimSpace(c.DSN) == "" {
		return fmt.Errorf("DB_DSN (or MYSQL_DSN) is empty")
	}
	return nil
}

// ReminderClock parses ReminderAt into hour and minute.
func (c *Config) ReminderClock() (int, int, error) {
	t, err := time.Parse("15:04", c.ReminderAt)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid REMINDER_AT %q: %w", c.ReminderAt, err)
	}
	return t.Hour(), t.Minute(), nil
}

// RedactedDSN hides the password part of a user:pass@host style DSN.
func (c *Config) RedactedDSN() string {
	at := strings.LastIndex(c.DSN, "@")
	if at < 0 {
		return c.DSN
	}
	head := c.DSN[:at]
	colon := strings.LastIndex(head, ":")
	if colon < 0 {
		return c.DSN
	}
	return head[:colon+1] + "****" + c.DSN[at:]
}
