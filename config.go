package main

import (
	"github.com/alecthomas/kong"

	"moodtrack-backend/internal/common"
	"moodtrack-backend/internal/logger"
)

// CLI is the command line. Every setting can also come from the environment or ENV_FILE.
type CLI struct {
	Config common.Config `embed:""`

	Serve   ServeCmd   `cmd:"" default:"1" help:"Run the HTTP API and the daily reminder scheduler."`
	Migrate MigrateCmd `cmd:"" help:"Create or update the database tables and exit."`
	Remind  RemindCmd  `cmd:"" help:"Run the reminder check once and exit."`
}

// LoadConfig parses args into a CLI.
func LoadConfig(args []string) (*CLI, *kong.Context, error) {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("moodtrack"),
		kong.Description("Mood tracking backend."),
		kong.UsageOnError(),
	)
	if err != nil {
		return nil, nil, err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return nil, nil, err
	}
	return &cli, kctx, nil
}

// Print logs the effective configuration with secrets hidden.
func Print(c *common.Config) {
	logger.Info("config",
		"http_addr", c.HTTPAddr,
		"db_driver", c.DBDriver,
		"dsn", c.RedactedDSN(),
		"redis", c.RedisAddr != "",
		"ai_provider", c.AIProvider,
		"reminder_at", c.ReminderAt,
		"log_level", c.LogLevel,
	)
}
