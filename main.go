package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moodtrack-backend/internal/common"
	"moodtrack-backend/internal/db"
	"moodtrack-backend/internal/logger"
	"moodtrack-backend/internal/logic"
)

type ServeCmd struct{}

func (ServeCmd) Run(cfg *common.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	hour, minute, _ := cfg.ReminderClock()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	// 启动定时任务调度器
	logic.StartScheduler(ctx, a.services.Reminder, hour, minute)

	// 启动Gin路由
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: logic.SetupRouter(a.services)}
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type MigrateCmd struct{}

func (MigrateCmd) Run(cfg *common.Config) error {
	if err := cfg.RequireDSN(); err != nil {
		return err
	}
	conn, err := db.InitDB(cfg.DBDriver, cfg.DSN, cfg.RedactedDSN())
	if err != nil {
		return err
	}
	logger.Info("migration complete")
	return db.Close(conn)
}

type RemindCmd struct{}

func (RemindCmd) Run(cfg *common.Config) error {
	if err := cfg.RequireDSN(); err != nil {
		return err
	}
	ctx := context.Background()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.services.Reminder.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("reminders sent", "reminded", report.Reminded, "sent", report.Sent, "failed", report.Failed)
	return nil
}

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := common.LoadEnvFile(envFile); err != nil {
		logger.Fatal("load env file", "path", envFile, "err", err)
	}

	cli, kctx, err := LoadConfig(os.Args[1:])
	if err != nil {
		logger.Fatal("parse arguments", "err", err)
	}
	if err := logger.Init(logger.Config{Level: cli.Config.LogLevel, Dir: cli.Config.LogDir}); err != nil {
		logger.Fatal("init logger", "err", err)
	}
	Print(&cli.Config)

	if err := kctx.Run(&cli.Config); err != nil {
		logger.Fatal("command failed", "command", kctx.Command(), "err", err)
	}
}
