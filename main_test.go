package main

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodtrack-backend/internal/common"
	"moodtrack-backend/internal/db"
)

var testEnv = map[string]string{
	"DB_DRIVER":   "sqlite",
	"DB_DSN":      "file::memory:",
	"JWT_SECRET":  "main-test-secret-0123",
	"AI_PROVIDER": "none",
}

// 设置测试环境变量
func setupTestEnv() {
	for k, v := range testEnv {
		os.Setenv(k, v)
	}
	os.Unsetenv("REDIS_ADDR")
}

// 清理测试环境变量
func cleanupTestEnv() {
	for k := range testEnv {
		os.Unsetenv(k)
	}
}

// TestMain 在所有测试开始前运行
func TestMain(m *testing.M) {
	setupTestEnv()
	code := m.Run()
	cleanupTestEnv()
	os.Exit(code)
}

func TestLoadConfigFromEnv(t *testing.T) {
	cli, kctx, err := LoadConfig([]string{})
	require.NoError(t, err)
	assert.Equal(t, "serve", kctx.Command())
	assert.Equal(t, db.DriverSQLite, cli.Config.DBDriver)
	assert.Equal(t, "file::memory:", cli.Config.DSN)
	assert.Equal(t, ":8080", cli.Config.HTTPAddr)
	assert.Equal(t, "20:30", cli.Config.ReminderAt)
	assert.NoError(t, cli.Config.Validate())
}

func TestLoadConfigFlags(t *testing.T) {
	cli, kctx, err := LoadConfig([]string{"remind", "--reminder-at", "07:15", "--ai-provider", "hunyuan"})
	require.NoError(t, err)
	assert.Equal(t, "remind", kctx.Command())
	assert.Equal(t, "07:15", cli.Config.ReminderAt)
	assert.Equal(t, "hunyuan", cli.Config.AIProvider)

	_, _, err = LoadConfig([]string{"migrate", "--db-driver", "oracle"})
	assert.Error(t, err)
}

func TestNewAppAndCommands(t *testing.T) {
	cli, _, err := LoadConfig([]string{})
	require.NoError(t, err)

	a, err := newApp(context.Background(), &cli.Config)
	require.NoError(t, err)
	defer a.Close()
	assert.NotNil(t, a.services.Auth)
	assert.NotNil(t, a.services.Reminder)

	report, err := a.services.Reminder.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Users)

	assert.NoError(t, MigrateCmd{}.Run(&cli.Config))
	assert.NoError(t, RemindCmd{}.Run(&cli.Config))
	assert.Error(t, MigrateCmd{}.Run(&common.Config{}))
}
