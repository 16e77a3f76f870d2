package db

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"moodtrack-backend/internal/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	conn, err := Open(DriverSQLite, "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(conn) })
	return NewStore(conn)
}

// 测试数据库驱动选择
func TestDialector(t *testing.T) {
	for _, driver := range []string{DriverMySQL, DriverPostgres, DriverSQLite} {
		d, err := dialector(driver, "dsn")
		assert.NoError(t, err, driver)
		assert.NotNil(t, d, driver)
	}

	_, err := dialector("oracle", "dsn")
	assert.Error(t, err)

	_, err = dialector(DriverMySQL, " ")
	assert.Error(t, err)
}

func TestSummaryUniquePerUserAndDate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSummary(ctx, &MoodEntry{UserID: 1, Date: "2024-01-15", Rating: 4}))
	err := s.CreateSummary(ctx, &MoodEntry{UserID: 1, Date: "2024-01-15", Rating: 2})
	require.Error(t, err)

	// another user on the same day is fine
	require.NoError(t, s.CreateSummary(ctx, &MoodEntry{UserID: 2, Date: "2024-01-15", Rating: 2}))

	got, err := s.FindSummary(ctx, 1, "2024-01-15")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 4, got.Rating)
}

func TestFindSummaryNotFoundIsNil(t *testing.T) {
	s := newTestStore(t)
	got, err := s.FindSummary(context.Background(), 9, "2024-01-15")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpsertSummary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.UpsertSummary(ctx, &MoodEntry{UserID: 1, Date: "2024-01-15", Rating: 5, Note: "sunny"})
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 5, first.Rating)

	second, err := s.UpsertSummary(ctx, &MoodEntry{UserID: 1, Date: "2024-01-15", Rating: 4, Note: "cloudy"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 4, second.Rating)
	assert.Equal(t, "cloudy", second.Note)

	var count int64
	s.DB().Model(&MoodEntry{}).Where("user_id = ?", 1).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestListDetailedOrderedByTime(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateDetailed(ctx, &DetailedMoodEntry{UserID: 1, Date: "2024-01-15", Time: "18:00:00.000", Rating: 2}))
	require.NoError(t, s.CreateDetailed(ctx, &DetailedMoodEntry{UserID: 1, Date: "2024-01-15", Time: "08:30:00.000", Rating: 5}))
	require.NoError(t, s.CreateDetailed(ctx, &DetailedMoodEntry{UserID: 1, Date: "2024-01-14", Time: "09:00:00.000", Rating: 1}))

	rows, err := s.ListDetailed(ctx, 1, "2024-01-15")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 5, rows[0].Rating)
	assert.Equal(t, 2, rows[1].Rating)
}

func TestListSummariesAndDates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, d := range []string{"2024-01-10", "2024-01-12", "2024-01-15", "2024-02-01"} {
		require.NoError(t, s.CreateSummary(ctx, &MoodEntry{UserID: 1, Date: d, Rating: 3}))
	}

	rows, err := s.ListSummaries(ctx, 1, "2024-01-12", "2024-01-31")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-01-12", rows[0].Date)
	assert.Equal(t, "2024-01-15", rows[1].Date)

	dates, err := s.ListSummaryDates(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-02-01", "2024-01-15", "2024-01-12", "2024-01-10"}, dates)
}

func TestSaveSubscriptionKeepsOneRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sub, err := s.FindSubscription(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, sub)

	expires := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveSubscription(ctx, &UserSubscription{UserID: 1, Tier: "premium", ExpiresAt: &expires}))
	require.NoError(t, s.SaveSubscription(ctx, &UserSubscription{UserID: 1, Tier: "free", ExpiresAt: &expires}))

	sub, err = s.FindSubscription(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "free", sub.Tier)
	require.NotNil(t, sub.ExpiresAt)
	assert.True(t, expires.Equal(*sub.ExpiresAt))

	var count int64
	s.DB().Model(&UserSubscription{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := &User{Email: "sam@example.com", PasswordHash: "hash"}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.NotZero(t, u.ID)

	err := s.CreateUser(ctx, &User{Email: "sam@example.com", PasswordHash: "other"})
	assert.Error(t, err)

	byEmail, err := s.FindUserByEmail(ctx, "sam@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := s.FindUser(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)

	missing, err := s.FindUser(ctx, 999)
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPushTokens(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePushToken(ctx, &PushToken{UserID: 1, Token: "ExponentPushToken[a]", Platform: "ios"}))
	require.NoError(t, s.SavePushToken(ctx, &PushToken{UserID: 2, Token: "ExponentPushToken[a]", Platform: "ios"}))
	require.NoError(t, s.SavePushToken(ctx, &PushToken{UserID: 1, Token: "ExponentPushToken[b]", Platform: "android"}))

	rows, err := s.ListPushTokens(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, uint(1), rows[0].UserID)
	assert.Equal(t, "ExponentPushToken[b]", rows[0].Token)
	assert.Equal(t, uint(2), rows[1].UserID)

	require.NoError(t, s.DeletePushToken(ctx, "ExponentPushToken[a]"))
	rows, err = s.ListPushTokens(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

// 迁移失败时连接池要关闭
func TestOpenClosesPoolWhenMigrateFails(t *testing.T) {
	var opened *gorm.DB
	migrate = func(conn *gorm.DB) error {
		opened = conn
		return errors.New("disk full")
	}
	t.Cleanup(func() { migrate = Migrate })

	conn, err := Open(DriverSQLite, "file::memory:")
	assert.Error(t, err)
	assert.Nil(t, conn)

	require.NotNil(t, opened)
	sqlDB, err := opened.DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping())
}

func TestGormLogsThroughAppLogger(t *testing.T) {
	s := newTestStore(t)
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })

	entry, err := s.FindSummary(context.Background(), 1, "2024-01-15")
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.NotContains(t, buf.String(), "record not found")

	assert.Error(t, s.DB().Exec("SELECT * FROM no_such_table").Error)
	assert.Contains(t, buf.String(), "no_such_table")
	assert.Contains(t, buf.String(), "component=gorm")
}
