package db

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"moodtrack-backend/internal/logger"
)

// gormWriter sends gorm's log lines to the app logger.
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	logger.Warn(fmt.Sprintf(format, args...), "component", "gorm")
}

// newGormLogger logs slow queries and real errors. A missing row is an empty result, not an error.
func newGormLogger() gormlogger.Interface {
	return gormlogger.New(gormWriter{}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// migrate is swapped in tests.
var migrate = Migrate

// Open connects and migrates. The caller owns the returned handle.
func Open(driver, dsn string) (*gorm.DB, error) {
	d, err := dialector(driver, dsn)
	if err != nil {
		return nil, err
	}
	conn, err := gorm.Open(d, &gorm.Config{
		TranslateError: true,
		Logger:         newGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if isMemorySQLite(driver, dsn) {
		// every pooled connection would otherwise get its own empty database
		sqlDB, err := conn.DB()
		if err != nil {
			_ = Close(conn)
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := migrate(conn); err != nil {
		_ = Close(conn)
		return nil, err
	}
	return conn, nil
}

// Migrate 自动迁移表结构
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// InitDB opens the configured database and logs where it connected.
func InitDB(driver, dsn, redactedDSN string) (*gorm.DB, error) {
	conn, err := Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to database", "driver", driver, "dsn", redactedDSN)
	return conn, nil
}

// Close releases the pool behind conn.
func Close(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
