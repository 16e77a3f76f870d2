package db

import (
	"time"
)

// User is an account that signs in with email and password.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:100;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MoodEntry is the per-day summary row. (user_id, date) is unique.
// For premium users Rating holds the rounded mean of that day's detailed rows.
type MoodEntry struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;uniqueIndex:idx_mood_user_date" json:"user_id"`
	Date           string    `gorm:"size:10;not null;uniqueIndex:idx_mood_user_date" json:"date"` // yyyy-mm-dd
	Rating         int       `gorm:"not null" json:"rating"`
	Note           string    `gorm:"type:text" json:"note"`
	EmotionDetails string    `gorm:"type:text" json:"emotion_details"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DetailedMoodEntry 高级版每次提交一条，只追加不修改
type DetailedMoodEntry struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;index:idx_detailed_user_date" json:"user_id"`
	Date           string    `gorm:"size:10;not null;index:idx_detailed_user_date" json:"date"`
	Time           string    `gorm:"column:entry_time;size:12;not null" json:"time"` // hh:mm:ss.mmm UTC
	Rating         int       `gorm:"not null" json:"rating"`
	Note           string    `gorm:"type:text" json:"note"`
	EmotionDetails string    `gorm:"type:text" json:"emotion_details"`
	CreatedAt      time.Time `json:"created_at"`
}

// UserSubscription 订阅记录，每个用户一行
// Tier is "free" or "premium"; a nil ExpiresAt never expires.
type UserSubscription struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	Tier      string     `gorm:"size:16;not null" json:"tier"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// PushToken is a device registration for reminder pushes.
type PushToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Token     string    `gorm:"size:255;not null;uniqueIndex" json:"token"`
	Platform  string    `gorm:"size:16" json:"platform"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AllModels is the AutoMigrate set.
func AllModels() []interface{} {
	return []interface{}{&User{}, &MoodEntry{}, &DetailedMoodEntry{}, &UserSubscription{}, &PushToken{}}
}
