package db

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the typed data collaborator over the gorm connection.
type Store struct {
	db *gorm.DB
}

func NewStore(conn *gorm.DB) *Store {
	return &Store{db: conn}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

// first runs a single-row lookup where "not found" is a valid empty result.
func first[T any](q *gorm.DB) (*T, error) {
	var row T
	err := q.First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindSummary returns the summary row for (userID, date) or nil.
func (s *Store) FindSummary(ctx context.Context, userID uint, date string) (*MoodEntry, error) {
	return first[MoodEntry](s.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, date))
}

// CreateSummary inserts a new summary row. The unique (user_id, date) index rejects a second one.
func (s *Store) CreateSummary(ctx context.Context, entry *MoodEntry) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// UpsertSummary inserts or overwrites the day's summary and returns the stored row.
func (s *Store) UpsertSummary(ctx context.Context, entry *MoodEntry) (*MoodEntry, error) {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "note", "emotion_details", "updated_at"}),
	}).Create(entry).Error
	if err != nil {
		return nil, err
	}
	return s.FindSummary(ctx, entry.UserID, entry.Date)
}

// CreateDetailed appends a premium detailed row.
func (s *Store) CreateDetailed(ctx context.Context, entry *DetailedMoodEntry) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// ListDetailed returns the day's detailed rows, earliest first.
func (s *Store) ListDetailed(ctx context.Context, userID uint, date string) ([]DetailedMoodEntry, error) {
	var rows []DetailedMoodEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		Order("entry_time asc").Order("id asc").
		Find(&rows).Error
	return rows, err
}

// ListSummaries returns summaries with from <= date <= to, oldest first.
func (s *Store) ListSummaries(ctx context.Context, userID uint, from, to string) ([]MoodEntry, error) {
	var rows []MoodEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date asc").
		Find(&rows).Error
	return rows, err
}

// ListSummaryDates returns every summary date for the user, newest first.
func (s *Store) ListSummaryDates(ctx context.Context, userID uint) ([]string, error) {
	var dates []string
	err := s.db.WithContext(ctx).Model(&MoodEntry{}).
		Where("user_id = ?", userID).
		Order("date desc").
		Pluck("date", &dates).Error
	return dates, err
}

// FindSubscription returns the user's subscription row or nil.
func (s *Store) FindSubscription(ctx context.Context, userID uint) (*UserSubscription, error) {
	return first[UserSubscription](s.db.WithContext(ctx).Where("user_id = ?", userID))
}

// SaveSubscription inserts or updates the user's single subscription row.
func (s *Store) SaveSubscription(ctx context.Context, sub *UserSubscription) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"tier", "expires_at", "updated_at"}),
	}).Create(sub).Error
}

// CreateUser inserts a new account.
func (s *Store) CreateUser(ctx context.Context, user *User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

// FindUserByEmail returns the account or nil.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	return first[User](s.db.WithContext(ctx).Where("email = ?", email))
}

// FindUser returns the account or nil.
func (s *Store) FindUser(ctx context.Context, id uint) (*User, error) {
	return first[User](s.db.WithContext(ctx).Where("id = ?", id))
}

// SavePushToken registers a device token, moving it to userID if another account had it.
func (s *Store) SavePushToken(ctx context.Context, token *PushToken) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "platform", "updated_at"}),
	}).Create(token).Error
}

// DeletePushToken forgets a device token that the push service reported as dead.
func (s *Store) DeletePushToken(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).Where("token = ?", token).Delete(&PushToken{}).Error
}

// ListPushTokens returns all registered device tokens grouped by user.
func (s *Store) ListPushTokens(ctx context.Context) ([]PushToken, error) {
	var rows []PushToken
	err := s.db.WithContext(ctx).Order("user_id asc").Order("id asc").Find(&rows).Error
	return rows, err
}
