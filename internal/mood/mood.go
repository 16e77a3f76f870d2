// Package mood turns rating submissions into stored daily records and derives
// streak and average statistics from the stored history.
//
// Free accounts get one summary row per day. Premium accounts append a
// detailed row per submission and the day's summary is recomputed as the
// rounded mean of those rows.
package mood

import (
	"context"
	"errors"
	"fmt"
	"time"

	"moodtrack-backend/internal/common"
	"moodtrack-backend/internal/db"
	"moodtrack-backend/internal/logger"
	"moodtrack-backend/internal/subscription"
)

var (
	ErrInvalidRating = errors.New("mood: rating must be between 1 and 5")
	ErrInvalidDays   = errors.New("mood: days out of range")
	ErrLimitReached  = errors.New("mood: daily entry limit reached")
)

// Store is the mood slice of the data collaborator.
type Store interface {
	FindSummary(ctx context.Context, userID uint, date string) (*db.MoodEntry, error)
	CreateSummary(ctx context.Context, entry *db.MoodEntry) error
	UpsertSummary(ctx context.Context, entry *db.MoodEntry) (*db.MoodEntry, error)
	CreateDetailed(ctx context.Context, entry *db.DetailedMoodEntry) error
	ListDetailed(ctx context.Context, userID uint, date string) ([]db.DetailedMoodEntry, error)
	ListSummaries(ctx context.Context, userID uint, from, to string) ([]db.MoodEntry, error)
	ListSummaryDates(ctx context.Context, userID uint) ([]string, error)
}

// Result is what a submission produced.
type Result struct {
	Summary       *db.MoodEntry `json:"summary"`
	DetailedCount int           `json:"detailed_count"`
}

// Stats is the dashboard view of a user's history.
type Stats struct {
	Streak        int      `json:"streak"`
	WeeklyAverage *float64 `json:"weekly_average"`
	Average       *float64 `json:"average"`
	Days          int      `json:"days"`
}

type Service struct {
	store Store
	Now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, Now: time.Now}
}

func validRating(rating int) bool {
	return rating >= common.MinRating && rating <= common.MaxRating
}

// Save records a rating for today according to tier.
func (s *Service) Save(ctx context.Context, userID uint, tier subscription.Tier, rating int, details string) (*Result, error) {
	if !validRating(rating) {
		return nil, ErrInvalidRating
	}
	if tier == subscription.TierPremium {
		return s.savePremium(ctx, userID, rating, details)
	}
	return s.saveFree(ctx, userID, rating, details)
}

func (s *Service) saveFree(ctx context.Context, userID uint, rating int, details string) (*Result, error) {
	today := DateOf(s.Now())

	existing, err := s.store.FindSummary(ctx, userID, today)
	if err != nil {
		return nil, fmt.Errorf("check existing entry: %w", err)
	}
	if existing != nil {
		return nil, ErrLimitReached
	}

	entry := &db.MoodEntry{UserID: userID, Date: today, Rating: rating, Note: details, EmotionDetails: details}
	if err := s.store.CreateSummary(ctx, entry); err != nil {
		// lost a race with another device: the unique index kept the first row
		if again, findErr := s.store.FindSummary(ctx, userID, today); findErr == nil && again != nil {
			return nil, ErrLimitReached
		}
		return nil, fmt.Errorf("insert mood entry: %w", err)
	}
	logger.Debug("inserted mood entry", "user_id", userID, "date", today, "rating", rating)
	return &Result{Summary: entry}, nil
}

func (s *Service) savePremium(ctx context.Context, userID uint, rating int, details string) (*Result, error) {
	now := s.Now().UTC()
	today := DateOf(now)

	detailed := &db.DetailedMoodEntry{
		UserID:         userID,
		Date:           today,
		Time:           now.Format(common.TimeLayout),
		Rating:         rating,
		Note:           details,
		EmotionDetails: details,
	}
	if err := s.store.CreateDetailed(ctx, detailed); err != nil {
		return nil, fmt.Errorf("insert detailed mood entry: %w", err)
	}

	rows, err := s.store.ListDetailed(ctx, userID, today)
	if err != nil {
		return nil, fmt.Errorf("fetch today's detailed entries: %w", err)
	}
	ratings := make([]int, 0, len(rows))
	for _, r := range rows {
		ratings = append(ratings, r.Rating)
	}

	existing, err := s.store.FindSummary(ctx, userID, today)
	if err != nil {
		return nil, fmt.Errorf("check existing entry: %w", err)
	}
	note, emotion := details, details
	if details == "" && existing != nil {
		note, emotion = existing.Note, existing.EmotionDetails
	}

	summary, err := s.store.UpsertSummary(ctx, &db.MoodEntry{
		UserID:         userID,
		Date:           today,
		Rating:         RoundedMean(ratings),
		Note:           note,
		EmotionDetails: emotion,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert mood summary: %w", err)
	}
	logger.Debug("updated mood summary", "user_id", userID, "date", today, "rating", summary.Rating, "entries", len(rows))
	return &Result{Summary: summary, DetailedCount: len(rows)}, nil
}

// Today returns today's summary row, or nil when nothing was logged yet.
func (s *Service) Today(ctx context.Context, userID uint) (*db.MoodEntry, error) {
	return s.store.FindSummary(ctx, userID, DateOf(s.Now()))
}

// TodayDetailed returns today's detailed rows, earliest first.
func (s *Service) TodayDetailed(ctx context.Context, userID uint) ([]db.DetailedMoodEntry, error) {
	return s.store.ListDetailed(ctx, userID, DateOf(s.Now()))
}

// Recent returns summaries from days ago through today, oldest first.
func (s *Service) Recent(ctx context.Context, userID uint, days int) ([]db.MoodEntry, error) {
	if days < 1 || days > common.MaxHistoryDays {
		return nil, ErrInvalidDays
	}
	now := s.Now()
	return s.store.ListSummaries(ctx, userID, DaysBefore(now, days), DateOf(now))
}

// CurrentWeek returns summaries since the most recent Sunday.
func (s *Service) CurrentWeek(ctx context.Context, userID uint) ([]db.MoodEntry, error) {
	now := s.Now()
	return s.store.ListSummaries(ctx, userID, WeekStart(now), DateOf(now))
}

// Streak returns the user's current streak.
func (s *Service) Streak(ctx context.Context, userID uint) (int, error) {
	dates, err := s.store.ListSummaryDates(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("fetch entry dates: %w", err)
	}
	return Streak(dates), nil
}

// AverageMood is the mean rating over the last days, or nil with no entries.
func (s *Service) AverageMood(ctx context.Context, userID uint, days int) (*float64, error) {
	entries, err := s.Recent(ctx, userID, days)
	if err != nil {
		return nil, err
	}
	return Average(entries), nil
}

// Stats gathers streak, 7-day average and the average over days.
func (s *Service) Stats(ctx context.Context, userID uint, days int) (*Stats, error) {
	streak, err := s.Streak(ctx, userID)
	if err != nil {
		return nil, err
	}
	weekly, err := s.AverageMood(ctx, userID, common.DefaultRecentDays)
	if err != nil {
		return nil, err
	}
	avg, err := s.AverageMood(ctx, userID, days)
	if err != nil {
		return nil, err
	}
	return &Stats{Streak: streak, WeeklyAverage: weekly, Average: avg, Days: days}, nil
}
