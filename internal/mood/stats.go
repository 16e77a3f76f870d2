package mood

import (
	"time"

	"moodtrack-backend/internal/common"
	"moodtrack-backend/internal/db"
)

// DateOf formats t as a UTC calendar date.
func DateOf(t time.Time) string {
	return t.UTC().Format(common.DateLayout)
}

// DaysBefore returns the calendar date n days before t (UTC).
func DaysBefore(t time.Time, n int) string {
	return t.UTC().AddDate(0, 0, -n).Format(common.DateLayout)
}

// WeekStart returns the Sunday that starts t's week (UTC).
func WeekStart(t time.Time) string {
	t = t.UTC()
	return t.AddDate(0, 0, -int(t.Weekday())).Format(common.DateLayout)
}

// RoundedMean is the integer mean of ratings, halves rounded up. Empty input gives 0.
func RoundedMean(ratings []int) int {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	n := len(ratings)
	// floor(sum/n + 1/2) without floats
	return (2*sum + n) / (2 * n)
}

// Streak counts consecutive calendar days with an entry, ending at the most
// recent date in dates. It looks back at most common.StreakLookback days.
func Streak(dates []string) int {
	if len(dates) == 0 {
		return 0
	}
	seen := make(map[string]bool, len(dates))
	latest := ""
	for _, d := range dates {
		seen[d] = true
		if d > latest {
			latest = d
		}
	}
	start, err := time.Parse(common.DateLayout, latest)
	if err != nil {
		return 0
	}

	streak := 1
	for i := 1; i <= common.StreakLookback; i++ {
		if !seen[start.AddDate(0, 0, -i).Format(common.DateLayout)] {
			break
		}
		streak++
	}
	return streak
}

// Average is the arithmetic mean of the entries' ratings, or nil when there are none.
func Average(entries []db.MoodEntry) *float64 {
	if len(entries) == 0 {
		return nil
	}
	sum := 0
	for _, e := range entries {
		sum += e.Rating
	}
	avg := float64(sum) / float64(len(entries))
	return &avg
}
