package ai

import (
	"sort"
	"strings"
)

// Activity is a self-care suggestion shown after a mood is logged.
type Activity struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Duration    int      `json:"duration"`
	Category    string   `json:"category"`
	MoodImpact  string   `json:"mood_impact"`
	Tags        []string `json:"tags"`
}

const MaxActivities = 3

// Catalogue is every activity the app can recommend.
var Catalogue = []Activity{
	{
		ID:          "1",
		Title:       "5-Minute Meditation",
		Description: "Take a short break to clear your mind and focus on your breathing.",
		Duration:    5,
		Category:    "mindfulness",
		MoodImpact:  "medium",
		Tags:        []string{"stress", "anxiety", "calm", "focus", "beginner"},
	},
	{
		ID:          "2",
		Title:       "Quick Stretching",
		Description: "Loosen up with some simple stretches to release tension.",
		Duration:    10,
		Category:    "exercise",
		MoodImpact:  "medium",
		Tags:        []string{"energy", "tension", "physical", "morning", "beginner"},
	},
	{
		ID:          "3",
		Title:       "Gratitude Journaling",
		Description: "Write down three things you are grateful for today.",
		Duration:    15,
		Category:    "mindfulness",
		MoodImpact:  "high",
		Tags:        []string{"negative thoughts", "perspective", "reflection", "sadness", "intermediate"},
	},
	{
		ID:          "4",
		Title:       "Call a Friend",
		Description: "Reach out to someone you care about for a quick chat.",
		Duration:    20,
		Category:    "social",
		MoodImpact:  "high",
		Tags:        []string{"loneliness", "connection", "support", "isolation", "beginner"},
	},
	{
		ID:          "5",
		Title:       "Nature Walk",
		Description: "Take a walk outside and connect with nature.",
		Duration:    30,
		Category:    "exercise",
		MoodImpact:  "high",
		Tags:        []string{"stress", "fresh air", "perspective", "energy", "beginner"},
	},
}

// keyword in the user's note -> words that mark a related activity
var keywordHints = []struct {
	keyword string
	related []string
}{
	{"stress", []string{"meditation", "breathing", "nature"}},
	{"anxiety", []string{"breathing", "meditation"}},
	{"sad", []string{"friend", "gratitude"}},
	{"tired", []string{"stretching", "walk"}},
	{"lonely", []string{"friend", "social"}},
}

func (a Activity) mentions(word string) bool {
	if strings.Contains(strings.ToLower(a.Title), word) ||
		strings.Contains(strings.ToLower(a.Description), word) ||
		strings.Contains(strings.ToLower(a.Category), word) {
		return true
	}
	for _, tag := range a.Tags {
		if strings.Contains(tag, word) {
			return true
		}
	}
	return false
}

func score(a Activity, rating int, details string) int {
	s := 0
	switch {
	case rating <= 2:
		if a.Category == "mindfulness" {
			s += 3
		}
		if a.Category == "social" {
			s += 2
		}
	case rating == 3:
		if a.Category == "exercise" {
			s += 2
		}
	default:
		if a.Category == "exercise" || a.Category == "social" {
			s += 3
		}
	}
	for _, h := range keywordHints {
		if !strings.Contains(details, h.keyword) {
			continue
		}
		for _, word := range h.related {
			if a.mentions(word) {
				s += 3
			}
		}
	}
	return s
}

// Rank orders catalogue by fit for the mood and returns the best MaxActivities.
// Ties keep catalogue order.
func Rank(catalogue []Activity, rating int, details string) []Activity {
	details = strings.ToLower(details)
	type scored struct {
		activity Activity
		score    int
	}
	list := make([]scored, 0, len(catalogue))
	for _, a := range catalogue {
		list = append(list, scored{a, score(a, rating, details)})
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].score > list[j].score })

	n := MaxActivities
	if len(list) < n {
		n = len(list)
	}
	out := make([]Activity, 0, n)
	for _, s := range list[:n] {
		out = append(out, s.activity)
	}
	return out
}
