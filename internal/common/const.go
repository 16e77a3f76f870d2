package common

import "time"

// DateLayout is the calendar-date format stored on every mood row (yyyy-mm-dd).
const DateLayout = "2006-01-02"

// TimeLayout is the time-of-day format stored on detailed mood rows.
const TimeLayout = "15:04:05.000"

const (
	MinRating = 1
	MaxRating = 5
)

// StreakLookback bounds how far back a streak walk goes.
const StreakLookback = 365

const (
	DefaultRecentDays  = 7
	DefaultAverageDays = 30
	MaxHistoryDays     = 365
)

// SubscriptionPeriod is how long a premium activation lasts.
const SubscriptionPeriod = 1

const DefaultTierCacheTTL = 6 * time.Hour

// Per-user key/value keys. Each is prefixed with "user:<id>:" by the kv helpers.
const (
	KeySubscriptionTier     = "subscription_tier"
	KeyDisplayName          = "display_name"
	KeyLanguage             = "language"
	KeyNotificationsEnabled = "notifications_enabled"
	KeyDarkMode             = "dark_mode"
	KeyLastMoodRating       = "last_mood_rating"
	KeyOnboardingCompleted  = "onboarding_completed"
	KeyOnboardingState      = "onboarding_state"
)

const DefaultLanguage = "en"

// Languages the app ships translations for.
var Languages = []string{"en", "es", "fr", "de", "zh"}

// FreeFeatures lists what a free-tier account may use. Premium unlocks everything.
var FreeFeatures = []string{
	"daily_mood_tracking",
	"basic_mood_summary",
	"simple_mood_trends",
	"daily_quote",
	"basic_activities",
	"streak_tracking",
	"theme_toggle",
	"basic_notifications",
}

const (
	RolePrompt = "You are a warm, concise wellbeing companion inside a mood tracking app. " +
		"You never diagnose. You answer in plain English without markdown."

	ReflectivePromptTemplate = "The user rated today's mood {{.rating}} on a scale of 1 (very low) to 5 (great). " +
		"Write one short, gentle question (under 25 words) inviting them to describe what shaped this mood."

	ActivityPromptTemplate = "The user rated today's mood {{.rating}} out of 5 and wrote: \"{{.details}}\".\n" +
		"Pick the three most helpful activities from this catalogue:\n{{.catalogue}}\n" +
		"Reply with only a JSON array of the chosen activity ids, best first, e.g. [\"3\",\"1\",\"5\"]."

	FallbackPrompt = "Tell us more about how you feel today..."
)

var DefaultHunyuanModel = "hunyuan-turbos-latest"
var DefaultHunyuanBaseUrl = "https://api.hunyuan.cloud.tencent.com/v1"
var DefaultHunyuanEndpoint = "hunyuan.ap-guangzhou.tencentcloudapi.com"
