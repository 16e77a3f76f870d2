package onboarding

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"moodtrack-backend/internal/common"
	"moodtrack-backend/internal/kv"
)

var ErrEmptyName = errors.New("onboarding: display name is empty")

const MaxNameLength = 50

type Preferences struct {
	DisplayName          string `json:"display_name"`
	Language             string `json:"language"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
	DarkMode             bool   `json:"dark_mode"`
	LastMoodRating       int    `json:"last_mood_rating,omitempty"`
	OnboardingCompleted  bool   `json:"onboarding_completed"`
}

// PreferencesUpdate carries only the fields the client changed.
type PreferencesUpdate struct {
	DisplayName          *string `json:"display_name" binding:"omitempty,max=50"`
	Language             *string `json:"language" binding:"omitempty,language"`
	NotificationsEnabled *bool   `json:"notifications_enabled"`
	DarkMode             *bool   `json:"dark_mode"`
}

// Service stores preferences and onboarding state in the key/value store.
type Service struct {
	store kv.Store
}

func NewService(store kv.Store) *Service {
	return &Service{store: store}
}

func (s *Service) get(ctx context.Context, uid uint, name, def string) (string, error) {
	return kv.GetString(ctx, s.store, kv.UserKey(uid, name), def)
}

func (s *Service) set(ctx context.Context, uid uint, name, value string) error {
	return s.store.Set(ctx, kv.UserKey(uid, name), value, 0)
}

func (s *Service) getBool(ctx context.Context, uid uint, name string, def bool) (bool, error) {
	raw, err := s.get(ctx, uid, name, strconv.FormatBool(def))
	if err != nil {
		return def, err
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def, nil
	}
	return v, nil
}

// EmailName is the part of an address before the @.
func EmailName(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}

// DisplayName returns the stored name or, when none is set, the email's local part.
func (s *Service) DisplayName(ctx context.Context, uid uint, email string) (string, error) {
	name, err := s.get(ctx, uid, common.KeyDisplayName, "")
	if err != nil {
		return "", err
	}
	if name == "" {
		return EmailName(email), nil
	}
	return name, nil
}

func (s *Service) Preferences(ctx context.Context, uid uint, email string) (*Preferences, error) {
	var (
		p   Preferences
		err error
	)
	if p.DisplayName, err = s.DisplayName(ctx, uid, email); err != nil {
		return nil, err
	}
	if p.Language, err = s.get(ctx, uid, common.KeyLanguage, common.DefaultLanguage); err != nil {
		return nil, err
	}
	if p.NotificationsEnabled, err = s.NotificationsEnabled(ctx, uid); err != nil {
		return nil, err
	}
	if p.DarkMode, err = s.getBool(ctx, uid, common.KeyDarkMode, false); err != nil {
		return nil, err
	}
	if p.OnboardingCompleted, err = s.getBool(ctx, uid, common.KeyOnboardingCompleted, false); err != nil {
		return nil, err
	}
	rating, err := s.get(ctx, uid, common.KeyLastMoodRating, "")
	if err != nil {
		return nil, err
	}
	p.LastMoodRating, _ = strconv.Atoi(rating)
	return &p, nil
}

// UpdatePreferences applies the non-nil fields of u.
func (s *Service) UpdatePreferences(ctx context.Context, uid uint, email string, u PreferencesUpdate) (*Preferences, error) {
	if u.DisplayName != nil {
		if err := s.SetDisplayName(ctx, uid, *u.DisplayName); err != nil {
			return nil, err
		}
	}
	if u.Language != nil {
		if err := s.set(ctx, uid, common.KeyLanguage, *u.Language); err != nil {
			return nil, err
		}
	}
	if u.NotificationsEnabled != nil {
		if err := s.set(ctx, uid, common.KeyNotificationsEnabled, strconv.FormatBool(*u.NotificationsEnabled)); err != nil {
			return nil, err
		}
	}
	if u.DarkMode != nil {
		if err := s.set(ctx, uid, common.KeyDarkMode, strconv.FormatBool(*u.DarkMode)); err != nil {
			return nil, err
		}
	}
	return s.Preferences(ctx, uid, email)
}

func (s *Service) SetDisplayName(ctx context.Context, uid uint, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if len([]rune(name)) > MaxNameLength {
		name = string([]rune(name)[:MaxNameLength])
	}
	return s.set(ctx, uid, common.KeyDisplayName, name)
}

// NotificationsEnabled defaults to on.
func (s *Service) NotificationsEnabled(ctx context.Context, uid uint) (bool, error) {
	return s.getBool(ctx, uid, common.KeyNotificationsEnabled, true)
}

// RememberMood keeps the last submitted rating for quick display.
func (s *Service) RememberMood(ctx context.Context, uid uint, rating int) error {
	return s.set(ctx, uid, common.KeyLastMoodRating, strconv.Itoa(rating))
}

func (s *Service) save(ctx context.Context, uid uint, st State) error {
	if st == StateHome {
		if err := s.set(ctx, uid, common.KeyOnboardingCompleted, "true"); err != nil {
			return err
		}
	}
	return s.set(ctx, uid, common.KeyOnboardingState, string(st))
}

func (s *Service) facts(ctx context.Context, uid uint, isNewUser bool) (Facts, error) {
	completed, err := s.getBool(ctx, uid, common.KeyOnboardingCompleted, false)
	if err != nil {
		return Facts{}, err
	}
	name, err := s.get(ctx, uid, common.KeyDisplayName, "")
	if err != nil {
		return Facts{}, err
	}
	return Facts{SignedIn: true, Completed: completed, IsNewUser: isNewUser, HasName: name != ""}, nil
}

// Begin resolves and records the starting state after sign-up or sign-in.
func (s *Service) Begin(ctx context.Context, uid uint, isNewUser bool) (State, error) {
	f, err := s.facts(ctx, uid, isNewUser)
	if err != nil {
		return "", err
	}
	st := Resolve(f)
	return st, s.save(ctx, uid, st)
}

// Current returns the recorded state. A session with nothing recorded is treated as returning.
func (s *Service) Current(ctx context.Context, uid uint) (State, error) {
	raw, err := s.get(ctx, uid, common.KeyOnboardingState, "")
	if err != nil {
		return "", err
	}
	if raw == "" || State(raw) == StateLogin {
		return s.Begin(ctx, uid, false)
	}
	return State(raw), nil
}

// Fire applies ev to the user's current state and records the result.
func (s *Service) Fire(ctx context.Context, uid uint, ev Event) (State, error) {
	from, err := s.Current(ctx, uid)
	if err != nil {
		return "", err
	}
	if ev == EventNameSet {
		name, err := s.get(ctx, uid, common.KeyDisplayName, "")
		if err != nil {
			return "", err
		}
		if name == "" {
			return from, ErrEmptyName
		}
	}
	to, err := Transition(from, ev)
	if err != nil {
		return from, err
	}
	return to, s.save(ctx, uid, to)
}
