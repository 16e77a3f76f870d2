package logic

import (
	"context"
	"time"

	"moodtrack-backend/internal/db"
	"moodtrack-backend/internal/events"
	"moodtrack-backend/internal/logger"
	"moodtrack-backend/internal/mood"
)

// ReminderStore is what the reminder job reads and prunes.
type ReminderStore interface {
	ListPushTokens(ctx context.Context) ([]db.PushToken, error)
	DeletePushToken(ctx context.Context, token string) error
	FindSummary(ctx context.Context, userID uint, date string) (*db.MoodEntry, error)
	FindUser(ctx context.Context, id uint) (*db.User, error)
}

// Preferences answers per-user notification questions.
type Preferences interface {
	NotificationsEnabled(ctx context.Context, uid uint) (bool, error)
	DisplayName(ctx context.Context, uid uint, email string) (string, error)
}

// ReminderReport summarises one reminder run.
type ReminderReport struct {
	Users    int `json:"users"`
	Reminded int `json:"reminded"`
	Sent     int `json:"sent"`
	Failed   int `json:"failed"`
	Pruned   int `json:"pruned"`
}

// Reminder nudges users who have not logged a mood today.
type Reminder struct {
	store  ReminderStore
	prefs  Preferences
	sender PushSender
	hub    *events.Hub
	Now    func() time.Time
}

func NewReminder(store ReminderStore, prefs Preferences, sender PushSender, hub *events.Hub) *Reminder {
	return &Reminder{store: store, prefs: prefs, sender: sender, hub: hub, Now: time.Now}
}

// Run checks every user with a registered device once.
func (r *Reminder) Run(ctx context.Context) (ReminderReport, error) {
	var report ReminderReport
	logger.Info("checking today's mood entries for reminders")

	tokens, err := r.store.ListPushTokens(ctx)
	if err != nil {
		return report, err
	}
	byUser := make(map[uint][]string)
	var order []uint
	for _, t := range tokens {
		if _, ok := byUser[t.UserID]; !ok {
			order = append(order, t.UserID)
		}
		byUser[t.UserID] = append(byUser[t.UserID], t.Token)
	}

	today := mood.DateOf(r.Now())
	for _, uid := range order {
		report.Users++
		enabled, err := r.prefs.NotificationsEnabled(ctx, uid)
		if err != nil {
			logger.Warn("read notification preference failed", "user_id", uid, "err", err)
			continue
		}
		if !enabled {
			continue
		}
		entry, err := r.store.FindSummary(ctx, uid, today)
		if err != nil {
			logger.Warn("check today's entry failed", "user_id", uid, "err", err)
			continue
		}
		if entry != nil {
			continue
		}

		report.Reminded++
		if r.hub != nil {
			r.hub.Publish(uid, events.TypeReminder, map[string]string{"date": today})
		}
		r.push(ctx, uid, byUser[uid], &report)
	}

	logger.Info("reminder check done", "users", report.Users, "reminded", report.Reminded, "sent", report.Sent, "failed", report.Failed)
	return report, nil
}

func (r *Reminder) push(ctx context.Context, uid uint, tokens []string, report *ReminderReport) {
	name := "there"
	if user, err := r.store.FindUser(ctx, uid); err == nil && user != nil {
		if n, err := r.prefs.DisplayName(ctx, uid, user.Email); err == nil {
			name = n
		}
	}
	msgs := make([]PushMessage, 0, len(tokens))
	for _, t := range tokens {
		msgs = append(msgs, ReminderMessage(t, name))
	}

	tickets, err := r.sender.Send(ctx, msgs)
	if err != nil {
		report.Failed += len(msgs)
		logger.Warn("send reminder failed", "user_id", uid, "err", err)
		return
	}
	for i, ticket := range tickets {
		if ticket.OK() {
			report.Sent++
			continue
		}
		report.Failed++
		// the app was uninstalled; the token will never work again
		if ticket.Details.Error == ErrDeviceNotRegistered {
			if err := r.store.DeletePushToken(ctx, msgs[i].To); err != nil {
				logger.Warn("delete dead push token failed", "user_id", uid, "err", err)
			} else {
				report.Pruned++
			}
		}
	}
}

// nextRun is the next hour:minute strictly after now, in now's location.
func nextRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// StartScheduler runs the reminder daily at hour:minute until ctx is done.
func StartScheduler(ctx context.Context, r *Reminder, hour, minute int) {
	logger.Info("starting reminder scheduler", "at", time.Date(0, 1, 1, hour, minute, 0, 0, time.Local).Format("15:04"))
	go func() {
		for {
			next := nextRun(time.Now(), hour, minute)
			wait := time.Until(next)
			logger.Info("next reminder check", "at", next.Format("2006-01-02 15:04:05"), "in", wait.Round(time.Second))

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				logger.Info("reminder scheduler stopped")
				return
			case <-timer.C:
			}
			if _, err := r.Run(ctx); err != nil {
				logger.Error("reminder check failed", "err", err)
			}
		}
	}()
}
