package logic

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"moodtrack-backend/internal/db"
	"moodtrack-backend/internal/events"
	"moodtrack-backend/internal/logger"
	"moodtrack-backend/internal/onboarding"
)

func (h *api) ProfileHandler(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.Auth.User(ctx, userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	prefs, err := h.Onboarding.Preferences(ctx, user.ID, user.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": user.Email, "preferences": prefs})
}

func (h *api) UpdateProfileHandler(c *gin.Context) {
	var req onboarding.PreferencesUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	user, err := h.Auth.User(ctx, userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	prefs, err := h.Onboarding.UpdatePreferences(ctx, user.ID, user.Email, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": user.Email, "preferences": prefs})
}

// OnboardingHandler 当前引导步骤
func (h *api) OnboardingHandler(c *gin.Context) {
	state, err := h.Onboarding.Current(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *api) OnboardingEventHandler(c *gin.Context) {
	ev, err := onboarding.ParseEvent(c.Param("event"))
	if err != nil {
		writeError(c, err)
		return
	}
	uid := userID(c)
	state, err := h.Onboarding.Fire(c.Request.Context(), uid, ev)
	if err != nil {
		writeError(c, err)
		return
	}
	h.Hub.Publish(uid, events.TypeOnboardingChanged, gin.H{"state": state})
	c.JSON(http.StatusOK, gin.H{"state": state})
}

type pushTokenRequest struct {
	Token    string `json:"token" binding:"required,max=255"`
	Platform string `json:"platform" binding:"omitempty,oneof=ios android web"`
}

// PushTokenHandler 注册推送设备
func (h *api) PushTokenHandler(c *gin.Context) {
	var req pushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	uid := userID(c)
	token := &db.PushToken{UserID: uid, Token: req.Token, Platform: req.Platform}
	if err := h.Store.SavePushToken(c.Request.Context(), token); err != nil {
		writeError(c, err)
		return
	}
	logger.Info("push token registered", "user_id", uid, "platform", req.Platform)
	c.JSON(http.StatusOK, gin.H{"message": "registered"})
}

// CheckRemindersHandler 手动触发提醒检查
func (h *api) CheckRemindersHandler(c *gin.Context) {
	report, err := h.Reminder.Run(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reminder check done", "report": report})
}
