package logic

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"moodtrack-backend/internal/auth"
	"moodtrack-backend/internal/events"
	"moodtrack-backend/internal/logger"
	"moodtrack-backend/internal/onboarding"
)

type credentials struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SignUpHandler 注册
func (h *api) SignUpHandler(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sess, err := h.Auth.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	h.startSession(c, sess)
}

// SignInHandler 登录
func (h *api) SignInHandler(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sess, err := h.Auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	h.startSession(c, sess)
}

func (h *api) startSession(c *gin.Context, sess *auth.Session) {
	state, err := h.Onboarding.Begin(c.Request.Context(), sess.UserID, sess.IsNewUser)
	if err != nil {
		writeError(c, err)
		return
	}
	h.Hub.Publish(sess.UserID, events.TypeSignedIn, gin.H{"onboarding": state})
	logger.Info("signed in", "user_id", sess.UserID, "new_user", sess.IsNewUser)
	c.JSON(http.StatusOK, gin.H{"session": sess, "onboarding": state})
}

// SignOutHandler 退出登录
func (h *api) SignOutHandler(c *gin.Context) {
	ctx := c.Request.Context()
	uid, err := h.Auth.SignOut(ctx, c.GetString(ctxToken))
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.Gate.ClearCache(ctx, uid); err != nil {
		logger.Warn("clear tier cache on sign out", "user_id", uid, "err", err)
	}
	if _, err := h.Onboarding.Fire(ctx, uid, onboarding.EventSignedOut); err != nil {
		logger.Warn("record sign out", "user_id", uid, "err", err)
	}
	h.Hub.Publish(uid, events.TypeSignedOut, nil)
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

// SessionHandler 当前会话
func (h *api) SessionHandler(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.Auth.User(ctx, userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	name, err := h.Onboarding.DisplayName(ctx, user.ID, user.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	state, err := h.Onboarding.Current(ctx, user.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":      user.ID,
		"email":        user.Email,
		"display_name": name,
		"onboarding":   state,
	})
}

// EventsHandler streams auth, mood and subscription changes over a websocket.
func (h *api) EventsHandler(c *gin.Context) {
	if err := h.Hub.Serve(c.Writer, c.Request, userID(c)); err != nil {
		logger.Debug("event stream closed", "user_id", userID(c), "err", err)
	}
}
