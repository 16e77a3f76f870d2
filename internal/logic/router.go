package logic

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"moodtrack-backend/internal/ai"
	"moodtrack-backend/internal/auth"
	"moodtrack-backend/internal/common"
	"moodtrack-backend/internal/db"
	"moodtrack-backend/internal/events"
	"moodtrack-backend/internal/logger"
	"moodtrack-backend/internal/mood"
	"moodtrack-backend/internal/onboarding"
	"moodtrack-backend/internal/subscription"
)

const (
	ctxUserID = "uid"
	ctxToken  = "token"
)

// Services are the collaborators the HTTP handlers call into.
type Services struct {
	Store      *db.Store
	Auth       *auth.Service
	Moods      *mood.Service
	Gate       *subscription.Gate
	Onboarding *onboarding.Service
	Prompter   *ai.Prompter
	Hub        *events.Hub
	Reminder   *Reminder

	// per-user AI request budget; AIRate <= 0 disables the limit
	AIRate  float64
	AIBurst int

	// AdminToken guards operator endpoints. Empty disables them.
	AdminToken string
}

type api struct {
	Services
	aiLimit *userLimiter
}

// SetupRouter 路由入口
func SetupRouter(s Services) *gin.Engine {
	registerValidators()

	h := &api{Services: s, aiLimit: newUserLimiter(s.AIRate, s.AIBurst)}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	r.POST("/api/auth/signup", h.SignUpHandler)
	r.POST("/api/auth/signin", h.SignInHandler)
	r.POST("/api/check_reminders", h.adminRequired, h.CheckRemindersHandler)

	authed := r.Group("/api", h.authRequired)
	authed.POST("/auth/signout", h.SignOutHandler)
	authed.GET("/auth/session", h.SessionHandler)
	authed.GET("/events", h.EventsHandler)

	authed.POST("/mood", h.SaveMoodHandler)
	authed.GET("/mood/today", h.TodayHandler)
	authed.GET("/mood/today/detailed", h.TodayDetailedHandler)
	authed.GET("/mood/recent", h.RecentHandler)
	authed.GET("/mood/week", h.WeekHandler)
	authed.GET("/mood/stats", h.StatsHandler)

	authed.GET("/subscription", h.SubscriptionHandler)
	authed.POST("/subscription", h.SubscribeHandler)
	authed.DELETE("/subscription", h.CancelSubscriptionHandler)
	authed.GET("/features/:name", h.FeatureHandler)

	authed.POST("/ai/prompt", h.aiRateLimited, h.PromptHandler)
	authed.POST("/ai/activities", h.aiRateLimited, h.ActivitiesHandler)

	authed.GET("/profile", h.ProfileHandler)
	authed.PUT("/profile", h.UpdateProfileHandler)
	authed.GET("/onboarding", h.OnboardingHandler)
	authed.POST("/onboarding/:event", h.OnboardingEventHandler)

	authed.POST("/push-token", h.PushTokenHandler)

	return r
}

var registerOnce sync.Once

func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("language", func(fl validator.FieldLevel) bool {
			return slices.Contains(common.Languages, fl.Field().String())
		})
	})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Debug("request", "method", c.Request.Method, "path", c.FullPath(), "status", c.Writer.Status())
	}
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	// browsers cannot set headers on a websocket upgrade
	return c.Query("token")
}

func (h *api) authRequired(c *gin.Context) {
	token := bearerToken(c)
	uid, err := h.Auth.Authenticate(c.Request.Context(), token)
	if err != nil {
		writeError(c, err)
		c.Abort()
		return
	}
	c.Set(ctxUserID, uid)
	c.Set(ctxToken, token)
	c.Next()
}

// adminRequired checks the X-Admin-Token header against the configured operator secret.
func (h *api) adminRequired(c *gin.Context) {
	if h.AdminToken == "" {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "operator endpoints are disabled"})
		return
	}
	given := c.GetHeader("X-Admin-Token")
	if subtle.ConstantTimeCompare([]byte(given), []byte(h.AdminToken)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin token required"})
		return
	}
	c.Next()
}

func userID(c *gin.Context) uint {
	return c.GetUint(ctxUserID)
}

// writeError maps domain errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, auth.ErrNoSession), errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, mood.ErrLimitReached),
		errors.Is(err, onboarding.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, mood.ErrInvalidRating),
		errors.Is(err, mood.ErrInvalidDays),
		errors.Is(err, onboarding.ErrEmptyName),
		errors.Is(err, onboarding.ErrUnknownEvent):
		status = http.StatusBadRequest
	case errors.Is(err, subscription.ErrNoSubscription):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "path", c.FullPath(), "err", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// limiterIdleTTL is how long a user's limiter survives without requests.
const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

type userLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	limiters  map[uint]*limiterEntry
	lastSweep time.Time
	now       func() time.Time
}

func newUserLimiter(perSec float64, burst int) *userLimiter {
	limit := rate.Inf
	if perSec > 0 {
		limit = rate.Limit(perSec)
	}
	if burst < 1 {
		burst = 1
	}
	return &userLimiter{
		limit:     limit,
		burst:     burst,
		limiters:  make(map[uint]*limiterEntry),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (l *userLimiter) Allow(uid uint) bool {
	l.mu.Lock()
	now := l.now()
	if now.Sub(l.lastSweep) > limiterIdleTTL {
		l.sweep(now)
	}
	e, ok := l.limiters[uid]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[uid] = e
	}
	e.seen = now
	l.mu.Unlock()
	return e.lim.AllowN(now, 1)
}

// sweep drops limiters idle for longer than limiterIdleTTL; an idle limiter
// has refilled to burst, so recreating it later changes nothing. Caller holds mu.
func (l *userLimiter) sweep(now time.Time) {
	for uid, e := range l.limiters {
		if now.Sub(e.seen) > limiterIdleTTL {
			delete(l.limiters, uid)
		}
	}
	l.lastSweep = now
}

func (h *api) aiRateLimited(c *gin.Context) {
	if !h.aiLimit.Allow(userID(c)) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many AI requests, try again later"})
		return
	}
	c.Next()
}
