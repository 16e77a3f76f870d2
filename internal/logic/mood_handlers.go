package logic

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"moodtrack-backend/internal/common"
	"moodtrack-backend/internal/events"
	"moodtrack-backend/internal/logger"
)

type saveMoodRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Details string `json:"details" binding:"max=2000"`
}

// range checks happen in the mood service so 0 is rejected rather than defaulted
type daysQuery struct {
	Days *int `form:"days"`
}

func (q daysQuery) or(def int) int {
	if q.Days == nil {
		return def
	}
	return *q.Days
}

// SaveMoodHandler 记录今天的心情
func (h *api) SaveMoodHandler(c *gin.Context) {
	var req saveMoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	uid := userID(c)

	tier, err := h.Gate.CurrentTier(ctx, uid)
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := h.Moods.Save(ctx, uid, tier, req.Rating, req.Details)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.Onboarding.RememberMood(ctx, uid, res.Summary.Rating); err != nil {
		logger.Warn("cache last mood rating", "user_id", uid, "err", err)
	}
	h.Hub.Publish(uid, events.TypeMoodSaved, res)
	c.JSON(http.StatusOK, gin.H{"tier": tier, "summary": res.Summary, "detailed_count": res.DetailedCount})
}

// TodayHandler 今天的汇总，没有记录时 entry 为 null
func (h *api) TodayHandler(c *gin.Context) {
	entry, err := h.Moods.Today(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

func (h *api) TodayDetailedHandler(c *gin.Context) {
	entries, err := h.Moods.TodayDetailed(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *api) RecentHandler(c *gin.Context) {
	var q daysQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	days := q.or(common.DefaultRecentDays)
	entries, err := h.Moods.Recent(c.Request.Context(), userID(c), days)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days, "entries": entries})
}

func (h *api) WeekHandler(c *gin.Context) {
	entries, err := h.Moods.CurrentWeek(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// StatsHandler 连续天数和平均心情
func (h *api) StatsHandler(c *gin.Context) {
	var q daysQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	stats, err := h.Moods.Stats(c.Request.Context(), userID(c), q.or(common.DefaultAverageDays))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
