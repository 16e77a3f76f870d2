package logic

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"moodtrack-backend/internal/events"
	"moodtrack-backend/internal/subscription"
)

// SubscriptionHandler 当前订阅
func (h *api) SubscriptionHandler(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	tier, err := h.Gate.CurrentTier(ctx, uid)
	if err != nil {
		writeError(c, err)
		return
	}
	sub, err := h.Gate.Details(ctx, uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tier": tier, "subscription": sub})
}

// SubscribeHandler 开通高级版（无支付）
func (h *api) SubscribeHandler(c *gin.Context) {
	uid := userID(c)
	sub, err := h.Gate.Subscribe(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	h.Hub.Publish(uid, events.TypeSubscriptionChanged, gin.H{"tier": subscription.TierPremium})
	c.JSON(http.StatusOK, gin.H{"tier": subscription.TierPremium, "subscription": sub})
}

func (h *api) CancelSubscriptionHandler(c *gin.Context) {
	uid := userID(c)
	if err := h.Gate.Cancel(c.Request.Context(), uid); err != nil {
		writeError(c, err)
		return
	}
	h.Hub.Publish(uid, events.TypeSubscriptionChanged, gin.H{"tier": subscription.TierFree})
	c.JSON(http.StatusOK, gin.H{"tier": subscription.TierFree})
}

func (h *api) FeatureHandler(c *gin.Context) {
	name := c.Param("name")
	ok, err := h.Gate.IsFeatureAvailable(c.Request.Context(), userID(c), name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feature": name, "available": ok})
}
