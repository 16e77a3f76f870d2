package logic

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type promptRequest struct {
	Rating int `json:"rating" binding:"required,min=1,max=5"`
}

type activitiesRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Details string `json:"details" binding:"max=2000"`
}

// PromptHandler 生成一个引导用户描述心情的问题，失败时返回固定文案
func (h *api) PromptHandler(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prompt": h.Prompter.ReflectivePrompt(c.Request.Context(), req.Rating)})
}

// ActivitiesHandler 推荐活动
func (h *api) ActivitiesHandler(c *gin.Context) {
	var req activitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": h.Prompter.Activities(c.Request.Context(), req.Rating, req.Details)})
}
