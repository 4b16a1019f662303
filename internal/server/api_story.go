package server

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/magicminds/magicminds-api-go/internal/service/story"
	apperrors "github.com/magicminds/magicminds-api-go/pkg/errors"
)

// CreateStory: 자녀 앞으로 동화를 저장합니다.
func (h *APIHandler) CreateStory(c *gin.Context) {
	var req story.CreateStoryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("invalid request body"))
		return
	}

	created, err := h.stories.Create(c.Request.Context(), subjectOf(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	h.logger.Info("Story saved",
		slog.String("story_id", created.ID), slog.String("child_id", created.ChildID))
	c.JSON(201, created)
}

// ListStories: 자녀의 동화 목록을 최신순으로 반환합니다.
func (h *APIHandler) ListStories(c *gin.Context) {
	childID := c.Query("child_id")
	if childID == "" {
		writeError(c, apperrors.BadRequest("child_id query parameter is required"))
		return
	}

	stories, err := h.stories.List(c.Request.Context(), subjectOf(c), childID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(200, stories)
}

// GetStory: 동화 단건을 반환합니다.
func (h *APIHandler) GetStory(c *gin.Context) {
	found, err := h.stories.Get(c.Request.Context(), subjectOf(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(200, found)
}

// DeleteStory: 동화를 삭제합니다.
func (h *APIHandler) DeleteStory(c *gin.Context) {
	if err := h.stories.Delete(c.Request.Context(), subjectOf(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(204)
}
