package server

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/magicminds/magicminds-api-go/internal/domain"
	"github.com/magicminds/magicminds-api-go/internal/service/profile"
	apperrors "github.com/magicminds/magicminds-api-go/pkg/errors"
)

// EnsureParent: 호출자의 부모 프로필을 반환하고, 없으면 생성합니다. (멱등)
// 새로 생성된 경우 201, 기존 프로필이면 200.
func (h *APIHandler) EnsureParent(c *gin.Context) {
	parent, created, err := h.profiles.EnsureParent(c.Request.Context(), subjectOf(c), emailOf(c))
	if err != nil {
		h.logger.Error("Failed to ensure parent profile", slog.Any("error", err))
		writeError(c, err)
		return
	}
	if created {
		c.JSON(201, parent)
		return
	}
	c.JSON(200, parent)
}

// GetParent: 호출자의 부모 프로필을 반환합니다.
func (h *APIHandler) GetParent(c *gin.Context) {
	parent, err := h.profiles.GetParent(c.Request.Context(), subjectOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(200, parent)
}

// CreateChild: 자녀 프로필을 생성합니다.
func (h *APIHandler) CreateChild(c *gin.Context) {
	var req profile.CreateChildInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("invalid request body"))
		return
	}

	child, err := h.profiles.CreateChild(c.Request.Context(), subjectOf(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	h.logger.Info("Child profile created",
		slog.String("child_id", child.ID), slog.String("name", child.Name))
	c.JSON(201, child)
}

// ListChildren: 호출자 소유의 자녀 프로필 목록을 반환합니다.
func (h *APIHandler) ListChildren(c *gin.Context) {
	children, err := h.profiles.ListChildren(c.Request.Context(), subjectOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(200, children)
}

// GetChild: 자녀 프로필 단건을 반환합니다.
func (h *APIHandler) GetChild(c *gin.Context) {
	child, err := h.profiles.GetChild(c.Request.Context(), subjectOf(c), c.Param("child_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(200, child)
}

// UpdateChild: 자녀 프로필을 부분 수정합니다.
func (h *APIHandler) UpdateChild(c *gin.Context) {
	var req domain.ChildUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("invalid request body"))
		return
	}

	child, err := h.profiles.UpdateChild(c.Request.Context(), subjectOf(c), c.Param("child_id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(200, child)
}

// UpdateChildStatus: 자녀 온라인 상태를 갱신합니다. last_seen_at은 항상 현재 시각.
func (h *APIHandler) UpdateChildStatus(c *gin.Context) {
	var req domain.ChildStatusUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("invalid request body"))
		return
	}

	child, err := h.profiles.UpdateChildStatus(c.Request.Context(), subjectOf(c), c.Param("child_id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(200, child)
}

// DeleteChild: 자녀 프로필과 하위 데이터를 삭제합니다.
func (h *APIHandler) DeleteChild(c *gin.Context) {
	childID := c.Param("child_id")
	if err := h.profiles.DeleteChild(c.Request.Context(), subjectOf(c), childID); err != nil {
		writeError(c, err)
		return
	}

	h.logger.Info("Child profile deleted", slog.String("child_id", childID))
	c.Status(204)
}
