package server

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	apperrors "github.com/magicminds/magicminds-api-go/pkg/errors"
)

// SendFriendRequest: 친구 요청을 생성합니다.
func (h *APIHandler) SendFriendRequest(c *gin.Context) {
	var req struct {
		RequesterChildID string `json:"requester_child_id" binding:"required"`
		TargetChildID    string `json:"target_child_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("requester_child_id and target_child_id are required"))
		return
	}

	friendship, err := h.friends.SendRequest(c.Request.Context(), subjectOf(c), req.RequesterChildID, req.TargetChildID)
	if err != nil {
		writeError(c, err)
		return
	}

	h.logger.Info("Friend request sent",
		slog.String("requester", req.RequesterChildID), slog.String("target", req.TargetChildID))
	c.JSON(201, friendship)
}

// AcceptFriendRequest: 받은 친구 요청을 수락합니다.
func (h *APIHandler) AcceptFriendRequest(c *gin.Context) {
	friendship, err := h.friends.Accept(c.Request.Context(), subjectOf(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(200, friendship)
}

// DeclineFriendRequest: 받은 친구 요청을 거절합니다. 요청 행은 삭제된다.
func (h *APIHandler) DeclineFriendRequest(c *gin.Context) {
	if err := h.friends.Decline(c.Request.Context(), subjectOf(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(204)
}

// ListFriends: 자녀의 친구 목록을 presence와 함께 반환합니다.
func (h *APIHandler) ListFriends(c *gin.Context) {
	childID := c.Query("child_id")
	if childID == "" {
		writeError(c, apperrors.BadRequest("child_id query parameter is required"))
		return
	}

	friends, err := h.friends.List(c.Request.Context(), subjectOf(c), childID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(200, friends)
}

// ListFriendRequests: 자녀 앞으로 도착한 pending 친구 요청 목록을 반환합니다.
func (h *APIHandler) ListFriendRequests(c *gin.Context) {
	childID := c.Query("child_id")
	if childID == "" {
		writeError(c, apperrors.BadRequest("child_id query parameter is required"))
		return
	}

	requests, err := h.friends.PendingIncoming(c.Request.Context(), subjectOf(c), childID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(200, requests)
}

// SearchChildren: 이름으로 친구 후보를 검색합니다. 본인/기존 친구는 제외.
func (h *APIHandler) SearchChildren(c *gin.Context) {
	query := c.Query("q")
	childID := c.Query("child_id")
	if query == "" || childID == "" {
		writeError(c, apperrors.BadRequest("q and child_id query parameters are required"))
		return
	}

	results, err := h.friends.Search(c.Request.Context(), subjectOf(c), childID, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(200, results)
}

// Unfriend: 친구 관계를 해제합니다.
func (h *APIHandler) Unfriend(c *gin.Context) {
	childID := c.Param("child_id")
	friendID := c.Query("friend_child_id")
	if friendID == "" {
		writeError(c, apperrors.BadRequest("friend_child_id query parameter is required"))
		return
	}

	if err := h.friends.Unfriend(c.Request.Context(), subjectOf(c), childID, friendID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(204)
}
