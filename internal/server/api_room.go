package server

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/magicminds/magicminds-api-go/internal/service/room"
	apperrors "github.com/magicminds/magicminds-api-go/pkg/errors"
)

// CreateRoom: 게임 룸을 생성하고 호스트를 입장시킵니다.
func (h *APIHandler) CreateRoom(c *gin.Context) {
	var req room.CreateRoomInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("invalid request body"))
		return
	}

	created, err := h.rooms.Create(c.Request.Context(), subjectOf(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	h.logger.Info("Room created",
		slog.String("room_id", created.ID),
		slog.String("room_code", created.RoomCode),
		slog.String("host_child_id", created.HostChildID))
	c.JSON(201, created)
}

// JoinRoom: 룸 코드로 룸에 입장합니다.
func (h *APIHandler) JoinRoom(c *gin.Context) {
	var req struct {
		ChildID  string `json:"child_id" binding:"required"`
		RoomCode string `json:"room_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("child_id and room_code are required"))
		return
	}

	joined, err := h.rooms.Join(c.Request.Context(), subjectOf(c), req.ChildID, req.RoomCode)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(200, joined)
}

// LeaveRoom: 현재 룸에서 퇴장합니다. 호스트가 나가면 룸이 정리된다.
func (h *APIHandler) LeaveRoom(c *gin.Context) {
	var req struct {
		ChildID string `json:"child_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("child_id is required"))
		return
	}

	if err := h.rooms.Leave(c.Request.Context(), subjectOf(c), req.ChildID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(204)
}

// CloseRoom: 호스트가 룸을 닫습니다. 참가자/초대/세션이 함께 정리된다.
func (h *APIHandler) CloseRoom(c *gin.Context) {
	var req struct {
		RoomID string `json:"room_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("room_id is required"))
		return
	}

	if err := h.rooms.Close(c.Request.Context(), subjectOf(c), req.RoomID); err != nil {
		writeError(c, err)
		return
	}

	h.logger.Info("Room closed", slog.String("room_id", req.RoomID))
	c.Status(204)
}

// GetCurrentRoom: 자녀가 들어가 있는 룸을 반환합니다. 없으면 room: null.
func (h *APIHandler) GetCurrentRoom(c *gin.Context) {
	childID := c.Query("child_id")
	if childID == "" {
		writeError(c, apperrors.BadRequest("child_id query parameter is required"))
		return
	}

	current, err := h.rooms.Current(c.Request.Context(), subjectOf(c), childID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(200, gin.H{"room": current})
}

// GetRoomParticipants: 룸 참가자 목록을 반환합니다.
func (h *APIHandler) GetRoomParticipants(c *gin.Context) {
	participants, err := h.rooms.Participants(c.Request.Context(), subjectOf(c), c.Param("room_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(200, participants)
}

// InviteToRoom: 호스트가 친구를 룸에 초대합니다.
func (h *APIHandler) InviteToRoom(c *gin.Context) {
	var req struct {
		RoomID        string `json:"room_id" binding:"required"`
		FriendChildID string `json:"friend_child_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("room_id and friend_child_id are required"))
		return
	}

	invitation, err := h.rooms.Invite(c.Request.Context(), subjectOf(c), req.RoomID, req.FriendChildID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(201, invitation)
}

// RequestToJoinRoom: 룸 코드로 참가 요청을 보냅니다. 호스트 승인 대기.
func (h *APIHandler) RequestToJoinRoom(c *gin.Context) {
	var req struct {
		ChildID  string `json:"child_id" binding:"required"`
		RoomCode string `json:"room_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("child_id and room_code are required"))
		return
	}

	request, err := h.rooms.RequestToJoin(c.Request.Context(), subjectOf(c), req.ChildID, req.RoomCode)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(201, request)
}

// HandleJoinRequest: 호스트가 참가 요청을 승인/거부합니다.
func (h *APIHandler) HandleJoinRequest(c *gin.Context) {
	var req struct {
		RequestID string `json:"request_id" binding:"required"`
		Approve   *bool  `json:"approve" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("request_id and approve are required"))
		return
	}

	handled, err := h.rooms.HandleJoinRequest(c.Request.Context(), subjectOf(c), req.RequestID, *req.Approve)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(200, handled)
}

// GetPendingInvitations: 자녀 앞으로 도착한 pending 초대 목록을 반환합니다.
func (h *APIHandler) GetPendingInvitations(c *gin.Context) {
	childID := c.Query("child_id")
	if childID == "" {
		writeError(c, apperrors.BadRequest("child_id query parameter is required"))
		return
	}

	invitations, err := h.rooms.PendingInvitations(c.Request.Context(), subjectOf(c), childID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(200, invitations)
}

// AcceptInvitation: 초대를 수락하고 룸에 입장합니다. 만석이면 pending 유지.
func (h *APIHandler) AcceptInvitation(c *gin.Context) {
	var req struct {
		RequestID string `json:"request_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("request_id is required"))
		return
	}

	accepted, err := h.rooms.AcceptInvitation(c.Request.Context(), subjectOf(c), req.RequestID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(200, accepted)
}

// DeclineInvitation: 초대를 거절합니다.
func (h *APIHandler) DeclineInvitation(c *gin.Context) {
	var req struct {
		RequestID string `json:"request_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("request_id is required"))
		return
	}

	declined, err := h.rooms.DeclineInvitation(c.Request.Context(), subjectOf(c), req.RequestID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(200, declined)
}
