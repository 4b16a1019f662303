package server

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/magicminds/magicminds-api-go/internal/service/session"
	apperrors "github.com/magicminds/magicminds-api-go/pkg/errors"
)

// CreateSession: 게임 세션을 시작합니다. 룸 상태는 playing으로 올라간다.
func (h *APIHandler) CreateSession(c *gin.Context) {
	var req session.CreateSessionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("invalid request body"))
		return
	}

	created, err := h.sessions.Create(c.Request.Context(), subjectOf(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	h.logger.Info("Game session started",
		slog.String("session_id", created.ID), slog.String("room_id", created.RoomID))
	c.JSON(201, created)
}

// GetSession: 게임 세션 단건을 반환합니다.
func (h *APIHandler) GetSession(c *gin.Context) {
	found, err := h.sessions.Get(c.Request.Context(), subjectOf(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(200, found)
}

// RecordScore: 게임 점수를 기록합니다. AI 플레이어 점수도 허용.
func (h *APIHandler) RecordScore(c *gin.Context) {
	var req session.RecordScoreInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("invalid request body"))
		return
	}

	score, err := h.sessions.RecordScore(c.Request.Context(), subjectOf(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(201, score)
}

// GetRoomScores: 룸의 점수 기록을 점수 내림차순으로 반환합니다.
// 룸이 정리된 뒤에도 기록은 남는다.
func (h *APIHandler) GetRoomScores(c *gin.Context) {
	scores, err := h.sessions.RoomScores(c.Request.Context(), subjectOf(c), c.Param("room_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(200, scores)
}
