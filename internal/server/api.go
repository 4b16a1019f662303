// Package server: HTTP API 핸들러와 미들웨어
package server

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/magicminds/magicminds-api-go/internal/health"
	"github.com/magicminds/magicminds-api-go/internal/service/billing"
	"github.com/magicminds/magicminds-api-go/internal/service/friend"
	"github.com/magicminds/magicminds-api-go/internal/service/profile"
	"github.com/magicminds/magicminds-api-go/internal/service/room"
	"github.com/magicminds/magicminds-api-go/internal/service/session"
	"github.com/magicminds/magicminds-api-go/internal/service/story"
	"github.com/magicminds/magicminds-api-go/internal/service/system"
	"github.com/magicminds/magicminds-api-go/internal/service/voice"
)

// APIHandler: REST API 핸들러 모음
type APIHandler struct {
	profiles *profile.Service
	friends  *friend.Service
	rooms    *room.Service
	sessions *session.Service
	stories  *story.Service
	voices   *voice.Service
	billing  *billing.Service
	system   *system.Collector
	logger   *slog.Logger
}

// NewAPIHandler: 새 APIHandler를 생성합니다.
func NewAPIHandler(
	profiles *profile.Service,
	friends *friend.Service,
	rooms *room.Service,
	sessions *session.Service,
	stories *story.Service,
	voices *voice.Service,
	billingSvc *billing.Service,
	collector *system.Collector,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		profiles: profiles,
		friends:  friends,
		rooms:    rooms,
		sessions: sessions,
		stories:  stories,
		voices:   voices,
		billing:  billingSvc,
		system:   collector,
		logger:   logger,
	}
}

// HandleRoot: GET / 서비스 메타데이터
func (h *APIHandler) HandleRoot(c *gin.Context) {
	c.JSON(200, gin.H{
		"service": "magicminds-api",
		"version": health.GetVersion(),
		"status":  "ok",
	})
}

// HandleHealthz: GET /healthz liveness probe
func (h *APIHandler) HandleHealthz(c *gin.Context) {
	c.JSON(200, health.Get())
}

// HandleSystemStats: GET /health/system 시스템 리소스 상태
func (h *APIHandler) HandleSystemStats(c *gin.Context) {
	stats, err := h.system.GetCurrentStats(c.Request.Context())
	if err != nil {
		h.logger.Error("system stats collection failed", "error", err)
		writeError(c, err)
		return
	}
	c.JSON(200, stats)
}
