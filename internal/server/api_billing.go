package server

import (
	"errors"
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/magicminds/magicminds-api-go/internal/service/billing"
	apperrors "github.com/magicminds/magicminds-api-go/pkg/errors"
)

// CreateCheckout: 음성 구독 결제 checkout URL을 생성합니다.
// origin은 본문에 없으면 Origin 헤더에서 가져온다.
func (h *APIHandler) CreateCheckout(c *gin.Context) {
	var req struct {
		Origin string `json:"origin"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, apperrors.BadRequest("invalid request body"))
		return
	}
	origin := req.Origin
	if origin == "" {
		origin = c.GetHeader("Origin")
	}

	url, err := h.billing.CreateCheckout(c.Request.Context(), subjectOf(c), origin)
	if err != nil {
		h.logger.Error("Checkout creation failed", slog.Any("error", err))
		writeError(c, err)
		return
	}
	c.JSON(200, gin.H{"url": url})
}

// UpsertVoiceSubscription: 결제 완료 후 구독 레코드를 생성하거나 갱신합니다.
func (h *APIHandler) UpsertVoiceSubscription(c *gin.Context) {
	var req billing.SubscriptionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("invalid request body"))
		return
	}

	sub, err := h.billing.UpsertSubscription(c.Request.Context(), subjectOf(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	h.logger.Info("Voice subscription upserted",
		slog.String("subscription_id", sub.ID), slog.String("status", sub.Status))
	c.JSON(201, sub)
}

// GetVoiceSubscription: 호출자의 구독 정보를 반환합니다.
func (h *APIHandler) GetVoiceSubscription(c *gin.Context) {
	sub, err := h.billing.GetSubscription(c.Request.Context(), subjectOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(200, sub)
}

// CancelVoiceSubscription: 구독을 해지 상태로 전환합니다. 행은 유지된다.
func (h *APIHandler) CancelVoiceSubscription(c *gin.Context) {
	if err := h.billing.CancelSubscription(c.Request.Context(), subjectOf(c)); err != nil {
		writeError(c, err)
		return
	}

	h.logger.Info("Voice subscription cancelled")
	c.Status(204)
}
