package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	authsvc "github.com/magicminds/magicminds-api-go/internal/service/auth"
	apperrors "github.com/magicminds/magicminds-api-go/pkg/errors"
)

const (
	ctxKeySubject = "auth_subject"
	ctxKeyEmail   = "auth_email"
)

// TokenVerifier: Bearer 토큰 검증 경계 (테스트에서 fake 주입용)
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*authsvc.Identity, error)
}

func parseBearerToken(c *gin.Context) (string, bool) {
	raw := strings.TrimSpace(c.GetHeader("Authorization"))
	if raw == "" {
		return "", false
	}
	parts := strings.Fields(raw)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// BearerAuthMiddleware: Authorization 헤더의 토큰을 검증하고
// 호출자 식별 정보를 요청 컨텍스트에 저장한다.
func BearerAuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := parseBearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   apperrors.CodeUnauthenticated,
				"message": "bearer token required",
			})
			return
		}

		identity, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			status, code := mapErrorToHTTP(err)
			// 검증 실패는 전부 인증 오류 계열이어야 한다
			if status == http.StatusInternalServerError {
				status, code = http.StatusUnauthorized, apperrors.CodeInvalidToken
			}
			c.AbortWithStatusJSON(status, gin.H{
				"error":   code,
				"message": "token verification failed",
			})
			return
		}

		c.Set(ctxKeySubject, identity.Subject)
		c.Set(ctxKeyEmail, identity.Email)
		c.Next()
	}
}

// subjectOf: 인증 미들웨어가 저장한 호출자 subject
func subjectOf(c *gin.Context) string {
	return c.GetString(ctxKeySubject)
}

// emailOf: 토큰에서 추출된 이메일 (없으면 빈 문자열)
func emailOf(c *gin.Context) string {
	return c.GetString(ctxKeyEmail)
}
