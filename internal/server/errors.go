package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/magicminds/magicminds-api-go/pkg/errors"
)

// mapErrorToHTTP: 서비스 에러 코드를 HTTP 상태로 매핑한다.
// 409는 쓰지 않는다. 상태 충돌류는 모두 400으로 응답한다.
func mapErrorToHTTP(err error) (int, apperrors.Code) {
	code := apperrors.CodeOf(err)
	switch code {
	case apperrors.CodeUnauthenticated,
		apperrors.CodeTokenExpired,
		apperrors.CodeInvalidToken,
		apperrors.CodeInvalidClaims:
		return http.StatusUnauthorized, code
	case apperrors.CodeForbidden:
		return http.StatusForbidden, code
	case apperrors.CodeNotFound:
		return http.StatusNotFound, code
	case apperrors.CodeBadRequest,
		apperrors.CodeInvalidState,
		apperrors.CodeRoomFull,
		apperrors.CodeNotInRoom:
		return http.StatusBadRequest, code
	case apperrors.CodeServiceUnavailable:
		return http.StatusServiceUnavailable, code
	default:
		return http.StatusInternalServerError, apperrors.CodeInternal
	}
}

// writeError: 에러 응답 공통 형식 {"error": CODE, "message": ...}
func writeError(c *gin.Context, err error) {
	status, code := mapErrorToHTTP(err)

	message := "internal server error"
	if status != http.StatusInternalServerError {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) && appErr.Message != "" {
			message = appErr.Message
		} else {
			message = err.Error()
		}
	}

	c.JSON(status, gin.H{
		"error":   code,
		"message": message,
	})
}
