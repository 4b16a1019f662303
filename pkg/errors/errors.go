// Package errors: MagicMinds API 전체에서 사용되는 서비스 레벨 에러를 정의한다.
// 각 서비스는 Code가 붙은 *Error를 반환하고, HTTP 레이어가 status로 매핑한다.
package errors

import (
	stdErrors "errors"
	"fmt"
)

// Code: API 스펙에서 정의한 에러 코드
type Code string

const (
	CodeUnauthenticated    Code = "UNAUTHENTICATED"
	CodeTokenExpired       Code = "TOKEN_EXPIRED"
	CodeInvalidToken       Code = "INVALID_TOKEN"
	CodeInvalidClaims      Code = "INVALID_CLAIMS"
	CodeForbidden          Code = "FORBIDDEN"
	CodeNotFound           Code = "NOT_FOUND"
	CodeBadRequest         Code = "BAD_REQUEST"
	CodeInvalidState       Code = "INVALID_STATE"
	CodeRoomFull           Code = "ROOM_FULL"
	CodeNotInRoom          Code = "NOT_IN_ROOM"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeInternal           Code = "INTERNAL_ERROR"
)

// Error: 서비스 레벨 에러 (HTTP 레이어에서 status/code로 매핑)
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err == nil && e.Message == "" {
		return fmt.Sprintf("error code=%s", e.Code)
	}
	if e.Err == nil {
		return fmt.Sprintf("error code=%s: %s", e.Code, e.Message)
	}
	if e.Message == "" {
		return fmt.Sprintf("error code=%s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("error code=%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New: 코드와 메시지만 담은 에러를 생성한다.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap: 원인 에러를 감싼 에러를 생성한다.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf: 에러 체인에서 Code를 추출한다. *Error가 아니면 CodeInternal을 반환한다.
func CodeOf(err error) Code {
	var e *Error
	if stdErrors.As(err, &e) && e != nil {
		return e.Code
	}
	return CodeInternal
}

// NotFound: CodeNotFound 에러 단축 생성자
func NotFound(message string) *Error { return New(CodeNotFound, message) }

// BadRequest: CodeBadRequest 에러 단축 생성자
func BadRequest(message string) *Error { return New(CodeBadRequest, message) }
