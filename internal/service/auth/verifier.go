// Package auth: Auth0가 발급한 Bearer 토큰의 서명/발급자/audience를 검증한다.
package auth

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"

	"github.com/golang-jwt/jwt/v5"

	"github.com/magicminds/magicminds-api-go/internal/config"
	apperrors "github.com/magicminds/magicminds-api-go/pkg/errors"
)

// Identity: 검증된 토큰에서 추출한 호출자 정보
type Identity struct {
	Subject string
	Email   string
}

// Verifier: JWKS 기반 토큰 검증 서비스
type Verifier struct {
	cfg    config.Auth0Config
	jwks   *JWKSClient
	logger *slog.Logger
}

func NewVerifier(cfg config.Auth0Config, logger *slog.Logger) *Verifier {
	return &Verifier{
		cfg:    cfg,
		jwks:   NewJWKSClient(cfg.JWKSURL, logger),
		logger: logger,
	}
}

// Verify: 토큰 서명, 발급자, 만료, audience를 검증하고 호출자 Identity를 반환한다.
// audience는 API audience를 먼저, client id(id_token)를 그다음으로 허용한다.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, apperrors.New(apperrors.CodeUnauthenticated, "missing bearer token")
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, apperrors.New(apperrors.CodeInvalidToken, "token missing kid header")
		}
		return v.jwks.Key(ctx, kid)
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, mapJWTError(err)
	}

	if err := v.checkAudience(claims); err != nil {
		return nil, err
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, apperrors.New(apperrors.CodeInvalidClaims, "token missing sub claim")
	}

	return &Identity{
		Subject: subject,
		Email:   v.extractEmail(claims),
	}, nil
}

func (v *Verifier) checkAudience(claims jwt.MapClaims) error {
	allowed := v.cfg.Audiences()
	if len(allowed) == 0 {
		return apperrors.New(apperrors.CodeInternal, "no audiences configured")
	}

	tokenAuds, err := claims.GetAudience()
	if err != nil || len(tokenAuds) == 0 {
		return apperrors.New(apperrors.CodeInvalidClaims, "token missing aud claim")
	}

	for _, want := range allowed {
		for _, got := range tokenAuds {
			if got == want {
				return nil
			}
		}
	}
	return apperrors.New(apperrors.CodeInvalidClaims, "token audience mismatch")
}

// extractEmail: 표준 email 클레임을 우선하고, 없으면 커스텀 네임스페이스 클레임을 본다.
// 둘 다 없으면 빈 문자열을 반환한다. (email은 프로필 최초 생성 시에만 사용)
func (v *Verifier) extractEmail(claims jwt.MapClaims) string {
	if email, ok := claims["email"].(string); ok && email != "" {
		return email
	}
	if v.cfg.EmailClaim != "" {
		if email, ok := claims[v.cfg.EmailClaim].(string); ok && email != "" {
			return email
		}
	}
	return ""
}

func mapJWTError(err error) error {
	var appErr *apperrors.Error
	if stdErrors.As(err, &appErr) {
		return appErr
	}

	switch {
	case stdErrors.Is(err, jwt.ErrTokenExpired):
		return apperrors.Wrap(apperrors.CodeTokenExpired, "token expired", err)
	case stdErrors.Is(err, jwt.ErrTokenMalformed):
		return apperrors.Wrap(apperrors.CodeInvalidToken, "malformed token", err)
	case stdErrors.Is(err, jwt.ErrTokenSignatureInvalid):
		return apperrors.Wrap(apperrors.CodeInvalidToken, "invalid token signature", err)
	case stdErrors.Is(err, jwt.ErrTokenInvalidIssuer),
		stdErrors.Is(err, jwt.ErrTokenInvalidAudience),
		stdErrors.Is(err, jwt.ErrTokenUsedBeforeIssued),
		stdErrors.Is(err, jwt.ErrTokenNotValidYet),
		stdErrors.Is(err, jwt.ErrTokenInvalidClaims):
		return apperrors.Wrap(apperrors.CodeInvalidClaims, "invalid token claims", err)
	default:
		return apperrors.Wrap(apperrors.CodeInvalidToken, "token verification failed", err)
	}
}
