package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/magicminds/magicminds-api-go/internal/constants"
	apperrors "github.com/magicminds/magicminds-api-go/pkg/errors"
)

// jwksDocument: Auth0 .well-known/jwks.json 응답 형식
type jwksDocument struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKSClient: 서명 검증 키를 TTL 캐시로 관리하는 JWKS 클라이언트.
// 캐시가 만료되었거나 모르는 kid가 들어오면 한 번 갱신을 시도한다.
// 잘못된 kid로 인한 반복 fetch를 막기 위해 갱신 직후에는 재갱신하지 않는다.
// fetch는 fetchMu로 단일화하고, 캐시된 키 조회는 fetch 중에도 막히지 않는다.
type JWKSClient struct {
	url        string
	ttl        time.Duration
	httpClient *http.Client
	logger     *slog.Logger

	fetchMu sync.Mutex // 동시 갱신 단일화 (키 조회는 막지 않는다)

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// NewJWKSClient: 기본 TTL(constants.AuthConfig.JWKSCacheTTL)로 클라이언트를 생성한다.
func NewJWKSClient(url string, logger *slog.Logger) *JWKSClient {
	return &JWKSClient{
		url: url,
		ttl: constants.AuthConfig.JWKSCacheTTL,
		httpClient: &http.Client{
			Timeout: constants.AuthConfig.JWKSFetchTimeout,
		},
		logger: logger,
		keys:   make(map[string]*rsa.PublicKey),
	}
}

// Key: kid에 해당하는 RSA 공개키를 반환한다.
func (c *JWKSClient) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key, ok := c.cachedKey(kid); ok {
		return key, nil
	}

	// 만료되었거나 모르는 kid: 키 로테이션 가능성이 있으므로 갱신한다.
	// 단, 방금 갱신한 캐시는 다시 가져오지 않는다.
	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	// 대기하는 사이 다른 고루틴이 갱신을 끝냈을 수 있다
	if key, ok := c.cachedKey(kid); ok {
		return key, nil
	}

	if c.needsRefresh() {
		if err := c.refresh(ctx); err != nil {
			return nil, err
		}
	}

	c.mu.RLock()
	key, ok := c.keys[kid]
	c.mu.RUnlock()
	if ok {
		return key, nil
	}
	return nil, apperrors.New(apperrors.CodeServiceUnavailable,
		fmt.Sprintf("signing key not found for kid %q", kid))
}

// cachedKey: TTL 이내의 캐시에서만 키를 반환한다.
func (c *JWKSClient) cachedKey(kid string) (*rsa.PublicKey, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if time.Since(c.fetchedAt) >= c.ttl {
		return nil, false
	}
	key, ok := c.keys[kid]
	return key, ok
}

// needsRefresh: 캐시가 만료됐거나, 갱신한 지 1분이 지나 로테이션 재확인이 가능한 경우.
func (c *JWKSClient) needsRefresh() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	age := time.Since(c.fetchedAt)
	return age >= c.ttl || age > time.Minute
}

// refresh: JWKS 문서를 가져와 캐시를 교체한다. fetchMu를 잡은 상태에서만 호출한다.
func (c *JWKSClient) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeServiceUnavailable, "failed to build jwks request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeServiceUnavailable, "failed to fetch jwks", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperrors.New(apperrors.CodeServiceUnavailable,
			fmt.Sprintf("jwks endpoint returned status %d", resp.StatusCode))
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return apperrors.Wrap(apperrors.CodeServiceUnavailable, "failed to decode jwks", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := parseRSAKey(k)
		if err != nil {
			c.logger.Warn("skipping unparseable jwk", slog.String("kid", k.Kid), slog.Any("error", err))
			continue
		}
		keys[k.Kid] = pub
	}

	if len(keys) == 0 {
		return apperrors.New(apperrors.CodeServiceUnavailable, "jwks contains no usable RSA keys")
	}

	c.mu.Lock()
	c.keys = keys
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	c.logger.Debug("jwks cache refreshed", slog.Int("keys", len(keys)))
	return nil
}

func parseRSAKey(k jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("invalid modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("invalid exponent: %w", err)
	}

	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	if e <= 0 {
		return nil, fmt.Errorf("non-positive exponent")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}
