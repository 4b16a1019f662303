package constants

import "time"

// ServerTimeout: HTTP 서버 타임아웃
var ServerTimeout = struct {
	ReadHeader     time.Duration
	Read           time.Duration
	Write          time.Duration
	Idle           time.Duration
	Shutdown       time.Duration
	MaxHeaderBytes int
}{
	ReadHeader:     10 * time.Second,
	Read:           30 * time.Second,
	Write:          60 * time.Second, // TTS 응답(base64 오디오)이 커질 수 있음
	Idle:           120 * time.Second,
	Shutdown:       15 * time.Second,
	MaxHeaderBytes: 1 << 20,
}

// DatabaseConfig: PostgreSQL 연결 풀 설정
var DatabaseConfig = struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}{
	MaxOpenConns:    10,
	MaxIdleConns:    5,
	ConnMaxLifetime: 30 * time.Minute,
	PingTimeout:     5 * time.Second,
}

// AuthConfig: 토큰 검증(JWKS) 설정
var AuthConfig = struct {
	JWKSFetchTimeout time.Duration
	JWKSCacheTTL     time.Duration
}{
	JWKSFetchTimeout: 10 * time.Second,
	JWKSCacheTTL:     15 * time.Minute, // 시간 제한 캐시: 만료 또는 미지의 kid에서 재조회
}

// RoomConfig: 게임 룸 코드/정원 설정
var RoomConfig = struct {
	CodeLength       int
	CodeMaxAttempts  int
	DefaultMaxPlayer int
}{
	CodeLength:       6,
	CodeMaxAttempts:  3, // 코드 충돌 시 같은 트랜잭션 안에서 재생성
	DefaultMaxPlayer: 4,
}

// ExternalAPITimeout: 외부 API 호출 타임아웃
var ExternalAPITimeout = struct {
	VoiceCreate time.Duration
	Synthesize  time.Duration
	Checkout    time.Duration
}{
	VoiceCreate: 30 * time.Second,
	Synthesize:  60 * time.Second,
	Checkout:    20 * time.Second,
}

// SearchConfig: 친구 검색 설정
var SearchConfig = struct {
	MaxResults int
}{
	MaxResults: 20,
}

// CORSConfig: CORS 허용 메서드/헤더
var CORSConfig = struct {
	AllowMethods []string
	AllowHeaders []string
}{
	AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
	AllowHeaders: []string{"Origin", "Content-Type", "Authorization", "Accept"},
}

// ServerConfig: 리버스 프록시 신뢰 설정
var ServerConfig = struct {
	TrustedProxies []string
}{
	TrustedProxies: []string{"127.0.0.1"},
}
