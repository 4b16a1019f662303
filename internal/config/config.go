package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config: MagicMinds API 서버 전체 동작에 필요한 설정을 담는 구조체
type Config struct {
	Server     ServerConfig
	Postgres   PostgresConfig
	Auth0      Auth0Config
	CORS       CORSConfig
	Stripe     StripeConfig
	ElevenLabs ElevenLabsConfig
	GCP        GCPConfig
	Logging    LoggingConfig
	Version    string
}

// ServerConfig: HTTP 서버 설정
type ServerConfig struct {
	Port int
}

// PostgresConfig: 메인 데이터베이스(PostgreSQL) 연결 설정
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// Auth0Config: 토큰 발급자(Auth0) 검증 설정.
// Audience(API)와 ClientID(id_token) 두 가지 audience를 모두 허용한다.
type Auth0Config struct {
	Domain   string
	ClientID string
	Audience string
	Issuer   string
	JWKSURL  string
	// EmailClaim: 표준 email 클레임이 없을 때 조회할 커스텀 네임스페이스 클레임
	EmailClaim string
}

// CORSConfig: 허용 origin 목록 설정
type CORSConfig struct {
	AllowedOrigins []string
}

// StripeConfig: 결제 프로바이더 설정
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	PriceID       string
}

// ElevenLabsConfig: 음성 합성 프로바이더 설정
type ElevenLabsConfig struct {
	APIKey  string
	BaseURL string
}

// GCPConfig: 배포 환경 메타데이터 (Cloud Run)
type GCPConfig struct {
	ProjectID string
	Region    string
}

// LoggingConfig: 애플리케이션 로그 설정 (레벨, 디렉토리, 로테이션 정책)
type LoggingConfig struct {
	Level      string
	Dir        string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Load: .env 파일 및 환경 변수로부터 설정을 로드하고, 기본값을 적용하여 Config 객체를 생성한다.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvInt("PORT", 8080),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DB", "magicminds"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Auth0: Auth0Config{
			Domain:     getEnv("AUTH0_DOMAIN", ""),
			ClientID:   getEnv("AUTH0_CLIENT_ID", ""),
			Audience:   getEnv("AUTH0_AUDIENCE", ""),
			Issuer:     getEnv("AUTH0_ISSUER", ""),
			JWKSURL:    getEnv("AUTH0_JWKS_URL", ""),
			EmailClaim: getEnv("AUTH0_EMAIL_CLAIM", "https://magicminds.app/email"),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseCommaSeparated(getEnv("ALLOWED_ORIGINS", "*")),
		},
		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			PriceID:       getEnv("STRIPE_PRICE_ID", ""),
		},
		ElevenLabs: ElevenLabsConfig{
			APIKey:  getEnv("ELEVENLABS_API_KEY", ""),
			BaseURL: getEnv("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io"),
		},
		GCP: GCPConfig{
			ProjectID: getEnv("GCP_PROJECT_ID", ""),
			Region:    getEnv("GCP_REGION", "us-central1"),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Dir:        getEnv("LOG_DIR", ""),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 30),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
		Version: strings.TrimSpace(getEnv("APP_VERSION", "1.0.0-go")),
	}

	// Auth0 issuer/JWKS URL은 domain만 지정해도 유도 가능
	if cfg.Auth0.Issuer == "" && cfg.Auth0.Domain != "" {
		cfg.Auth0.Issuer = fmt.Sprintf("https://%s/", cfg.Auth0.Domain)
	}
	if cfg.Auth0.JWKSURL == "" && cfg.Auth0.Domain != "" {
		cfg.Auth0.JWKSURL = fmt.Sprintf("https://%s/.well-known/jwks.json", cfg.Auth0.Domain)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate: 필수 설정값이 누락되지 않았는지 검증한다.
func (c *Config) Validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("PORT is required")
	}
	if c.Postgres.Host == "" || c.Postgres.Database == "" {
		return fmt.Errorf("POSTGRES_HOST and POSTGRES_DB are required")
	}
	if c.Auth0.Domain == "" && c.Auth0.JWKSURL == "" {
		return fmt.Errorf("AUTH0_DOMAIN or AUTH0_JWKS_URL is required")
	}
	if c.Auth0.Audience == "" && c.Auth0.ClientID == "" {
		return fmt.Errorf("AUTH0_AUDIENCE or AUTH0_CLIENT_ID is required")
	}
	return nil
}

// Audiences: 허용되는 audience 목록을 우선순위 순서로 반환한다.
// API audience를 먼저 시도하고, 그다음 client id(id_token)를 시도한다.
func (c *Auth0Config) Audiences() []string {
	var auds []string
	if c.Audience != "" {
		auds = append(auds, c.Audience)
	}
	if c.ClientID != "" && c.ClientID != c.Audience {
		auds = append(auds, c.ClientID)
	}
	return auds
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
