package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // PostgreSQL 드라이버 등록
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/magicminds/magicminds-api-go/internal/constants"
)

// PostgresService: PostgreSQL 연결 및 요청 단위 작업(Unit of Work)을 관리하는 서비스.
// 모든 도메인 쿼리는 RunAs를 통해 트랜잭션 + RLS 컨텍스트 안에서 실행된다.
type PostgresService struct {
	db       *sql.DB
	gormDB   *gorm.DB
	logger   *slog.Logger
	applyRLS bool
}

// Config: PostgreSQL 접속 정보를 담는 설정 구조체
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// NewPostgresService: 주어진 설정으로 PostgreSQL 연결을 수립하고 서비스를 초기화한다.
// 연결 풀 설정 및 초기 헬스 체크(Ping)를 수행하며, GORM 인스턴스도 함께 초기화한다.
func NewPostgresService(cfg Config, logger *slog.Logger) (*PostgresService, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, sslMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(constants.DatabaseConfig.MaxOpenConns)
	db.SetMaxIdleConns(constants.DatabaseConfig.MaxIdleConns)
	db.SetConnMaxLifetime(constants.DatabaseConfig.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), constants.DatabaseConfig.PingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	logger.Info("PostgreSQL connected",
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.String("database", cfg.Database),
	)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize GORM: %w", err)
	}

	return &PostgresService{
		db:       db,
		gormDB:   gormDB,
		logger:   logger,
		applyRLS: true,
	}, nil
}

// NewWithGorm: 이미 열린 GORM 인스턴스로 서비스를 구성한다.
// applyRLS=false는 set_config를 지원하지 않는 테스트용 드라이버(sqlite)에서 사용한다.
func NewWithGorm(gormDB *gorm.DB, logger *slog.Logger, applyRLS bool) (*PostgresService, error) {
	if gormDB == nil {
		return nil, fmt.Errorf("gorm db must not be nil")
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	return &PostgresService{
		db:       sqlDB,
		gormDB:   gormDB,
		logger:   logger,
		applyRLS: applyRLS,
	}, nil
}

// RunAs: 인증된 subject를 대신하여 하나의 작업 단위를 실행한다.
// 트랜잭션을 열고, 첫 도메인 쿼리 전에 정확히 한 번 RLS 컨텍스트
// (app.current_auth0_user_id, 트랜잭션 로컬)를 설정한 뒤 fn을 실행한다.
// fn이 nil을 반환하면 커밋, 에러를 반환하면 롤백한다.
func (ps *PostgresService) RunAs(ctx context.Context, subject string, fn func(tx *gorm.DB) error) error {
	if subject == "" {
		return fmt.Errorf("subject must not be empty")
	}

	return ps.gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if ps.applyRLS {
			if err := tx.Exec("SELECT set_config('app.current_auth0_user_id', ?, true)", subject).Error; err != nil {
				return fmt.Errorf("failed to set rls context: %w", err)
			}
		}
		return fn(tx)
	})
}

// GetDB: 기본 sql.DB 인스턴스를 반환한다. (헬스 체크 등 raw SQL 사용 시 활용)
func (ps *PostgresService) GetDB() *sql.DB {
	return ps.db
}

// Close: 데이터베이스 연결을 안전하게 종료한다.
func (ps *PostgresService) Close() error {
	if ps.db != nil {
		if err := ps.db.Close(); err != nil {
			return fmt.Errorf("failed to close postgres: %w", err)
		}
	}
	return nil
}

// Ping: 데이터베이스 연결 상태를 확인한다. (readiness 체크용)
func (ps *PostgresService) Ping(ctx context.Context) error {
	if err := ps.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}
