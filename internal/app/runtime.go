package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/magicminds/magicminds-api-go/internal/config"
	"github.com/magicminds/magicminds-api-go/internal/constants"
	"github.com/magicminds/magicminds-api-go/internal/server"
	"github.com/magicminds/magicminds-api-go/internal/service/auth"
	"github.com/magicminds/magicminds-api-go/internal/service/billing"
	"github.com/magicminds/magicminds-api-go/internal/service/database"
	"github.com/magicminds/magicminds-api-go/internal/service/friend"
	"github.com/magicminds/magicminds-api-go/internal/service/profile"
	"github.com/magicminds/magicminds-api-go/internal/service/room"
	"github.com/magicminds/magicminds-api-go/internal/service/session"
	"github.com/magicminds/magicminds-api-go/internal/service/story"
	"github.com/magicminds/magicminds-api-go/internal/service/system"
	"github.com/magicminds/magicminds-api-go/internal/service/voice"
)

// Runtime: API 서버 런타임. 연결 리소스와 HTTP 서버를 보유한다.
type Runtime struct {
	Config *config.Config
	Logger *slog.Logger

	DB     *database.PostgresService
	Router *gin.Engine
	Addr   string
	Server *http.Server
}

// BuildRuntime: 설정으로부터 전체 서비스 그래프를 조립한다.
func BuildRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := database.NewPostgresService(database.Config{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		Database: cfg.Postgres.Database,
		SSLMode:  cfg.Postgres.SSLMode,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("database initialization failed: %w", err)
	}

	verifier := auth.NewVerifier(cfg.Auth0, logger)

	profiles := profile.NewService(db, logger)
	friends := friend.NewService(db, logger)
	rooms := room.NewService(db, logger)
	sessions := session.NewService(db, logger)
	stories := story.NewService(db, logger)

	voiceClient := voice.NewClient(cfg.ElevenLabs, logger)
	voices := voice.NewService(db, voiceClient, logger)

	stripeProvider := billing.NewStripeProvider(cfg.Stripe, logger)
	billingSvc := billing.NewService(db, stripeProvider, logger)

	collector := system.NewCollector(db)

	handler := server.NewAPIHandler(
		profiles, friends, rooms, sessions, stories, voices, billingSvc, collector, logger)

	router, err := NewRouter(ctx, cfg, logger, handler, verifier, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("router initialization failed: %w", err)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: constants.ServerTimeout.ReadHeader,
		ReadTimeout:       constants.ServerTimeout.Read,
		WriteTimeout:      constants.ServerTimeout.Write,
		IdleTimeout:       constants.ServerTimeout.Idle,
		MaxHeaderBytes:    constants.ServerTimeout.MaxHeaderBytes,
	}

	return &Runtime{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Router: router,
		Addr:   addr,
		Server: httpServer,
	}, nil
}

// Start: HTTP 서버를 백그라운드로 기동한다. 비정상 종료는 errCh로 전달된다.
func (r *Runtime) Start(errCh chan<- error) {
	if r == nil || r.Server == nil {
		return
	}

	go func() {
		if err := r.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if errCh != nil {
				errCh <- fmt.Errorf("HTTP server error: %w", err)
				return
			}
			r.Logger.Error("HTTP server error", slog.Any("error", err))
		}
	}()

	r.Logger.Info("HTTP server started", slog.String("addr", r.Addr))
}

// Shutdown: 진행 중인 요청을 마무리하고 서버를 내린다.
func (r *Runtime) Shutdown(ctx context.Context) error {
	if r == nil || r.Server == nil {
		return nil
	}
	if err := r.Server.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}
	return nil
}

// Close: 데이터베이스 등 런타임 리소스를 정리한다.
func (r *Runtime) Close() {
	if r == nil {
		return
	}
	if r.DB != nil {
		if err := r.DB.Close(); err != nil {
			r.Logger.Error("Failed to close database", slog.Any("error", err))
		}
	}
}
