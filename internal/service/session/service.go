// Package session: 게임 세션과 점수 기록을 담당하는 서비스
package session

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/magicminds/magicminds-api-go/internal/domain"
	"github.com/magicminds/magicminds-api-go/internal/model"
	"github.com/magicminds/magicminds-api-go/internal/service/database"
	apperrors "github.com/magicminds/magicminds-api-go/pkg/errors"
)

// Service: 세션 생성/조회와 append-only 점수 기록을 담당하는 서비스
type Service struct {
	db     *database.PostgresService
	logger *slog.Logger
}

func NewService(db *database.PostgresService, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// CreateSessionInput: 세션 생성 요청
type CreateSessionInput struct {
	RoomID              string         `json:"room_id"`
	GameData            datatypes.JSON `json:"game_data"`
	CurrentTurnPlayerID *string        `json:"current_turn_player_id"`
}

// RecordScoreInput: 점수 기록 요청
type RecordScoreInput struct {
	RoomID         string  `json:"room_id"`
	SessionID      *string `json:"session_id"`
	ChildID        *string `json:"child_id"`
	PlayerName     string  `json:"player_name"`
	PlayerAvatar   *string `json:"player_avatar"`
	IsAI           bool    `json:"is_ai"`
	Score          int     `json:"score"`
	TotalQuestions int     `json:"total_questions"`
}

// Create: 룸에 대한 게임 세션을 시작하고 룸 상태를 playing으로 올린다.
func (s *Service) Create(ctx context.Context, subject string, input CreateSessionInput) (*domain.GameSession, error) {
	if input.RoomID == "" {
		return nil, apperrors.BadRequest("room_id is required")
	}

	var result *domain.GameSession

	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		var room model.GameRoom
		err := tx.Where("id = ?", input.RoomID).First(&room).Error
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("room not found")
		}
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to load room", err)
		}

		now := time.Now().UTC()
		session := model.GameSession{
			ID:                  uuid.NewString(),
			RoomID:              room.ID,
			GameData:            input.GameData,
			CurrentTurnPlayerID: input.CurrentTurnPlayerID,
			GameState:           string(domain.SessionActive),
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if err := tx.Create(&session).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to create session", err)
		}

		if room.Status == string(domain.RoomWaiting) {
			if err := tx.Model(&model.GameRoom{}).
				Where("id = ?", room.ID).
				Updates(map[string]any{
					"status":     string(domain.RoomPlaying),
					"updated_at": now,
				}).Error; err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, "failed to update room status", err)
			}
		}

		s.logger.Info("game session created",
			slog.String("session_id", session.ID),
			slog.String("room_id", room.ID),
		)
		result = model.ToSession(&session)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get: 세션 단건 조회
func (s *Service) Get(ctx context.Context, subject, sessionID string) (*domain.GameSession, error) {
	var result *domain.GameSession

	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		var session model.GameSession
		err := tx.Where("id = ?", sessionID).First(&session).Error
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("session not found")
		}
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to load session", err)
		}
		result = model.ToSession(&session)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RecordScore: 점수를 기록한다. 점수는 append-only이며 수정/삭제가 없다.
func (s *Service) RecordScore(ctx context.Context, subject string, input RecordScoreInput) (*domain.GameScore, error) {
	if input.RoomID == "" {
		return nil, apperrors.BadRequest("room_id is required")
	}
	if input.PlayerName == "" {
		return nil, apperrors.BadRequest("player_name is required")
	}
	if input.Score < 0 || input.TotalQuestions < 0 {
		return nil, apperrors.BadRequest("score and total_questions must not be negative")
	}

	var result *domain.GameScore

	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		score := model.GameScore{
			ID:             uuid.NewString(),
			RoomID:         input.RoomID,
			SessionID:      input.SessionID,
			ChildID:        input.ChildID,
			PlayerName:     input.PlayerName,
			PlayerAvatar:   input.PlayerAvatar,
			IsAI:           input.IsAI,
			Score:          input.Score,
			TotalQuestions: input.TotalQuestions,
			CreatedAt:      time.Now().UTC(),
		}
		if err := tx.Create(&score).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to record score", err)
		}
		result = model.ToScore(&score)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RoomScores: 룸의 점수 기록을 높은 점수 순으로 반환한다.
// 룸이 해체된 뒤에도 히스토리 조회가 가능하다.
func (s *Service) RoomScores(ctx context.Context, subject, roomID string) ([]domain.GameScore, error) {
	var result []domain.GameScore

	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		var scores []model.GameScore
		if err := tx.Where("room_id = ?", roomID).
			Order("score DESC, created_at ASC").
			Find(&scores).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to list scores", err)
		}

		result = make([]domain.GameScore, 0, len(scores))
		for i := range scores {
			result = append(result, *model.ToScore(&scores[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
