// Package voice: 보이스 클론 생성과 동화 오디오 합성을 담당하는 서비스
package voice

import (
	"context"
	"encoding/base64"
	stdErrors "errors"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/magicminds/magicminds-api-go/internal/domain"
	"github.com/magicminds/magicminds-api-go/internal/model"
	"github.com/magicminds/magicminds-api-go/internal/service/database"
	apperrors "github.com/magicminds/magicminds-api-go/pkg/errors"
)

// Synthesizer: 음성 프로바이더 경계 (테스트에서 fake 주입용)
type Synthesizer interface {
	CreateVoice(ctx context.Context, name string, sample []byte, filename string) (string, error)
	Synthesize(ctx context.Context, voiceID, text string) ([]byte, error)
}

// Service: 구독 자격 검사 후 음성 프로바이더에 위임하는 서비스.
// 오디오 원본은 저장하지 않고 프로바이더가 반환한 참조만 기록한다.
type Service struct {
	db     *database.PostgresService
	client Synthesizer
	logger *slog.Logger
}

func NewService(db *database.PostgresService, client Synthesizer, logger *slog.Logger) *Service {
	return &Service{db: db, client: client, logger: logger}
}

// CreateVoiceClone: 자녀의 오디오 샘플로 보이스 클론을 만든다.
// 활성 음성 구독이 없으면 FORBIDDEN으로 거부한다.
func (s *Service) CreateVoiceClone(ctx context.Context, subject, childID string, sample []byte, filename string) (*domain.ChildProfile, error) {
	if len(sample) == 0 {
		return nil, apperrors.BadRequest("audio sample is required")
	}

	// 자격 검사와 자녀 확인을 먼저 끝내고 외부 호출은 트랜잭션 밖에서 한다
	var child *model.ChildProfile
	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		c, err := ownedChild(tx, subject, childID)
		if err != nil {
			return err
		}
		if err := requireActiveSubscription(tx, c.ParentID); err != nil {
			return err
		}
		child = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	voiceID, err := s.client.CreateVoice(ctx, child.Name, sample, filename)
	if err != nil {
		return nil, err
	}

	var result *domain.ChildProfile
	err = s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		if err := tx.Model(&model.ChildProfile{}).
			Where("id = ?", child.ID).
			Updates(map[string]any{
				"voice_clone_enabled": true,
				"voice_clone_url":     voiceID,
				"updated_at":          time.Now().UTC(),
			}).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to store voice reference", err)
		}

		var reloaded model.ChildProfile
		if err := tx.Where("id = ?", child.ID).First(&reloaded).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to reload child profile", err)
		}
		result = model.ToChild(&reloaded)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("voice clone created",
		slog.String("child_id", child.ID),
		slog.String("voice_id", voiceID),
	)
	return result, nil
}

// GenerateStoryAudio: 자녀의 클론 목소리로 텍스트를 합성해 base64 오디오를 반환한다.
func (s *Service) GenerateStoryAudio(ctx context.Context, subject, childID, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", apperrors.BadRequest("text is required")
	}

	var voiceID string
	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		child, err := ownedChild(tx, subject, childID)
		if err != nil {
			return err
		}
		if !child.VoiceCloneEnabled || child.VoiceCloneID == nil || *child.VoiceCloneID == "" {
			return apperrors.New(apperrors.CodeInvalidState, "child has no voice clone")
		}
		voiceID = *child.VoiceCloneID
		return nil
	})
	if err != nil {
		return "", err
	}

	audio, err := s.client.Synthesize(ctx, voiceID, text)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(audio), nil
}

// requireActiveSubscription: 부모의 활성 음성 구독이 없으면 FORBIDDEN
func requireActiveSubscription(tx *gorm.DB, parentID string) error {
	var count int64
	if err := tx.Model(&model.VoiceSubscription{}).
		Where("parent_id = ? AND status = ?", parentID, "active").
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to check subscription", err)
	}
	if count == 0 {
		return apperrors.New(apperrors.CodeForbidden, "active voice subscription required")
	}
	return nil
}

func ownedChild(tx *gorm.DB, subject, childID string) (*model.ChildProfile, error) {
	var parent model.ParentProfile
	err := tx.Where("auth0_user_id = ?", subject).First(&parent).Error
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("parent profile not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load parent profile", err)
	}

	var child model.ChildProfile
	err = tx.Where("id = ? AND parent_id = ?", childID, parent.ID).First(&child).Error
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("child profile not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load child profile", err)
	}
	return &child, nil
}
