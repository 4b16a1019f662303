// Package story: 자녀별 생성 동화 CRUD를 담당하는 서비스
package story

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/magicminds/magicminds-api-go/internal/domain"
	"github.com/magicminds/magicminds-api-go/internal/model"
	"github.com/magicminds/magicminds-api-go/internal/service/database"
	apperrors "github.com/magicminds/magicminds-api-go/pkg/errors"
)

// Service: 생성 동화 저장/조회/삭제를 담당하는 서비스
type Service struct {
	db     *database.PostgresService
	logger *slog.Logger
}

func NewService(db *database.PostgresService, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// CreateStoryInput: 동화 저장 요청
type CreateStoryInput struct {
	ChildID  string  `json:"child_id"`
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	AudioURL *string `json:"audio_url"`
}

// Create: 소유 자녀 앞으로 동화를 저장한다.
func (s *Service) Create(ctx context.Context, subject string, input CreateStoryInput) (*domain.GeneratedStory, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.BadRequest("title is required")
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, apperrors.BadRequest("content is required")
	}

	var result *domain.GeneratedStory

	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		child, err := ownedChild(tx, subject, input.ChildID)
		if err != nil {
			return err
		}

		story := model.GeneratedStory{
			ID:        uuid.NewString(),
			ChildID:   child.ID,
			Title:     strings.TrimSpace(input.Title),
			Content:   input.Content,
			AudioURL:  input.AudioURL,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Create(&story).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to create story", err)
		}

		s.logger.Info("story saved",
			slog.String("story_id", story.ID),
			slog.String("child_id", child.ID),
		)
		result = model.ToStory(&story)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// List: 소유 자녀의 동화 목록을 최신순으로 반환한다.
func (s *Service) List(ctx context.Context, subject, childID string) ([]domain.GeneratedStory, error) {
	var result []domain.GeneratedStory

	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		child, err := ownedChild(tx, subject, childID)
		if err != nil {
			return err
		}

		var stories []model.GeneratedStory
		if err := tx.Where("child_id = ?", child.ID).
			Order("created_at DESC").
			Find(&stories).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to list stories", err)
		}

		result = make([]domain.GeneratedStory, 0, len(stories))
		for i := range stories {
			result = append(result, *model.ToStory(&stories[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get: 소유 자녀의 동화 단건 조회. 타인의 동화는 NOT_FOUND.
func (s *Service) Get(ctx context.Context, subject, storyID string) (*domain.GeneratedStory, error) {
	var result *domain.GeneratedStory

	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		story, err := ownedStory(tx, subject, storyID)
		if err != nil {
			return err
		}
		result = model.ToStory(story)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete: 소유 자녀의 동화를 삭제한다.
func (s *Service) Delete(ctx context.Context, subject, storyID string) error {
	return s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		story, err := ownedStory(tx, subject, storyID)
		if err != nil {
			return err
		}
		if err := tx.Where("id = ?", story.ID).Delete(&model.GeneratedStory{}).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to delete story", err)
		}
		return nil
	})
}

// SetAudioURL: 합성된 오디오 참조를 동화에 기록한다. (voice 서비스에서 사용)
func (s *Service) SetAudioURL(ctx context.Context, subject, storyID, audioURL string) error {
	return s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		story, err := ownedStory(tx, subject, storyID)
		if err != nil {
			return err
		}
		if err := tx.Model(&model.GeneratedStory{}).
			Where("id = ?", story.ID).
			Update("audio_url", audioURL).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to update story audio", err)
		}
		return nil
	})
}

// ownedStory: 소유 자녀에 속한 동화 행을 조회한다.
func ownedStory(tx *gorm.DB, subject, storyID string) (*model.GeneratedStory, error) {
	var story model.GeneratedStory
	err := tx.Where("id = ?", storyID).First(&story).Error
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("story not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load story", err)
	}

	if _, err := ownedChild(tx, subject, story.ChildID); err != nil {
		return nil, apperrors.NotFound("story not found")
	}
	return &story, nil
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
