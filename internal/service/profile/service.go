// Package profile: 부모/자녀 프로필 관리를 담당하는 서비스
package profile

import (
	"context"
	stdErrors "errors"
	"fmt"
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

// Service: 부모 프로필의 멱등 생성과 자녀 프로필 CRUD를 담당하는 서비스
type Service struct {
	db     *database.PostgresService
	logger *slog.Logger
}

func NewService(db *database.PostgresService, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// CreateChildInput: 자녀 프로필 생성 요청
type CreateChildInput struct {
	Name     string  `json:"name"`
	AgeGroup string  `json:"age_group"`
	Avatar   *string `json:"avatar"`
}

// EnsureParent: subject에 해당하는 부모 프로필을 반환하고, 없으면 생성한다.
// 토큰에 email 클레임이 없으면 placeholder 이메일을 사용한다. (멱등)
// 이번 호출에서 새로 생성됐으면 created=true.
func (s *Service) EnsureParent(ctx context.Context, subject, email string) (*domain.ParentProfile, bool, error) {
	var result *domain.ParentProfile
	var created bool

	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		var parent model.ParentProfile
		err := tx.Where("auth0_user_id = ?", subject).First(&parent).Error
		if err == nil {
			result = model.ToParent(&parent)
			return nil
		}
		if !stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to load parent profile", err)
		}

		if email == "" {
			email = fmt.Sprintf("%s@auth0.user", subject)
		}
		now := time.Now().UTC()
		parent = model.ParentProfile{
			ID:        uuid.NewString(),
			Auth0Sub:  subject,
			Email:     email,
			Name:      nameFromEmail(email),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&parent).Error; err != nil {
			// 동시 요청이 먼저 생성했을 수 있다
			if database.IsDuplicateKeyError(err) {
				if err := tx.Where("auth0_user_id = ?", subject).First(&parent).Error; err != nil {
					return apperrors.Wrap(apperrors.CodeInternal, "failed to load parent profile", err)
				}
				result = model.ToParent(&parent)
				return nil
			}
			return apperrors.Wrap(apperrors.CodeInternal, "failed to create parent profile", err)
		}

		s.logger.Info("parent profile created", slog.String("parent_id", parent.ID))
		result = model.ToParent(&parent)
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, created, nil
}

// GetParent: subject의 부모 프로필을 조회한다.
func (s *Service) GetParent(ctx context.Context, subject string) (*domain.ParentProfile, error) {
	var result *domain.ParentProfile

	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		parent, err := parentBySubject(tx, subject)
		if err != nil {
			return err
		}
		result = model.ToParent(parent)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CreateChild: 부모 아래 자녀 프로필을 생성한다.
func (s *Service) CreateChild(ctx context.Context, subject string, input CreateChildInput) (*domain.ChildProfile, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.BadRequest("child name is required")
	}
	if strings.TrimSpace(input.AgeGroup) == "" {
		return nil, apperrors.BadRequest("age_group is required")
	}

	var result *domain.ChildProfile

	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		parent, err := parentBySubject(tx, subject)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		child := model.ChildProfile{
			ID:        uuid.NewString(),
			ParentID:  parent.ID,
			Name:      strings.TrimSpace(input.Name),
			AgeGroup:  strings.TrimSpace(input.AgeGroup),
			Avatar:    input.Avatar,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&child).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to create child profile", err)
		}

		s.logger.Info("child profile created",
			slog.String("parent_id", parent.ID),
			slog.String("child_id", child.ID),
		)
		result = model.ToChild(&child)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListChildren: subject의 자녀 프로필 전체를 생성 순으로 반환한다.
func (s *Service) ListChildren(ctx context.Context, subject string) ([]domain.ChildProfile, error) {
	var result []domain.ChildProfile

	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		parent, err := parentBySubject(tx, subject)
		if err != nil {
			return err
		}

		var children []model.ChildProfile
		if err := tx.Where("parent_id = ?", parent.ID).
			Order("created_at ASC").
			Find(&children).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to list children", err)
		}
		result = model.ToChildren(children)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetChild: subject 소유의 자녀 프로필 하나를 조회한다. 타인의 자녀는 NOT_FOUND.
func (s *Service) GetChild(ctx context.Context, subject, childID string) (*domain.ChildProfile, error) {
	var result *domain.ChildProfile

	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		child, err := ownedChild(tx, subject, childID)
		if err != nil {
			return err
		}
		result = model.ToChild(child)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateChild: 전달된 필드만 갱신한다. (부분 업데이트)
func (s *Service) UpdateChild(ctx context.Context, subject, childID string, update domain.ChildUpdate) (*domain.ChildProfile, error) {
	var result *domain.ChildProfile

	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		child, err := ownedChild(tx, subject, childID)
		if err != nil {
			return err
		}

		updates := map[string]any{}
		if update.Name != nil {
			if strings.TrimSpace(*update.Name) == "" {
				return apperrors.BadRequest("child name must not be empty")
			}
			updates["name"] = strings.TrimSpace(*update.Name)
		}
		if update.AgeGroup != nil {
			updates["age_group"] = *update.AgeGroup
		}
		if update.Avatar != nil {
			updates["avatar"] = *update.Avatar
		}

		if len(updates) > 0 {
			updates["updated_at"] = time.Now().UTC()
			if err := tx.Model(&model.ChildProfile{}).
				Where("id = ?", child.ID).
				Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, "failed to update child profile", err)
			}
			if err := tx.Where("id = ?", child.ID).First(child).Error; err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, "failed to reload child profile", err)
			}
		}

		result = model.ToChild(child)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateChildStatus: 접속 상태를 갱신하고 last_seen_at을 현재 시각으로 기록한다.
func (s *Service) UpdateChildStatus(ctx context.Context, subject, childID string, update domain.ChildStatusUpdate) (*domain.ChildProfile, error) {
	if update.IsOnline == nil {
		return nil, apperrors.BadRequest("is_online is required")
	}

	var result *domain.ChildProfile

	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		child, err := ownedChild(tx, subject, childID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := tx.Model(&model.ChildProfile{}).
			Where("id = ?", child.ID).
			Updates(map[string]any{
				"is_online":    *update.IsOnline,
				"last_seen_at": now,
				"updated_at":   now,
			}).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to update child status", err)
		}

		if err := tx.Where("id = ?", child.ID).First(child).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to reload child profile", err)
		}
		result = model.ToChild(child)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteChild: 자녀 프로필을 삭제한다.
func (s *Service) DeleteChild(ctx context.Context, subject, childID string) error {
	return s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		child, err := ownedChild(tx, subject, childID)
		if err != nil {
			return err
		}

		if err := tx.Where("id = ?", child.ID).Delete(&model.ChildProfile{}).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to delete child profile", err)
		}

		s.logger.Info("child profile deleted", slog.String("child_id", child.ID))
		return nil
	})
}

// parentBySubject: 트랜잭션 안에서 subject의 부모 행을 조회한다.
func parentBySubject(tx *gorm.DB, subject string) (*model.ParentProfile, error) {
	var parent model.ParentProfile
	err := tx.Where("auth0_user_id = ?", subject).First(&parent).Error
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("parent profile not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load parent profile", err)
	}
	return &parent, nil
}

// ownedChild: subject 소유의 자녀 행을 조회한다. 소유가 아니면 NOT_FOUND로 응답해
// 다른 가족의 자녀 ID 존재 여부를 노출하지 않는다.
func ownedChild(tx *gorm.DB, subject, childID string) (*model.ChildProfile, error) {
	parent, err := parentBySubject(tx, subject)
	if err != nil {
		return nil, err
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

func nameFromEmail(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return "Parent"
}
