// Package friend: 자녀 간 친구 요청/수락/검색을 담당하는 서비스
package friend

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/magicminds/magicminds-api-go/internal/constants"
	"github.com/magicminds/magicminds-api-go/internal/domain"
	"github.com/magicminds/magicminds-api-go/internal/model"
	"github.com/magicminds/magicminds-api-go/internal/service/database"
	apperrors "github.com/magicminds/magicminds-api-go/pkg/errors"
)

// Service: 친구 그래프(요청, 수락, 목록, 검색)를 담당하는 서비스
type Service struct {
	db     *database.PostgresService
	logger *slog.Logger
}

func NewService(db *database.PostgresService, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// IncomingRequest: 수신된 친구 요청 (요청자 프로필 포함)
type IncomingRequest struct {
	ID        string  `json:"id"`
	Requester Profile `json:"requester"`
}

// Profile: 친구 검색/요청 응답에 쓰이는 자녀 프로필 요약
type Profile struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Avatar   *string `json:"avatar"`
	AgeGroup string  `json:"age_group"`
}

// SendRequest: requesterChildID 명의로 targetChildID에게 친구 요청을 보낸다.
// 요청자 자녀는 호출자 소유여야 하고, 어느 방향으로든 기존 관계가 있으면 거부한다.
func (s *Service) SendRequest(ctx context.Context, subject, requesterChildID, targetChildID string) (*domain.Friend, error) {
	if requesterChildID == targetChildID {
		return nil, apperrors.BadRequest("cannot send a friend request to yourself")
	}

	var result *domain.Friend

	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		if _, err := ownedChild(tx, subject, requesterChildID); err != nil {
			return err
		}

		var target model.ChildProfile
		err := tx.Where("id = ?", targetChildID).First(&target).Error
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("target child not found")
		}
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to load target child", err)
		}

		var existing int64
		if err := tx.Model(&model.Friend{}).
			Where("(requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)",
				requesterChildID, targetChildID, targetChildID, requesterChildID).
			Count(&existing).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to check existing friendship", err)
		}
		if existing > 0 {
			return apperrors.New(apperrors.CodeInvalidState, "friend relationship already exists")
		}

		now := time.Now().UTC()
		friendship := model.Friend{
			ID:          uuid.NewString(),
			RequesterID: requesterChildID,
			AddresseeID: targetChildID,
			Status:      string(domain.FriendPending),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Create(&friendship).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to create friend request", err)
		}

		s.logger.Info("friend request sent",
			slog.String("requester_id", requesterChildID),
			slog.String("addressee_id", targetChildID),
		)
		result = model.ToFriend(&friendship)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Accept: pending 상태의 수신 요청을 수락한다. 수신자 자녀의 소유자만 가능하다.
func (s *Service) Accept(ctx context.Context, subject, friendshipID string) (*domain.Friend, error) {
	var result *domain.Friend

	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		friendship, err := addresseeOwnedFriendship(tx, subject, friendshipID)
		if err != nil {
			return err
		}
		if friendship.Status != string(domain.FriendPending) {
			return apperrors.New(apperrors.CodeInvalidState, "friend request is not pending")
		}

		friendship.Status = string(domain.FriendAccepted)
		friendship.UpdatedAt = time.Now().UTC()
		if err := tx.Model(&model.Friend{}).
			Where("id = ?", friendship.ID).
			Updates(map[string]any{
				"status":     friendship.Status,
				"updated_at": friendship.UpdatedAt,
			}).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to accept friend request", err)
		}

		result = model.ToFriend(friendship)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Decline: pending 요청을 거절하고 행을 제거한다.
func (s *Service) Decline(ctx context.Context, subject, friendshipID string) error {
	return s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		friendship, err := addresseeOwnedFriendship(tx, subject, friendshipID)
		if err != nil {
			return err
		}
		if friendship.Status != string(domain.FriendPending) {
			return apperrors.New(apperrors.CodeInvalidState, "friend request is not pending")
		}

		if err := tx.Where("id = ?", friendship.ID).Delete(&model.Friend{}).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to decline friend request", err)
		}
		return nil
	})
}

// Unfriend: 소유 자녀와 friendID 사이의 관계를 방향과 무관하게 제거한다.
func (s *Service) Unfriend(ctx context.Context, subject, childID, friendID string) error {
	return s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		if _, err := ownedChild(tx, subject, childID); err != nil {
			return err
		}

		res := tx.Where("(requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)",
			childID, friendID, friendID, childID).
			Delete(&model.Friend{})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to remove friendship", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("friendship not found")
		}
		return nil
	})
}

// List: 소유 자녀의 수락된 친구 목록을 파생 presence와 함께 반환한다.
func (s *Service) List(ctx context.Context, subject, childID string) ([]domain.FriendWithPresence, error) {
	var result []domain.FriendWithPresence

	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		if _, err := ownedChild(tx, subject, childID); err != nil {
			return err
		}

		var friendships []model.Friend
		if err := tx.Where("status = ? AND (requester_id = ? OR addressee_id = ?)",
			string(domain.FriendAccepted), childID, childID).
			Find(&friendships).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to list friendships", err)
		}

		friendIDs := make([]string, 0, len(friendships))
		for _, f := range friendships {
			if f.RequesterID == childID {
				friendIDs = append(friendIDs, f.AddresseeID)
			} else {
				friendIDs = append(friendIDs, f.RequesterID)
			}
		}

		result = make([]domain.FriendWithPresence, 0, len(friendIDs))
		if len(friendIDs) == 0 {
			return nil
		}

		var children []model.ChildProfile
		if err := tx.Where("id IN ?", friendIDs).
			Order("name ASC").
			Find(&children).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to load friend profiles", err)
		}

		for i := range children {
			c := &children[i]
			result = append(result, domain.FriendWithPresence{
				ID:       c.ID,
				Name:     c.Name,
				Avatar:   c.Avatar,
				AgeGroup: c.AgeGroup,
				IsOnline: c.IsOnline,
				Status:   presenceOf(c),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// PendingIncoming: 소유 자녀가 받은 pending 요청 목록을 요청자 프로필과 함께 반환한다.
func (s *Service) PendingIncoming(ctx context.Context, subject, childID string) ([]IncomingRequest, error) {
	var result []IncomingRequest

	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		if _, err := ownedChild(tx, subject, childID); err != nil {
			return err
		}

		var friendships []model.Friend
		if err := tx.Where("addressee_id = ? AND status = ?", childID, string(domain.FriendPending)).
			Order("created_at ASC").
			Find(&friendships).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to list pending requests", err)
		}

		result = make([]IncomingRequest, 0, len(friendships))
		for _, f := range friendships {
			var requester model.ChildProfile
			if err := tx.Where("id = ?", f.RequesterID).First(&requester).Error; err != nil {
				// 요청자가 이미 삭제된 경우 건너뛴다
				if stdErrors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return apperrors.Wrap(apperrors.CodeInternal, "failed to load requester profile", err)
			}
			result = append(result, IncomingRequest{
				ID: f.ID,
				Requester: Profile{
					ID:       requester.ID,
					Name:     requester.Name,
					Avatar:   requester.Avatar,
					AgeGroup: requester.AgeGroup,
				},
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Search: 이름 부분 일치로 친구 후보를 검색한다.
// 검색 주체 자신과 이미 관계(상태 무관)가 있는 자녀는 결과에서 제외한다.
func (s *Service) Search(ctx context.Context, subject, childID, query string) ([]Profile, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.BadRequest("search query is required")
	}

	var result []Profile

	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		if _, err := ownedChild(tx, subject, childID); err != nil {
			return err
		}

		var related []model.Friend
		if err := tx.Where("requester_id = ? OR addressee_id = ?", childID, childID).
			Find(&related).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to load existing relations", err)
		}

		excluded := map[string]bool{childID: true}
		for _, f := range related {
			excluded[f.RequesterID] = true
			excluded[f.AddresseeID] = true
		}

		// ILIKE는 PostgreSQL 전용이라 LOWER + LIKE를 사용한다
		var children []model.ChildProfile
		if err := tx.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(query)+"%").
			Order("name ASC").
			Limit(constants.SearchConfig.MaxResults + len(excluded)).
			Find(&children).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to search children", err)
		}

		result = make([]Profile, 0, len(children))
		for i := range children {
			c := &children[i]
			if excluded[c.ID] {
				continue
			}
			result = append(result, Profile{
				ID:       c.ID,
				Name:     c.Name,
				Avatar:   c.Avatar,
				AgeGroup: c.AgeGroup,
			})
			if len(result) >= constants.SearchConfig.MaxResults {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// presenceOf: is_online과 room_id로 3단계 상태를 파생한다.
func presenceOf(c *model.ChildProfile) domain.Presence {
	if c.RoomID != nil {
		return domain.PresenceInGame
	}
	if c.IsOnline {
		return domain.PresenceOnline
	}
	return domain.PresenceOffline
}

// addresseeOwnedFriendship: 호출자 소유 자녀가 수신자인 친구 행을 조회한다.
func addresseeOwnedFriendship(tx *gorm.DB, subject, friendshipID string) (*model.Friend, error) {
	var friendship model.Friend
	err := tx.Where("id = ?", friendshipID).First(&friendship).Error
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("friend request not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load friend request", err)
	}

	if _, err := ownedChild(tx, subject, friendship.AddresseeID); err != nil {
		// 소유자가 아니면 존재 여부를 숨긴다
		return nil, apperrors.NotFound("friend request not found")
	}
	return &friendship, nil
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
