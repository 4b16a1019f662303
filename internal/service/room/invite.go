package room

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/magicminds/magicminds-api-go/internal/domain"
	"github.com/magicminds/magicminds-api-go/internal/model"
	apperrors "github.com/magicminds/magicminds-api-go/pkg/errors"
)

// 초대와 참가 요청은 같은 join_requests 테이블의 pending 행이다.
// 초대는 호스트가, 참가 요청은 해당 자녀가 만든다는 점만 다르다.

// Invite: 호스트가 friendChildID를 룸으로 초대한다.
func (s *Service) Invite(ctx context.Context, subject, roomID, friendChildID string) (*domain.JoinRequest, error) {
	var result *domain.JoinRequest

	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		var room model.GameRoom
		err := tx.Where("id = ?", roomID).First(&room).Error
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("room not found")
		}
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to load room", err)
		}

		if _, err := ownedChild(tx, subject, room.HostChildID); err != nil {
			return apperrors.New(apperrors.CodeForbidden, "only the host can invite players")
		}
		if room.Status != string(domain.RoomWaiting) {
			return apperrors.New(apperrors.CodeInvalidState, "room is not accepting players")
		}

		if err := createInvitation(tx, &room, friendChildID); err != nil {
			return err
		}

		var request model.JoinRequest
		if err := tx.Where("room_id = ? AND child_id = ? AND status = ?",
			room.ID, friendChildID, string(domain.JoinPending)).
			Order("created_at DESC").
			First(&request).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to reload invitation", err)
		}
		result = model.ToJoinRequest(&request)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// createInvitation: 룸 생성/초대 공용. 대상 자녀 앞으로 pending 요청 행을 만든다.
func createInvitation(tx *gorm.DB, room *model.GameRoom, childID string) error {
	var child model.ChildProfile
	err := tx.Where("id = ?", childID).First(&child).Error
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("invited child not found")
	}
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to load invited child", err)
	}

	var pending int64
	if err := tx.Model(&model.JoinRequest{}).
		Where("room_id = ? AND child_id = ? AND status = ?",
			room.ID, childID, string(domain.JoinPending)).
		Count(&pending).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to check pending invitation", err)
	}
	if pending > 0 {
		return apperrors.New(apperrors.CodeInvalidState, "invitation already pending")
	}

	now := time.Now().UTC()
	request := model.JoinRequest{
		ID:           uuid.NewString(),
		RoomID:       &room.ID,
		RoomCode:     room.RoomCode,
		ChildID:      child.ID,
		PlayerName:   child.Name,
		PlayerAvatar: child.Avatar,
		Status:       string(domain.JoinPending),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.Create(&request).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to create invitation", err)
	}
	return nil
}

// RequestToJoin: 자녀가 룸 코드로 참가 요청을 만든다.
func (s *Service) RequestToJoin(ctx context.Context, subject, childID, roomCode string) (*domain.JoinRequest, error) {
	var result *domain.JoinRequest

	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		child, err := ownedChild(tx, subject, childID)
		if err != nil {
			return err
		}
		if child.RoomID != nil {
			return apperrors.New(apperrors.CodeInvalidState, "child is already in a room")
		}

		room, err := roomByCode(tx, roomCode)
		if err != nil {
			return err
		}
		if room.Status != string(domain.RoomWaiting) {
			return apperrors.New(apperrors.CodeInvalidState, "room is not accepting players")
		}

		if err := createInvitation(tx, room, child.ID); err != nil {
			return err
		}

		var request model.JoinRequest
		if err := tx.Where("room_id = ? AND child_id = ? AND status = ?",
			room.ID, child.ID, string(domain.JoinPending)).
			Order("created_at DESC").
			First(&request).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to reload join request", err)
		}

		s.logger.Info("join request created",
			slog.String("room_id", room.ID),
			slog.String("child_id", child.ID),
		)
		result = model.ToJoinRequest(&request)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// HandleJoinRequest: 호스트가 pending 요청을 승인/거절한다.
// 승인 시 정원이 가득 차면 ROOM_FULL로 실패하고 요청은 pending으로 남는다.
func (s *Service) HandleJoinRequest(ctx context.Context, subject, requestID string, approve bool) (*domain.JoinRequest, error) {
	return s.resolveRequest(ctx, subject, requestID, approve, true)
}

// AcceptInvitation: 초대받은 자녀가 초대를 수락해 룸에 입장한다.
// 정원이 가득 차면 ROOM_FULL로 실패하고 초대는 pending으로 남는다.
func (s *Service) AcceptInvitation(ctx context.Context, subject, requestID string) (*domain.JoinRequest, error) {
	return s.resolveRequest(ctx, subject, requestID, true, false)
}

// DeclineInvitation: 초대받은 자녀가 초대를 거절한다.
func (s *Service) DeclineInvitation(ctx context.Context, subject, requestID string) (*domain.JoinRequest, error) {
	return s.resolveRequest(ctx, subject, requestID, false, false)
}

// resolveRequest: 승인/거절 공용 경로.
// hostSide=true면 호스트 권한을, false면 요청 대상 자녀의 소유 권한을 검사한다.
// 승인과 수락 모두 동일한 정원 정책(초과 시 전체 실패)을 따른다.
func (s *Service) resolveRequest(ctx context.Context, subject, requestID string, approve, hostSide bool) (*domain.JoinRequest, error) {
	var result *domain.JoinRequest

	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		var request model.JoinRequest
		err := tx.Where("id = ?", requestID).First(&request).Error
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("join request not found")
		}
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to load join request", err)
		}
		if request.Status != string(domain.JoinPending) {
			return apperrors.New(apperrors.CodeInvalidState, "join request is not pending")
		}

		room, err := requestRoom(tx, &request)
		if err != nil {
			return err
		}

		if hostSide {
			if _, err := ownedChild(tx, subject, room.HostChildID); err != nil {
				return apperrors.New(apperrors.CodeForbidden, "only the host can handle join requests")
			}
		} else {
			if _, err := ownedChild(tx, subject, request.ChildID); err != nil {
				return apperrors.NotFound("join request not found")
			}
		}

		if approve {
			child, err := childByID(tx, request.ChildID)
			if err != nil {
				return err
			}
			if child.RoomID != nil {
				return apperrors.New(apperrors.CodeInvalidState, "child is already in a room")
			}
			// 정원 초과면 여기서 실패하고 요청은 pending으로 남는다
			if err := addPlayer(tx, room, child); err != nil {
				return err
			}
		}

		status := string(domain.JoinDenied)
		if approve {
			status = string(domain.JoinApproved)
		}
		request.Status = status
		request.UpdatedAt = time.Now().UTC()
		if err := tx.Model(&model.JoinRequest{}).
			Where("id = ?", request.ID).
			Updates(map[string]any{
				"status":     request.Status,
				"updated_at": request.UpdatedAt,
			}).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to update join request", err)
		}

		result = model.ToJoinRequest(&request)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// PendingInvitations: 자녀 앞으로 온 pending 초대/요청 목록
func (s *Service) PendingInvitations(ctx context.Context, subject, childID string) ([]domain.JoinRequest, error) {
	var result []domain.JoinRequest

	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		if _, err := ownedChild(tx, subject, childID); err != nil {
			return err
		}

		var requests []model.JoinRequest
		if err := tx.Where("child_id = ? AND status = ?", childID, string(domain.JoinPending)).
			Order("created_at ASC").
			Find(&requests).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to list invitations", err)
		}

		result = make([]domain.JoinRequest, 0, len(requests))
		for i := range requests {
			result = append(result, *model.ToJoinRequest(&requests[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// requestRoom: 요청이 참조하는 룸을 id 우선, 코드 차선으로 조회한다.
func requestRoom(tx *gorm.DB, request *model.JoinRequest) (*model.GameRoom, error) {
	if request.RoomID != nil {
		var room model.GameRoom
		err := tx.Where("id = ?", *request.RoomID).First(&room).Error
		if err == nil {
			return &room, nil
		}
		if !stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load room", err)
		}
	}
	return roomByCode(tx, request.RoomCode)
}

func childByID(tx *gorm.DB, childID string) (*model.ChildProfile, error) {
	var child model.ChildProfile
	err := tx.Where("id = ?", childID).First(&child).Error
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("child profile not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load child profile", err)
	}
	return &child, nil
}
