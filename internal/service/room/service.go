// Package room: 멀티플레이 게임 룸 수명주기(생성, 입장, 퇴장, 해체)를 담당하는 서비스
package room

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/magicminds/magicminds-api-go/internal/constants"
	"github.com/magicminds/magicminds-api-go/internal/domain"
	"github.com/magicminds/magicminds-api-go/internal/model"
	"github.com/magicminds/magicminds-api-go/internal/service/database"
	apperrors "github.com/magicminds/magicminds-api-go/pkg/errors"
)

// Service: 게임 룸과 초대/참가 요청을 담당하는 서비스.
// 정원 판정은 조건부 UPDATE 한 문장으로 수행해 동시 입장 경합을 막는다.
type Service struct {
	db     *database.PostgresService
	logger *slog.Logger

	// codeGen: 룸 코드 생성기 (테스트에서 충돌 시나리오 주입용)
	codeGen func() string
}

func NewService(db *database.PostgresService, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger, codeGen: generateRoomCode}
}

// CreateRoomInput: 룸 생성 요청
type CreateRoomInput struct {
	HostChildID      string   `json:"host_child_id"`
	GameID           string   `json:"game_id"`
	Difficulty       string   `json:"difficulty"`
	MaxPlayers       int      `json:"max_players"`
	SelectedCategory *string  `json:"selected_category"`
	FriendIDs        []string `json:"friend_ids"`
}

// Create: 룸을 생성하고 호스트를 입장시킨다.
// 친구를 지정하지 않으면 AI 친구 한 명을 자동으로 채우고,
// 지정하면 각 친구에게 pending 초대를 생성한다.
// 룸 코드는 unique 제약 충돌 시 새 코드로 재시도한다.
func (s *Service) Create(ctx context.Context, subject string, input CreateRoomInput) (*domain.GameRoom, error) {
	if input.GameID == "" {
		return nil, apperrors.BadRequest("game_id is required")
	}
	if input.MaxPlayers <= 0 {
		input.MaxPlayers = constants.RoomConfig.DefaultMaxPlayer
	}
	if input.MaxPlayers < 2 {
		return nil, apperrors.BadRequest("max_players must be at least 2")
	}

	var result *domain.GameRoom

	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		host, err := ownedChild(tx, subject, input.HostChildID)
		if err != nil {
			return err
		}
		if host.RoomID != nil {
			return apperrors.New(apperrors.CodeInvalidState, "child is already in a room")
		}

		now := time.Now().UTC()
		room := model.GameRoom{
			ID:               uuid.NewString(),
			HostChildID:      host.ID,
			GameID:           input.GameID,
			Difficulty:       input.Difficulty,
			MaxPlayers:       input.MaxPlayers,
			CurrentPlayers:   1,
			Status:           string(domain.RoomWaiting),
			SelectedCategory: input.SelectedCategory,
			CreatedAt:        now,
			UpdatedAt:        now,
		}

		withAI := len(input.FriendIDs) == 0
		if withAI {
			ai := randomAIFriend()
			room.HasAIPlayer = true
			room.AIPlayerName = &ai.Name
			room.AIPlayerAvatar = &ai.Avatar
			room.CurrentPlayers = 2
		}

		if err := s.insertWithCode(tx, &room); err != nil {
			return err
		}

		hostParticipant := model.RoomParticipant{
			ID:           uuid.NewString(),
			RoomID:       room.ID,
			ChildID:      &host.ID,
			PlayerName:   host.Name,
			PlayerAvatar: host.Avatar,
			JoinedAt:     now,
		}
		if err := tx.Create(&hostParticipant).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to add host participant", err)
		}

		if withAI {
			aiParticipant := model.RoomParticipant{
				ID:           uuid.NewString(),
				RoomID:       room.ID,
				PlayerName:   *room.AIPlayerName,
				PlayerAvatar: room.AIPlayerAvatar,
				IsAI:         true,
				JoinedAt:     now,
			}
			if err := tx.Create(&aiParticipant).Error; err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, "failed to add ai participant", err)
			}
		}

		if err := setChildRoom(tx, host.ID, &room.ID); err != nil {
			return err
		}

		for _, friendID := range input.FriendIDs {
			if err := createInvitation(tx, &room, friendID); err != nil {
				return err
			}
		}

		s.logger.Info("game room created",
			slog.String("room_id", room.ID),
			slog.String("room_code", room.RoomCode),
			slog.String("host_child_id", host.ID),
			slog.Bool("with_ai", withAI),
		)
		result = s.loadRoom(tx, room.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// insertWithCode: 코드 충돌 시 새 코드로 재시도하며 룸을 insert한다.
// unique 위반이 트랜잭션 전체를 중단시키지 않도록 시도마다 savepoint를 쓴다.
func (s *Service) insertWithCode(tx *gorm.DB, room *model.GameRoom) error {
	for attempt := 0; attempt < constants.RoomConfig.CodeMaxAttempts; attempt++ {
		room.RoomCode = s.codeGen()
		err := tx.Transaction(func(inner *gorm.DB) error {
			return inner.Create(room).Error
		})
		if err == nil {
			return nil
		}
		if !database.IsDuplicateKeyError(err) {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to create room", err)
		}
		s.logger.Warn("room code collision, retrying", slog.String("room_code", room.RoomCode))
	}
	return apperrors.New(apperrors.CodeInternal, "failed to allocate a unique room code")
}

// Join: 룸 코드로 대기 중인 룸에 입장한다. 정원 초과면 ROOM_FULL.
func (s *Service) Join(ctx context.Context, subject, childID, roomCode string) (*domain.GameRoom, error) {
	var result *domain.GameRoom

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

		if err := addPlayer(tx, room, child); err != nil {
			return err
		}

		result = s.loadRoom(tx, room.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Leave: 룸에서 퇴장한다.
// 호스트 퇴장은 룸 전체 해체이고, 일반 참가자 퇴장은 자리만 비운다.
func (s *Service) Leave(ctx context.Context, subject, childID string) error {
	return s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		child, err := ownedChild(tx, subject, childID)
		if err != nil {
			return err
		}
		if child.RoomID == nil {
			return apperrors.New(apperrors.CodeNotInRoom, "child is not in a room")
		}

		var room model.GameRoom
		err = tx.Where("id = ?", *child.RoomID).First(&room).Error
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			// 이미 해체된 룸 참조가 남은 경우 정리만 한다
			return setChildRoom(tx, child.ID, nil)
		}
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to load room", err)
		}

		if room.HostChildID == child.ID {
			return s.teardown(tx, &room)
		}
		return removePlayer(tx, &room, child)
	})
}

// Close: 호스트가 룸을 닫는다. 퇴장과 동일한 전체 해체를 수행한다.
func (s *Service) Close(ctx context.Context, subject, roomID string) error {
	return s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		var room model.GameRoom
		err := tx.Where("id = ?", roomID).First(&room).Error
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("room not found")
		}
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to load room", err)
		}

		if _, err := ownedChild(tx, subject, room.HostChildID); err != nil {
			return apperrors.New(apperrors.CodeForbidden, "only the host can close the room")
		}
		return s.teardown(tx, &room)
	})
}

// Current: 자녀가 속한 룸을 반환한다. 룸이 없으면 nil을 반환한다.
// 해체된 룸을 가리키는 잔여 참조는 조회 시점에 정리한다.
func (s *Service) Current(ctx context.Context, subject, childID string) (*domain.GameRoom, error) {
	var result *domain.GameRoom

	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		child, err := ownedChild(tx, subject, childID)
		if err != nil {
			return err
		}
		if child.RoomID == nil {
			return nil
		}

		var room model.GameRoom
		err = tx.Where("id = ?", *child.RoomID).First(&room).Error
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return setChildRoom(tx, child.ID, nil)
		}
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to load room", err)
		}

		result = s.loadRoom(tx, room.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get: 룸 단건 조회 (참가자 포함)
func (s *Service) Get(ctx context.Context, subject, roomID string) (*domain.GameRoom, error) {
	var result *domain.GameRoom

	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		var room model.GameRoom
		err := tx.Where("id = ?", roomID).First(&room).Error
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("room not found")
		}
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to load room", err)
		}
		result = s.loadRoom(tx, room.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Participants: 룸 참가자 목록 (입장 순)
func (s *Service) Participants(ctx context.Context, subject, roomID string) ([]domain.RoomParticipant, error) {
	var result []domain.RoomParticipant

	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.GameRoom{}).Where("id = ?", roomID).Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to load room", err)
		}
		if count == 0 {
			return apperrors.NotFound("room not found")
		}

		var participants []model.RoomParticipant
		if err := tx.Where("room_id = ?", roomID).
			Order("joined_at ASC").
			Find(&participants).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to list participants", err)
		}
		result = model.ToParticipants(participants)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// teardown: 룸 해체. 참가자 전원의 room_id를 비우고 참가자/요청/세션/룸을 제거한다.
// 점수 기록(multiplayer_game_scores)은 히스토리로 남긴다.
func (s *Service) teardown(tx *gorm.DB, room *model.GameRoom) error {
	if err := tx.Model(&model.ChildProfile{}).
		Where("room_id = ?", room.ID).
		Update("room_id", nil).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to clear participant room refs", err)
	}
	if err := tx.Where("room_id = ?", room.ID).Delete(&model.RoomParticipant{}).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to delete participants", err)
	}
	if err := tx.Where("room_id = ? OR room_code = ?", room.ID, room.RoomCode).
		Delete(&model.JoinRequest{}).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to delete join requests", err)
	}
	if err := tx.Where("room_id = ?", room.ID).Delete(&model.GameSession{}).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to delete sessions", err)
	}
	if err := tx.Where("id = ?", room.ID).Delete(&model.GameRoom{}).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to delete room", err)
	}

	s.logger.Info("game room torn down", slog.String("room_id", room.ID))
	return nil
}

// addPlayer: 정원 조건부 UPDATE로 자리를 확보한 뒤 참가자를 추가한다.
func addPlayer(tx *gorm.DB, room *model.GameRoom, child *model.ChildProfile) error {
	res := tx.Model(&model.GameRoom{}).
		Where("id = ? AND current_players < max_players AND status = ?",
			room.ID, string(domain.RoomWaiting)).
		UpdateColumn("current_players", gorm.Expr("current_players + 1"))
	if res.Error != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to reserve seat", res.Error)
	}
	if res.RowsAffected == 0 {
		// 만석과 상태 전이(이미 playing/closed)를 구분해서 응답한다
		var current model.GameRoom
		if err := tx.Select("status").Where("id = ?", room.ID).First(&current).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to reserve seat", err)
		}
		if current.Status != string(domain.RoomWaiting) {
			return apperrors.New(apperrors.CodeInvalidState, "room is not accepting players")
		}
		return apperrors.New(apperrors.CodeRoomFull, "room is full")
	}

	participant := model.RoomParticipant{
		ID:           uuid.NewString(),
		RoomID:       room.ID,
		ChildID:      &child.ID,
		PlayerName:   child.Name,
		PlayerAvatar: child.Avatar,
		JoinedAt:     time.Now().UTC(),
	}
	if err := tx.Create(&participant).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to add participant", err)
	}
	return setChildRoom(tx, child.ID, &room.ID)
}

// removePlayer: 일반 참가자 퇴장
func removePlayer(tx *gorm.DB, room *model.GameRoom, child *model.ChildProfile) error {
	res := tx.Where("room_id = ? AND child_id = ?", room.ID, child.ID).
		Delete(&model.RoomParticipant{})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to remove participant", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeNotInRoom, "child is not in this room")
	}

	if err := tx.Model(&model.GameRoom{}).
		Where("id = ? AND current_players > 0", room.ID).
		UpdateColumn("current_players", gorm.Expr("current_players - 1")).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to release seat", err)
	}
	return setChildRoom(tx, child.ID, nil)
}

func setChildRoom(tx *gorm.DB, childID string, roomID *string) error {
	if err := tx.Model(&model.ChildProfile{}).
		Where("id = ?", childID).
		Updates(map[string]any{
			"room_id":    roomID,
			"updated_at": time.Now().UTC(),
		}).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to update child room ref", err)
	}
	return nil
}

// loadRoom: 룸 + 참가자 목록을 도메인 타입으로 조립한다. 실패 시 nil.
func (s *Service) loadRoom(tx *gorm.DB, roomID string) *domain.GameRoom {
	var room model.GameRoom
	if err := tx.Where("id = ?", roomID).First(&room).Error; err != nil {
		s.logger.Error("failed to reload room", slog.String("room_id", roomID), slog.Any("error", err))
		return nil
	}

	var participants []model.RoomParticipant
	if err := tx.Where("room_id = ?", roomID).
		Order("joined_at ASC").
		Find(&participants).Error; err != nil {
		s.logger.Error("failed to load participants", slog.String("room_id", roomID), slog.Any("error", err))
	}

	out := model.ToRoom(&room)
	out.Participants = model.ToParticipants(participants)
	return out
}

func roomByCode(tx *gorm.DB, roomCode string) (*model.GameRoom, error) {
	var room model.GameRoom
	err := tx.Where("room_code = ?", roomCode).First(&room).Error
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("room not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load room", err)
	}
	return &room, nil
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
