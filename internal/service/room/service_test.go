package room

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/magicminds/magicminds-api-go/internal/model"
	"github.com/magicminds/magicminds-api-go/internal/service/database"
	apperrors "github.com/magicminds/magicminds-api-go/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	pg, err := database.NewWithGorm(db, newTestLogger(), false)
	if err != nil {
		t.Fatalf("failed to wrap gorm: %v", err)
	}
	return NewService(pg, newTestLogger()), db
}

func seedChild(t *testing.T, db *gorm.DB, subject, name string) string {
	t.Helper()

	var parent model.ParentProfile
	err := db.Where("auth0_user_id = ?", subject).First(&parent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		parent = model.ParentProfile{
			ID:       uuid.NewString(),
			Auth0Sub: subject,
			Email:    subject + "@example.com",
			Name:     subject,
		}
		if err := db.Create(&parent).Error; err != nil {
			t.Fatalf("failed to seed parent: %v", err)
		}
	} else if err != nil {
		t.Fatalf("failed to load parent: %v", err)
	}

	child := model.ChildProfile{
		ID:       uuid.NewString(),
		ParentID: parent.ID,
		Name:     name,
		AgeGroup: "6-8",
	}
	if err := db.Create(&child).Error; err != nil {
		t.Fatalf("failed to seed child: %v", err)
	}
	return child.ID
}

func childRoomID(t *testing.T, db *gorm.DB, childID string) *string {
	t.Helper()
	var child model.ChildProfile
	if err := db.Where("id = ?", childID).First(&child).Error; err != nil {
		t.Fatalf("failed to load child: %v", err)
	}
	return child.RoomID
}

func TestCreate_AIAutofill(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	host := seedChild(t, db, "auth0|p1", "Mina")

	room, err := svc.Create(ctx, "auth0|p1", CreateRoomInput{
		HostChildID: host,
		GameID:      "word-match",
		Difficulty:  "easy",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if len(room.RoomCode) != 6 {
		t.Errorf("room code length = %d, want 6", len(room.RoomCode))
	}
	if !room.HasAIPlayer || room.AIPlayerName == nil {
		t.Error("expected AI player autofill")
	}
	if room.CurrentPlayers != 2 {
		t.Errorf("current_players = %d, want 2", room.CurrentPlayers)
	}
	if room.MaxPlayers != 4 {
		t.Errorf("max_players = %d, want default 4", room.MaxPlayers)
	}
	if len(room.Participants) != 2 {
		t.Fatalf("participants = %d, want 2", len(room.Participants))
	}

	aiCount := 0
	for _, p := range room.Participants {
		if p.IsAI {
			aiCount++
			if p.ChildID != nil {
				t.Error("AI participant must have nil child_id")
			}
		}
	}
	if aiCount != 1 {
		t.Errorf("ai participants = %d, want 1", aiCount)
	}

	if got := childRoomID(t, db, host); got == nil || *got != room.ID {
		t.Error("host room_id not set")
	}
}

func TestCreate_WithInvitations(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	host := seedChild(t, db, "auth0|p1", "Mina")
	friend := seedChild(t, db, "auth0|p2", "Juno")

	room, err := svc.Create(ctx, "auth0|p1", CreateRoomInput{
		HostChildID: host,
		GameID:      "word-match",
		FriendIDs:   []string{friend},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if room.HasAIPlayer {
		t.Error("no AI autofill expected when friends are invited")
	}
	if room.CurrentPlayers != 1 {
		t.Errorf("current_players = %d, want 1", room.CurrentPlayers)
	}

	invitations, err := svc.PendingInvitations(ctx, "auth0|p2", friend)
	if err != nil {
		t.Fatalf("PendingInvitations failed: %v", err)
	}
	if len(invitations) != 1 {
		t.Fatalf("expected 1 invitation, got %d", len(invitations))
	}
	if invitations[0].RoomCode != room.RoomCode {
		t.Errorf("invitation room code = %q, want %q", invitations[0].RoomCode, room.RoomCode)
	}
}

func TestCreate_HostAlreadyInRoom(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	host := seedChild(t, db, "auth0|p1", "Mina")

	if _, err := svc.Create(ctx, "auth0|p1", CreateRoomInput{HostChildID: host, GameID: "g"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err := svc.Create(ctx, "auth0|p1", CreateRoomInput{HostChildID: host, GameID: "g"})
	if code := apperrors.CodeOf(err); code != apperrors.CodeInvalidState {
		t.Errorf("code = %s, want %s", code, apperrors.CodeInvalidState)
	}
}

func TestCreate_CodeCollisionRetries(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	host1 := seedChild(t, db, "auth0|p1", "Mina")
	host2 := seedChild(t, db, "auth0|p2", "Juno")

	svc.codeGen = func() string { return "AAAAAA" }
	first, err := svc.Create(ctx, "auth0|p1", CreateRoomInput{HostChildID: host1, GameID: "g"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if first.RoomCode != "AAAAAA" {
		t.Fatalf("room code = %q, want AAAAAA", first.RoomCode)
	}

	// 첫 시도는 충돌, 두 번째 시도에 새 코드
	codes := []string{"AAAAAA", "BBBBBB"}
	svc.codeGen = func() string {
		code := codes[0]
		if len(codes) > 1 {
			codes = codes[1:]
		}
		return code
	}

	second, err := svc.Create(ctx, "auth0|p2", CreateRoomInput{HostChildID: host2, GameID: "g"})
	if err != nil {
		t.Fatalf("Create with collision failed: %v", err)
	}
	if second.RoomCode != "BBBBBB" {
		t.Errorf("room code = %q, want BBBBBB", second.RoomCode)
	}
}

func TestCreate_CodeExhaustion(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	host1 := seedChild(t, db, "auth0|p1", "Mina")
	host2 := seedChild(t, db, "auth0|p2", "Juno")

	svc.codeGen = func() string { return "AAAAAA" }
	if _, err := svc.Create(ctx, "auth0|p1", CreateRoomInput{HostChildID: host1, GameID: "g"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err := svc.Create(ctx, "auth0|p2", CreateRoomInput{HostChildID: host2, GameID: "g"})
	if err == nil {
		t.Fatal("expected code allocation to fail")
	}

	// 실패한 생성은 롤백되어 호스트의 room_id가 남지 않는다
	if got := childRoomID(t, db, host2); got != nil {
		t.Error("failed create must not leave a room ref")
	}
}

func TestJoin_ByCode(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	host := seedChild(t, db, "auth0|p1", "Mina")
	guest := seedChild(t, db, "auth0|p2", "Juno")
	friend := seedChild(t, db, "auth0|p3", "Aria")

	room, err := svc.Create(ctx, "auth0|p1", CreateRoomInput{
		HostChildID: host,
		GameID:      "g",
		FriendIDs:   []string{friend},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	joined, err := svc.Join(ctx, "auth0|p2", guest, room.RoomCode)
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if joined.CurrentPlayers != 2 {
		t.Errorf("current_players = %d, want 2", joined.CurrentPlayers)
	}
	if got := childRoomID(t, db, guest); got == nil || *got != room.ID {
		t.Error("guest room_id not set")
	}
}

func TestJoin_RoomFull(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	host := seedChild(t, db, "auth0|p1", "Mina")
	guest := seedChild(t, db, "auth0|p2", "Juno")

	// max 2 + AI 자동 채움으로 정원이 즉시 가득 찬다
	room, err := svc.Create(ctx, "auth0|p1", CreateRoomInput{
		HostChildID: host,
		GameID:      "g",
		MaxPlayers:  2,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = svc.Join(ctx, "auth0|p2", guest, room.RoomCode)
	if code := apperrors.CodeOf(err); code != apperrors.CodeRoomFull {
		t.Errorf("code = %s, want %s", code, apperrors.CodeRoomFull)
	}
	if got := childRoomID(t, db, guest); got != nil {
		t.Error("failed join must not set room ref")
	}
}

// 한 자리 남은 룸에 두 명이 동시에 입장하면 정확히 한 명만 성공해야 한다.
func TestJoin_ConcurrentLastSlot(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	host := seedChild(t, db, "auth0|p1", "Mina")
	friend := seedChild(t, db, "auth0|p2", "Juno")
	first := seedChild(t, db, "auth0|p3", "Aria")
	second := seedChild(t, db, "auth0|p4", "Bomi")

	// 친구 초대로 AI 자동 채움을 막아 한 자리만 남긴다
	room, err := svc.Create(ctx, "auth0|p1", CreateRoomInput{
		HostChildID: host,
		GameID:      "g",
		MaxPlayers:  2,
		FriendIDs:   []string{friend},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	attempts := []struct{ subject, childID string }{
		{"auth0|p3", first},
		{"auth0|p4", second},
	}
	errs := make([]error, len(attempts))

	var wg sync.WaitGroup
	for i, a := range attempts {
		wg.Add(1)
		go func(i int, subject, childID string) {
			defer wg.Done()
			_, errs[i] = svc.Join(ctx, subject, childID, room.RoomCode)
		}(i, a.subject, a.childID)
	}
	wg.Wait()

	joined, full := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			joined++
		case apperrors.CodeOf(err) == apperrors.CodeRoomFull:
			full++
		default:
			t.Fatalf("unexpected join error: %v", err)
		}
	}
	if joined != 1 || full != 1 {
		t.Fatalf("joined = %d, room_full = %d, want exactly 1 and 1", joined, full)
	}

	var reloaded model.GameRoom
	if err := db.Where("id = ?", room.ID).First(&reloaded).Error; err != nil {
		t.Fatalf("failed to reload room: %v", err)
	}
	if reloaded.CurrentPlayers > reloaded.MaxPlayers {
		t.Errorf("current_players = %d exceeds max_players = %d",
			reloaded.CurrentPlayers, reloaded.MaxPlayers)
	}
	if reloaded.CurrentPlayers != 2 {
		t.Errorf("current_players = %d, want 2", reloaded.CurrentPlayers)
	}
}

func TestJoin_UnknownCode(t *testing.T) {
	svc, db := newTestService(t)
	guest := seedChild(t, db, "auth0|p1", "Mina")

	_, err := svc.Join(context.Background(), "auth0|p1", guest, "ZZZZZZ")
	if code := apperrors.CodeOf(err); code != apperrors.CodeNotFound {
		t.Errorf("code = %s, want %s", code, apperrors.CodeNotFound)
	}
}

func TestLeave_NonHost(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	host := seedChild(t, db, "auth0|p1", "Mina")
	guest := seedChild(t, db, "auth0|p2", "Juno")
	friend := seedChild(t, db, "auth0|p3", "Aria")

	room, err := svc.Create(ctx, "auth0|p1", CreateRoomInput{
		HostChildID: host, GameID: "g", FriendIDs: []string{friend},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Join(ctx, "auth0|p2", guest, room.RoomCode); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	if err := svc.Leave(ctx, "auth0|p2", guest); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}

	reloaded, err := svc.Get(ctx, "auth0|p1", room.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if reloaded.CurrentPlayers != 1 {
		t.Errorf("current_players = %d, want 1", reloaded.CurrentPlayers)
	}
	if got := childRoomID(t, db, guest); got != nil {
		t.Error("guest room_id not cleared")
	}
	if got := childRoomID(t, db, host); got == nil {
		t.Error("host room_id must survive a guest leave")
	}
}

func TestLeave_HostTearsDownRoom(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	host := seedChild(t, db, "auth0|p1", "Mina")
	guest := seedChild(t, db, "auth0|p2", "Juno")
	friend := seedChild(t, db, "auth0|p3", "Aria")

	room, err := svc.Create(ctx, "auth0|p1", CreateRoomInput{
		HostChildID: host, GameID: "g", FriendIDs: []string{friend},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Join(ctx, "auth0|p2", guest, room.RoomCode); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	if err := svc.Leave(ctx, "auth0|p1", host); err != nil {
		t.Fatalf("host Leave failed: %v", err)
	}

	if _, err := svc.Get(ctx, "auth0|p1", room.ID); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Errorf("room should be deleted, got %v", err)
	}
	if got := childRoomID(t, db, host); got != nil {
		t.Error("host room_id not cleared")
	}
	if got := childRoomID(t, db, guest); got != nil {
		t.Error("guest room_id not cleared on teardown")
	}

	// 해체와 함께 pending 초대도 제거된다
	invitations, err := svc.PendingInvitations(ctx, "auth0|p3", friend)
	if err != nil {
		t.Fatalf("PendingInvitations failed: %v", err)
	}
	if len(invitations) != 0 {
		t.Errorf("expected no invitations after teardown, got %d", len(invitations))
	}
}

func TestLeave_NotInRoom(t *testing.T) {
	svc, db := newTestService(t)
	child := seedChild(t, db, "auth0|p1", "Mina")

	err := svc.Leave(context.Background(), "auth0|p1", child)
	if code := apperrors.CodeOf(err); code != apperrors.CodeNotInRoom {
		t.Errorf("code = %s, want %s", code, apperrors.CodeNotInRoom)
	}
}

func TestCurrent_StaleReferenceSelfHeal(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	child := seedChild(t, db, "auth0|p1", "Mina")

	// 해체된 룸을 가리키는 잔여 참조를 만든다
	stale := uuid.NewString()
	if err := db.Model(&model.ChildProfile{}).Where("id = ?", child).
		Update("room_id", stale).Error; err != nil {
		t.Fatalf("update failed: %v", err)
	}

	room, err := svc.Current(ctx, "auth0|p1", child)
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if room != nil {
		t.Errorf("expected nil room, got %+v", room)
	}
	if got := childRoomID(t, db, child); got != nil {
		t.Error("stale room ref not cleared")
	}
}

func TestCurrent_NoRoom(t *testing.T) {
	svc, db := newTestService(t)
	child := seedChild(t, db, "auth0|p1", "Mina")

	room, err := svc.Current(context.Background(), "auth0|p1", child)
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if room != nil {
		t.Errorf("expected nil room, got %+v", room)
	}
}

func TestClose_HostOnly(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	host := seedChild(t, db, "auth0|p1", "Mina")
	seedChild(t, db, "auth0|p2", "Juno")

	room, err := svc.Create(ctx, "auth0|p1", CreateRoomInput{HostChildID: host, GameID: "g"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.Close(ctx, "auth0|p2", room.ID); apperrors.CodeOf(err) != apperrors.CodeForbidden {
		t.Errorf("stranger close: want FORBIDDEN, got %v", err)
	}

	if err := svc.Close(ctx, "auth0|p1", room.ID); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := svc.Get(ctx, "auth0|p1", room.ID); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Errorf("room should be deleted, got %v", err)
	}
}
