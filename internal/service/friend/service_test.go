package friend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/magicminds/magicminds-api-go/internal/domain"
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

func TestSendRequest_And_Accept(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	mina := seedChild(t, db, "auth0|p1", "Mina")
	juno := seedChild(t, db, "auth0|p2", "Juno")

	req, err := svc.SendRequest(ctx, "auth0|p1", mina, juno)
	if err != nil {
		t.Fatalf("SendRequest failed: %v", err)
	}
	if req.Status != domain.FriendPending {
		t.Errorf("status = %s, want pending", req.Status)
	}
	if req.RequesterID != mina || req.AddresseeID != juno {
		t.Errorf("unexpected request: %+v", req)
	}

	accepted, err := svc.Accept(ctx, "auth0|p2", req.ID)
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if accepted.Status != domain.FriendAccepted {
		t.Errorf("status = %s, want accepted", accepted.Status)
	}
}

func TestSendRequest_SelfRejected(t *testing.T) {
	svc, db := newTestService(t)
	mina := seedChild(t, db, "auth0|p1", "Mina")

	_, err := svc.SendRequest(context.Background(), "auth0|p1", mina, mina)
	if code := apperrors.CodeOf(err); code != apperrors.CodeBadRequest {
		t.Errorf("code = %s, want %s", code, apperrors.CodeBadRequest)
	}
}

func TestSendRequest_RequesterNotOwned(t *testing.T) {
	svc, db := newTestService(t)
	mina := seedChild(t, db, "auth0|p1", "Mina")
	juno := seedChild(t, db, "auth0|p2", "Juno")

	// p2가 남의 자녀 명의로 요청을 보낼 수 없다
	_, err := svc.SendRequest(context.Background(), "auth0|p2", mina, juno)
	if code := apperrors.CodeOf(err); code != apperrors.CodeNotFound {
		t.Errorf("code = %s, want %s", code, apperrors.CodeNotFound)
	}
}

func TestSendRequest_DuplicateEitherDirection(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	mina := seedChild(t, db, "auth0|p1", "Mina")
	juno := seedChild(t, db, "auth0|p2", "Juno")

	if _, err := svc.SendRequest(ctx, "auth0|p1", mina, juno); err != nil {
		t.Fatalf("SendRequest failed: %v", err)
	}

	_, err := svc.SendRequest(ctx, "auth0|p1", mina, juno)
	if code := apperrors.CodeOf(err); code != apperrors.CodeInvalidState {
		t.Errorf("same direction: code = %s, want %s", code, apperrors.CodeInvalidState)
	}

	_, err = svc.SendRequest(ctx, "auth0|p2", juno, mina)
	if code := apperrors.CodeOf(err); code != apperrors.CodeInvalidState {
		t.Errorf("reverse direction: code = %s, want %s", code, apperrors.CodeInvalidState)
	}
}

func TestAccept_OnlyAddresseeOwner(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	mina := seedChild(t, db, "auth0|p1", "Mina")
	juno := seedChild(t, db, "auth0|p2", "Juno")

	req, err := svc.SendRequest(ctx, "auth0|p1", mina, juno)
	if err != nil {
		t.Fatalf("SendRequest failed: %v", err)
	}

	// 요청자 측 부모는 수락할 수 없다
	_, err = svc.Accept(ctx, "auth0|p1", req.ID)
	if code := apperrors.CodeOf(err); code != apperrors.CodeNotFound {
		t.Errorf("code = %s, want %s", code, apperrors.CodeNotFound)
	}
}

func TestAccept_NotPending(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	mina := seedChild(t, db, "auth0|p1", "Mina")
	juno := seedChild(t, db, "auth0|p2", "Juno")

	req, err := svc.SendRequest(ctx, "auth0|p1", mina, juno)
	if err != nil {
		t.Fatalf("SendRequest failed: %v", err)
	}
	if _, err := svc.Accept(ctx, "auth0|p2", req.ID); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	_, err = svc.Accept(ctx, "auth0|p2", req.ID)
	if code := apperrors.CodeOf(err); code != apperrors.CodeInvalidState {
		t.Errorf("code = %s, want %s", code, apperrors.CodeInvalidState)
	}
}

func TestDecline_RemovesRow(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	mina := seedChild(t, db, "auth0|p1", "Mina")
	juno := seedChild(t, db, "auth0|p2", "Juno")

	req, err := svc.SendRequest(ctx, "auth0|p1", mina, juno)
	if err != nil {
		t.Fatalf("SendRequest failed: %v", err)
	}
	if err := svc.Decline(ctx, "auth0|p2", req.ID); err != nil {
		t.Fatalf("Decline failed: %v", err)
	}

	// 거절 후에는 재요청이 가능하다
	if _, err := svc.SendRequest(ctx, "auth0|p1", mina, juno); err != nil {
		t.Fatalf("re-request after decline failed: %v", err)
	}
}

func TestList_PresenceDerivation(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	mina := seedChild(t, db, "auth0|p1", "Mina")
	juno := seedChild(t, db, "auth0|p2", "Juno")
	aria := seedChild(t, db, "auth0|p3", "Aria")
	bomi := seedChild(t, db, "auth0|p4", "Bomi")

	for _, friendID := range []string{juno, aria, bomi} {
		req, err := svc.SendRequest(ctx, "auth0|p1", mina, friendID)
		if err != nil {
			t.Fatalf("SendRequest failed: %v", err)
		}
		var owner model.ChildProfile
		if err := db.Where("id = ?", friendID).First(&owner).Error; err != nil {
			t.Fatalf("load child failed: %v", err)
		}
		var parent model.ParentProfile
		if err := db.Where("id = ?", owner.ParentID).First(&parent).Error; err != nil {
			t.Fatalf("load parent failed: %v", err)
		}
		if _, err := svc.Accept(ctx, parent.Auth0Sub, req.ID); err != nil {
			t.Fatalf("Accept failed: %v", err)
		}
	}

	// juno: online, aria: in-game, bomi: offline
	now := time.Now().UTC()
	roomID := uuid.NewString()
	if err := db.Model(&model.ChildProfile{}).Where("id = ?", juno).
		Updates(map[string]any{"is_online": true, "last_seen_at": now}).Error; err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if err := db.Model(&model.ChildProfile{}).Where("id = ?", aria).
		Updates(map[string]any{"is_online": true, "room_id": roomID}).Error; err != nil {
		t.Fatalf("update failed: %v", err)
	}

	friends, err := svc.List(ctx, "auth0|p1", mina)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(friends) != 3 {
		t.Fatalf("expected 3 friends, got %d", len(friends))
	}

	statusByName := map[string]domain.Presence{}
	for _, f := range friends {
		statusByName[f.Name] = f.Status
	}
	if statusByName["Juno"] != domain.PresenceOnline {
		t.Errorf("Juno presence = %s, want online", statusByName["Juno"])
	}
	if statusByName["Aria"] != domain.PresenceInGame {
		t.Errorf("Aria presence = %s, want in-game", statusByName["Aria"])
	}
	if statusByName["Bomi"] != domain.PresenceOffline {
		t.Errorf("Bomi presence = %s, want offline", statusByName["Bomi"])
	}
}

func TestPendingIncoming(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	mina := seedChild(t, db, "auth0|p1", "Mina")
	juno := seedChild(t, db, "auth0|p2", "Juno")

	req, err := svc.SendRequest(ctx, "auth0|p1", mina, juno)
	if err != nil {
		t.Fatalf("SendRequest failed: %v", err)
	}

	incoming, err := svc.PendingIncoming(ctx, "auth0|p2", juno)
	if err != nil {
		t.Fatalf("PendingIncoming failed: %v", err)
	}
	if len(incoming) != 1 {
		t.Fatalf("expected 1 incoming request, got %d", len(incoming))
	}
	if incoming[0].ID != req.ID {
		t.Errorf("request id = %s, want %s", incoming[0].ID, req.ID)
	}
	if incoming[0].Requester.Name != "Mina" {
		t.Errorf("requester name = %q, want Mina", incoming[0].Requester.Name)
	}

	// 요청자 측에는 보이지 않는다
	outgoing, err := svc.PendingIncoming(ctx, "auth0|p1", mina)
	if err != nil {
		t.Fatalf("PendingIncoming failed: %v", err)
	}
	if len(outgoing) != 0 {
		t.Errorf("expected no incoming requests for requester, got %d", len(outgoing))
	}
}

func TestUnfriend(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	mina := seedChild(t, db, "auth0|p1", "Mina")
	juno := seedChild(t, db, "auth0|p2", "Juno")

	req, err := svc.SendRequest(ctx, "auth0|p1", mina, juno)
	if err != nil {
		t.Fatalf("SendRequest failed: %v", err)
	}
	if _, err := svc.Accept(ctx, "auth0|p2", req.ID); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	// addressee 측에서도 방향과 무관하게 제거할 수 있다
	if err := svc.Unfriend(ctx, "auth0|p2", juno, mina); err != nil {
		t.Fatalf("Unfriend failed: %v", err)
	}

	friends, err := svc.List(ctx, "auth0|p1", mina)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(friends) != 0 {
		t.Errorf("expected empty friend list, got %d", len(friends))
	}

	if err := svc.Unfriend(ctx, "auth0|p2", juno, mina); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Errorf("second unfriend: want NOT_FOUND, got %v", err)
	}
}

func TestSearch_ExcludesSelfAndRelated(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	mina := seedChild(t, db, "auth0|p1", "Mina")
	minho := seedChild(t, db, "auth0|p2", "Minho")
	seedChild(t, db, "auth0|p3", "Minji")
	seedChild(t, db, "auth0|p4", "Juno")

	// minho와는 이미 pending 관계
	if _, err := svc.SendRequest(ctx, "auth0|p1", mina, minho); err != nil {
		t.Fatalf("SendRequest failed: %v", err)
	}

	results, err := svc.Search(ctx, "auth0|p1", mina, "min")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected only Minji, got %d results", len(results))
	}
	if results[0].Name != "Minji" {
		t.Errorf("result = %q, want Minji", results[0].Name)
	}
}

func TestSearch_CaseInsensitive(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	mina := seedChild(t, db, "auth0|p1", "Mina")
	seedChild(t, db, "auth0|p2", "JUNO")

	results, err := svc.Search(ctx, "auth0|p1", mina, "juno")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	svc, db := newTestService(t)
	mina := seedChild(t, db, "auth0|p1", "Mina")

	_, err := svc.Search(context.Background(), "auth0|p1", mina, "   ")
	if code := apperrors.CodeOf(err); code != apperrors.CodeBadRequest {
		t.Errorf("code = %s, want %s", code, apperrors.CodeBadRequest)
	}
}
