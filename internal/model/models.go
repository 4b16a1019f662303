// Package model: 전체 테이블에 대한 GORM 매핑을 정의한다.
// 룸/친구/세션처럼 여러 서비스가 같은 테이블을 읽기 때문에 매핑은 한곳에 둔다.
// ID는 서버에서 uuid 문자열로 생성하며, 스키마(및 RLS 정책)는 마이그레이션이 관리한다.
package model

import (
	"time"

	"gorm.io/datatypes"
)

// ParentProfile: parent_profiles 테이블 매핑
type ParentProfile struct {
	ID        string    `gorm:"primaryKey;column:id"`
	Auth0Sub  string    `gorm:"uniqueIndex;column:auth0_user_id"`
	Email     string    `gorm:"column:email"`
	Name      string    `gorm:"column:name"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (ParentProfile) TableName() string { return "parent_profiles" }

// ChildProfile: children_profiles 테이블 매핑.
// RoomID는 터미널이 아닌 룸의 참가자일 때에만 non-nil이다.
type ChildProfile struct {
	ID                string     `gorm:"primaryKey;column:id"`
	ParentID          string     `gorm:"index;column:parent_id"`
	Name              string     `gorm:"column:name"`
	AgeGroup          string     `gorm:"column:age_group"`
	Avatar            *string    `gorm:"column:avatar"`
	VoiceCloneEnabled bool       `gorm:"column:voice_clone_enabled"`
	VoiceCloneID      *string    `gorm:"column:voice_clone_url"`
	IsOnline          bool       `gorm:"column:is_online"`
	LastSeenAt        *time.Time `gorm:"column:last_seen_at"`
	RoomID            *string    `gorm:"column:room_id"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at"`
}

func (ChildProfile) TableName() string { return "children_profiles" }

// Friend: friends 테이블 매핑 (순서 없는 쌍당 한 행)
type Friend struct {
	ID          string    `gorm:"primaryKey;column:id"`
	RequesterID string    `gorm:"index;column:requester_id"`
	AddresseeID string    `gorm:"index;column:addressee_id"`
	Status      string    `gorm:"column:status"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (Friend) TableName() string { return "friends" }

// GameRoom: game_rooms 테이블 매핑
type GameRoom struct {
	ID               string    `gorm:"primaryKey;column:id"`
	RoomCode         string    `gorm:"uniqueIndex;column:room_code"`
	HostChildID      string    `gorm:"index;column:host_child_id"`
	GameID           string    `gorm:"column:game_id"`
	Difficulty       string    `gorm:"column:difficulty"`
	MaxPlayers       int       `gorm:"column:max_players"`
	CurrentPlayers   int       `gorm:"column:current_players"`
	Status           string    `gorm:"column:status"`
	HasAIPlayer      bool      `gorm:"column:has_ai_player"`
	AIPlayerName     *string   `gorm:"column:ai_player_name"`
	AIPlayerAvatar   *string   `gorm:"column:ai_player_avatar"`
	SelectedCategory *string   `gorm:"column:selected_category"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (GameRoom) TableName() string { return "game_rooms" }

// RoomParticipant: room_participants 테이블 매핑 (AI 참가자는 child_id가 NULL)
type RoomParticipant struct {
	ID           string    `gorm:"primaryKey;column:id"`
	RoomID       string    `gorm:"index;column:room_id"`
	ChildID      *string   `gorm:"index;column:child_id"`
	PlayerName   string    `gorm:"column:player_name"`
	PlayerAvatar *string   `gorm:"column:player_avatar"`
	IsAI         bool      `gorm:"column:is_ai"`
	JoinedAt     time.Time `gorm:"column:joined_at"`
}

func (RoomParticipant) TableName() string { return "room_participants" }

// JoinRequest: join_requests 테이블 매핑
type JoinRequest struct {
	ID           string    `gorm:"primaryKey;column:id"`
	RoomID       *string   `gorm:"column:room_id"`
	RoomCode     string    `gorm:"index;column:room_code"`
	ChildID      string    `gorm:"index;column:child_id"`
	PlayerName   string    `gorm:"column:player_name"`
	PlayerAvatar *string   `gorm:"column:player_avatar"`
	Status       string    `gorm:"column:status"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (JoinRequest) TableName() string { return "join_requests" }

// GameSession: multiplayer_game_sessions 테이블 매핑
type GameSession struct {
	ID                  string         `gorm:"primaryKey;column:id"`
	RoomID              string         `gorm:"index;column:room_id"`
	GameData            datatypes.JSON `gorm:"column:game_data;type:jsonb"`
	CurrentTurnPlayerID *string        `gorm:"column:current_turn_player_id"`
	GameState           string         `gorm:"column:game_state"`
	CreatedAt           time.Time      `gorm:"column:created_at"`
	UpdatedAt           time.Time      `gorm:"column:updated_at"`
}

func (GameSession) TableName() string { return "multiplayer_game_sessions" }

// GameScore: multiplayer_game_scores 테이블 매핑 (추가 전용)
type GameScore struct {
	ID             string    `gorm:"primaryKey;column:id"`
	RoomID         string    `gorm:"index;column:room_id"`
	SessionID      *string   `gorm:"column:session_id"`
	ChildID        *string   `gorm:"index;column:child_id"`
	PlayerName     string    `gorm:"column:player_name"`
	PlayerAvatar   *string   `gorm:"column:player_avatar"`
	IsAI           bool      `gorm:"column:is_ai"`
	Score          int       `gorm:"column:score"`
	TotalQuestions int       `gorm:"column:total_questions"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (GameScore) TableName() string { return "multiplayer_game_scores" }

// GeneratedStory: generated_stories 테이블 매핑
type GeneratedStory struct {
	ID        string    `gorm:"primaryKey;column:id"`
	ChildID   string    `gorm:"index;column:child_id"`
	Title     string    `gorm:"column:title"`
	Content   string    `gorm:"column:content"`
	AudioURL  *string   `gorm:"column:audio_url"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (GeneratedStory) TableName() string { return "generated_stories" }

// VoiceSubscription: voice_subscriptions 테이블 매핑 (부모당 한 행)
type VoiceSubscription struct {
	ID                   string    `gorm:"primaryKey;column:id"`
	ParentID             string    `gorm:"uniqueIndex;column:parent_id"`
	StripeSubscriptionID *string   `gorm:"column:stripe_subscription_id"`
	StripeCustomerID     *string   `gorm:"column:stripe_customer_id"`
	Status               string    `gorm:"column:status"`
	PlanType             string    `gorm:"column:plan_type"`
	CreatedAt            time.Time `gorm:"column:created_at"`
	UpdatedAt            time.Time `gorm:"column:updated_at"`
}

func (VoiceSubscription) TableName() string { return "voice_subscriptions" }

// All: AutoMigrate 대상 전체 모델 (테스트 스키마 준비용)
func All() []any {
	return []any{
		&ParentProfile{},
		&ChildProfile{},
		&Friend{},
		&GameRoom{},
		&RoomParticipant{},
		&JoinRequest{},
		&GameSession{},
		&GameScore{},
		&GeneratedStory{},
		&VoiceSubscription{},
	}
}
