package domain

import (
	"time"

	"gorm.io/datatypes"
)

// SessionState: 게임 세션 상태
type SessionState string

const (
	SessionActive   SessionState = "active"
	SessionPaused   SessionState = "paused"
	SessionFinished SessionState = "finished"
)

// GameSession: 룸에 묶인 게임 세션. GameData는 게임별 자유 형식 JSON이다.
type GameSession struct {
	ID                  string         `json:"id"`
	RoomID              string         `json:"room_id"`
	GameData            datatypes.JSON `json:"game_data"`
	CurrentTurnPlayerID *string        `json:"current_turn_player_id"`
	GameState           SessionState   `json:"game_state"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// GameScore: 추가 전용 점수 기록
type GameScore struct {
	ID             string    `json:"id"`
	RoomID         string    `json:"room_id"`
	SessionID      *string   `json:"session_id"`
	ChildID        *string   `json:"child_id"`
	PlayerName     string    `json:"player_name"`
	PlayerAvatar   *string   `json:"player_avatar"`
	IsAI           bool      `json:"is_ai"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	CreatedAt      time.Time `json:"created_at"`
}
