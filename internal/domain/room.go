package domain

import "time"

// RoomStatus: 게임 룸 상태. 삭제는 행 제거로 표현되며 별도 상태가 없다.
type RoomStatus string

const (
	RoomWaiting  RoomStatus = "waiting"
	RoomPlaying  RoomStatus = "playing"
	RoomFinished RoomStatus = "finished"
)

// GameRoom: 멀티플레이 게임 룸
type GameRoom struct {
	ID               string            `json:"id"`
	RoomCode         string            `json:"room_code"`
	HostChildID      string            `json:"host_child_id"`
	GameID           string            `json:"game_id"`
	Difficulty       string            `json:"difficulty"`
	MaxPlayers       int               `json:"max_players"`
	CurrentPlayers   int               `json:"current_players"`
	Status           RoomStatus        `json:"status"`
	HasAIPlayer      bool              `json:"has_ai_player"`
	AIPlayerName     *string           `json:"ai_player_name"`
	AIPlayerAvatar   *string           `json:"ai_player_avatar"`
	SelectedCategory *string           `json:"selected_category"`
	Participants     []RoomParticipant `json:"participants,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// RoomParticipant: 룸 참가자. AI 참가자는 ChildID가 nil이다.
type RoomParticipant struct {
	ID           string    `json:"id"`
	RoomID       string    `json:"room_id"`
	ChildID      *string   `json:"child_id"`
	PlayerName   string    `json:"player_name"`
	PlayerAvatar *string   `json:"player_avatar"`
	IsAI         bool      `json:"is_ai"`
	JoinedAt     time.Time `json:"joined_at"`
}

// JoinRequestStatus: 초대/참가 요청 상태
type JoinRequestStatus string

const (
	JoinPending  JoinRequestStatus = "pending"
	JoinApproved JoinRequestStatus = "approved"
	JoinDenied   JoinRequestStatus = "denied"
)

// JoinRequest: 룸 코드 기준의 초대 또는 참가 요청
type JoinRequest struct {
	ID           string            `json:"id"`
	RoomID       *string           `json:"room_id"`
	RoomCode     string            `json:"room_code"`
	ChildID      string            `json:"child_id"`
	PlayerName   string            `json:"player_name"`
	PlayerAvatar *string           `json:"player_avatar"`
	Status       JoinRequestStatus `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// AIFriend: 룸 자동 채움에 쓰이는 고정 AI 참가자 정보
type AIFriend struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
	Personality string `json:"personality"`
}
