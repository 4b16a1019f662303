package domain

import "time"

// FriendStatus: 친구 관계 상태
type FriendStatus string

const (
	FriendPending  FriendStatus = "pending"
	FriendAccepted FriendStatus = "accepted"
	FriendBlocked  FriendStatus = "blocked"
)

// Friend: 두 아이 사이의 친구 관계 (순서 없는 쌍, 한 건만 존재)
type Friend struct {
	ID          string       `json:"id"`
	RequesterID string       `json:"requester_id"`
	AddresseeID string       `json:"addressee_id"`
	Status      FriendStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Presence: 조회 시점에 파생되는 3단계 접속 상태
type Presence string

const (
	PresenceOffline Presence = "offline"
	PresenceOnline  Presence = "online"
	PresenceInGame  Presence = "in-game"
)

// FriendWithPresence: 친구 목록 응답 (프로필 + 파생 상태)
type FriendWithPresence struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Avatar   *string  `json:"avatar"`
	AgeGroup string   `json:"age_group"`
	IsOnline bool     `json:"is_online"`
	Status   Presence `json:"status"`
}
