package domain

import "time"

// AgeGroup 값은 '5-7' 같은 구간 문자열이며 클라이언트가 정의한다.

// ParentProfile: 인증 제공자 subject에 연결된 부모 프로필
type ParentProfile struct {
	ID        string    `json:"id"`
	Auth0Sub  string    `json:"auth0_user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChildProfile: 부모에 속한 아이 프로필
type ChildProfile struct {
	ID                string     `json:"id"`
	ParentID          string     `json:"parent_id"`
	Name              string     `json:"name"`
	AgeGroup          string     `json:"age_group"`
	Avatar            *string    `json:"avatar"`
	VoiceCloneEnabled bool       `json:"voice_clone_enabled"`
	VoiceCloneID      *string    `json:"voice_clone_url"`
	IsOnline          bool       `json:"is_online"`
	LastSeenAt        *time.Time `json:"last_seen_at"`
	RoomID            *string    `json:"room_id"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ChildUpdate: 부분 업데이트 요청. nil 필드는 건드리지 않는다.
type ChildUpdate struct {
	Name     *string `json:"name"`
	AgeGroup *string `json:"age_group"`
	Avatar   *string `json:"avatar"`
}

// ChildStatusUpdate: 온라인 상태 업데이트. last_seen_at은 항상 현재 시각으로 갱신된다.
type ChildStatusUpdate struct {
	IsOnline *bool `json:"is_online"`
}
