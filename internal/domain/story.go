package domain

import "time"

// GeneratedStory: 아이에게 속한 생성 동화. 내용은 생성 후 변경되지 않는다.
type GeneratedStory struct {
	ID        string    `json:"id"`
	ChildID   string    `json:"child_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AudioURL  *string   `json:"audio_url"`
	CreatedAt time.Time `json:"created_at"`
}
