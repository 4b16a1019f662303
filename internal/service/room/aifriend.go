package room

import (
	"math/rand/v2"

	"github.com/magicminds/magicminds-api-go/internal/constants"
	"github.com/magicminds/magicminds-api-go/internal/domain"
)

// aiFriends: 룸 자동 채움에 쓰이는 고정 AI 참가자 목록
var aiFriends = []domain.AIFriend{
	{ID: "ai-alex", Name: "Alex the Explorer", Avatar: "🧭", Personality: "curious"},
	{ID: "ai-bella", Name: "Bella the Builder", Avatar: "🏗️", Personality: "creative"},
	{ID: "ai-charlie", Name: "Charlie the Chef", Avatar: "👨‍🍳", Personality: "adventurous"},
	{ID: "ai-diana", Name: "Diana the Detective", Avatar: "🕵️", Personality: "analytical"},
}

// AIFriends: 전체 AI 친구 목록 사본을 반환한다.
func AIFriends() []domain.AIFriend {
	out := make([]domain.AIFriend, len(aiFriends))
	copy(out, aiFriends)
	return out
}

func randomAIFriend() domain.AIFriend {
	return aiFriends[rand.IntN(len(aiFriends))]
}

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// generateRoomCode: 대문자+숫자 조합의 룸 코드를 생성한다.
// 유일성은 DB unique 제약 + 재시도로 보장한다.
func generateRoomCode() string {
	b := make([]byte, constants.RoomConfig.CodeLength)
	for i := range b {
		b[i] = codeAlphabet[rand.IntN(len(codeAlphabet))]
	}
	return string(b)
}
