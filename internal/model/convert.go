package model

import "github.com/magicminds/magicminds-api-go/internal/domain"

// 모델 → 도메인 변환. 핸들러 응답 직전에만 사용한다.
func ToParent(m *ParentProfile) *domain.ParentProfile {
	if m == nil {
		return nil
	}
	return &domain.ParentProfile{
		ID:        m.ID,
		Auth0Sub:  m.Auth0Sub,
		Email:     m.Email,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func ToChild(m *ChildProfile) *domain.ChildProfile {
	if m == nil {
		return nil
	}
	return &domain.ChildProfile{
		ID:                m.ID,
		ParentID:          m.ParentID,
		Name:              m.Name,
		AgeGroup:          m.AgeGroup,
		Avatar:            m.Avatar,
		VoiceCloneEnabled: m.VoiceCloneEnabled,
		VoiceCloneID:      m.VoiceCloneID,
		IsOnline:          m.IsOnline,
		LastSeenAt:        m.LastSeenAt,
		RoomID:            m.RoomID,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func ToChildren(models []ChildProfile) []domain.ChildProfile {
	out := make([]domain.ChildProfile, 0, len(models))
	for i := range models {
		out = append(out, *ToChild(&models[i]))
	}
	return out
}

func ToFriend(m *Friend) *domain.Friend {
	if m == nil {
		return nil
	}
	return &domain.Friend{
		ID:          m.ID,
		RequesterID: m.RequesterID,
		AddresseeID: m.AddresseeID,
		Status:      domain.FriendStatus(m.Status),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ToRoom: 참가자 목록 없이 룸만 변환한다. 참가자는 호출 측에서 채운다.
func ToRoom(m *GameRoom) *domain.GameRoom {
	if m == nil {
		return nil
	}
	return &domain.GameRoom{
		ID:               m.ID,
		RoomCode:         m.RoomCode,
		HostChildID:      m.HostChildID,
		GameID:           m.GameID,
		Difficulty:       m.Difficulty,
		MaxPlayers:       m.MaxPlayers,
		CurrentPlayers:   m.CurrentPlayers,
		Status:           domain.RoomStatus(m.Status),
		HasAIPlayer:      m.HasAIPlayer,
		AIPlayerName:     m.AIPlayerName,
		AIPlayerAvatar:   m.AIPlayerAvatar,
		SelectedCategory: m.SelectedCategory,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func ToParticipant(m *RoomParticipant) *domain.RoomParticipant {
	if m == nil {
		return nil
	}
	return &domain.RoomParticipant{
		ID:           m.ID,
		RoomID:       m.RoomID,
		ChildID:      m.ChildID,
		PlayerName:   m.PlayerName,
		PlayerAvatar: m.PlayerAvatar,
		IsAI:         m.IsAI,
		JoinedAt:     m.JoinedAt,
	}
}

func ToParticipants(models []RoomParticipant) []domain.RoomParticipant {
	out := make([]domain.RoomParticipant, 0, len(models))
	for i := range models {
		out = append(out, *ToParticipant(&models[i]))
	}
	return out
}

func ToJoinRequest(m *JoinRequest) *domain.JoinRequest {
	if m == nil {
		return nil
	}
	return &domain.JoinRequest{
		ID:           m.ID,
		RoomID:       m.RoomID,
		RoomCode:     m.RoomCode,
		ChildID:      m.ChildID,
		PlayerName:   m.PlayerName,
		PlayerAvatar: m.PlayerAvatar,
		Status:       domain.JoinRequestStatus(m.Status),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func ToSession(m *GameSession) *domain.GameSession {
	if m == nil {
		return nil
	}
	return &domain.GameSession{
		ID:                  m.ID,
		RoomID:              m.RoomID,
		GameData:            m.GameData,
		CurrentTurnPlayerID: m.CurrentTurnPlayerID,
		GameState:           domain.SessionState(m.GameState),
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

func ToScore(m *GameScore) *domain.GameScore {
	if m == nil {
		return nil
	}
	return &domain.GameScore{
		ID:             m.ID,
		RoomID:         m.RoomID,
		SessionID:      m.SessionID,
		ChildID:        m.ChildID,
		PlayerName:     m.PlayerName,
		PlayerAvatar:   m.PlayerAvatar,
		IsAI:           m.IsAI,
		Score:          m.Score,
		TotalQuestions: m.TotalQuestions,
		CreatedAt:      m.CreatedAt,
	}
}

func ToStory(m *GeneratedStory) *domain.GeneratedStory {
	if m == nil {
		return nil
	}
	return &domain.GeneratedStory{
		ID:        m.ID,
		ChildID:   m.ChildID,
		Title:     m.Title,
		Content:   m.Content,
		AudioURL:  m.AudioURL,
		CreatedAt: m.CreatedAt,
	}
}

func ToSubscription(m *VoiceSubscription) *domain.VoiceSubscription {
	if m == nil {
		return nil
	}
	return &domain.VoiceSubscription{
		ID:                   m.ID,
		ParentID:             m.ParentID,
		StripeSubscriptionID: m.StripeSubscriptionID,
		StripeCustomerID:     m.StripeCustomerID,
		Status:               m.Status,
		PlanType:             m.PlanType,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}
