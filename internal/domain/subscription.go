package domain

import "time"

// SubscriptionStatus 값: "inactive", "active", "cancelled" (결제 프로바이더 웹훅이 갱신)

// VoiceSubscription: 부모당 최대 하나의 음성 클로닝 구독
type VoiceSubscription struct {
	ID                   string    `json:"id"`
	ParentID             string    `json:"parent_id"`
	StripeSubscriptionID *string   `json:"stripe_subscription_id"`
	StripeCustomerID     *string   `json:"stripe_customer_id"`
	Status               string    `json:"status"`
	PlanType             string    `json:"plan_type"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}
