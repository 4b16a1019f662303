// Package billing: 음성 구독 결제와 구독 레코드 관리를 담당하는 서비스
package billing

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/magicminds/magicminds-api-go/internal/domain"
	"github.com/magicminds/magicminds-api-go/internal/model"
	"github.com/magicminds/magicminds-api-go/internal/service/database"
	apperrors "github.com/magicminds/magicminds-api-go/pkg/errors"
)

const defaultPlanType = "voice_monthly"

// CheckoutProvider: 결제 프로바이더 경계 (테스트에서 fake 주입용)
type CheckoutProvider interface {
	CreateCheckout(ctx context.Context, email, successURL, cancelURL string) (string, error)
}

// Service: checkout 생성과 voice_subscriptions 레코드 관리를 담당하는 서비스
type Service struct {
	db       *database.PostgresService
	provider CheckoutProvider
	logger   *slog.Logger
}

func NewService(db *database.PostgresService, provider CheckoutProvider, logger *slog.Logger) *Service {
	return &Service{db: db, provider: provider, logger: logger}
}

// SubscriptionInput: 구독 레코드 생성/갱신 요청
type SubscriptionInput struct {
	StripeSubscriptionID *string `json:"stripe_subscription_id"`
	StripeCustomerID     *string `json:"stripe_customer_id"`
	PlanType             string  `json:"plan_type"`
}

// CreateCheckout: 부모 이메일 기준으로 구독 checkout URL을 만든다.
// origin은 결제 완료/취소 후 돌아갈 프론트엔드 주소다.
func (s *Service) CreateCheckout(ctx context.Context, subject, origin string) (string, error) {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if origin == "" {
		return "", apperrors.BadRequest("origin is required")
	}

	var email string
	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		parent, err := parentBySubject(tx, subject)
		if err != nil {
			return err
		}
		email = parent.Email
		return nil
	})
	if err != nil {
		return "", err
	}

	url, err := s.provider.CreateCheckout(ctx, email,
		origin+"/subscription/success",
		origin+"/subscription/cancel",
	)
	if err != nil {
		return "", err
	}

	s.logger.Info("checkout session created", slog.String("subject", subject))
	return url, nil
}

// UpsertSubscription: 부모당 하나인 구독 레코드를 활성 상태로 만들거나 갱신한다.
func (s *Service) UpsertSubscription(ctx context.Context, subject string, input SubscriptionInput) (*domain.VoiceSubscription, error) {
	planType := input.PlanType
	if planType == "" {
		planType = defaultPlanType
	}

	var result *domain.VoiceSubscription

	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		parent, err := parentBySubject(tx, subject)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		var sub model.VoiceSubscription
		err = tx.Where("parent_id = ?", parent.ID).First(&sub).Error
		switch {
		case stdErrors.Is(err, gorm.ErrRecordNotFound):
			sub = model.VoiceSubscription{
				ID:                   uuid.NewString(),
				ParentID:             parent.ID,
				StripeSubscriptionID: input.StripeSubscriptionID,
				StripeCustomerID:     input.StripeCustomerID,
				Status:               "active",
				PlanType:             planType,
				CreatedAt:            now,
				UpdatedAt:            now,
			}
			if err := tx.Create(&sub).Error; err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, "failed to create subscription", err)
			}
		case err != nil:
			return apperrors.Wrap(apperrors.CodeInternal, "failed to load subscription", err)
		default:
			updates := map[string]any{
				"status":     "active",
				"plan_type":  planType,
				"updated_at": now,
			}
			if input.StripeSubscriptionID != nil {
				updates["stripe_subscription_id"] = *input.StripeSubscriptionID
			}
			if input.StripeCustomerID != nil {
				updates["stripe_customer_id"] = *input.StripeCustomerID
			}
			if err := tx.Model(&model.VoiceSubscription{}).
				Where("id = ?", sub.ID).
				Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, "failed to update subscription", err)
			}
			if err := tx.Where("id = ?", sub.ID).First(&sub).Error; err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, "failed to reload subscription", err)
			}
		}

		result = model.ToSubscription(&sub)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("voice subscription upserted", slog.String("subject", subject))
	return result, nil
}

// GetSubscription: 부모의 구독 레코드를 조회한다.
func (s *Service) GetSubscription(ctx context.Context, subject string) (*domain.VoiceSubscription, error) {
	var result *domain.VoiceSubscription

	err := s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		parent, err := parentBySubject(tx, subject)
		if err != nil {
			return err
		}

		var sub model.VoiceSubscription
		err = tx.Where("parent_id = ?", parent.ID).First(&sub).Error
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("voice subscription not found")
		}
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to load subscription", err)
		}

		result = model.ToSubscription(&sub)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CancelSubscription: 구독을 취소 상태로 바꾼다. 레코드는 유지한다.
func (s *Service) CancelSubscription(ctx context.Context, subject string) error {
	return s.db.RunAs(ctx, subject, func(tx *gorm.DB) error {
		parent, err := parentBySubject(tx, subject)
		if err != nil {
			return err
		}

		res := tx.Model(&model.VoiceSubscription{}).
			Where("parent_id = ?", parent.ID).
			Updates(map[string]any{
				"status":     "cancelled",
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to cancel subscription", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("voice subscription not found")
		}

		s.logger.Info("voice subscription cancelled", slog.String("subject", subject))
		return nil
	})
}

func parentBySubject(tx *gorm.DB, subject string) (*model.ParentProfile, error) {
	var parent model.ParentProfile
	err := tx.Where("auth0_user_id = ?", subject).First(&parent).Error
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("parent profile not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load parent profile", err)
	}
	return &parent, nil
}
