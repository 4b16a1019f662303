package billing

import (
	"context"
	"log/slog"

	"github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"

	"github.com/magicminds/magicminds-api-go/internal/config"
	apperrors "github.com/magicminds/magicminds-api-go/pkg/errors"
)

// StripeProvider: Stripe 구독 결제 경계.
// 고객은 이메일로 조회 후 없으면 생성하고, 구독 모드 checkout 세션을 만든다.
type StripeProvider struct {
	priceID string
	logger  *slog.Logger
}

func NewStripeProvider(cfg config.StripeConfig, logger *slog.Logger) *StripeProvider {
	stripe.Key = cfg.SecretKey
	return &StripeProvider{priceID: cfg.PriceID, logger: logger}
}

// CreateCheckout: 구독 checkout 세션을 만들고 결제 페이지 URL을 반환한다.
func (p *StripeProvider) CreateCheckout(ctx context.Context, email, successURL, cancelURL string) (string, error) {
	customerID, err := p.lookupOrCreateCustomer(email)
	if err != nil {
		return "", err
	}

	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}
	params.Context = ctx

	session, err := checkoutsession.New(params)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeServiceUnavailable, "failed to create checkout session", err)
	}
	return session.URL, nil
}

// lookupOrCreateCustomer: 이메일로 기존 고객을 찾고 없으면 새로 만든다.
func (p *StripeProvider) lookupOrCreateCustomer(email string) (string, error) {
	listParams := &stripe.CustomerListParams{Email: stripe.String(email)}
	listParams.Limit = stripe.Int64(1)

	iter := customer.List(listParams)
	for iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", apperrors.Wrap(apperrors.CodeServiceUnavailable, "failed to look up customer", err)
	}

	created, err := customer.New(&stripe.CustomerParams{Email: stripe.String(email)})
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeServiceUnavailable, "failed to create customer", err)
	}

	p.logger.Info("stripe customer created", slog.String("customer_id", created.ID))
	return created.ID, nil
}
