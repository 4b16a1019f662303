package billing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/magicminds/magicminds-api-go/internal/model"
	"github.com/magicminds/magicminds-api-go/internal/service/database"
	apperrors "github.com/magicminds/magicminds-api-go/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeProvider: Stripe 없이 checkout 경로 검증용
type fakeProvider struct {
	url        string
	err        error
	email      string
	successURL string
	cancelURL  string
}

func (f *fakeProvider) CreateCheckout(_ context.Context, email, successURL, cancelURL string) (string, error) {
	f.email = email
	f.successURL = successURL
	f.cancelURL = cancelURL
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func newTestService(t *testing.T, provider CheckoutProvider) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	pg, err := database.NewWithGorm(db, newTestLogger(), false)
	if err != nil {
		t.Fatalf("failed to wrap gorm: %v", err)
	}
	return NewService(pg, provider, newTestLogger()), db
}

func seedParent(t *testing.T, db *gorm.DB, subject, email string) string {
	t.Helper()

	parent := model.ParentProfile{
		ID:       uuid.NewString(),
		Auth0Sub: subject,
		Email:    email,
		Name:     "Parent",
	}
	if err := db.Create(&parent).Error; err != nil {
		t.Fatalf("failed to seed parent: %v", err)
	}
	return parent.ID
}

func TestCreateCheckout(t *testing.T) {
	provider := &fakeProvider{url: "https://checkout.stripe.test/session-1"}
	svc, db := newTestService(t, provider)
	seedParent(t, db, "auth0|p1", "mom@example.com")

	url, err := svc.CreateCheckout(context.Background(), "auth0|p1", "https://app.magicminds.test/")
	if err != nil {
		t.Fatalf("CreateCheckout failed: %v", err)
	}
	if url != provider.url {
		t.Errorf("url = %q", url)
	}
	if provider.email != "mom@example.com" {
		t.Errorf("checkout email = %q", provider.email)
	}
	if provider.successURL != "https://app.magicminds.test/subscription/success" {
		t.Errorf("success url = %q", provider.successURL)
	}
	if provider.cancelURL != "https://app.magicminds.test/subscription/cancel" {
		t.Errorf("cancel url = %q", provider.cancelURL)
	}
}

func TestCreateCheckout_Validation(t *testing.T) {
	svc, db := newTestService(t, &fakeProvider{url: "u"})
	seedParent(t, db, "auth0|p1", "mom@example.com")

	_, err := svc.CreateCheckout(context.Background(), "auth0|p1", "  ")
	if code := apperrors.CodeOf(err); code != apperrors.CodeBadRequest {
		t.Errorf("code = %s, want %s", code, apperrors.CodeBadRequest)
	}

	_, err = svc.CreateCheckout(context.Background(), "auth0|ghost", "https://app.test")
	if code := apperrors.CodeOf(err); code != apperrors.CodeNotFound {
		t.Errorf("missing parent: code = %s, want %s", code, apperrors.CodeNotFound)
	}
}

func TestUpsertSubscription_CreateThenUpdate(t *testing.T) {
	svc, db := newTestService(t, &fakeProvider{})
	ctx := context.Background()
	seedParent(t, db, "auth0|p1", "mom@example.com")

	subID := "sub_123"
	first, err := svc.UpsertSubscription(ctx, "auth0|p1", SubscriptionInput{
		StripeSubscriptionID: &subID,
	})
	if err != nil {
		t.Fatalf("UpsertSubscription failed: %v", err)
	}
	if first.Status != "active" {
		t.Errorf("status = %q, want active", first.Status)
	}
	if first.PlanType != "voice_monthly" {
		t.Errorf("plan = %q, want voice_monthly default", first.PlanType)
	}

	custID := "cus_456"
	second, err := svc.UpsertSubscription(ctx, "auth0|p1", SubscriptionInput{
		StripeCustomerID: &custID,
		PlanType:         "voice_yearly",
	})
	if err != nil {
		t.Fatalf("second UpsertSubscription failed: %v", err)
	}
	if second.ID != first.ID {
		t.Error("upsert must reuse the per-parent row")
	}
	if second.PlanType != "voice_yearly" {
		t.Errorf("plan = %q, want voice_yearly", second.PlanType)
	}
	if second.StripeSubscriptionID == nil || *second.StripeSubscriptionID != "sub_123" {
		t.Error("existing stripe subscription id must survive a partial update")
	}
	if second.StripeCustomerID == nil || *second.StripeCustomerID != "cus_456" {
		t.Error("customer id not stored")
	}
}

func TestCancelSubscription_KeepsRow(t *testing.T) {
	svc, db := newTestService(t, &fakeProvider{})
	ctx := context.Background()
	seedParent(t, db, "auth0|p1", "mom@example.com")

	if _, err := svc.UpsertSubscription(ctx, "auth0|p1", SubscriptionInput{}); err != nil {
		t.Fatalf("UpsertSubscription failed: %v", err)
	}
	if err := svc.CancelSubscription(ctx, "auth0|p1"); err != nil {
		t.Fatalf("CancelSubscription failed: %v", err)
	}

	sub, err := svc.GetSubscription(ctx, "auth0|p1")
	if err != nil {
		t.Fatalf("GetSubscription failed: %v", err)
	}
	if sub.Status != "cancelled" {
		t.Errorf("status = %q, want cancelled", sub.Status)
	}

	// 재구독하면 같은 행이 다시 활성화된다
	reactivated, err := svc.UpsertSubscription(ctx, "auth0|p1", SubscriptionInput{})
	if err != nil {
		t.Fatalf("UpsertSubscription failed: %v", err)
	}
	if reactivated.ID != sub.ID || reactivated.Status != "active" {
		t.Errorf("unexpected reactivation: %+v", reactivated)
	}
}

func TestGetSubscription_NotFound(t *testing.T) {
	svc, db := newTestService(t, &fakeProvider{})
	seedParent(t, db, "auth0|p1", "mom@example.com")

	_, err := svc.GetSubscription(context.Background(), "auth0|p1")
	if code := apperrors.CodeOf(err); code != apperrors.CodeNotFound {
		t.Errorf("code = %s, want %s", code, apperrors.CodeNotFound)
	}

	if err := svc.CancelSubscription(context.Background(), "auth0|p1"); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Errorf("cancel without subscription: want NOT_FOUND, got %v", err)
	}
}
