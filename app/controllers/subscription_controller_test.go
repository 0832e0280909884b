package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/learnhubhq/learnhub/app/models"
	"github.com/learnhubhq/learnhub/internal/pkg/billing"
	"github.com/learnhubhq/learnhub/internal/pkg/usercontext"
)

type stubBillingService struct {
	cfg billing.Config

	checkoutSession *billing.CheckoutSession
	checkoutErr     error
	checkoutCalls   int

	portalSession *billing.PortalSession
	portalErr     error

	subscription    *models.Subscription
	subscriptionErr error

	plan    string
	planErr error
}

func (s *stubBillingService) Config() billing.Config { return s.cfg }

func (s *stubBillingService) CreateCheckoutSession(ctx context.Context, user *models.User, priceID string) (*billing.CheckoutSession, error) {
	s.checkoutCalls++
	if s.checkoutErr != nil {
		return nil, s.checkoutErr
	}
	return s.checkoutSession, nil
}

func (s *stubBillingService) CreatePortalSession(ctx context.Context, user *models.User) (*billing.PortalSession, error) {
	if s.portalErr != nil {
		return nil, s.portalErr
	}
	return s.portalSession, nil
}

func (s *stubBillingService) CurrentSubscription(ctx context.Context, userID uint) (*models.Subscription, error) {
	if s.subscriptionErr != nil {
		return nil, s.subscriptionErr
	}
	return s.subscription, nil
}

func (s *stubBillingService) ResolvePlan(ctx context.Context, userID uint) (string, error) {
	if s.planErr != nil {
		return "", s.planErr
	}
	return s.plan, nil
}

type stubUserRepository struct {
	user *models.User
}

func (s *stubUserRepository) GetByID(id uint) (*models.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepository) GetByStripeCustomerID(customerID string) (*models.User, error) {
	if s.user == nil || s.user.StripeCustomerID != customerID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func subscriptionApp(users *stubUserRepository, billingSvc BillingService, userCtx *usercontext.UserContext) *fiber.App {
	app := fiber.New()
	if userCtx != nil {
		app.Use(func(c *fiber.Ctx) error {
			usercontext.SetUserContext(c, *userCtx)
			return c.Next()
		})
	}

	ctl := NewSubscriptionController(users, billingSvc)
	v1 := app.Group("/api/v1/subscriptions")
	v1.Get("/plans", ctl.HandleListPlans)
	v1.Post("/checkout", ctl.HandleCreateCheckout)
	v1.Get("/me", ctl.HandleGetMySubscription)
	v1.Get("/entitlements", ctl.HandleGetEntitlements)
	v1.Post("/portal", ctl.HandleCreatePortal)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, target string, payload interface{}) (int, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, raw
}

func TestHandleListPlans(t *testing.T) {
	svc := &stubBillingService{cfg: billing.Config{ProPriceID: "price_pro", PremiumPriceID: "price_premium"}}
	app := subscriptionApp(&stubUserRepository{}, svc, nil)

	status, raw := doJSON(t, app, "GET", "/api/v1/subscriptions/plans", nil)
	assert.Equal(t, fiber.StatusOK, status)

	var plans []PlanInfo
	assert.NoError(t, json.Unmarshal(raw, &plans))
	assert.Len(t, plans, 3)
	assert.Equal(t, "Free", plans[0].Name)
	assert.Equal(t, "price_pro", plans[1].PriceID)
	assert.Equal(t, "price_premium", plans[2].PriceID)
}

func TestHandleCreateCheckout(t *testing.T) {
	user := &models.User{ID: 5, Email: "jo@example.com"}
	svc := &stubBillingService{
		checkoutSession: &billing.CheckoutSession{ID: "cs_1", URL: "https://checkout.example/cs_1"},
	}
	app := subscriptionApp(&stubUserRepository{user: user}, svc,
		&usercontext.UserContext{UserID: 5, Email: user.Email, IsLoggedIn: true})

	status, raw := doJSON(t, app, "POST", "/api/v1/subscriptions/checkout",
		CheckoutRequest{PriceID: "price_pro"})
	assert.Equal(t, fiber.StatusOK, status)

	var body map[string]string
	assert.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "cs_1", body["session_id"])
	assert.Equal(t, "https://checkout.example/cs_1", body["url"])
}

func TestHandleCreateCheckoutUnauthenticated(t *testing.T) {
	svc := &stubBillingService{}
	app := subscriptionApp(&stubUserRepository{}, svc, nil)

	status, _ := doJSON(t, app, "POST", "/api/v1/subscriptions/checkout",
		CheckoutRequest{PriceID: "price_pro"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, 0, svc.checkoutCalls)
}

func TestHandleCreateCheckoutMissingPrice(t *testing.T) {
	user := &models.User{ID: 5, Email: "jo@example.com"}
	svc := &stubBillingService{}
	app := subscriptionApp(&stubUserRepository{user: user}, svc,
		&usercontext.UserContext{UserID: 5, IsLoggedIn: true})

	status, raw := doJSON(t, app, "POST", "/api/v1/subscriptions/checkout", map[string]string{})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, string(raw), "price_id is required")
	assert.Equal(t, 0, svc.checkoutCalls)
}

func TestHandleCreateCheckoutInvalidPrice(t *testing.T) {
	user := &models.User{ID: 5, Email: "jo@example.com"}
	svc := &stubBillingService{checkoutErr: billing.ErrInvalidPriceID}
	app := subscriptionApp(&stubUserRepository{user: user}, svc,
		&usercontext.UserContext{UserID: 5, IsLoggedIn: true})

	status, raw := doJSON(t, app, "POST", "/api/v1/subscriptions/checkout",
		CheckoutRequest{PriceID: "price_bogus"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, string(raw), "invalid_price_id")
}

func TestHandleGetMySubscription(t *testing.T) {
	svc := &stubBillingService{
		subscription: &models.Subscription{ID: 1, UserID: 5, StripeSubscriptionID: "sub_1", Plan: models.PlanPro, Status: models.StatusActive},
	}
	app := subscriptionApp(&stubUserRepository{}, svc,
		&usercontext.UserContext{UserID: 5, IsLoggedIn: true})

	status, raw := doJSON(t, app, "GET", "/api/v1/subscriptions/me", nil)
	assert.Equal(t, fiber.StatusOK, status)

	var sub models.Subscription
	assert.NoError(t, json.Unmarshal(raw, &sub))
	assert.Equal(t, "sub_1", sub.StripeSubscriptionID)
	assert.Equal(t, models.PlanPro, sub.Plan)
}

func TestHandleGetMySubscriptionNotFound(t *testing.T) {
	svc := &stubBillingService{subscriptionErr: gorm.ErrRecordNotFound}
	app := subscriptionApp(&stubUserRepository{}, svc,
		&usercontext.UserContext{UserID: 5, IsLoggedIn: true})

	status, raw := doJSON(t, app, "GET", "/api/v1/subscriptions/me", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Contains(t, string(raw), "not_found")
}

func TestHandleGetEntitlements(t *testing.T) {
	svc := &stubBillingService{plan: models.PlanPro}
	app := subscriptionApp(&stubUserRepository{}, svc,
		&usercontext.UserContext{UserID: 5, IsLoggedIn: true})

	status, raw := doJSON(t, app, "GET", "/api/v1/subscriptions/entitlements", nil)
	assert.Equal(t, fiber.StatusOK, status)

	var body EntitlementsResponse
	assert.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, models.PlanPro, body.Plan)
	assert.True(t, body.CanAccessPremiumCourses)
	assert.True(t, body.CanDownloadResources)
	assert.False(t, body.CanBookMentorship)
}

func TestHandleGetEntitlementsFreeUser(t *testing.T) {
	svc := &stubBillingService{plan: models.PlanFree}
	app := subscriptionApp(&stubUserRepository{}, svc,
		&usercontext.UserContext{UserID: 5, IsLoggedIn: true})

	status, raw := doJSON(t, app, "GET", "/api/v1/subscriptions/entitlements", nil)
	assert.Equal(t, fiber.StatusOK, status)

	var body EntitlementsResponse
	assert.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, models.PlanFree, body.Plan)
	assert.False(t, body.CanAccessPremiumCourses)
	assert.False(t, body.CanDownloadResources)
	assert.False(t, body.CanBookMentorship)
}

func TestHandleGetEntitlementsUnauthenticated(t *testing.T) {
	app := subscriptionApp(&stubUserRepository{}, &stubBillingService{plan: models.PlanPro}, nil)

	status, _ := doJSON(t, app, "GET", "/api/v1/subscriptions/entitlements", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestHandleCreatePortal(t *testing.T) {
	user := &models.User{ID: 5, StripeCustomerID: "cus_5"}
	svc := &stubBillingService{portalSession: &billing.PortalSession{URL: "https://portal.example/cus_5"}}
	app := subscriptionApp(&stubUserRepository{user: user}, svc,
		&usercontext.UserContext{UserID: 5, IsLoggedIn: true})

	status, raw := doJSON(t, app, "POST", "/api/v1/subscriptions/portal", nil)
	assert.Equal(t, fiber.StatusOK, status)

	var body map[string]string
	assert.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "https://portal.example/cus_5", body["url"])
}

func TestHandleCreatePortalWithoutCustomer(t *testing.T) {
	user := &models.User{ID: 5}
	svc := &stubBillingService{portalErr: billing.ErrNoCustomer}
	app := subscriptionApp(&stubUserRepository{user: user}, svc,
		&usercontext.UserContext{UserID: 5, IsLoggedIn: true})

	status, raw := doJSON(t, app, "POST", "/api/v1/subscriptions/portal", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, string(raw), "no_customer")
}
