package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/learnhubhq/learnhub/app/models"
	"github.com/learnhubhq/learnhub/app/repository"
	"github.com/learnhubhq/learnhub/internal/pkg/billing"
	"github.com/learnhubhq/learnhub/internal/pkg/entitlements"
	"github.com/learnhubhq/learnhub/internal/pkg/usercontext"
)

// BillingService is the billing surface the subscription endpoints need.
type BillingService interface {
	Config() billing.Config
	CreateCheckoutSession(ctx context.Context, user *models.User, priceID string) (*billing.CheckoutSession, error)
	CreatePortalSession(ctx context.Context, user *models.User) (*billing.PortalSession, error)
	CurrentSubscription(ctx context.Context, userID uint) (*models.Subscription, error)
	ResolvePlan(ctx context.Context, userID uint) (string, error)
}

// CheckoutRequest is the POST /subscriptions/checkout body.
type CheckoutRequest struct {
	PriceID string `json:"price_id" validate:"required"`
}

// PlanInfo describes one catalog entry of GET /subscriptions/plans.
type PlanInfo struct {
	Name     string   `json:"name"`
	PriceID  string   `json:"price_id"`
	Price    float64  `json:"price"`
	Currency string   `json:"currency"`
	Features []string `json:"features"`
}

// SubscriptionController serves the user-facing subscription endpoints.
type SubscriptionController struct {
	users    repository.UserRepository
	billing  BillingService
	validate *validator.Validate
}

// NewSubscriptionController wires the subscription endpoints.
func NewSubscriptionController(users repository.UserRepository, billingSvc BillingService) *SubscriptionController {
	return &SubscriptionController{
		users:    users,
		billing:  billingSvc,
		validate: validator.New(),
	}
}

// HandleListPlans returns the static plan catalog.
func (ctl *SubscriptionController) HandleListPlans(c *fiber.Ctx) error {
	cfg := ctl.billing.Config()

	return c.JSON([]PlanInfo{
		{
			Name:     "Free",
			PriceID:  "",
			Price:    0.0,
			Currency: "EUR",
			Features: []string{
				"Access to free courses",
				"Community support",
				"Basic learning materials",
			},
		},
		{
			Name:     "Pro",
			PriceID:  cfg.ProPriceID,
			Price:    9.99,
			Currency: "EUR",
			Features: []string{
				"Access to all premium courses",
				"Priority support",
				"Downloadable resources",
				"Certificate of completion",
			},
		},
		{
			Name:     "Premium",
			PriceID:  cfg.PremiumPriceID,
			Price:    19.99,
			Currency: "EUR",
			Features: []string{
				"Everything in Pro",
				"1-on-1 mentorship sessions",
				"Exclusive workshops",
				"Career guidance",
				"Lifetime access",
			},
		},
	})
}

// HandleCreateCheckout starts a provider checkout session for one of the
// paid plans. The price id is rejected before any provider call is made.
func (ctl *SubscriptionController) HandleCreateCheckout(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return unauthorized(c)
	}
	user, err := ctl.users.GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Unknown user"})
	}

	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "Malformed request body"})
	}
	if err := ctl.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "price_id is required"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	session, err := ctl.billing.CreateCheckoutSession(ctx, user, req.PriceID)
	if err != nil {
		if errors.Is(err, billing.ErrInvalidPriceID) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_price_id", "message": "Invalid price ID"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "checkout_failed", "message": "Error creating checkout session: " + err.Error()})
	}

	return c.JSON(fiber.Map{
		"session_id": session.ID,
		"url":        session.URL,
	})
}

// HandleGetMySubscription returns the user's most recent subscription row.
func (ctl *SubscriptionController) HandleGetMySubscription(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return unauthorized(c)
	}

	sub, err := ctl.billing.CurrentSubscription(c.Context(), userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "No active subscription found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load subscription"})
	}

	return c.JSON(sub)
}

// EntitlementsResponse is the GET /subscriptions/entitlements body.
type EntitlementsResponse struct {
	Plan                    string `json:"plan"`
	CanAccessPremiumCourses bool   `json:"can_access_premium_courses"`
	CanDownloadResources    bool   `json:"can_download_resources"`
	CanBookMentorship       bool   `json:"can_book_mentorship"`
}

// HandleGetEntitlements resolves the user's effective plan (cached, with a
// row-level fallback) and reports the capabilities it unlocks.
func (ctl *SubscriptionController) HandleGetEntitlements(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return unauthorized(c)
	}

	planName, err := ctl.billing.ResolvePlan(c.Context(), userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to resolve plan"})
	}

	plan := entitlements.Normalize(planName)
	return c.JSON(EntitlementsResponse{
		Plan:                    string(plan),
		CanAccessPremiumCourses: entitlements.CanAccessPremiumCourses(plan),
		CanDownloadResources:    entitlements.CanDownloadResources(plan),
		CanBookMentorship:       entitlements.CanBookMentorship(plan),
	})
}

// HandleCreatePortal starts a provider billing portal session. Users
// without a provider customer get a 400 without any provider call.
func (ctl *SubscriptionController) HandleCreatePortal(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return unauthorized(c)
	}
	user, err := ctl.users.GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Unknown user"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	portal, err := ctl.billing.CreatePortalSession(ctx, user)
	if err != nil {
		if errors.Is(err, billing.ErrNoCustomer) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no_customer", "message": "No billing customer found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "portal_failed", "message": "Error creating portal session: " + err.Error()})
	}

	return c.JSON(fiber.Map{"url": portal.URL})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
}
