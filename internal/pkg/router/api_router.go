package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/learnhubhq/learnhub/app/controllers"
	"github.com/learnhubhq/learnhub/internal/pkg/middleware"
)

// ApiRouter installs the versioned JSON API.
type ApiRouter struct {
	subscriptions *controllers.SubscriptionController
	webhooks      *controllers.WebhookController
}

func NewApiRouter(subscriptions *controllers.SubscriptionController, webhooks *controllers.WebhookController) *ApiRouter {
	return &ApiRouter{
		subscriptions: subscriptions,
		webhooks:      webhooks,
	}
}

func (h *ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api")
	v1 := api.Group("/v1")

	// Public catalog; no auth, but rate limited.
	v1.Get("/subscriptions/plans", limiter.New(), h.subscriptions.HandleListPlans)

	// Authenticated subscription endpoints.
	subs := v1.Group("/subscriptions", limiter.New(), middleware.JWTProtected(), middleware.LoadUserContext)
	subs.Post("/checkout", h.subscriptions.HandleCreateCheckout)
	subs.Get("/me", h.subscriptions.HandleGetMySubscription)
	subs.Get("/entitlements", h.subscriptions.HandleGetEntitlements)
	subs.Post("/portal", h.subscriptions.HandleCreatePortal)

	// Provider webhooks are authenticated by signature, never rate limited.
	v1.Post("/webhooks/stripe", h.webhooks.HandleStripeWebhook)
}
