package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/learnhubhq/learnhub/app/models"
	"github.com/learnhubhq/learnhub/internal/pkg/billing"
)

// EventVerifier authenticates raw webhook payloads.
type EventVerifier interface {
	Verify(rawBody []byte, signatureHeader string) (*billing.Event, error)
	Verifying() bool
}

// EventDispatcher routes verified events to the reconciler.
type EventDispatcher interface {
	Dispatch(ctx context.Context, event *billing.Event) error
}

// WebhookStore persists events for deduplication and audit.
type WebhookStore interface {
	RecordWebhookEvent(ctx context.Context, event *billing.Event, rawPayload []byte, signatureValid bool) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error
}

// WebhookController receives provider webhook deliveries.
type WebhookController struct {
	verifier   EventVerifier
	dispatcher EventDispatcher
	events     WebhookStore
}

// NewWebhookController wires the webhook endpoint.
func NewWebhookController(verifier EventVerifier, dispatcher EventDispatcher, events WebhookStore) *WebhookController {
	return &WebhookController{verifier: verifier, dispatcher: dispatcher, events: events}
}

// HandleStripeWebhook authenticates, deduplicates and dispatches one
// provider event. The success response is only written after reconciliation
// finished, so redelivery on failure cannot lose updates.
func (ctl *WebhookController) HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := c.Get("Stripe-Signature")

	event, err := ctl.verifier.Verify(rawBody, signature)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrEmptyPayload):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "empty_payload", "message": "Webhook endpoint - only for provider events"})
		case errors.Is(err, billing.ErrInvalidSignature):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature", "message": "Invalid signature"})
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Invalid payload"})
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created, stored, err := ctl.events.RecordWebhookEvent(ctx, event, rawBody, ctl.verifier.Verifying())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed", "message": "Failed to persist event"})
	}
	// Only short-circuit when the previous delivery of this event id was
	// processed without error; a failed attempt must be retried.
	if !created && stored.ProcessedAt != nil && stored.ProcessingError == "" {
		return c.JSON(fiber.Map{"status": "success", "duplicate": true})
	}

	dispatchErr := ctl.dispatcher.Dispatch(ctx, event)
	_ = ctl.events.MarkWebhookProcessed(ctx, stored.ID, dispatchErr)
	if dispatchErr != nil {
		if errors.Is(dispatchErr, billing.ErrInvalidPayload) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Invalid payload"})
		}
		// 5xx signals the provider to redeliver.
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "subscription_sync_failed", "message": dispatchErr.Error()})
	}

	return c.JSON(fiber.Map{"status": "success"})
}
