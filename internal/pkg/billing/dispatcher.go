package billing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/learnhubhq/learnhub/app/models"
)

// Handled webhook event types. Everything else is acknowledged and ignored.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventInvoicePaid         = "invoice.payment_succeeded"
	EventInvoiceFailed       = "invoice.payment_failed"
)

// Reconciler applies provider subscription data to local records.
type Reconciler interface {
	SyncSubscription(ctx context.Context, payload *SubscriptionPayload) (*models.Subscription, error)
}

// Dispatcher classifies webhook events and routes their payload data to the
// reconciler, fetching the full subscription object when the event only
// carries a reference.
type Dispatcher struct {
	reconciler Reconciler
	client     ProviderClient
}

// NewDispatcher creates an event dispatcher.
func NewDispatcher(reconciler Reconciler, client ProviderClient) *Dispatcher {
	return &Dispatcher{reconciler: reconciler, client: client}
}

// Dispatch processes one verified event. It returns only after
// reconciliation finished, so the caller acknowledges the event no earlier
// than its effects are committed. Errors must surface as a server error so
// the provider redelivers.
func (d *Dispatcher) Dispatch(ctx context.Context, event *Event) error {
	switch event.Type {
	case EventCheckoutCompleted:
		var session checkoutSessionPayload
		if err := json.Unmarshal(event.Data.Object, &session); err != nil {
			return fmt.Errorf("%w: checkout session object: %v", ErrInvalidPayload, err)
		}
		// Sessions without a subscription reference are one-time payments.
		if session.Subscription == "" {
			return nil
		}
		return d.fetchAndReconcile(ctx, session.Subscription)

	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		var payload SubscriptionPayload
		if err := json.Unmarshal(event.Data.Object, &payload); err != nil {
			return fmt.Errorf("%w: subscription object: %v", ErrInvalidPayload, err)
		}
		_, err := d.reconciler.SyncSubscription(ctx, &payload)
		return err

	case EventInvoicePaid, EventInvoiceFailed:
		var invoice invoicePayload
		if err := json.Unmarshal(event.Data.Object, &invoice); err != nil {
			return fmt.Errorf("%w: invoice object: %v", ErrInvalidPayload, err)
		}
		if invoice.Subscription == "" {
			return nil
		}
		return d.fetchAndReconcile(ctx, invoice.Subscription)

	default:
		return nil
	}
}

func (d *Dispatcher) fetchAndReconcile(ctx context.Context, subscriptionID string) error {
	payload, err := d.client.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return err
	}
	_, err = d.reconciler.SyncSubscription(ctx, payload)
	return err
}
