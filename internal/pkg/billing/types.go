package billing

import "encoding/json"

// Event is a provider webhook event. Data.Object keeps the embedded object
// raw so the dispatcher can decode it per event type.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// SubscriptionPayload is the provider subscription object as delivered in
// webhook events and by the subscriptions API. Period timestamps are unix
// seconds; zero means absent.
type SubscriptionPayload struct {
	ID                 string `json:"id"`
	Customer           string `json:"customer"`
	Status             string `json:"status"`
	CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	Items              struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

// PriceID returns the first line item's price id, or "" when absent.
func (p *SubscriptionPayload) PriceID() string {
	if len(p.Items.Data) == 0 {
		return ""
	}
	return p.Items.Data[0].Price.ID
}

// checkoutSessionPayload is the slice of checkout.session.completed we care
// about: the subscription reference. One-time payments carry none.
type checkoutSessionPayload struct {
	Subscription string `json:"subscription"`
}

// invoicePayload carries the subscription reference of an invoice event.
type invoicePayload struct {
	Subscription string `json:"subscription"`
}

// Customer is the provider customer record returned on creation.
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// CheckoutSession is a provider-hosted payment flow initiation.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PortalSession is a provider-hosted self-service billing page.
type PortalSession struct {
	URL string `json:"url"`
}
