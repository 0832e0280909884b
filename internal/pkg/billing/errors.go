package billing

import "errors"

var (
	// ErrEmptyPayload is returned for an empty webhook body in any mode.
	ErrEmptyPayload = errors.New("billing: empty webhook payload")
	// ErrInvalidSignature is returned when the signature header does not
	// authenticate the payload against the webhook secret.
	ErrInvalidSignature = errors.New("billing: invalid webhook signature")
	// ErrInvalidPayload is returned when the webhook body cannot be parsed.
	ErrInvalidPayload = errors.New("billing: invalid webhook payload")
	// ErrUnknownStatus is returned when a provider subscription status does
	// not map onto a known status. Reconciliation fails rather than
	// defaulting silently.
	ErrUnknownStatus = errors.New("billing: unknown subscription status")
	// ErrInvalidPriceID is returned when a checkout is requested for a
	// price outside the configured paid prices.
	ErrInvalidPriceID = errors.New("billing: invalid price id")
	// ErrNoCustomer is returned when a portal session is requested for a
	// user without a provider customer.
	ErrNoCustomer = errors.New("billing: user has no provider customer")
)
