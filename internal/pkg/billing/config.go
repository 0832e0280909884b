package billing

import (
	"strings"

	"github.com/learnhubhq/learnhub/internal/pkg/env"
)

// Config carries all billing settings. It is built once at startup and
// injected into the service, verifier and provider client so no package
// keeps configuration in mutable globals.
type Config struct {
	SecretKey      string
	ProPriceID     string
	PremiumPriceID string

	WebhookSecret string
	// VerifySignatures gates webhook signature verification explicitly.
	// When false (local development), payloads are parsed without
	// authentication; empty payloads are still rejected.
	VerifySignatures bool

	CheckoutSuccessURL string
	CheckoutCancelURL  string
	PortalReturnURL    string
}

// ConfigFromEnv builds the billing configuration from the environment.
// Verification defaults to on except in dev mode.
func ConfigFromEnv() Config {
	base := strings.TrimRight(env.GetEnv("FRONTEND_BASE_URL", "http://localhost:3000"), "/")

	return Config{
		SecretKey:          strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", "")),
		ProPriceID:         strings.TrimSpace(env.GetEnv("STRIPE_PRO_PRICE_ID", "")),
		PremiumPriceID:     strings.TrimSpace(env.GetEnv("STRIPE_PREMIUM_PRICE_ID", "")),
		WebhookSecret:      strings.TrimSpace(env.GetEnv("STRIPE_WEBHOOK_SECRET", "")),
		VerifySignatures:   env.GetEnvBool("STRIPE_VERIFY_SIGNATURES", !env.IsDev()),
		CheckoutSuccessURL: env.GetEnv("CHECKOUT_SUCCESS_URL", base+"/success?session_id={CHECKOUT_SESSION_ID}"),
		CheckoutCancelURL:  env.GetEnv("CHECKOUT_CANCEL_URL", base+"/pricing"),
		PortalReturnURL:    env.GetEnv("PORTAL_RETURN_URL", base+"/dashboard"),
	}
}

// IsPaidPrice reports whether the given price id is one of the two
// configured paid prices.
func (c Config) IsPaidPrice(priceID string) bool {
	if priceID == "" {
		return false
	}
	return priceID == c.ProPriceID || priceID == c.PremiumPriceID
}
