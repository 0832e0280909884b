package billing

import (
	"testing"

	"github.com/learnhubhq/learnhub/app/models"
)

func testConfig() Config {
	return Config{
		SecretKey:          "sk_test_123",
		ProPriceID:         "price_pro",
		PremiumPriceID:     "price_premium",
		WebhookSecret:      "whsec_test",
		VerifySignatures:   true,
		CheckoutSuccessURL: "http://localhost:3000/success?session_id={CHECKOUT_SESSION_ID}",
		CheckoutCancelURL:  "http://localhost:3000/pricing",
		PortalReturnURL:    "http://localhost:3000/dashboard",
	}
}

func TestPlanFromPriceID(t *testing.T) {
	cfg := testConfig()

	tests := []struct {
		in   string
		want string
	}{
		{in: "price_pro", want: models.PlanPro},
		{in: "price_premium", want: models.PlanPremium},
		{in: "price_free", want: models.PlanFree},
		{in: "price_unknown", want: models.PlanFree},
		{in: "", want: models.PlanFree},
	}

	for _, tt := range tests {
		if got := PlanFromPriceID(cfg, tt.in); got != tt.want {
			t.Fatalf("PlanFromPriceID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPlanRank(t *testing.T) {
	if planRank(models.PlanFree) >= planRank(models.PlanPro) {
		t.Fatalf("expected pro to outrank free")
	}
	if planRank(models.PlanPro) >= planRank(models.PlanPremium) {
		t.Fatalf("expected premium to outrank pro")
	}
}

func TestIsPaidPrice(t *testing.T) {
	cfg := testConfig()

	if !cfg.IsPaidPrice("price_pro") || !cfg.IsPaidPrice("price_premium") {
		t.Fatalf("expected configured prices to be paid")
	}
	if cfg.IsPaidPrice("price_other") || cfg.IsPaidPrice("") {
		t.Fatalf("expected unknown and empty prices to be unpaid")
	}
}
