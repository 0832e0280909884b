package billing

import (
	"strings"

	"github.com/learnhubhq/learnhub/app/models"
)

// PlanFromPriceID derives the internal plan from a provider price id.
// Anything outside the two configured paid prices is free, which covers
// both downgrade-to-free and a misconfigured price id.
func PlanFromPriceID(cfg Config, priceID string) string {
	switch strings.TrimSpace(priceID) {
	case "":
		return models.PlanFree
	case cfg.ProPriceID:
		return models.PlanPro
	case cfg.PremiumPriceID:
		return models.PlanPremium
	default:
		return models.PlanFree
	}
}

func normalizePlan(plan string) string {
	switch strings.ToLower(strings.TrimSpace(plan)) {
	case models.PlanPro:
		return models.PlanPro
	case models.PlanPremium:
		return models.PlanPremium
	default:
		return models.PlanFree
	}
}

func planRank(plan string) int {
	switch normalizePlan(plan) {
	case models.PlanPremium:
		return 2
	case models.PlanPro:
		return 1
	default:
		return 0
	}
}
