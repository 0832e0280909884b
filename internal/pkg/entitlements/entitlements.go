package entitlements

import "strings"

type Plan string

const (
	PlanFree    Plan = "free"
	PlanPro     Plan = "pro"
	PlanPremium Plan = "premium"
)

// Normalize maps arbitrary plan strings onto a known plan, defaulting to free.
func Normalize(plan string) Plan {
	switch Plan(strings.ToLower(strings.TrimSpace(plan))) {
	case PlanPro:
		return PlanPro
	case PlanPremium:
		return PlanPremium
	default:
		return PlanFree
	}
}

// CanAccessPremiumCourses reports whether the plan unlocks the paid catalog.
func CanAccessPremiumCourses(plan Plan) bool {
	return plan == PlanPro || plan == PlanPremium
}

// CanDownloadResources reports whether course resources are downloadable.
func CanDownloadResources(plan Plan) bool {
	return plan == PlanPro || plan == PlanPremium
}

// CanBookMentorship reports whether 1-on-1 mentorship sessions are included.
func CanBookMentorship(plan Plan) bool {
	return plan == PlanPremium
}
