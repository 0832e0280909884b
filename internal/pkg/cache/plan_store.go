package cache

import "time"

const planTTL = 15 * time.Minute

// PlanStore keeps each user's effective plan in Redis so entitlement checks
// do not need a subscription query per request. Entries expire so a missed
// invalidation self-heals.
type PlanStore struct{}

// NewPlanStore returns a Redis-backed plan store.
func NewPlanStore() PlanStore {
	return PlanStore{}
}

func (PlanStore) SetUserPlan(userID uint, plan string) error {
	return Set(UserPlanKey(userID), plan, planTTL)
}

func (PlanStore) GetUserPlan(userID uint) (string, error) {
	return Get(UserPlanKey(userID))
}

func (PlanStore) InvalidateUserPlan(userID uint) error {
	return Delete(UserPlanKey(userID))
}
