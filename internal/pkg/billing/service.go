package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/learnhubhq/learnhub/app/models"
	"gorm.io/gorm"
)

// PlanCache holds each user's effective plan so entitlement checks avoid a
// DB round trip. It is written after reconciliation, read by ResolvePlan and
// invalidated when the effective plan cannot be recomputed.
type PlanCache interface {
	SetUserPlan(userID uint, plan string) error
	GetUserPlan(userID uint) (string, error)
	InvalidateUserPlan(userID uint) error
}

// Service synchronizes provider subscription state into local records and
// wraps the user-facing checkout/portal calls. All collaborators are
// injected at construction; the service keeps no mutable state.
type Service struct {
	repo      Repository
	client    ProviderClient
	planCache PlanCache
	cfg       Config
}

// NewService creates a billing service from injected collaborators.
// planCache may be nil.
func NewService(repo Repository, client ProviderClient, planCache PlanCache, cfg Config) *Service {
	return &Service{repo: repo, client: client, planCache: planCache, cfg: cfg}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, client ProviderClient, planCache PlanCache, cfg Config) *Service {
	return NewService(NewRepository(db), client, planCache, cfg)
}

// Config returns the billing configuration the service was built with.
func (s *Service) Config() Config {
	return s.cfg
}

// EnsureCustomer returns the user's provider customer id, creating the
// customer at the provider on first use. The cached id short-circuits, so
// the provider sees exactly one creation call per user.
func (s *Service) EnsureCustomer(ctx context.Context, user *models.User) (string, error) {
	if user.HasStripeCustomer() {
		return user.StripeCustomerID, nil
	}

	customer, err := s.client.CreateCustomer(ctx, user.Email, user.Name, strconv.FormatUint(uint64(user.ID), 10))
	if err != nil {
		return "", err
	}

	if err := s.repo.SaveUserStripeCustomerID(ctx, user.ID, customer.ID); err != nil {
		return "", err
	}
	user.StripeCustomerID = customer.ID
	return customer.ID, nil
}

// CreateCheckoutSession starts a provider-hosted checkout for one of the
// configured paid prices. The price is validated before any provider call.
func (s *Service) CreateCheckoutSession(ctx context.Context, user *models.User, priceID string) (*CheckoutSession, error) {
	if !s.cfg.IsPaidPrice(priceID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriceID, priceID)
	}

	customerID, err := s.EnsureCustomer(ctx, user)
	if err != nil {
		return nil, err
	}

	return s.client.CreateCheckoutSession(ctx, CheckoutSessionParams{
		CustomerID:  customerID,
		PriceID:     priceID,
		SuccessURL:  s.cfg.CheckoutSuccessURL,
		CancelURL:   s.cfg.CheckoutCancelURL,
		LocalUserID: strconv.FormatUint(uint64(user.ID), 10),
	})
}

// CreatePortalSession starts a provider-hosted billing portal session for
// a user that already has a provider customer.
func (s *Service) CreatePortalSession(ctx context.Context, user *models.User) (*PortalSession, error) {
	if !user.HasStripeCustomer() {
		return nil, ErrNoCustomer
	}
	return s.client.CreatePortalSession(ctx, user.StripeCustomerID, s.cfg.PortalReturnURL)
}

// SyncSubscription reconciles a provider subscription payload into the
// local record, creating or mutating the row for its provider subscription
// id inside one transaction. A payload for a customer this system does not
// recognize returns (nil, nil); that is a benign no-op, not an error.
func (s *Service) SyncSubscription(ctx context.Context, payload *SubscriptionPayload) (*models.Subscription, error) {
	subID := strings.TrimSpace(payload.ID)
	customerID := strings.TrimSpace(payload.Customer)
	if subID == "" || customerID == "" {
		return nil, fmt.Errorf("%w: subscription payload missing id or customer", ErrInvalidPayload)
	}

	status, err := ParseStatus(payload.Status)
	if err != nil {
		return nil, err
	}

	var result *models.Subscription
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		user, err := tx.FindUserByCustomerID(ctx, customerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("billing: ignoring subscription %s for unknown customer %s", subID, customerID)
				return nil
			}
			return err
		}

		// The row lock serializes concurrent redelivery for the same
		// provider subscription id.
		sub, err := tx.GetSubscriptionForUpdate(ctx, subID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			sub = &models.Subscription{
				UserID:               user.ID,
				StripeSubscriptionID: subID,
			}
		}

		sub.Status = status
		sub.StripePriceID = payload.PriceID()
		sub.Plan = PlanFromPriceID(s.cfg, sub.StripePriceID)
		if payload.CurrentPeriodStart > 0 {
			t := time.Unix(payload.CurrentPeriodStart, 0).UTC()
			sub.CurrentPeriodStart = &t
		}
		if payload.CurrentPeriodEnd > 0 {
			t := time.Unix(payload.CurrentPeriodEnd, 0).UTC()
			sub.CurrentPeriodEnd = &t
		}
		sub.CancelAtPeriodEnd = payload.CancelAtPeriodEnd

		if sub.ID == 0 {
			if err := tx.CreateSubscription(ctx, sub); err != nil {
				return err
			}
		} else if err := tx.SaveSubscription(ctx, sub); err != nil {
			return err
		}

		result = sub
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result != nil {
		s.propagatePlan(result.UserID)
	}
	return result, nil
}

// CurrentSubscription returns the most recently created subscription row
// for a user; that row is authoritative for "current plan" queries.
func (s *Service) CurrentSubscription(ctx context.Context, userID uint) (*models.Subscription, error) {
	return s.repo.LatestSubscriptionByUser(ctx, userID)
}

// EffectivePlan computes the best plan among the user's entitling
// subscriptions, defaulting to free.
func (s *Service) EffectivePlan(ctx context.Context, userID uint) (string, error) {
	subs, err := s.repo.ListSubscriptionsByUser(ctx, userID)
	if err != nil {
		return "", err
	}

	best := models.PlanFree
	for i := range subs {
		if !subs[i].IsEntitling() {
			continue
		}
		if candidate := normalizePlan(subs[i].Plan); planRank(candidate) > planRank(best) {
			best = candidate
		}
	}
	return best, nil
}

// ResolvePlan returns the user's effective plan, serving from the plan cache
// when a propagated value exists and recomputing from subscription rows on a
// miss. The recomputed value is written back so the next check is cached.
func (s *Service) ResolvePlan(ctx context.Context, userID uint) (string, error) {
	if s.planCache != nil {
		if plan, err := s.planCache.GetUserPlan(userID); err == nil && plan != "" {
			return normalizePlan(plan), nil
		}
	}

	plan, err := s.EffectivePlan(ctx, userID)
	if err != nil {
		return "", err
	}
	if s.planCache != nil {
		if err := s.planCache.SetUserPlan(userID, plan); err != nil {
			log.Printf("billing: plan cache update for user %d failed: %v", userID, err)
		}
	}
	return plan, nil
}

// RecordWebhookEvent persists webhook payloads idempotently. Events without
// a provider event id are keyed by a payload hash.
func (s *Service) RecordWebhookEvent(ctx context.Context, in *Event, rawPayload []byte, signatureValid bool) (bool, *models.WebhookEvent, error) {
	eventID := strings.TrimSpace(in.ID)
	if eventID == "" {
		sum := sha256.Sum256(rawPayload)
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.WebhookEvent{
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.Type),
		PayloadJSON:     string(rawPayload),
		SignatureValid:  signatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(ctx, event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	if webhookEventID == 0 {
		return errors.New("webhook event id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(ctx, webhookEventID, errMsg)
}

// propagatePlan runs after the reconcile transaction committed, so it is not
// bound to the request context. When the plan cannot be recomputed the cached
// entry is dropped; a stale plan must not outlive the change that broke it.
func (s *Service) propagatePlan(userID uint) {
	if s.planCache == nil {
		return
	}
	plan, err := s.EffectivePlan(context.Background(), userID)
	if err != nil {
		log.Printf("billing: effective plan lookup for user %d failed: %v", userID, err)
		if err := s.planCache.InvalidateUserPlan(userID); err != nil {
			log.Printf("billing: plan cache invalidation for user %d failed: %v", userID, err)
		}
		return
	}
	if err := s.planCache.SetUserPlan(userID, plan); err != nil {
		log.Printf("billing: plan cache update for user %d failed: %v", userID, err)
	}
}
