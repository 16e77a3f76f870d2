// Package subscription decides whether an account is on the free or premium tier.
//
// The tier is read through Gate.CurrentTier only. A premium read is cached per
// user as a CachedTier that carries its own expiry, so an expired subscription
// reads free even while a cache entry still exists.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"moodtrack-backend/internal/common"
	"moodtrack-backend/internal/db"
	"moodtrack-backend/internal/kv"
	"moodtrack-backend/internal/logger"
)

type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

var ErrNoSubscription = errors.New("subscription: no subscription found")

// Store is the subscription slice of the data collaborator.
type Store interface {
	FindSubscription(ctx context.Context, userID uint) (*db.UserSubscription, error)
	SaveSubscription(ctx context.Context, sub *db.UserSubscription) error
}

// CachedTier is a cached tier read that is only trusted until ValidUntil.
type CachedTier struct {
	Tier       Tier      `json:"tier"`
	ValidUntil time.Time `json:"valid_until"`
}

// Valid reports whether the cached value may still be used at now.
func (c CachedTier) Valid(now time.Time) bool {
	return c.Tier == TierPremium && now.Before(c.ValidUntil)
}

// ActiveTier derives the tier from a subscription row. Premium needs tier=premium
// and an expiry that is unset or still in the future.
func ActiveTier(sub *db.UserSubscription, now time.Time) Tier {
	if sub == nil || Tier(sub.Tier) != TierPremium {
		return TierFree
	}
	if sub.ExpiresAt != nil && !sub.ExpiresAt.After(now) {
		return TierFree
	}
	return TierPremium
}

type Gate struct {
	store    Store
	cache    kv.Store
	cacheTTL time.Duration
	Now      func() time.Time
}

func NewGate(store Store, cache kv.Store, cacheTTL time.Duration) *Gate {
	if cacheTTL <= 0 {
		cacheTTL = common.DefaultTierCacheTTL
	}
	return &Gate{store: store, cache: cache, cacheTTL: cacheTTL, Now: time.Now}
}

func cacheKey(userID uint) string {
	return kv.UserKey(userID, common.KeySubscriptionTier)
}

// CurrentTier returns the user's tier. On a store error it returns TierFree with the error.
func (g *Gate) CurrentTier(ctx context.Context, userID uint) (Tier, error) {
	now := g.Now()

	var cached CachedTier
	if err := kv.GetJSON(ctx, g.cache, cacheKey(userID), &cached); err == nil && cached.Valid(now) {
		return TierPremium, nil
	}

	sub, err := g.store.FindSubscription(ctx, userID)
	if err != nil {
		return TierFree, fmt.Errorf("fetch subscription: %w", err)
	}

	tier := ActiveTier(sub, now)
	if tier == TierPremium {
		g.remember(ctx, userID, sub, now)
	} else {
		g.forget(ctx, userID)
	}
	return tier, nil
}

// remember caches a premium read until the earlier of expiry and the cache TTL.
func (g *Gate) remember(ctx context.Context, userID uint, sub *db.UserSubscription, now time.Time) {
	validUntil := now.Add(g.cacheTTL)
	if sub.ExpiresAt != nil && sub.ExpiresAt.Before(validUntil) {
		validUntil = *sub.ExpiresAt
	}
	entry := CachedTier{Tier: TierPremium, ValidUntil: validUntil}
	if err := kv.SetJSON(ctx, g.cache, cacheKey(userID), entry, validUntil.Sub(now)); err != nil {
		logger.Warn("cache subscription tier", "user_id", userID, "error", err)
	}
}

func (g *Gate) forget(ctx context.Context, userID uint) {
	if err := g.cache.Delete(ctx, cacheKey(userID)); err != nil {
		logger.Warn("clear subscription tier cache", "user_id", userID, "error", err)
	}
}

// Subscribe activates premium for one year from now, creating the row if needed.
// There is no payment step.
func (g *Gate) Subscribe(ctx context.Context, userID uint) (*db.UserSubscription, error) {
	now := g.Now()
	expiresAt := now.AddDate(common.SubscriptionPeriod, 0, 0)

	sub := &db.UserSubscription{UserID: userID, Tier: string(TierPremium), ExpiresAt: &expiresAt}
	if err := g.store.SaveSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("save subscription: %w", err)
	}
	saved, err := g.store.FindSubscription(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reload subscription: %w", err)
	}
	if saved == nil {
		return nil, ErrNoSubscription
	}
	g.remember(ctx, userID, saved, now)
	logger.Info("premium activated", "user_id", userID, "expires_at", expiresAt.Format(time.RFC3339))
	return saved, nil
}

// Cancel drops the user to free by setting tier=free and expiry=now.
func (g *Gate) Cancel(ctx context.Context, userID uint) error {
	existing, err := g.store.FindSubscription(ctx, userID)
	if err != nil {
		return fmt.Errorf("fetch subscription: %w", err)
	}
	if existing == nil {
		return ErrNoSubscription
	}

	now := g.Now()
	cancelled := &db.UserSubscription{UserID: userID, Tier: string(TierFree), ExpiresAt: &now}
	if err := g.store.SaveSubscription(ctx, cancelled); err != nil {
		return fmt.Errorf("save subscription: %w", err)
	}
	g.forget(ctx, userID)
	logger.Info("premium cancelled", "user_id", userID)
	return nil
}

// Details returns the raw subscription row, or nil when the user never subscribed.
func (g *Gate) Details(ctx context.Context, userID uint) (*db.UserSubscription, error) {
	return g.store.FindSubscription(ctx, userID)
}

// IsFeatureAvailable reports whether feature is usable on the user's current tier.
func (g *Gate) IsFeatureAvailable(ctx context.Context, userID uint, feature string) (bool, error) {
	tier, err := g.CurrentTier(ctx, userID)
	if err != nil {
		return false, err
	}
	if tier == TierPremium {
		return true, nil
	}
	return slices.Contains(common.FreeFeatures, feature), nil
}

// ClearCache drops the cached tier for the user.
func (g *Gate) ClearCache(ctx context.Context, userID uint) error {
	return g.cache.Delete(ctx, cacheKey(userID))
}
