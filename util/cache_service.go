// util/cache_service.go

package util

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	logger "github.com/dev-mohitbeniwal/echo-portal/logging"
	"github.com/dev-mohitbeniwal/echo-portal/model"
)

// PolicyCacheStore is satisfied by db.PolicyCache.
type PolicyCacheStore interface {
	Invalidate(ctx context.Context, resources ...string) error
}

// CacheService drops cached policy sets when policies change.
type CacheService struct {
	policies PolicyCacheStore
}

func NewCacheService(policies PolicyCacheStore) *CacheService {
	return &CacheService{policies: policies}
}

// SubscribeTo registers the invalidation handler on bus.
func (c *CacheService) SubscribeTo(bus *EventBus) {
	bus.Subscribe(EventPolicyChanged, func(ctx context.Context, e Event) error {
		change, ok := e.Payload.(model.PolicyChange)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", e.Payload, e.Type)
		}
		return c.InvalidatePolicies(ctx, change)
	})
}

func (c *CacheService) InvalidatePolicies(ctx context.Context, change model.PolicyChange) error {
	if c.policies == nil || len(change.Resources) == 0 {
		return nil
	}
	if err := c.policies.Invalidate(ctx, change.Resources...); err != nil {
		return err
	}
	logger.Debug("Policy cache invalidated",
		zap.String("policyID", change.PolicyID),
		zap.Strings("resources", change.Resources))
	return nil
}
