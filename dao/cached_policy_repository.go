// dao/cached_policy_repository.go
package dao

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	echo_errors "github.com/dev-mohitbeniwal/echo-portal/errors"
	logger "github.com/dev-mohitbeniwal/echo-portal/logging"
	"github.com/dev-mohitbeniwal/echo-portal/model"
)

// PolicyReader is satisfied by PolicyDAO.
type PolicyReader interface {
	FindByResource(ctx context.Context, resource string) ([]*model.Policy, error)
}

// PolicySnapshotCache is satisfied by db.PolicyCache.
type PolicySnapshotCache interface {
	GetPolicies(ctx context.Context, resource string) ([]*model.Policy, bool, error)
	Generation(ctx context.Context, resource string) (int64, error)
	SetPoliciesAt(ctx context.Context, resource string, generation int64, policies []*model.Policy) (bool, error)
}

// CachedPolicyRepository always reads the primary store first and keeps the
// last good answer per resource in the cache. The cache is only consulted
// when the primary store fails, so a policy change is visible on the next
// request.
type CachedPolicyRepository struct {
	primary PolicyReader
	cache   PolicySnapshotCache
}

func NewCachedPolicyRepository(primary PolicyReader, cache PolicySnapshotCache) *CachedPolicyRepository {
	return &CachedPolicyRepository{primary: primary, cache: cache}
}

// FindByResource reads the cache generation before the primary store so a
// refresh never overwrites an invalidation that happened during the read.
func (r *CachedPolicyRepository) FindByResource(ctx context.Context, resource string) ([]*model.Policy, error) {
	var gen int64
	var genErr error
	if r.cache != nil {
		gen, genErr = r.cache.Generation(ctx, resource)
	}

	policies, err := r.primary.FindByResource(ctx, resource)
	if err == nil {
		if r.cache != nil {
			r.refresh(ctx, resource, gen, genErr, policies)
		}
		return policies, nil
	}

	if r.cache == nil {
		return nil, fmt.Errorf("%w: %v", echo_errors.ErrStorageUnavailable, err)
	}

	cached, found, cerr := r.cache.GetPolicies(ctx, resource)
	if cerr == nil && found {
		logger.Warn("Policy store unavailable, serving cached policies",
			zap.String("resource", resource),
			zap.Int("count", len(cached)),
			zap.Error(err))
		return cached, nil
	}

	logger.Error("Policy store and cache unavailable",
		zap.String("resource", resource),
		zap.Error(err),
		zap.NamedError("cacheError", cerr),
		zap.Bool("cached", found))
	return nil, fmt.Errorf("%w: %v", echo_errors.ErrStorageUnavailable, err)
}

func (r *CachedPolicyRepository) refresh(ctx context.Context, resource string, gen int64, genErr error, policies []*model.Policy) {
	if genErr != nil {
		logger.Warn("Failed to refresh policy cache", zap.String("resource", resource), zap.Error(genErr))
		return
	}
	if _, err := r.cache.SetPoliciesAt(ctx, resource, gen, policies); err != nil {
		logger.Warn("Failed to refresh policy cache", zap.String("resource", resource), zap.Error(err))
	}
}
