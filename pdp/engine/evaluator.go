package engine

import (
	"context"
	"slices"
	"sort"
	"time"

	"go.uber.org/zap"

	logger "github.com/dev-mohitbeniwal/echo-portal/logging"
	"github.com/dev-mohitbeniwal/echo-portal/model"
	pdp_model "github.com/dev-mohitbeniwal/echo-portal/pdp/model"
)

const (
	hintOutsideHours  = "access is only permitted during the policy's allowed hours"
	hintWeekdaysOnly  = "access is only permitted Monday through Friday"
	hintOfficeNetwork = "access is only permitted from the office network"
)

// PolicyRepository is the read side the evaluator needs.
type PolicyRepository interface {
	FindByResource(ctx context.Context, resource string) ([]*model.Policy, error)
}

// PolicyEvaluator decides access for a resource. It holds no mutable state;
// one instance serves concurrent requests.
type PolicyEvaluator struct {
	repo     PolicyRepository
	office   *OfficeNetwork
	location *time.Location
}

// NewPolicyEvaluator builds an evaluator. Hours and weekdays are read in loc
// (time.Local when nil).
func NewPolicyEvaluator(repo PolicyRepository, office *OfficeNetwork, loc *time.Location) *PolicyEvaluator {
	if loc == nil {
		loc = time.Local
	}
	return &PolicyEvaluator{
		repo:     repo,
		office:   office,
		location: loc,
	}
}

// EvaluateAccess grants access when any policy for resource has all of its
// conditions satisfied. It fails closed: no policies, unreadable policies and
// no match all deny.
func (pe *PolicyEvaluator) EvaluateAccess(ctx context.Context, identity model.Identity, resource string, actx pdp_model.AccessContext, purpose string) pdp_model.Decision {
	start := time.Now()
	policies, err := pe.repo.FindByResource(ctx, resource)
	if err != nil {
		logger.Error("Failed to load policies, denying access",
			zap.Error(err),
			zap.String("resource", resource),
			zap.Int64("userID", identity.ID))
		return pdp_model.Deny(pdp_model.ReasonPoliciesUnavailable)
	}

	if len(policies) == 0 {
		logger.Info("No policies for resource",
			zap.String("resource", resource),
			zap.Int64("userID", identity.ID))
		return pdp_model.Deny(pdp_model.ReasonNoPolicies)
	}

	ordered := make([]*model.Policy, 0, len(policies))
	for _, p := range policies {
		if p != nil {
			ordered = append(ordered, p)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PolicyID < ordered[j].PolicyID
	})

	// A hint is only given when every policy the role matched failed on a
	// hinted condition; one unhinted failure withholds it.
	var hint string
	hinted := true
	for _, policy := range ordered {
		result := pe.evaluatePolicy(identity, policy, actx, purpose)
		if result.Matched {
			logger.Info("Access allowed",
				zap.String("resource", resource),
				zap.Int64("userID", identity.ID),
				zap.String("policyID", policy.PolicyID),
				zap.Duration("duration", time.Since(start)))
			return pdp_model.Allow(policy.PolicyID, policy.Name)
		}
		logger.Debug("Policy did not match",
			zap.String("policyID", result.PolicyID),
			zap.String("condition", string(result.Failed)),
			zap.String("reason", result.Reason))
		if result.Failed == pdp_model.ConditionRole {
			continue
		}
		if result.Hint == "" {
			hinted = false
		} else if hint == "" {
			hint = result.Hint
		}
	}

	decision := pdp_model.Deny(pdp_model.ReasonNoMatchingPolicy)
	if hinted {
		decision.Hint = hint
	}
	logger.Info("Access denied",
		zap.String("resource", resource),
		zap.Int64("userID", identity.ID),
		zap.Int("policiesEvaluated", len(ordered)),
		zap.Duration("duration", time.Since(start)))
	return decision
}

// EvaluatePolicy checks a single policy; exposed for dry runs.
func (pe *PolicyEvaluator) EvaluatePolicy(identity model.Identity, policy *model.Policy, actx pdp_model.AccessContext, purpose string) pdp_model.PolicyEvaluationResult {
	return pe.evaluatePolicy(identity, policy, actx, purpose)
}

func (pe *PolicyEvaluator) evaluatePolicy(identity model.Identity, policy *model.Policy, actx pdp_model.AccessContext, purpose string) pdp_model.PolicyEvaluationResult {
	result := pdp_model.PolicyEvaluationResult{PolicyID: policy.PolicyID}
	rules := policy.AllowIf
	local := actx.Timestamp.In(pe.location)

	if !slices.Contains(rules.Role, identity.Role) {
		result.Failed = pdp_model.ConditionRole
		result.Reason = "role not permitted"
		return result
	}

	if rules.TimeRange != "" {
		tr, err := ParseTimeRange(rules.TimeRange)
		if err != nil {
			logger.Warn("Malformed time range, policy treated as non-matching",
				zap.String("policyID", policy.PolicyID),
				zap.Error(err))
			result.Failed = pdp_model.ConditionTimeRange
			result.Reason = "malformed time range"
			return result
		}
		if !tr.Contains(local) {
			result.Failed = pdp_model.ConditionTimeRange
			result.Reason = "outside time range " + tr.String()
			result.Hint = hintOutsideHours
			return result
		}
	}

	if rules.WeekdaysOnly && !isWeekday(local.Weekday()) {
		result.Failed = pdp_model.ConditionWeekdays
		result.Reason = "not a weekday"
		result.Hint = hintWeekdaysOnly
		return result
	}

	if rules.FromOfficeIP && !pe.office.Contains(actx.SourceAddress) {
		result.Failed = pdp_model.ConditionOfficeIP
		result.Reason = "source address not on office network"
		result.Hint = hintOfficeNetwork
		return result
	}

	if rules.PurposeRequired {
		if err := CheckPurpose(purpose); err != nil {
			result.Failed = pdp_model.ConditionPurpose
			result.Reason = err.Error()
			result.Hint = err.Error()
			return result
		}
	}

	result.Matched = true
	return result
}

func isWeekday(d time.Weekday) bool {
	return d >= time.Monday && d <= time.Friday
}
