// service/policy_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dev-mohitbeniwal/echo-portal/audit"
	echo_errors "github.com/dev-mohitbeniwal/echo-portal/errors"
	logger "github.com/dev-mohitbeniwal/echo-portal/logging"
	"github.com/dev-mohitbeniwal/echo-portal/model"
	"github.com/dev-mohitbeniwal/echo-portal/util"
)

const bulkCreateConcurrency = 10

// PolicyStore is implemented by dao.PolicyDAO.
type PolicyStore interface {
	CreatePolicy(ctx context.Context, policy *model.Policy) (*model.Policy, error)
	UpdatePolicy(ctx context.Context, policy *model.Policy) (*model.Policy, error)
	DeletePolicy(ctx context.Context, policyID string) (*model.Policy, error)
	GetPolicy(ctx context.Context, policyID string) (*model.Policy, error)
	ListPolicies(ctx context.Context) ([]*model.Policy, error)
	FindByResource(ctx context.Context, resource string) ([]*model.Policy, error)
}

type IPolicyService interface {
	CreatePolicy(ctx context.Context, actor model.Identity, policy model.Policy) (*model.Policy, error)
	UpdatePolicy(ctx context.Context, actor model.Identity, policyID string, policy model.Policy) (*model.Policy, error)
	DeletePolicy(ctx context.Context, actor model.Identity, policyID string) error
	GetPolicy(ctx context.Context, actor model.Identity, policyID string) (*model.Policy, error)
	ListPolicies(ctx context.Context, actor model.Identity) ([]*model.Policy, error)
	ListPoliciesByResource(ctx context.Context, actor model.Identity, resource string) ([]*model.Policy, error)
	BulkCreatePolicies(ctx context.Context, actor model.Identity, policies []model.Policy) ([]*model.Policy, error)
}

// PolicyService is the admin surface over the policy repository. Every
// mutation attempt by an admin is written to the audit trail, successful or
// not, and successful ones are published on the event bus.
type PolicyService struct {
	policyDAO      PolicyStore
	auditService   audit.Service
	validationUtil *util.ValidationUtil
	eventBus       *util.EventBus
}

func NewPolicyService(policyDAO PolicyStore, auditService audit.Service, validationUtil *util.ValidationUtil, eventBus *util.EventBus) *PolicyService {
	return &PolicyService{
		policyDAO:      policyDAO,
		auditService:   auditService,
		validationUtil: validationUtil,
		eventBus:       eventBus,
	}
}

func (s *PolicyService) CreatePolicy(ctx context.Context, actor model.Identity, policy model.Policy) (*model.Policy, error) {
	if err := requireAdmin(actor, "create policy"); err != nil {
		return nil, err
	}
	policy.PolicyID = strings.TrimSpace(policy.PolicyID)

	if err := s.validationUtil.ValidatePolicy(&policy); err != nil {
		s.auditChange(ctx, actor, model.ActionCreatePolicy, policy.PolicyID, err)
		return nil, err
	}

	created, err := s.policyDAO.CreatePolicy(ctx, &policy)
	if err != nil {
		logger.Error("Error creating policy", zap.Error(err), zap.String("policyID", policy.PolicyID), zap.Int64("actorID", actor.ID))
		s.auditChange(ctx, actor, model.ActionCreatePolicy, policy.PolicyID, err)
		return nil, err
	}

	s.auditChange(ctx, actor, model.ActionCreatePolicy, created.PolicyID, nil, "Created policy: "+created.Name)
	s.publish(ctx, model.PolicyChange{
		Action:    model.ActionCreatePolicy,
		PolicyID:  created.PolicyID,
		Name:      created.Name,
		ActorID:   actor.ID,
		Resources: []string{created.Resource},
	})

	logger.Info("Policy created successfully", zap.String("policyID", created.PolicyID), zap.Int64("actorID", actor.ID))
	return created, nil
}

// UpdatePolicy replaces the policy stored under policyID. The body may omit
// policy_id but may not name a different one.
func (s *PolicyService) UpdatePolicy(ctx context.Context, actor model.Identity, policyID string, policy model.Policy) (*model.Policy, error) {
	if err := requireAdmin(actor, "update policy"); err != nil {
		return nil, err
	}
	if policy.PolicyID != "" && policy.PolicyID != policyID {
		err := fmt.Errorf("%w: policy_id cannot be changed", echo_errors.ErrInvalidPolicyData)
		s.auditChange(ctx, actor, model.ActionUpdatePolicy, policyID, err)
		return nil, err
	}
	policy.PolicyID = policyID

	if err := s.validationUtil.ValidatePolicy(&policy); err != nil {
		s.auditChange(ctx, actor, model.ActionUpdatePolicy, policyID, err)
		return nil, err
	}

	old, err := s.policyDAO.GetPolicy(ctx, policyID)
	if err != nil {
		s.auditChange(ctx, actor, model.ActionUpdatePolicy, policyID, err)
		return nil, err
	}

	updated, err := s.policyDAO.UpdatePolicy(ctx, &policy)
	if err != nil {
		logger.Error("Error updating policy", zap.Error(err), zap.String("policyID", policyID), zap.Int64("actorID", actor.ID))
		s.auditChange(ctx, actor, model.ActionUpdatePolicy, policyID, err)
		return nil, err
	}

	resources := []string{updated.Resource}
	if old.Resource != updated.Resource {
		resources = append(resources, old.Resource)
	}
	s.auditChange(ctx, actor, model.ActionUpdatePolicy, policyID, nil, "Updated policy: "+updated.Name)
	s.publish(ctx, model.PolicyChange{
		Action:    model.ActionUpdatePolicy,
		PolicyID:  policyID,
		Name:      updated.Name,
		ActorID:   actor.ID,
		Resources: resources,
	})

	logger.Info("Policy updated successfully", zap.String("policyID", policyID), zap.Int64("actorID", actor.ID))
	return updated, nil
}

func (s *PolicyService) DeletePolicy(ctx context.Context, actor model.Identity, policyID string) error {
	if err := requireAdmin(actor, "delete policy"); err != nil {
		return err
	}

	deleted, err := s.policyDAO.DeletePolicy(ctx, policyID)
	if err != nil {
		logger.Error("Error deleting policy", zap.Error(err), zap.String("policyID", policyID), zap.Int64("actorID", actor.ID))
		s.auditChange(ctx, actor, model.ActionDeletePolicy, policyID, err)
		return err
	}

	s.auditChange(ctx, actor, model.ActionDeletePolicy, policyID, nil, "Deleted policy: "+deleted.Name)
	s.publish(ctx, model.PolicyChange{
		Action:    model.ActionDeletePolicy,
		PolicyID:  policyID,
		Name:      deleted.Name,
		ActorID:   actor.ID,
		Resources: []string{deleted.Resource},
	})

	logger.Info("Policy deleted successfully", zap.String("policyID", policyID), zap.Int64("actorID", actor.ID))
	return nil
}

func (s *PolicyService) GetPolicy(ctx context.Context, actor model.Identity, policyID string) (*model.Policy, error) {
	if err := requireAdmin(actor, "get policy"); err != nil {
		return nil, err
	}
	policy, err := s.policyDAO.GetPolicy(ctx, policyID)
	if err != nil {
		if !errors.Is(err, echo_errors.ErrPolicyNotFound) {
			logger.Error("Error retrieving policy", zap.Error(err), zap.String("policyID", policyID))
		}
		return nil, err
	}
	return policy, nil
}

// ListPolicies returns every policy ordered by resource, then policy_id.
func (s *PolicyService) ListPolicies(ctx context.Context, actor model.Identity) ([]*model.Policy, error) {
	if err := requireAdmin(actor, "list policies"); err != nil {
		return nil, err
	}
	policies, err := s.policyDAO.ListPolicies(ctx)
	if err != nil {
		logger.Error("Error listing policies", zap.Error(err))
		return nil, err
	}
	return policies, nil
}

// ListPoliciesByResource returns the policies of one resource ordered by policy_id.
func (s *PolicyService) ListPoliciesByResource(ctx context.Context, actor model.Identity, resource string) ([]*model.Policy, error) {
	if err := requireAdmin(actor, "list policies by resource"); err != nil {
		return nil, err
	}
	policies, err := s.policyDAO.FindByResource(ctx, resource)
	if err != nil {
		logger.Error("Error listing policies by resource", zap.Error(err), zap.String("resource", resource))
		return nil, err
	}
	return policies, nil
}

// BulkCreatePolicies creates policies concurrently. Policies created before
// the first failure stay created; each one is audited on its own.
func (s *PolicyService) BulkCreatePolicies(ctx context.Context, actor model.Identity, policies []model.Policy) ([]*model.Policy, error) {
	if err := requireAdmin(actor, "bulk create policies"); err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkCreateConcurrency)
	created := make([]*model.Policy, len(policies))

	for i, policy := range policies {
		g.Go(func() error {
			p, err := s.CreatePolicy(gctx, actor, policy)
			if err != nil {
				return fmt.Errorf("policy %q: %w", policy.PolicyID, err)
			}
			created[i] = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Error in bulk create policies", zap.Error(err), zap.Int64("actorID", actor.ID))
		return nil, err
	}

	logger.Info("Bulk create policies completed", zap.Int("count", len(created)), zap.Int64("actorID", actor.ID))
	return created, nil
}

// auditChange records a policy mutation. A nil err is a success with the
// given reason; otherwise the error text is the reason.
func (s *PolicyService) auditChange(ctx context.Context, actor model.Identity, action, policyID string, err error, reason ...string) {
	entry := audit.AuditLog{
		UserID:    actor.ID,
		Username:  actor.Username,
		Action:    action,
		Resource:  "policy:" + policyID,
		Result:    audit.ResultSuccess,
		IPAddress: clientIP(ctx),
	}
	if err != nil {
		entry.Result = audit.ResultFailure
		entry.Reason = err.Error()
	} else if len(reason) > 0 {
		entry.Reason = reason[0]
	}
	s.auditService.Record(ctx, entry)
}

func (s *PolicyService) publish(ctx context.Context, change model.PolicyChange) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(ctx, util.EventPolicyChanged, change)
}

func requireAdmin(actor model.Identity, operation string) error {
	if actor.HasRole(model.RoleAdmin) {
		return nil
	}
	logger.Warn("Forbidden policy operation",
		zap.String("operation", operation),
		zap.Int64("actorID", actor.ID),
		zap.String("role", actor.Role))
	return fmt.Errorf("%w: %s requires the %s role", echo_errors.ErrForbidden, operation, model.RoleAdmin)
}
