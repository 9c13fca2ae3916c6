// service/access_service.go
package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dev-mohitbeniwal/echo-portal/audit"
	logger "github.com/dev-mohitbeniwal/echo-portal/logging"
	"github.com/dev-mohitbeniwal/echo-portal/metrics"
	"github.com/dev-mohitbeniwal/echo-portal/model"
	pdp_model "github.com/dev-mohitbeniwal/echo-portal/pdp/model"
)

// Evaluator is implemented by engine.PolicyEvaluator.
type Evaluator interface {
	EvaluateAccess(ctx context.Context, identity model.Identity, resource string, actx pdp_model.AccessContext, purpose string) pdp_model.Decision
}

type IAccessService interface {
	EvaluateAccess(ctx context.Context, req pdp_model.AccessRequest) pdp_model.Decision
}

// AccessService runs the evaluator and writes one audit record per call.
type AccessService struct {
	evaluator    Evaluator
	auditService audit.Service
}

func NewAccessService(evaluator Evaluator, auditService audit.Service) *AccessService {
	return &AccessService{evaluator: evaluator, auditService: auditService}
}

// EvaluateAccess returns the decision for req. The audit record carries the
// evaluator's exact reason; callers decide what to show the requester.
func (s *AccessService) EvaluateAccess(ctx context.Context, req pdp_model.AccessRequest) pdp_model.Decision {
	start := time.Now()
	purpose := strings.TrimSpace(req.Purpose)
	decision := s.evaluator.EvaluateAccess(ctx, req.Identity, req.Resource, req.Context, purpose)
	metrics.EvaluationDuration.Observe(time.Since(start).Seconds())

	result := audit.ResultDenied
	if decision.Allowed {
		result = audit.ResultAllowed
	}
	metrics.AccessDecisions.WithLabelValues(result).Inc()

	s.auditService.Record(ctx, audit.AuditLog{
		UserID:    req.Identity.ID,
		Username:  req.Identity.Username,
		Action:    req.AuditAction(),
		Resource:  req.AuditResource(),
		Result:    result,
		Reason:    decision.Reason,
		IPAddress: req.Context.SourceAddress,
		Purpose:   purpose,
	})

	if !decision.Allowed {
		logger.Info("Access request denied",
			zap.Int64("userID", req.Identity.ID),
			zap.String("resource", req.AuditResource()),
			zap.String("reason", decision.Reason))
	}
	return decision
}
