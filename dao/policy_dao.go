// dao/policy_dao.go
package dao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/dev-mohitbeniwal/echo-portal/db"
	echo_errors "github.com/dev-mohitbeniwal/echo-portal/errors"
	logger "github.com/dev-mohitbeniwal/echo-portal/logging"
	"github.com/dev-mohitbeniwal/echo-portal/model"
	echo_neo4j "github.com/dev-mohitbeniwal/echo-portal/model/neo4j"
)

const constraintViolation = "Neo.ClientError.Schema.ConstraintValidationFailed"

// PolicyDAO stores policies as POLICY nodes. allow_if is kept as a JSON
// string property so the rule set round-trips unchanged.
type PolicyDAO struct {
	Driver neo4j.DriverWithContext
}

func NewPolicyDAO(driver neo4j.DriverWithContext) *PolicyDAO {
	return &PolicyDAO{Driver: driver}
}

// EnsureSchema creates the policy_id uniqueness constraint and the resource
// index used by FindByResource.
func (dao *PolicyDAO) EnsureSchema(ctx context.Context) error {
	logger.Info("Ensuring policy schema")
	statements := []string{
		`CREATE CONSTRAINT unique_policy_id IF NOT EXISTS
		 FOR (p:` + echo_neo4j.LabelPolicy + `) REQUIRE p.policy_id IS UNIQUE`,
		`CREATE INDEX policy_resource IF NOT EXISTS
		 FOR (p:` + echo_neo4j.LabelPolicy + `) ON (p.resource)`,
	}
	_, err := db.ExecuteWrite(ctx, dao.Driver, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, stmt := range statements {
			if _, err := tx.Run(ctx, stmt, nil); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to ensure policy schema", zap.Error(err))
		return err
	}
	logger.Info("Successfully ensured policy schema")
	return nil
}

// CreatePolicy inserts a new policy. An existing policy_id yields ErrPolicyConflict.
func (dao *PolicyDAO) CreatePolicy(ctx context.Context, policy *model.Policy) (*model.Policy, error) {
	start := time.Now()
	logger.Info("Creating new policy", zap.String("policyID", policy.PolicyID))

	now := time.Now().UTC()
	props, err := policyProps(policy, now, now)
	if err != nil {
		return nil, err
	}

	result, err := db.ExecuteWrite(ctx, dao.Driver, func(tx neo4j.ManagedTransaction) (any, error) {
		check, err := tx.Run(ctx, `MATCH (p:` + echo_neo4j.LabelPolicy + ` {policy_id: $id}) RETURN p.policy_id`,
			map[string]any{"id": policy.PolicyID})
		if err != nil {
			return nil, err
		}
		if check.Next(ctx) {
			return nil, echo_errors.ErrPolicyConflict
		}

		res, err := tx.Run(ctx, `CREATE (p:` + echo_neo4j.LabelPolicy + `) SET p = $props RETURN p`,
			map[string]any{"props": props})
		if err != nil {
			return nil, err
		}
		if res.Next(ctx) {
			return mapNodeToPolicy(res.Record().Values[0].(neo4j.Node))
		}
		return nil, echo_errors.ErrInternalServer
	})

	duration := time.Since(start)
	if err != nil {
		err = translateNeo4jError(err)
		logger.Error("Failed to create policy",
			zap.Error(err),
			zap.String("policyID", policy.PolicyID),
			zap.Duration("duration", duration))
		return nil, err
	}

	logger.Info("Policy created successfully",
		zap.String("policyID", policy.PolicyID),
		zap.Duration("duration", duration))
	return result.(*model.Policy), nil
}

// UpdatePolicy replaces every field of an existing policy except created_at.
// Concurrent updates are last-write-wins.
func (dao *PolicyDAO) UpdatePolicy(ctx context.Context, policy *model.Policy) (*model.Policy, error) {
	start := time.Now()
	logger.Info("Updating policy", zap.String("policyID", policy.PolicyID))

	props, err := policyProps(policy, time.Time{}, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	delete(props, "created_at")

	result, err := db.ExecuteWrite(ctx, dao.Driver, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (p:` + echo_neo4j.LabelPolicy + ` {policy_id: $id})
			SET p += $props
			RETURN p`,
			map[string]any{"id": policy.PolicyID, "props": props})
		if err != nil {
			return nil, err
		}
		if res.Next(ctx) {
			return mapNodeToPolicy(res.Record().Values[0].(neo4j.Node))
		}
		return nil, echo_errors.ErrPolicyNotFound
	})

	duration := time.Since(start)
	if err != nil {
		err = translateNeo4jError(err)
		logger.Error("Failed to update policy",
			zap.Error(err),
			zap.String("policyID", policy.PolicyID),
			zap.Duration("duration", duration))
		return nil, err
	}

	logger.Info("Policy updated successfully",
		zap.String("policyID", policy.PolicyID),
		zap.Duration("duration", duration))
	return result.(*model.Policy), nil
}

// DeletePolicy removes a policy and returns what was removed.
func (dao *PolicyDAO) DeletePolicy(ctx context.Context, policyID string) (*model.Policy, error) {
	start := time.Now()
	logger.Info("Deleting policy", zap.String("policyID", policyID))

	result, err := db.ExecuteWrite(ctx, dao.Driver, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (p:` + echo_neo4j.LabelPolicy + ` {policy_id: $id})
			WITH p, properties(p) AS props
			DETACH DELETE p
			RETURN props`,
			map[string]any{"id": policyID})
		if err != nil {
			return nil, err
		}
		if res.Next(ctx) {
			props, _ := res.Record().Values[0].(map[string]any)
			return mapPropsToPolicy(props)
		}
		return nil, echo_errors.ErrPolicyNotFound
	})

	duration := time.Since(start)
	if err != nil {
		err = translateNeo4jError(err)
		logger.Error("Failed to delete policy",
			zap.Error(err),
			zap.String("policyID", policyID),
			zap.Duration("duration", duration))
		return nil, err
	}

	logger.Info("Policy deleted successfully",
		zap.String("policyID", policyID),
		zap.Duration("duration", duration))
	return result.(*model.Policy), nil
}

// GetPolicy retrieves a policy by its policy_id
func (dao *PolicyDAO) GetPolicy(ctx context.Context, policyID string) (*model.Policy, error) {
	start := time.Now()
	result, err := db.ExecuteRead(ctx, dao.Driver, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (p:` + echo_neo4j.LabelPolicy + ` {policy_id: $id}) RETURN p`,
			map[string]any{"id": policyID})
		if err != nil {
			return nil, err
		}
		if res.Next(ctx) {
			return mapNodeToPolicy(res.Record().Values[0].(neo4j.Node))
		}
		return nil, echo_errors.ErrPolicyNotFound
	})

	duration := time.Since(start)
	if err != nil {
		err = translateNeo4jError(err)
		if errors.Is(err, echo_errors.ErrPolicyNotFound) {
			logger.Warn("Policy not found",
				zap.String("policyID", policyID),
				zap.Duration("duration", duration))
		} else {
			logger.Error("Failed to retrieve policy",
				zap.Error(err),
				zap.String("policyID", policyID),
				zap.Duration("duration", duration))
		}
		return nil, err
	}

	logger.Debug("Policy retrieved successfully",
		zap.String("policyID", policyID),
		zap.Duration("duration", duration))
	return result.(*model.Policy), nil
}

// ListPolicies returns every policy ordered by resource, then policy_id.
func (dao *PolicyDAO) ListPolicies(ctx context.Context) ([]*model.Policy, error) {
	return dao.queryPolicies(ctx, "list",
		`MATCH (p:` + echo_neo4j.LabelPolicy + `) RETURN p ORDER BY p.resource, p.policy_id`, nil)
}

// FindByResource returns the policies of one resource ordered by policy_id.
func (dao *PolicyDAO) FindByResource(ctx context.Context, resource string) ([]*model.Policy, error) {
	return dao.queryPolicies(ctx, "findByResource",
		`MATCH (p:` + echo_neo4j.LabelPolicy + ` {resource: $resource}) RETURN p ORDER BY p.policy_id`,
		map[string]any{"resource": resource})
}

func (dao *PolicyDAO) queryPolicies(ctx context.Context, op, query string, params map[string]any) ([]*model.Policy, error) {
	start := time.Now()
	result, err := db.ExecuteRead(ctx, dao.Driver, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		policies := []*model.Policy{}
		for res.Next(ctx) {
			policy, err := mapNodeToPolicy(res.Record().Values[0].(neo4j.Node))
			if err != nil {
				return nil, err
			}
			policies = append(policies, policy)
		}
		return policies, res.Err()
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to query policies",
			zap.String("op", op),
			zap.Error(err),
			zap.Any("params", params),
			zap.Duration("duration", duration))
		return nil, fmt.Errorf("%w: %v", echo_errors.ErrStorageUnavailable, err)
	}

	policies := result.([]*model.Policy)
	logger.Debug("Policies queried successfully",
		zap.String("op", op),
		zap.Int("count", len(policies)),
		zap.Duration("duration", duration))
	return policies, nil
}

// translateNeo4jError keeps domain sentinels and maps everything else to
// ErrDatabaseOperation or ErrPolicyConflict.
func translateNeo4jError(err error) error {
	switch {
	case errors.Is(err, echo_errors.ErrPolicyConflict),
		errors.Is(err, echo_errors.ErrPolicyNotFound),
		errors.Is(err, echo_errors.ErrInvalidPolicyData):
		return err
	}
	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) && neoErr.Code == constraintViolation {
		return echo_errors.ErrPolicyConflict
	}
	return fmt.Errorf("%w: %v", echo_errors.ErrDatabaseOperation, err)
}

func policyProps(policy *model.Policy, createdAt, updatedAt time.Time) (map[string]any, error) {
	allowIf, err := json.Marshal(policy.AllowIf)
	if err != nil {
		return nil, fmt.Errorf("%w: allow_if: %v", echo_errors.ErrInvalidPolicyData, err)
	}
	return map[string]any{
		"policy_id":   policy.PolicyID,
		"name":        policy.Name,
		"resource":    policy.Resource,
		"sensitivity": string(policy.Sensitivity),
		"allow_if":    string(allowIf),
		"created_at":  createdAt.Format(time.RFC3339Nano),
		"updated_at":  updatedAt.Format(time.RFC3339Nano),
	}, nil
}

func mapNodeToPolicy(node neo4j.Node) (*model.Policy, error) {
	return mapPropsToPolicy(node.Props)
}

func mapPropsToPolicy(props map[string]any) (*model.Policy, error) {
	policy := &model.Policy{}

	id, ok := props["policy_id"].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("failed to assert type for policy_id: %v", props["policy_id"])
	}
	policy.PolicyID = id

	if policy.Name, ok = props["name"].(string); !ok {
		return nil, fmt.Errorf("failed to assert type for policy name: %v", props["name"])
	}
	if policy.Resource, ok = props["resource"].(string); !ok {
		return nil, fmt.Errorf("failed to assert type for policy resource: %v", props["resource"])
	}
	if sensitivity, ok := props["sensitivity"].(string); ok {
		policy.Sensitivity = model.Sensitivity(sensitivity)
	}

	allowIf, ok := props["allow_if"].(string)
	if !ok {
		return nil, fmt.Errorf("failed to assert type for policy allow_if: %v", props["allow_if"])
	}
	if err := json.Unmarshal([]byte(allowIf), &policy.AllowIf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal policy allow_if: %w", err)
	}

	policy.CreatedAt = parseTime(props["created_at"])
	policy.UpdatedAt = parseTime(props["updated_at"])
	return policy, nil
}

func parseTime(v any) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
