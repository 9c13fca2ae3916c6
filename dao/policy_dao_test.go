package dao

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echo_errors "github.com/dev-mohitbeniwal/echo-portal/errors"
	"github.com/dev-mohitbeniwal/echo-portal/model"
	echo_neo4j "github.com/dev-mohitbeniwal/echo-portal/model/neo4j"
)

func TestPolicyPropsRoundTrip(t *testing.T) {
	created := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)
	policy := &model.Policy{
		PolicyID:    "salary-hr",
		Name:        "HR during business hours",
		Resource:    "employee_salary",
		Sensitivity: model.SensitivityHigh,
		AllowIf: model.AllowIf{
			Role:         []string{model.RoleHR, model.RoleAdmin},
			TimeRange:    "09:00-17:00",
			WeekdaysOnly: true,
		},
	}

	props, err := policyProps(policy, created, updated)
	require.NoError(t, err)
	assert.IsType(t, "", props["allow_if"])

	got, err := mapNodeToPolicy(neo4j.Node{Labels: []string{echo_neo4j.LabelPolicy}, Props: props})
	require.NoError(t, err)
	assert.Equal(t, policy.PolicyID, got.PolicyID)
	assert.Equal(t, policy.Name, got.Name)
	assert.Equal(t, policy.Resource, got.Resource)
	assert.Equal(t, policy.Sensitivity, got.Sensitivity)
	assert.Equal(t, policy.AllowIf, got.AllowIf)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.True(t, updated.Equal(got.UpdatedAt))
}

func TestMapPropsToPolicy_Invalid(t *testing.T) {
	cases := map[string]map[string]any{
		"MissingID":      {"name": "n", "resource": "r", "allow_if": `{"role":["HR"]}`},
		"MissingAllowIf": {"policy_id": "p", "name": "n", "resource": "r"},
		"BadAllowIf":     {"policy_id": "p", "name": "n", "resource": "r", "allow_if": "{"},
		"WrongType":      {"policy_id": int64(3), "name": "n", "resource": "r", "allow_if": "{}"},
	}
	for name, props := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := mapPropsToPolicy(props)
			assert.Error(t, err)
		})
	}
}

func TestTranslateNeo4jError(t *testing.T) {
	wrapped := fmt.Errorf("failed to execute write transaction: %w", echo_errors.ErrPolicyNotFound)
	assert.ErrorIs(t, translateNeo4jError(wrapped), echo_errors.ErrPolicyNotFound)

	constraint := &neo4j.Neo4jError{Code: constraintViolation, Msg: "already exists"}
	assert.Equal(t, echo_errors.ErrPolicyConflict, translateNeo4jError(fmt.Errorf("tx: %w", constraint)))

	assert.ErrorIs(t, translateNeo4jError(errors.New("connection refused")), echo_errors.ErrDatabaseOperation)
}
